package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/noteport/internal/model"
)

func TestFromJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTasks int
		wantNotes int
		wantErr   error
	}{
		{
			name:      "both arrays present",
			input:     `{"tasks":[{"id":1,"title":"t","status":"backlog"}],"notes":[{"id":2,"title":"n"},{"id":3,"title":"m"}]}`,
			wantTasks: 1,
			wantNotes: 2,
		},
		{
			name:      "missing fields are empty lists",
			input:     `{}`,
			wantTasks: 0,
			wantNotes: 0,
		},
		{
			name:      "non-array fields are treated as absent",
			input:     `{"tasks":"nope","notes":{"id":1}}`,
			wantTasks: 0,
			wantNotes: 0,
		},
		{
			name:    "not json at all",
			input:   `perfectly not json`,
			wantErr: ErrMalformedRecord,
		},
		{
			name:    "empty input",
			input:   "   ",
			wantErr: ErrEmptyInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := FromJSON([]byte(tt.input))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, snap.Tasks, tt.wantTasks)
			assert.Len(t, snap.Notes, tt.wantNotes)
		})
	}
}

func TestFromJSON_StatusCanonicalized(t *testing.T) {
	snap, err := FromJSON([]byte(`{"tasks":[{"id":1,"title":"t","status":"pending"},{"id":2,"title":"u","status":"done"}]}`))
	require.NoError(t, err)
	assert.Equal(t, model.StatusBacklog, snap.Tasks[0].Status)
	assert.Equal(t, model.StatusDone, snap.Tasks[1].Status)
}

func TestFromJSON_RoundTrip(t *testing.T) {
	noteID := int64(7)
	orig := model.Snapshot{
		Tasks: []model.Task{{ID: 1, Title: "linked", Status: model.StatusToday, Priority: 3, LinkedNoteID: &noteID}},
		Notes: []model.Note{{ID: 7, Title: "note", Content: "body", Format: model.FormatMarkdown, LinkedTaskIDs: []int64{1}, Tags: []string{"a", "b"}}},
	}

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	got, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, orig.Tasks, got.Tasks)
	assert.Equal(t, orig.Notes, got.Notes)
}

func TestFromCSV_NotImplemented(t *testing.T) {
	_, err := FromCSV([]byte("id,title\n1,task"))
	assert.ErrorIs(t, err, ErrNotImplemented)
}
