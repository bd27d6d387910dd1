package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/BuzzLyutic/noteport/internal/model"
)

// FromJSON разбирает снимок в родном формате экспорта: объект с
// опциональными массивами tasks и notes. Поле не того типа считается
// отсутствующим, а не ошибкой — формат нарочно терпимый.
func FromJSON(data []byte) (model.Snapshot, error) {
	var snap model.Snapshot
	if len(bytes.TrimSpace(data)) == 0 {
		return snap, ErrEmptyInput
	}

	var raw struct {
		Tasks json.RawMessage `json:"tasks"`
		Notes json.RawMessage `json:"notes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return snap, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	if err := json.Unmarshal(raw.Tasks, &snap.Tasks); err != nil {
		snap.Tasks = nil
	}
	if err := json.Unmarshal(raw.Notes, &snap.Notes); err != nil {
		snap.Notes = nil
	}

	// Неизвестный статус приводится к backlog, а не отвергается.
	for i := range snap.Tasks {
		if !model.ValidStatus(snap.Tasks[i].Status) {
			snap.Tasks[i].Status = model.StatusBacklog
		}
	}
	return snap, nil
}
