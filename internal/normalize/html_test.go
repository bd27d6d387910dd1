package normalize

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHTML_TextExtraction(t *testing.T) {
	tests := []struct {
		name        string
		html        string
		want        string
		notContains []string
	}{
		{
			name: "scripts and styles are stripped",
			html: `<html><head><style>p{color:red}</style></head><body><script>evil()</script><p>hello</p><noscript>no js</noscript></body></html>`,
			want: "hello",
			notContains: []string{
				"evil", "color", "no js",
			},
		},
		{
			name: "br becomes newline",
			html: `<body><p>first<br>second</p></body>`,
			want: "first\nsecond",
		},
		{
			name: "block elements are padded",
			html: `<body><div>one</div><div>two</div></body>`,
			want: "one\n\ntwo",
		},
		{
			name: "en-note root is preferred over body",
			html: `<html><body>outside<en-note>inside</en-note></body></html>`,
			want: "inside",
		},
		{
			name: "excess blank lines collapse",
			html: `<body><div>a</div><div></div><div></div><div></div><div>b</div></body>`,
			want: "a\n\nb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note, err := FromHTML([]byte(tt.html), t.TempDir())
			require.NoError(t, err)
			assert.Equal(t, tt.want, note.Content)
			for _, s := range tt.notContains {
				assert.NotContains(t, note.Content, s)
			}
		})
	}
}

func TestFromHTML_Title(t *testing.T) {
	note, err := FromHTML([]byte(`<html><head><title>My page</title></head><body>text</body></html>`), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "My page", note.Title)
	assert.Equal(t, "plain", note.Format)

	note, err = FromHTML([]byte(`<body>untitled text</body>`), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "Imported note", note.Title)
}

func TestFromHTML_EmptyInput(t *testing.T) {
	_, err := FromHTML([]byte("   "), t.TempDir())
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestFromHTML_Images(t *testing.T) {
	dir := t.TempDir()
	pic := []byte("local picture bytes")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pic.png"), pic, 0o644))

	html := `<body>
		<img src="data:image/gif;base64,R0lGOD">
		<img src="https://example.com/remote.png">
		<img src="pic.png">
		<img src="missing.png">
	</body>`

	note, err := FromHTML([]byte(html), dir)
	require.NoError(t, err)

	// data-URI проходит как есть, удаленная пропускается, локальная
	// перекодируется, отсутствующая пропускается.
	require.Len(t, note.InlineImages, 2)
	assert.Equal(t, "data:image/gif;base64,R0lGOD", note.InlineImages[0])
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(pic), note.InlineImages[1])
}
