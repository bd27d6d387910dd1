package normalize

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/noteport/internal/blobstore"
	"github.com/BuzzLyutic/noteport/internal/digest"
)

func newBlobStore(t *testing.T) (*blobstore.Store, string) {
	t.Helper()
	root := t.TempDir()
	s, err := blobstore.New(root, zap.NewNop())
	require.NoError(t, err)
	return s, root
}

func enexDoc(notes ...string) []byte {
	return []byte(`<?xml version="1.0" encoding="UTF-8"?><en-export>` + strings.Join(notes, "") + `</en-export>`)
}

func TestFromENEX_NoteWithImageResource(t *testing.T) {
	blobs, root := newBlobStore(t)

	png := []byte("\x89PNG-fake-image-payload")
	sum := digest.Hex(png)
	doc := enexDoc(fmt.Sprintf(`<note>
		<title>With image</title>
		<content><![CDATA[<en-note><div>see picture</div><en-media hash="%s" type="image/png"/></en-note>]]></content>
		<created>20230105T101500Z</created>
		<resource>
			<data encoding="base64">%s</data>
			<mime>image/png</mime>
		</resource>
	</note>`, sum, base64.StdEncoding.EncodeToString(png)))

	notes, err := FromENEX(doc, blobs)
	require.NoError(t, err)
	require.Len(t, notes, 1)

	n := notes[0]
	assert.True(t, strings.HasPrefix(n.Content, "# With image"), "title must become a heading: %q", n.Content)
	assert.Contains(t, n.Content, "![](file://")
	assert.Contains(t, n.Content, "/images/"+sum+".png")
	assert.Contains(t, n.Content, "see picture")
	assert.Equal(t, time.Date(2023, 1, 5, 10, 15, 0, 0, time.UTC), n.CreatedAt)

	// Ровно один файл <sha256>.png в поддереве images.
	entries, err := os.ReadDir(filepath.Join(root, "images"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, sum+".png", entries[0].Name())

	require.Len(t, n.Attachments, 1)
	a := n.Attachments[0]
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, n.ID, a.NoteID)
	assert.Equal(t, "image", a.Kind)
	assert.Equal(t, "image/png", a.MediaType)
	assert.Equal(t, int64(len(png)), a.Size)
}

func TestFromENEX_ResourceFileName(t *testing.T) {
	blobs, root := newBlobStore(t)

	payload := []byte("plain attachment")
	doc := enexDoc(fmt.Sprintf(`<note>
		<title>Attached</title>
		<content><![CDATA[<en-note>text</en-note>]]></content>
		<resource>
			<data encoding="base64">%s</data>
			<mime>application/octet-stream</mime>
			<resource-attributes><file-name>notes.txt</file-name></resource-attributes>
		</resource>
	</note>`, base64.StdEncoding.EncodeToString(payload)))

	notes, err := FromENEX(doc, blobs)
	require.NoError(t, err)
	require.Len(t, notes[0].Attachments, 1)
	assert.Equal(t, "notes.txt", notes[0].Attachments[0].Name)
	assert.Equal(t, "file", notes[0].Attachments[0].Kind)

	entries, err := os.ReadDir(filepath.Join(root, "files"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, digest.Hex(payload)+".txt", entries[0].Name())
}

func TestFromENEX_EmptyInput(t *testing.T) {
	blobs, _ := newBlobStore(t)

	_, err := FromENEX([]byte("  \n"), blobs)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestFromENEX_NoNotes(t *testing.T) {
	blobs, _ := newBlobStore(t)

	_, err := FromENEX(enexDoc(), blobs)
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestFromENEX_Malformed(t *testing.T) {
	blobs, _ := newBlobStore(t)

	_, err := FromENEX([]byte("<en-export><note>"), blobs)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestFromENEX_DanglingMediaReference(t *testing.T) {
	blobs, root := newBlobStore(t)

	payload := []byte("present resource")
	doc := enexDoc(fmt.Sprintf(`<note>
		<title>Broken</title>
		<content><![CDATA[<en-note><en-media hash="%s" type="image/png"/></en-note>]]></content>
		<resource>
			<data encoding="base64">%s</data>
			<mime>image/png</mime>
		</resource>
	</note>`, strings.Repeat("ab", 32), base64.StdEncoding.EncodeToString(payload)))

	_, err := FromENEX(doc, blobs)
	assert.ErrorIs(t, err, ErrDanglingReference)

	// Висячая ссылка срывает запись до первого блоба.
	for _, area := range []string{"images", "files"} {
		entries, err := os.ReadDir(filepath.Join(root, area))
		require.NoError(t, err)
		assert.Empty(t, entries, "no blobs may be written for area %s", area)
	}
}

func TestFromENEX_DeclaredHash(t *testing.T) {
	payload := []byte("declared-hash resource")
	sum := digest.Hex(payload)

	docWithHash := func(declared string) []byte {
		return enexDoc(fmt.Sprintf(`<note>
			<title>Declared</title>
			<content><![CDATA[<en-note><en-media hash="%s" type="image/png"/></en-note>]]></content>
			<resource>
				<data encoding="base64">%s</data>
				<mime>image/png</mime>
				<hash>%s</hash>
			</resource>
		</note>`, sum, base64.StdEncoding.EncodeToString(payload), declared))
	}

	t.Run("matching declared hash", func(t *testing.T) {
		blobs, _ := newBlobStore(t)
		notes, err := FromENEX(docWithHash(sum), blobs)
		require.NoError(t, err)
		assert.Contains(t, notes[0].Content, sum)
	})

	t.Run("mismatching declared hash", func(t *testing.T) {
		blobs, root := newBlobStore(t)
		_, err := FromENEX(docWithHash(strings.Repeat("00", 32)), blobs)
		assert.ErrorIs(t, err, ErrMalformedRecord)

		entries, readErr := os.ReadDir(filepath.Join(root, "images"))
		require.NoError(t, readErr)
		assert.Empty(t, entries)
	})
}

func TestFromENEX_InvalidResourcePayload(t *testing.T) {
	blobs, _ := newBlobStore(t)

	tests := []struct {
		name string
		data string
	}{
		{"empty payload", ""},
		{"broken base64", "!!not-base64!!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := enexDoc(fmt.Sprintf(`<note>
				<title>Bad resource</title>
				<content><![CDATA[<en-note>text</en-note>]]></content>
				<resource><data encoding="base64">%s</data><mime>image/png</mime></resource>
			</note>`, tt.data))

			_, err := FromENEX(doc, blobs)
			assert.ErrorIs(t, err, blobstore.ErrDecode)
		})
	}
}

func TestFromENEX_ContentFormatting(t *testing.T) {
	blobs, _ := newBlobStore(t)

	doc := enexDoc(`<note>
		<title>Formatting</title>
		<content><![CDATA[<en-note><div>first</div><div></div><div></div><div>second<br/>third</div></en-note>]]></content>
	</note>`)

	notes, err := FromENEX(doc, blobs)
	require.NoError(t, err)

	content := notes[0].Content
	assert.NotContains(t, content, "\n\n\n", "3+ newlines must collapse to 2")
	assert.Contains(t, content, "first")
	assert.Contains(t, content, "second\nthird")
	assert.Equal(t, content, strings.TrimSpace(content))
	assert.Equal(t, "markdown", notes[0].Format)
}

func TestFromENEX_BatchIDsAreDistinct(t *testing.T) {
	blobs, _ := newBlobStore(t)

	doc := enexDoc(
		`<note><title>One</title><content><![CDATA[<en-note>a</en-note>]]></content></note>`,
		`<note><title>Two</title><content><![CDATA[<en-note>b</en-note>]]></content></note>`,
		`<note><title>Three</title><content><![CDATA[<en-note>c</en-note>]]></content></note>`,
	)

	notes, err := FromENEX(doc, blobs)
	require.NoError(t, err)
	require.Len(t, notes, 3)

	seen := make(map[int64]bool)
	for _, n := range notes {
		assert.False(t, seen[n.ID], "id %d issued twice within one batch", n.ID)
		seen[n.ID] = true
	}
}
