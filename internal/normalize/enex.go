package normalize

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/BuzzLyutic/noteport/internal/blobstore"
	"github.com/BuzzLyutic/noteport/internal/digest"
	"github.com/BuzzLyutic/noteport/internal/model"
)

const enexTimeLayout = "20060102T150405Z"

type enexExport struct {
	XMLName xml.Name   `xml:"en-export"`
	Notes   []enexNote `xml:"note"`
}

type enexNote struct {
	Title     string         `xml:"title"`
	Content   string         `xml:"content"`
	Created   string         `xml:"created"`
	Updated   string         `xml:"updated"`
	Resources []enexResource `xml:"resource"`
}

type enexResource struct {
	Data       enexData `xml:"data"`
	Mime       string   `xml:"mime"`
	Hash       string   `xml:"hash"` // опциональный дайджест из самого экспорта
	Attributes struct {
		FileName string `xml:"file-name"`
	} `xml:"resource-attributes"`
}

type enexData struct {
	Encoding string `xml:"encoding,attr"`
	Value    string `xml:",chardata"`
}

// FromENEX разбирает проприетарный экспорт блокнота. Ошибка любой записи
// отменяет импорт целиком — половины заметок из полуразобранного экспорта
// не бывает.
func FromENEX(data []byte, blobs blobstore.Sink) ([]model.Note, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyInput
	}

	var export enexExport
	if err := xml.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if len(export.Notes) == 0 {
		return nil, ErrNoRecords
	}

	notes := make([]model.Note, 0, len(export.Notes))
	for _, src := range export.Notes {
		note, err := convertNote(src, blobs)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, nil
}

type decodedResource struct {
	res  enexResource
	data []byte
	hash string
}

func convertNote(src enexNote, blobs blobstore.Sink) (model.Note, error) {
	var zero model.Note
	title := strings.TrimSpace(src.Title)
	if title == "" {
		title = "Untitled"
	}

	// Сначала декодируем ресурсы и считаем дайджесты, на диск пока ничего
	// не пишем: битый ресурс или висячая ссылка в теле должны сорвать
	// запись до первого блоба.
	resources := make([]decodedResource, 0, len(src.Resources))
	known := make(map[string]bool, len(src.Resources))
	for _, r := range src.Resources {
		raw, err := blobstore.DecodeBase64(r.Data.Value)
		if err != nil {
			return zero, fmt.Errorf("note %q: %w", title, err)
		}
		sum := digest.Hex(raw)
		if declared := strings.ToLower(strings.TrimSpace(r.Hash)); declared != "" && declared != sum {
			return zero, fmt.Errorf("%w: note %q: declared resource hash %s does not match content",
				ErrMalformedRecord, title, declared)
		}
		resources = append(resources, decodedResource{res: r, data: raw, hash: sum})
		known[sum] = true
	}

	root, err := html.Parse(strings.NewReader(src.Content))
	if err != nil {
		return zero, fmt.Errorf("%w: note %q: %v", ErrMalformedRecord, title, err)
	}
	for _, h := range collectMediaHashes(root) {
		if !known[h] {
			return zero, fmt.Errorf("%w: note %q: hash %s", ErrDanglingReference, title, h)
		}
	}

	noteID := nextID()
	now := time.Now()

	locators := make(map[string]string, len(resources))
	attachments := make([]model.Attachment, 0, len(resources))
	for _, d := range resources {
		loc, err := blobs.Save(d.data, d.res.Mime, d.res.Attributes.FileName)
		if err != nil {
			return zero, fmt.Errorf("note %q: %w", title, err)
		}
		locators[d.hash] = loc

		name := d.res.Attributes.FileName
		if name == "" {
			name = path.Base(loc)
		}
		kind := model.AttachmentFile
		if strings.HasPrefix(d.res.Mime, "image/") {
			kind = model.AttachmentImage
		}
		attachments = append(attachments, model.Attachment{
			ID:        uuid.NewString(),
			NoteID:    noteID,
			Kind:      kind,
			URL:       loc,
			Name:      name,
			Size:      int64(len(d.data)),
			MediaType: d.res.Mime,
			CreatedAt: now,
		})
	}

	var sb strings.Builder
	if err := renderText(root, &sb, func(hash string) (string, error) {
		loc, ok := locators[hash]
		if !ok {
			return "", fmt.Errorf("%w: note %q: hash %s", ErrDanglingReference, title, hash)
		}
		return fmt.Sprintf("![](%s)", loc), nil
	}); err != nil {
		return zero, err
	}

	content := collapseNewlines("# " + title + "\n\n" + sb.String())

	return model.Note{
		ID:          noteID,
		Title:       title,
		Content:     content,
		Format:      model.FormatMarkdown,
		Attachments: attachments,
		CreatedAt:   parseENEXTime(src.Created, now),
		UpdatedAt:   parseENEXTime(src.Updated, now),
	}, nil
}

func parseENEXTime(s string, fallback time.Time) time.Time {
	t, err := time.Parse(enexTimeLayout, strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return t
}
