package normalize

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/BuzzLyutic/noteport/internal/model"
)

// FromHTML превращает HTML-документ в одну заметку с плоским текстом.
// baseDir — каталог исходного файла, относительно него разрешаются
// локальные пути картинок.
func FromHTML(data []byte, baseDir string) (model.Note, error) {
	var zero model.Note
	if len(bytes.TrimSpace(data)) == 0 {
		return zero, ErrEmptyInput
	}

	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	// en-note — корневой элемент содержимого, если документ пришел из
	// блокнота; иначе body, иначе весь документ.
	content := root
	if n := findElement(root, "en-note"); n != nil {
		content = n
	} else if n := findElement(root, "body"); n != nil {
		content = n
	}

	var sb strings.Builder
	if err := renderText(content, &sb, nil); err != nil {
		return zero, err
	}

	title := ""
	if t := findElement(root, "title"); t != nil && t.FirstChild != nil {
		title = strings.TrimSpace(t.FirstChild.Data)
	}
	if title == "" {
		title = "Imported note"
	}

	now := time.Now()
	return model.Note{
		ID:           nextID(),
		Title:        title,
		Content:      collapseNewlines(sb.String()),
		Format:       model.FormatPlain,
		InlineImages: extractImages(root, baseDir),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// extractImages собирает картинки документа: data-URI проходят как есть,
// удаленные URL не скачиваются, локальные пути читаются и кодируются в
// data-URI. Отсутствующий файл — пропуск, а не ошибка всего импорта.
func extractImages(root *html.Node, baseDir string) []string {
	var images []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "img") {
			if img := resolveImage(attrValue(n, "src"), baseDir); img != "" {
				images = append(images, img)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return images
}

func resolveImage(src, baseDir string) string {
	switch {
	case src == "":
		return ""
	case strings.HasPrefix(src, "data:"):
		return src
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"), strings.HasPrefix(src, "//"):
		return "" // удаленные картинки не скачиваем
	}

	p := src
	if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, p)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return ""
	}
	mt := mime.TypeByExtension(filepath.Ext(p))
	if mt == "" {
		mt = "application/octet-stream"
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data)
}
