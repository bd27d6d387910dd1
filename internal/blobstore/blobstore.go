package blobstore

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/noteport/internal/digest"
)

var (
	ErrDecode = errors.New("attachment decode error")
)

// Sink принимает байты вложения и возвращает локатор. Реальная реализация —
// Store, для preview используется Null (ничего не пишет).
type Sink interface {
	Save(data []byte, mediaType, suggestedName string) (string, error)
}

// Store складывает блобы под именем <sha256><ext> в поддеревья images/ и
// files/. Запись пропускается, если файл уже существует — одинаковые байты
// всегда дают один и тот же файл.
type Store struct {
	root   string
	logger *zap.Logger
}

func New(root string, logger *zap.Logger) (*Store, error) {
	for _, area := range []string{"images", "files"} {
		if err := os.MkdirAll(filepath.Join(root, area), 0o755); err != nil {
			return nil, fmt.Errorf("create blob dir: %w", err)
		}
	}
	return &Store{root: root, logger: logger}, nil
}

func (s *Store) Save(data []byte, mediaType, suggestedName string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty payload", ErrDecode)
	}

	name := digest.Hex(data) + ResolveExt(suggestedName, mediaType)
	path := filepath.Join(s.root, area(mediaType), name)

	if _, err := os.Stat(path); err == nil { // такой блоб уже есть
		return Locator(path), nil
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	s.logger.Debug("blob stored",
		zap.String("name", name),
		zap.String("media_type", mediaType),
		zap.Int("size", len(data)),
	)
	return Locator(path), nil
}

// Resolve читает байты по локатору, выданному Save.
func (s *Store) Resolve(locator string) ([]byte, error) {
	path := strings.TrimPrefix(locator, "file://")
	if !strings.HasPrefix(filepath.Clean(path), filepath.Clean(s.root)) {
		return nil, fmt.Errorf("locator outside blob root: %s", locator)
	}
	return os.ReadFile(path)
}

func (s *Store) Root() string { return s.root }

// Null считает имена, но ничего не записывает. Для режима preview.
type Null struct{}

func (Null) Save(data []byte, mediaType, suggestedName string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty payload", ErrDecode)
	}
	return "null://" + area(mediaType) + "/" + digest.Hex(data) + ResolveExt(suggestedName, mediaType), nil
}

// DecodeBase64 строго декодирует полезную нагрузку вложения. Пустой или
// битый base64 — это ErrDecode, до записи на диск дело не доходит.
func DecodeBase64(encoded string) ([]byte, error) {
	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, encoded)

	if compact == "" {
		return nil, fmt.Errorf("%w: empty base64 payload", ErrDecode)
	}
	data, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty base64 payload", ErrDecode)
	}
	return data, nil
}

func Locator(path string) string {
	return "file://" + filepath.ToSlash(path)
}

func area(mediaType string) string {
	if strings.HasPrefix(mediaType, "image/") {
		return "images"
	}
	return "files"
}

var extByMediaType = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/svg+xml":   ".svg",
	"image/bmp":       ".bmp",
	"application/pdf": ".pdf",
	"text/plain":      ".txt",
	"text/html":       ".html",
	"audio/mpeg":      ".mp3",
	"application/zip": ".zip",
}

// ResolveExt: сначала расширение из предложенного имени (если оно безопасно),
// потом таблица по media type, иначе пусто.
func ResolveExt(suggestedName, mediaType string) string {
	if ext := filepath.Ext(suggestedName); isSafeExt(ext) {
		return strings.ToLower(ext)
	}
	if ext, ok := extByMediaType[mediaType]; ok {
		return ext
	}
	return ""
}

func isSafeExt(ext string) bool {
	if len(ext) < 2 || ext[0] != '.' {
		return false
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
