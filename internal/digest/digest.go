package digest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hex возвращает hex-представление SHA-256 от данных. Этим же значением
// именуются блобы и сверяются ссылки на ресурсы внутри импорта.
func Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
