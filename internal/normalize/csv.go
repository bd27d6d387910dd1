package normalize

import (
	"fmt"

	"github.com/BuzzLyutic/noteport/internal/model"
)

// FromCSV — точка расширения. Разбор CSV не реализован, вызывающий
// получает структурированную ошибку, а не падение.
func FromCSV(data []byte) (model.Snapshot, error) {
	return model.Snapshot{}, fmt.Errorf("%w: csv import", ErrNotImplemented)
}
