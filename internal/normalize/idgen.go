package normalize

import (
	"sync/atomic"
	"time"
)

// Счетчик идентификаторов для записей, создаваемых нормализаторами.
// Засеян текущим временем, поэтому записи одной партии импорта не
// сталкиваются между собой еще до работы merge-движка.
var idCounter atomic.Int64

func init() {
	idCounter.Store(time.Now().Unix())
}

func nextID() int64 {
	return idCounter.Add(1)
}
