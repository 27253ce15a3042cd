package engine

import (
	"time"

	"github.com/intervaldb/intervaldb/internal/model"
)

// wallNow returns the current wall-clock time in milliseconds since the
// Unix epoch, the default clock for every Engine (tests override it through
// Engine.now).
func wallNow() model.Time {
	return model.Time(time.Now().UnixMilli())
}
