// internal/domain/progress/repository.go
package progress

import (
	"context"
	"fmt"
)

// ErrDataUnavailable is returned when the progress log is missing, empty or malformed.
var ErrDataUnavailable = fmt.Errorf("progress data unavailable")

// Repository loads the progress log. Implementations only ever read.
type Repository interface {
	// Load returns the full log sorted by date. The returned record has at least one entry.
	Load(ctx context.Context) (Record, error)
}
