// Package playerpool defines the read-only gateway to the draftable player
// feed. The orchestration core never mutates the pool; it layers its own
// taken-set on top of whatever the gateway returns.
package playerpool

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// ErrNotFound is returned by Get when the player does not exist in the pool.
var ErrNotFound = errors.New("player not found")

// Gateway is the narrow contract the core consumes.
type Gateway interface {
	// ListAvailable returns draftable players, best rank first.
	ListAvailable(ctx context.Context) ([]models.Player, error)
	// Get returns one player or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (models.Player, error)
}
