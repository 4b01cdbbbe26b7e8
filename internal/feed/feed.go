// Package feed provides the social post source consumed by the analysis
// step. The real feed is an external collaborator; this package ships a
// mock source that simulates it for the demo.
package feed

import (
	"context"

	"coinwhisperer/internal/domain"
)

// Source delivers a batch of unscored posts. Batch size and selection are
// non-deterministic; callers must handle duplicates across fetches.
type Source interface {
	Fetch(ctx context.Context) ([]domain.PostDraft, error)
}
