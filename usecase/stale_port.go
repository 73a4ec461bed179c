package usecase

import "context"

// StaleStatsMarker records users whose stats could not be recomputed after a
// committed task write, so a background pass can repair them.
type StaleStatsMarker interface {
	MarkStale(ctx context.Context, userID string, cause error) error
}
