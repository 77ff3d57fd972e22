// Package video defines the external video-hosting port. Concrete bindings
// are injected at the orchestrator boundary; a nil uploader disables the
// upload step entirely.
package video

import (
	"context"
	"io"
)

// Uploader pushes recording content to external hosting.
type Uploader interface {
	// Upload streams content and returns the hosting-side video ID.
	Upload(ctx context.Context, content io.Reader, title, description string) (string, error)
	// AddToPlaylist files an uploaded video into a playlist.
	AddToPlaylist(ctx context.Context, videoID, playlistID string) error
}
