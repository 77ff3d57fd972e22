// Package drive defines the shared-storage port the file mover works
// against: listing the inbox, relocating items, reading content, and the
// per-item upload markers that prevent double video uploads.
package drive

import (
	"context"
	"io"
	"time"

	"sigherald/internal/model"
)

// UploadMarker records that an item's content has already been pushed to
// external video hosting. Checked before every upload attempt; written once
// at upload success and never removed.
type UploadMarker struct {
	Uploaded   bool      `json:"uploaded"`
	VideoID    string    `json:"video_id"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Drive is the storage collaborator. Items live in a single shared inbox
// until the mover relocates them to a destination folder.
type Drive interface {
	// ListSourceItems returns the live inbox listing.
	ListSourceItems(ctx context.Context) ([]model.SourceItem, error)

	// MoveItem places the item into the destination folder.
	// RemoveFromCurrentLocations detaches it from every current parent;
	// the two are used together to relocate an item on backends where an
	// item can have several parents.
	MoveItem(ctx context.Context, id, folderID string) error
	RemoveFromCurrentLocations(ctx context.Context, id string) error

	// ReadItemContent opens the item's binary content for upload.
	ReadItemContent(ctx context.Context, id string) (io.ReadCloser, error)

	GetUploadMarker(ctx context.Context, id string) (UploadMarker, error)
	SetUploadMarker(ctx context.Context, id, videoID string, at time.Time) error
}
