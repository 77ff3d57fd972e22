package drive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"time"

	"sigherald/internal/model"
)

// LocalDrive implements Drive over a local directory tree:
//
//	<root>/inbox/        the shared drop folder
//	<root>/<folderID>/   destination folders
//	<root>/.markers/     sidecar upload-marker files
//
// Item IDs are inbox file names. On a plain filesystem an item has exactly
// one parent, so RemoveFromCurrentLocations is a no-op and MoveItem is a
// rename.
type LocalDrive struct {
	root string
}

func NewLocalDrive(root string) (*LocalDrive, error) {
	if root == "" {
		return nil, errors.New("drive: root is empty")
	}
	for _, dir := range []string{
		filepath.Join(root, "inbox"),
		filepath.Join(root, ".markers"),
	} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}
	return &LocalDrive{root: root}, nil
}

func (d *LocalDrive) ListSourceItems(_ context.Context) ([]model.SourceItem, error) {
	entries, err := os.ReadDir(filepath.Join(d.root, "inbox"))
	if err != nil {
		return nil, err
	}

	items := make([]model.SourceItem, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		items = append(items, model.SourceItem{
			ID:          e.Name(),
			Name:        e.Name(),
			ContentType: mime.TypeByExtension(filepath.Ext(e.Name())),
		})
	}
	return items, nil
}

func (d *LocalDrive) MoveItem(_ context.Context, id, folderID string) error {
	dest := filepath.Join(d.root, folderID)
	if err := os.MkdirAll(dest, 0o700); err != nil {
		return err
	}
	return os.Rename(filepath.Join(d.root, "inbox", id), filepath.Join(dest, id))
}

func (d *LocalDrive) RemoveFromCurrentLocations(_ context.Context, _ string) error {
	// A filesystem item has a single parent; the rename in MoveItem already
	// detaches it.
	return nil
}

func (d *LocalDrive) ReadItemContent(_ context.Context, id string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(d.root, "inbox", id))
}

func (d *LocalDrive) GetUploadMarker(_ context.Context, id string) (UploadMarker, error) {
	var marker UploadMarker
	data, err := os.ReadFile(d.markerPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return UploadMarker{}, nil
		}
		return UploadMarker{}, err
	}
	if err := json.Unmarshal(data, &marker); err != nil {
		return UploadMarker{}, err
	}
	return marker, nil
}

func (d *LocalDrive) SetUploadMarker(_ context.Context, id, videoID string, at time.Time) error {
	marker := UploadMarker{Uploaded: true, VideoID: videoID, UploadedAt: at.UTC()}
	data, err := json.Marshal(&marker)
	if err != nil {
		return err
	}
	return os.WriteFile(d.markerPath(id), data, 0o600)
}

func (d *LocalDrive) markerPath(id string) string {
	return filepath.Join(d.root, ".markers", id+".json")
}
