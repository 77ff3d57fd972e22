package drive

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalDriveListAndMove(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d, err := NewLocalDrive(root)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(
		filepath.Join(root, "inbox", "[X] sig-foo Recording.mp4"), []byte("video"), 0o600))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "inbox", "[X] sig-foo Notes.txt"), []byte("notes"), 0o600))

	items, err := d.ListSourceItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NoError(t, d.RemoveFromCurrentLocations(ctx, items[0].ID))
	require.NoError(t, d.MoveItem(ctx, "[X] sig-foo Recording.mp4", "F1"))

	// Moved out of the inbox, into the destination folder.
	items, err = d.ListSourceItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	_, err = os.Stat(filepath.Join(root, "F1", "[X] sig-foo Recording.mp4"))
	require.NoError(t, err)
}

func TestLocalDriveReadContent(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d, err := NewLocalDrive(root)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "inbox", "a.mp4"), []byte("video"), 0o600))

	rc, err := d.ReadItemContent(ctx, "a.mp4")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "video", string(data))
}

func TestLocalDriveUploadMarkerRoundTrip(t *testing.T) {
	ctx := context.Background()
	d, err := NewLocalDrive(t.TempDir())
	require.NoError(t, err)

	// Absent marker reads as not uploaded.
	mk, err := d.GetUploadMarker(ctx, "a.mp4")
	require.NoError(t, err)
	require.False(t, mk.Uploaded)

	at := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
	require.NoError(t, d.SetUploadMarker(ctx, "a.mp4", "vid-1", at))

	mk, err = d.GetUploadMarker(ctx, "a.mp4")
	require.NoError(t, err)
	require.True(t, mk.Uploaded)
	require.Equal(t, "vid-1", mk.VideoID)
	require.True(t, mk.UploadedAt.Equal(at))
}
