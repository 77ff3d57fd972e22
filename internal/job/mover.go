package job

import (
	"context"
	"fmt"
	"time"

	"sigherald/internal/config"
	"sigherald/internal/drive"
	appLog "sigherald/internal/log"
	"sigherald/internal/match"
	"sigherald/internal/model"
	"sigherald/internal/notify"
	"sigherald/internal/video"
)

// Mover files paired meeting artifacts from the shared inbox into per-SIG
// destination folders and announces the move. Per tick it lists the live
// inbox, groups matched items, defers incomplete groups, uploads recordings
// before moving (when enabled), moves actionable groups, and posts one
// announcement per group to the SIG's own channel.
type Mover struct {
	cfg        *config.Config
	drive      drive.Drive
	uploader   video.Uploader // nil disables the upload step
	table      *match.Table
	dispatcher *notify.Dispatcher
	board      *StatusBoard
}

func NewMover(
	cfg *config.Config,
	dr drive.Drive,
	uploader video.Uploader,
	dispatcher *notify.Dispatcher,
	board *StatusBoard,
) *Mover {
	return &Mover{
		cfg:        cfg,
		drive:      dr,
		uploader:   uploader,
		table:      match.NewTable(cfg),
		dispatcher: dispatcher,
		board:      board,
	}
}

// Run executes one tick. A failing group is reported and skipped; it stays
// in the inbox and is retried wholesale on a later tick.
func (j *Mover) Run(ctx context.Context) error {
	st := TickStatus{Job: "mover", LastRun: time.Now()}
	defer func() { j.board.Set(st) }()

	// Missing config is fatal for the tick, detected before any side effect.
	if err := j.cfg.ValidateMover(); err != nil {
		st.LastErr = err.Error()
		st.Errors++
		appLog.Error("mover tick aborted", err)
		return err
	}

	items, err := j.drive.ListSourceItems(ctx)
	if err != nil {
		st.LastErr = err.Error()
		st.Errors++
		j.dispatcher.ReportError(ctx, "inbox listing failed", err)
		return err
	}

	groups := j.table.GroupItems(items)
	appLog.Debug("mover tick", "items", len(items), "groups", len(groups))

	for _, g := range groups {
		if !j.table.Actionable(g) {
			// Not an error: the group becomes actionable on a later tick
			// once the missing role's item appears in the inbox.
			appLog.Debug("mover: group deferred",
				"prefix", g.SIG.Prefix,
				"missing_roles", j.table.MissingRoles(g),
			)
			continue
		}
		if err := j.processGroup(ctx, g); err != nil {
			st.Errors++
			st.LastErr = err.Error()
			continue
		}
		st.Handled += len(g.Items)
		st.Notified++
	}

	return nil
}

// processGroup uploads (if enabled), moves, and announces one actionable
// group. Upload failure aborts the move and the announcement for this group
// only, preserving retry-ability: content stays unmodified in the inbox.
func (j *Mover) processGroup(ctx context.Context, g match.Group) error {
	if g.SIG.UploadEnabled && j.uploader != nil {
		if err := j.uploadRecordings(ctx, g); err != nil {
			j.dispatcher.ReportError(ctx,
				fmt.Sprintf("upload failed for group %q; move deferred", g.SIG.Prefix), err)
			return err
		}
	}

	for _, item := range g.Items {
		if err := j.relocate(ctx, item, g.SIG.FolderID); err != nil {
			j.dispatcher.ReportError(ctx,
				fmt.Sprintf("move failed for %q (group %q)", item.Name, g.SIG.Prefix), err)
			return err
		}
	}

	text := notify.FormatMovedGroup(g.SIG, g.Items)
	dest := notify.Destination{Name: g.SIG.ChannelName, Webhook: g.SIG.ChannelWebhook}
	if err := j.dispatcher.Dispatch(ctx, dest, text); err != nil {
		// The items are already moved; retrying next tick is impossible.
		// Report and carry on.
		j.dispatcher.ReportError(ctx,
			fmt.Sprintf("announcement failed for group %q", g.SIG.Prefix), err)
		return err
	}

	appLog.Info("mover: filed group", "prefix", g.SIG.Prefix, "items", len(g.Items))
	return nil
}

// uploadRecordings pushes every not-yet-uploaded recording item in the group
// to video hosting. The per-item upload marker prevents double uploads when
// a later step of the same group fails and the whole group is retried.
func (j *Mover) uploadRecordings(ctx context.Context, g match.Group) error {
	marker := j.recordingMarker()
	if marker == "" {
		return nil
	}

	for _, item := range g.RoleItems(marker) {
		mk, err := j.drive.GetUploadMarker(ctx, item.ID)
		if err != nil {
			return err
		}
		if mk.Uploaded {
			appLog.Debug("mover: already uploaded", "item", item.Name, "video_id", mk.VideoID)
			continue
		}
		if err := j.uploadOne(ctx, item, g.SIG); err != nil {
			return err
		}
	}
	return nil
}

func (j *Mover) uploadOne(ctx context.Context, item model.SourceItem, sig config.SIGConfig) error {
	content, err := j.drive.ReadItemContent(ctx, item.ID)
	if err != nil {
		return err
	}
	defer content.Close()

	description := fmt.Sprintf("Meeting recording for %s", sig.Prefix)
	videoID, err := j.uploader.Upload(ctx, content, item.Name, description)
	if err != nil {
		return err
	}

	if sig.UploadPlaylistID != "" {
		if err := j.uploader.AddToPlaylist(ctx, videoID, sig.UploadPlaylistID); err != nil {
			return err
		}
	}

	if err := j.drive.SetUploadMarker(ctx, item.ID, videoID, time.Now()); err != nil {
		return err
	}

	appLog.Info("mover: uploaded recording", "item", item.Name, "video_id", videoID)
	return nil
}

// relocate detaches the item from its current parents and files it into the
// destination folder.
func (j *Mover) relocate(ctx context.Context, item model.SourceItem, folderID string) error {
	if err := j.drive.RemoveFromCurrentLocations(ctx, item.ID); err != nil {
		return err
	}
	return j.drive.MoveItem(ctx, item.ID, folderID)
}

func (j *Mover) recordingMarker() string {
	for _, role := range j.cfg.RequiredRoles {
		if role.Name == "recording" {
			return role.Marker
		}
	}
	return ""
}
