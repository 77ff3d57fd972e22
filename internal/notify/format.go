package notify

import (
	"fmt"
	"strings"
	"time"

	"sigherald/internal/config"
	"sigherald/internal/model"
)

// FormatMeetingStart renders the "meeting starting now" announcement:
// title, local start time, conferencing link, and attached docs as a
// bulleted list.
func FormatMeetingStart(occ model.Occurrence, loc *time.Location) string {
	var b strings.Builder

	fmt.Fprintf(&b, ":bell: *%s* is starting now (%s)",
		occ.Title, occ.Start.In(loc).Format("15:04 MST"))

	if occ.ConferenceURL != "" {
		fmt.Fprintf(&b, "\nJoin: %s", occ.ConferenceURL)
	}

	for _, att := range occ.Attachments {
		name := att.Name
		if name == "" {
			name = att.URL
		}
		b.WriteString("\n• ")
		if att.Icon != "" {
			b.WriteString(att.Icon)
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "<%s|%s>", att.URL, name)
	}

	return b.String()
}

// FormatMovedGroup renders the file-mover announcement: which channel's
// folder received artifacts, and which, as a bulleted list of item names.
func FormatMovedGroup(sig config.SIGConfig, items []model.SourceItem) string {
	var b strings.Builder

	label := sig.ChannelName
	if label == "" {
		label = sig.Prefix
	}
	fmt.Fprintf(&b, ":file_folder: Filed %d meeting artifact(s) for *%s*:", len(items), label)

	for _, item := range items {
		b.WriteString("\n• ")
		b.WriteString(item.Name)
	}

	return b.String()
}
