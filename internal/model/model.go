package model

import "time"

// Attachment is a document reference attached to a calendar occurrence,
// typically a meeting agenda or notes doc.
type Attachment struct {
	URL  string
	Name string
	// Icon is a short marker rendered before the attachment name in chat
	// messages (e.g. a document or spreadsheet glyph).
	Icon string
}

// Occurrence represents a single concrete instance of a calendar meeting
// (after recurrence expansion and timezone normalization).
type Occurrence struct {
	SourceID string // calendar source ID (e.g., config calendar ID)
	UID      string // iCalendar UID

	Title string

	// Start is the scheduled start in the configured display timezone.
	// Together with UID it identifies the occurrence: a recurring series
	// produces a fresh (UID, Start) pair every instance.
	Start time.Time
	End   time.Time

	// ConferenceURL is the video-conferencing link, if the event carries one.
	ConferenceURL string

	Attachments []Attachment
}

// SourceItem is one raw entry from the shared inbox location the file mover
// scans. ContentType is a hint only; classification is by name.
type SourceItem struct {
	ID          string
	Name        string
	ContentType string
}
