package ics

import (
	"bytes"
	"errors"
	"path"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "sigherald/internal/log"
	"sigherald/internal/model"
)

// ParsedEvent is the normalized representation of a VEVENT as produced by
// the parser. Recurrence expansion operates on this type.
type ParsedEvent struct {
	Feed Feed

	UID string

	Title         string
	Description   string
	Location      string
	ConferenceURL string

	Attachments []model.Attachment

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID (if present) in event's own timezone
	IsOverride bool       // true if this VEVENT overrides a recurring instance
}

// conferenceHosts are the video-conferencing domains recognized when
// scanning LOCATION/DESCRIPTION for a join link.
var conferenceHosts = []string{
	"meet.google.com",
	"zoom.us",
	"teams.microsoft.com",
}

// ParseICS parses a single ICS payload into a list of ParsedEvent.
//
//   - It relies on the underlying library's VTIMEZONE/TZID handling to
//     construct proper time.Time values (with Location set).
//   - It detects all-day events by inspecting the DTSTART value format;
//     all-day entries never "start now" and are dropped during expansion.
//   - It records RRULE/EXDATE/RECURRENCE-ID but does not expand recurrences;
//     expansion is done in expand.go.
//   - Meeting metadata (conferencing link, attached docs) is extracted here
//     so downstream code only sees plain data.
func ParseICS(feed Feed, body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", feed.ID, "url", redactURL(feed.URL))
		return nil, err
	}

	events := make([]ParsedEvent, 0)

	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(feed, comp)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent parse failed", perr, "id", feed.ID, "url", redactURL(feed.URL))
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "id", feed.ID, "url", redactURL(feed.URL), "event_count", len(events))
	return events, nil
}

func parseVEvent(feed Feed, ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent
	out.Feed = feed

	// UID
	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	// Summary / Description / Location
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	// DTSTART / DTEND via the library's timezone-aware helpers.
	start, _ := ve.GetStartAt()
	end, _ := ve.GetEndAt()
	out.Start = start
	out.End = end

	// Detect all-day: VALUE=DATE or a DTSTART value without a time part.
	if dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart); dtStartProp != nil {
		val := dtStartProp.Value
		if params := dtStartProp.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				out.AllDay = true
			}
		}
		if !strings.Contains(val, "T") {
			out.AllDay = true
		}
	}

	out.ConferenceURL = conferenceLink(ve, out.Location, out.Description)
	out.Attachments = attachments(ve)

	// RRULE (raw string only; expansion is in expand.go).
	if rruleProp := ve.GetProperty(ical.ComponentPropertyRrule); rruleProp != nil {
		out.RawRRule = rruleProp.Value
	}

	// EXDATE (can appear multiple times, comma-separated values).
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	// RECURRENCE-ID (overridden instance).
	// Use raw property name to avoid constant mismatch.
	if ridProp := ve.GetProperty("RECURRENCE-ID"); ridProp != nil {
		if t, err := parseICSTime(ridProp.Value); err == nil {
			out.Recurrence = &t
			out.IsOverride = true
		}
	}

	return out, nil
}

// conferenceLink resolves the meeting's join URL. Google Calendar exports
// carry an X-GOOGLE-CONFERENCE property; other hosts drop the link into
// LOCATION or the description body.
func conferenceLink(ve *ical.VEvent, location, description string) string {
	if p := ve.GetProperty("X-GOOGLE-CONFERENCE"); p != nil && p.Value != "" {
		return p.Value
	}
	for _, text := range []string{location, description} {
		if url := findConferenceURL(text); url != "" {
			return url
		}
	}
	return ""
}

// findConferenceURL scans free text for the first URL on a known
// conferencing host.
func findConferenceURL(text string) string {
	for _, host := range conferenceHosts {
		idx := strings.Index(text, host)
		if idx < 0 {
			continue
		}
		// Walk back to the scheme, forward to the first delimiter.
		start := strings.LastIndex(text[:idx], "https://")
		if start < 0 {
			continue
		}
		rest := text[start:]
		if cut := strings.IndexAny(rest, " \n\t<>\"'"); cut >= 0 {
			rest = rest[:cut]
		}
		return strings.TrimRight(rest, ".,;)")
	}
	return ""
}

// attachments extracts ATTACH properties into document references.
func attachments(ve *ical.VEvent) []model.Attachment {
	var out []model.Attachment
	for _, p := range ve.GetProperties(ical.ComponentProperty("ATTACH")) {
		if p.Value == "" {
			continue
		}
		att := model.Attachment{URL: p.Value}
		if params := p.ICalParameters; params != nil {
			if names, ok := params["FILENAME"]; ok && len(names) > 0 {
				att.Name = names[0]
			}
		}
		if att.Name == "" {
			att.Name = path.Base(att.URL)
		}
		att.Icon = attachmentIcon(att.URL)
		out = append(out, att)
	}
	return out
}

// attachmentIcon picks a chat emoji marker by attachment kind.
func attachmentIcon(url string) string {
	switch {
	case strings.Contains(url, "/document/"):
		return ":page_facing_up:"
	case strings.Contains(url, "/spreadsheets/"):
		return ":bar_chart:"
	case strings.Contains(url, "/presentation/"):
		return ":projector:"
	default:
		return ":link:"
	}
}

// parseICSTime parses a basic ICS date/date-time string into time.Time.
// NOTE: This is a simplified helper for EXDATE/RECURRENCE-ID where we do
// not have full parameter context; expansion handles tz normalization.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		const layout = "20060102T150405Z"
		return time.Parse(layout, v)
	}

	// Local date-time, e.g., 20250101T090000
	if strings.Contains(v, "T") {
		const layout = "20060102T150405"
		return time.ParseInLocation(layout, v, time.Local)
	}

	// Date-only (all-day), e.g., 20250101
	const layoutDate = "20060102"
	return time.ParseInLocation(layoutDate, v, time.Local)
}
