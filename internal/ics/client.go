package ics

import (
	"context"
	"time"

	"sigherald/internal/config"
	"sigherald/internal/model"
)

// Client is the ICS-backed calendar source: it fetches the configured feeds
// and expands them into meeting occurrences inside a query window. It
// implements the calendar-source port consumed by the watcher job.
type Client struct {
	fetcher *Fetcher
	feeds   []Feed
	loc     *time.Location
}

func NewClient(cfg *config.Config) *Client {
	feeds := make([]Feed, 0, len(cfg.Calendars))
	for _, cal := range cfg.Calendars {
		feeds = append(feeds, Feed{ID: cal.ID, URL: cal.URL})
	}
	return &Client{
		fetcher: NewFetcher(cfg.CacheDir),
		feeds:   feeds,
		loc:     cfg.Location(),
	}
}

// ListUpcoming returns all occurrences across every configured feed whose
// scheduled start falls inside [windowStart, windowEnd]. Per-feed fetch and
// parse failures are logged and skipped; one broken feed must not hide the
// others' meetings.
func (c *Client) ListUpcoming(ctx context.Context, windowStart, windowEnd time.Time) ([]model.Occurrence, error) {
	results, _ := c.fetcher.FetchAll(ctx, c.feeds)

	var all []model.Occurrence
	for _, res := range results {
		events, err := ParseICS(res.Feed, res.Body)
		if err != nil {
			continue
		}
		occs, err := ExpandOccurrences(events, ExpandConfig{
			DisplayLocation: c.loc,
			RangeStart:      windowStart,
			RangeEnd:        windowEnd,
		})
		if err != nil {
			continue
		}
		all = append(all, occs...)
	}
	return all, nil
}
