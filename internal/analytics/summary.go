package analytics

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/serroba/linkmark/internal/domain"
)

const (
	DefaultDays = 30
	MaxDays     = 365
	topN        = 10
)

// Count is a labelled tally.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DayCount is the number of events on one UTC day.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Summary is the read-time aggregation of an asset's events.
type Summary struct {
	Total          int               `json:"total"`
	UniqueSessions int               `json:"uniqueSessions"`
	ByType         map[EventType]int `json:"byType"`
	ByDay          []DayCount        `json:"byDay"`
	TopReferers    []Count           `json:"topReferers"`
	TopCountries   []Count           `json:"topCountries"`
}

// Summarize aggregates events over the days ending at now. ByDay has one
// entry per day, oldest first, including empty days.
func Summarize(events []*VisitEvent, days int, now time.Time) Summary {
	days = ClampDays(days)
	today := now.UTC().Truncate(24 * time.Hour)
	first := today.AddDate(0, 0, -(days - 1))

	perDay := make(map[string]int, days)
	referers := make(map[string]int)
	countries := make(map[string]int)
	sessions := make(map[string]struct{})

	s := Summary{ByType: map[EventType]int{EventVisit: 0, EventScan: 0}}

	for _, e := range events {
		at := e.CreatedAt.UTC()
		if at.Before(first) || at.After(now.UTC()) {
			continue
		}

		s.Total++
		s.ByType[ParseEventType(string(e.EventType))]++
		perDay[at.Format(time.DateOnly)]++
		sessions[e.SessionHash] = struct{}{}

		referer := e.RefererDomain
		if referer == "" {
			referer = DirectReferer
		}
		referers[referer]++

		if e.CountryCode != "" {
			countries[e.CountryCode]++
		}
	}

	s.UniqueSessions = len(sessions)
	s.ByDay = make([]DayCount, 0, days)

	for d := first; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		s.ByDay = append(s.ByDay, DayCount{Date: key, Count: perDay[key]})
	}

	s.TopReferers = top(referers)
	s.TopCountries = top(countries)

	return s
}

func top(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for label, n := range m {
		out = append(out, Count{Label: label, Count: n})
	}

	slices.SortFunc(out, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}

		return cmp.Compare(a.Label, b.Label)
	})

	if len(out) > topN {
		out = out[:topN]
	}

	return out
}

// ClampDays keeps a report window within 1..MaxDays; zero or less means DefaultDays.
func ClampDays(days int) int {
	switch {
	case days <= 0:
		return DefaultDays
	case days > MaxDays:
		return MaxDays
	default:
		return days
	}
}

// Reporter reads and summarizes an asset's events.
type Reporter struct {
	events EventStore
	now    func() time.Time
}

func NewReporter(events EventStore) *Reporter {
	return &Reporter{events: events, now: time.Now}
}

// Report summarizes the last days of events for asset.
func (r *Reporter) Report(ctx context.Context, asset AssetRef, days int) (Summary, error) {
	days = ClampDays(days)
	now := r.now()
	since := now.UTC().Truncate(24*time.Hour).AddDate(0, 0, -(days - 1))

	events, err := r.events.ListByAsset(ctx, asset, since)
	if err != nil {
		return Summary{}, domain.Upstream("list analytics events", err)
	}

	return Summarize(events, days, now), nil
}
