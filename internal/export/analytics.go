package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gdg-garage/event-registration-api/internal/models"
)

type TimeRange string

const (
	RangeAll    TimeRange = "all"
	Range7Days  TimeRange = "7days"
	Range30Days TimeRange = "30days"
	Range90Days TimeRange = "90days"
)

func ParseTimeRange(s string) (TimeRange, error) {
	switch r := TimeRange(s); r {
	case "", RangeAll:
		return RangeAll, nil
	case Range7Days, Range30Days, Range90Days:
		return r, nil
	}
	return "", fmt.Errorf("unknown time range %q", s)
}

func (r TimeRange) days() int {
	switch r {
	case Range7Days:
		return 7
	case Range30Days:
		return 30
	case Range90Days:
		return 90
	}
	return 0
}

func (r TimeRange) Label() string {
	switch r {
	case Range7Days:
		return "Last 7 Days"
	case Range30Days:
		return "Last 30 Days"
	case Range90Days:
		return "Last 90 Days"
	}
	return "All Time"
}

type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Report struct {
	Range              TimeRange    `json:"range"`
	TotalEvents        int          `json:"total_events"`
	TotalRegistrations int          `json:"total_registrations"`
	CompletedPayments  int          `json:"completed_payments"`
	PendingPayments    int          `json:"pending_payments"`
	FailedPayments     int          `json:"failed_payments"`
	Revenue            float64      `json:"revenue"`
	ConversionRate     float64      `json:"conversion_rate"`
	EventsByCategory   []NamedCount `json:"events_by_category"`
	TopEvents          []NamedCount `json:"top_events"`
	Trend              []NamedCount `json:"trend"`
}

const topEventsLimit = 5

// Analyze builds the dashboard report. Events are windowed by their date and
// registrations by their timestamp, both within [now-range, now].
func Analyze(events []models.Event, regs []models.Registration, r TimeRange, now time.Time) Report {
	catalog := NewCatalog(events)
	inRange := func(t time.Time) bool { return true }
	if d := r.days(); d > 0 {
		start := now.AddDate(0, 0, -d)
		inRange = func(t time.Time) bool { return !t.Before(start) && !t.After(now) }
	}

	rep := Report{Range: r}

	byCategory := map[string]int{}
	for _, e := range events {
		if !inRange(e.Date) {
			continue
		}
		rep.TotalEvents++
		byCategory[string(e.Category)]++
	}

	byEvent := map[string]int{}
	byDay := map[string]int{}
	for _, reg := range regs {
		if !inRange(reg.Timestamp) {
			continue
		}
		rep.TotalRegistrations++
		switch reg.PaymentStatus {
		case models.PaymentCompleted:
			rep.CompletedPayments++
			rep.Revenue += catalog.Fee(reg)
		case models.PaymentPending:
			rep.PendingPayments++
		case models.PaymentFailed:
			rep.FailedPayments++
		}
		byEvent[reg.EventID]++
		byDay[reg.Timestamp.UTC().Format("2006-01-02")]++
	}

	if rep.TotalRegistrations > 0 {
		rep.ConversionRate = float64(rep.CompletedPayments) / float64(rep.TotalRegistrations) * 100
	}

	for cat, n := range byCategory {
		rep.EventsByCategory = append(rep.EventsByCategory, NamedCount{Name: titleCase(cat), Count: n})
	}
	sort.Slice(rep.EventsByCategory, func(i, j int) bool {
		return rep.EventsByCategory[i].Name < rep.EventsByCategory[j].Name
	})

	for id, n := range byEvent {
		rep.TopEvents = append(rep.TopEvents, NamedCount{Name: catalog.EventTitle(id), Count: n})
	}
	sort.SliceStable(rep.TopEvents, func(i, j int) bool {
		if rep.TopEvents[i].Count != rep.TopEvents[j].Count {
			return rep.TopEvents[i].Count > rep.TopEvents[j].Count
		}
		return rep.TopEvents[i].Name < rep.TopEvents[j].Name
	})
	if len(rep.TopEvents) > topEventsLimit {
		rep.TopEvents = rep.TopEvents[:topEventsLimit]
	}

	for day, n := range byDay {
		rep.Trend = append(rep.Trend, NamedCount{Name: day, Count: n})
	}
	sort.Slice(rep.Trend, func(i, j int) bool { return rep.Trend[i].Name < rep.Trend[j].Name })

	return rep
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// WriteAnalyticsCSV writes the report as titled sections separated by blank
// rows.
func WriteAnalyticsCSV(w io.Writer, rep Report, now time.Time) error {
	cw := csv.NewWriter(w)

	conversion := "0%"
	if rep.TotalRegistrations > 0 {
		conversion = strconv.FormatFloat(rep.ConversionRate, 'f', 1, 64) + "%"
	}

	rows := [][]string{
		{"Analytics Dashboard - " + now.UTC().Format("2006-01-02")},
		{"Time Range: " + rep.Range.Label()},
		{""},
		{"SUMMARY METRICS"},
		{"Metric", "Value"},
		{"Total Events", strconv.Itoa(rep.TotalEvents)},
		{"Total Registrations", strconv.Itoa(rep.TotalRegistrations)},
		{"Completed Payments", strconv.Itoa(rep.CompletedPayments)},
		{"Pending Payments", strconv.Itoa(rep.PendingPayments)},
		{"Total Revenue", strconv.FormatFloat(rep.Revenue, 'f', 2, 64)},
		{"Conversion Rate", conversion},
		{""},
		{"EVENTS BY CATEGORY"},
		{"Category", "Count"},
	}
	rows = appendCounts(rows, rep.EventsByCategory)
	rows = append(rows, []string{""}, []string{"TOP EVENTS BY REGISTRATION"}, []string{"Event Name", "Registrations"})
	rows = appendCounts(rows, rep.TopEvents)
	rows = append(rows, []string{""}, []string{"REGISTRATION TREND"}, []string{"Date", "Registrations"})
	rows = appendCounts(rows, rep.Trend)

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write analytics csv: %w", err)
	}
	return nil
}

func appendCounts(rows [][]string, counts []NamedCount) [][]string {
	for _, c := range counts {
		rows = append(rows, []string{c.Name, strconv.Itoa(c.Count)})
	}
	return rows
}
