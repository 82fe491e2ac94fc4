package export

import "github.com/gdg-garage/event-registration-api/internal/models"

// Filter selects registrations. Empty values and "all" match everything.
type Filter struct {
	EventID       string
	SegmentID     string
	PaymentStatus string
}

func matches(want, got string) bool {
	return want == "" || want == "all" || want == got
}

func (f Filter) Match(r models.Registration) bool {
	return matches(f.EventID, r.EventID) &&
		matches(f.SegmentID, r.Segment()) &&
		matches(f.PaymentStatus, string(r.PaymentStatus))
}

func (f Filter) Apply(regs []models.Registration) []models.Registration {
	out := make([]models.Registration, 0, len(regs))
	for _, r := range regs {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

type Summary struct {
	Total    int                          `json:"total"`
	ByStatus map[models.PaymentStatus]int `json:"by_status"`
	Revenue  float64                      `json:"revenue"`
}

// Summarize counts registrations per payment status ("" for free ones) and
// sums the fees of completed payments.
func Summarize(regs []models.Registration, catalog *Catalog) Summary {
	s := Summary{Total: len(regs), ByStatus: map[models.PaymentStatus]int{}}
	for _, r := range regs {
		s.ByStatus[r.PaymentStatus]++
		if r.PaymentStatus == models.PaymentCompleted {
			s.Revenue += catalog.Fee(r)
		}
	}
	return s
}
