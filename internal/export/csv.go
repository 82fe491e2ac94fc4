package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gdg-garage/event-registration-api/internal/forms"
	"github.com/gdg-garage/event-registration-api/internal/models"
)

// StandardColumns lead every registrations export.
var StandardColumns = []string{
	"Registration ID",
	"Event",
	"Segment",
	"Registration Date",
	"Payment Status",
	"Transaction ID",
}

const notApplicable = "N/A"

var (
	uuidPattern = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	hexPattern  = regexp.MustCompile(`(?i)^[0-9a-f]{16,}$`)
)

// looksLikeSystemKey is the shape heuristic for keys that are not in a row's
// field label snapshot.
func looksLikeSystemKey(key string) bool {
	if forms.IsSystemKey(key) {
		return true
	}
	lower := strings.ToLower(key)
	if strings.Contains(lower, "segment_") || strings.Contains(lower, "segmentid") {
		return true
	}
	return uuidPattern.MatchString(key) || hexPattern.MatchString(key)
}

// userDataKeys lists the stored keys of one registration that belong in the
// export. Labels from the snapshot are always kept; any other key is kept
// unless it looks like a system key.
func userDataKeys(r models.Registration) []string {
	labels := make(map[string]bool, len(r.FieldLabels))
	for _, l := range r.FieldLabels {
		labels[l] = true
	}
	var keys []string
	for _, k := range r.UserData.Keys() {
		if labels[k] || !looksLikeSystemKey(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Columns is the export header: the standard columns followed by the sorted
// union of user data keys.
func Columns(regs []models.Registration) []string {
	seen := map[string]bool{}
	var keys []string
	for _, r := range regs {
		for _, k := range userDataKeys(r) {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return append(append([]string(nil), StandardColumns...), keys...)
}

// Rows renders one record per registration, each len(header) cells wide.
func Rows(regs []models.Registration, catalog *Catalog, header []string) [][]string {
	userCols := header[len(StandardColumns):]
	rows := make([][]string, 0, len(regs))
	for _, r := range regs {
		row := make([]string, 0, len(header))
		row = append(row,
			r.ID,
			catalog.EventTitle(r.EventID),
			orNA(catalog.SegmentName(r.Segment())),
			r.Timestamp.Format("2006-01-02"),
			orNA(string(r.PaymentStatus)),
			orNA(r.TransactionID),
		)
		for _, col := range userCols {
			if v, ok := r.UserData.Get(col); ok {
				row = append(row, v.String())
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func orNA(s string) string {
	if s == "" {
		return notApplicable
	}
	return s
}

// WriteRegistrationsCSV writes the header and one row per registration.
func WriteRegistrationsCSV(w io.Writer, regs []models.Registration, catalog *Catalog) error {
	header := Columns(regs)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(Rows(regs, catalog, header)); err != nil {
		return fmt.Errorf("write registrations csv: %w", err)
	}
	return nil
}

// Filename is "<context>_<YYYY-MM-DD>.csv".
func Filename(context string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", context, now.UTC().Format("2006-01-02"))
}
