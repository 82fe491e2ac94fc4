package forms

import (
	"fmt"
	"sort"

	"github.com/gdg-garage/event-registration-api/internal/models"
)

// Payment is the payment metadata a submission carried alongside its
// answers. It is reported, never trusted.
type Payment struct {
	Status        string
	Method        string
	TransactionID string
}

// Normalized is a submission ready to be stored.
type Normalized struct {
	UserData models.UserData
	// Labels are the UserData keys that resolved to a field definition.
	Labels  []string
	Payment Payment
}

// Normalize relabels submitted keys with their field labels. Keys that do
// not resolve (for instance a field deleted while the registrant had the form
// open) are kept verbatim. Normalize never drops a value.
func Normalize(form Form, raw map[string]models.Value) Normalized {
	var out Normalized

	eventFields := FieldList(form.Event.Fields)
	var segmentFields FieldList
	if form.Segment != nil {
		segmentFields = form.Segment.Fields
	}

	resolved := map[string]models.FieldDefinition{}
	var unresolved []string
	for key, v := range raw {
		if IsSystemKey(key) {
			s := v.String()
			switch key {
			case KeyPaymentStatus:
				out.Payment.Status = s
			case KeyPaymentMethod:
				out.Payment.Method = s
			case KeyTransactionID:
				out.Payment.TransactionID = s
			}
			continue
		}

		fk := ParseFieldKey(key)
		fields := eventFields
		if fk.Scope == ScopeSegment {
			fields = segmentFields
		}
		if field, ok := fields.Find(fk.FieldID); ok {
			resolved[key] = field
		} else {
			unresolved = append(unresolved, key)
		}
	}

	// Resolved answers follow form order: the selected form first, then the
	// other scope.
	ordered := orderedKeys(form, eventFields, segmentFields)
	used := map[string]int{}
	for _, key := range ordered {
		field, ok := resolved[key]
		if !ok {
			continue
		}
		label := uniqueLabel(field.Label, used)
		out.UserData = out.UserData.Set(label, raw[key])
		out.Labels = append(out.Labels, label)
	}

	sort.Strings(unresolved)
	for _, key := range unresolved {
		stored := key
		if _, taken := out.UserData.Get(key); taken {
			stored = uniqueLabel(key, used)
		}
		out.UserData = out.UserData.Set(stored, raw[key])
	}
	return out
}

func orderedKeys(form Form, eventFields, segmentFields FieldList) []string {
	keys := make([]string, 0, len(eventFields)+len(segmentFields))
	segmentKeys := func() {
		for _, f := range segmentFields {
			keys = append(keys, FieldKey{Scope: ScopeSegment, FieldID: f.ID}.String())
		}
	}
	if form.Scope == ScopeSegment {
		segmentKeys()
	}
	for _, f := range eventFields {
		keys = append(keys, FieldKey{Scope: ScopeEvent, FieldID: f.ID}.String())
	}
	if form.Scope != ScopeSegment {
		segmentKeys()
	}
	return keys
}

// uniqueLabel suffixes repeated labels so two fields sharing a label never
// overwrite each other's answer.
func uniqueLabel(label string, used map[string]int) string {
	used[label]++
	n := used[label]
	if n == 1 {
		return label
	}
	candidate := fmt.Sprintf("%s (%d)", label, n)
	for used[candidate] > 0 {
		n++
		candidate = fmt.Sprintf("%s (%d)", label, n)
	}
	used[candidate]++
	return candidate
}
