package forms

import "strings"

type Scope int

const (
	ScopeEvent Scope = iota
	ScopeSegment
)

func (s Scope) String() string {
	if s == ScopeSegment {
		return "segment"
	}
	return "event"
}

// segmentPrefix marks segment-owned field ids in submitted payloads.
const segmentPrefix = "segment_"

// FieldKey addresses one field of a form.
type FieldKey struct {
	Scope   Scope
	FieldID string
}

// ParseFieldKey decodes a submitted key. Only one leading prefix is
// stripped, so a field id that itself starts with "segment_" survives.
func ParseFieldKey(raw string) FieldKey {
	if id, ok := strings.CutPrefix(raw, segmentPrefix); ok {
		return FieldKey{Scope: ScopeSegment, FieldID: id}
	}
	return FieldKey{Scope: ScopeEvent, FieldID: raw}
}

// String is the submitted form of the key.
func (k FieldKey) String() string {
	if k.Scope == ScopeSegment {
		return segmentPrefix + k.FieldID
	}
	return k.FieldID
}

// System keys travel with a submission but are never field answers.
const (
	KeyPaymentStatus = "paymentStatus"
	KeyPaymentMethod = "paymentMethod"
	KeyTransactionID = "transactionId"
)

func IsSystemKey(key string) bool {
	switch key {
	case KeyPaymentStatus, KeyPaymentMethod, KeyTransactionID:
		return true
	}
	return false
}
