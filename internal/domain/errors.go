package domain

import (
	"errors"
	"sort"
	"strings"
)

// ErrProtectedRecord is returned when a built-in reference record
// (such as the vacation absence) would be deleted.
var ErrProtectedRecord = errors.New("record is protected")

// baseField collects record-level messages that belong to no single
// field, such as remote service failures.
const baseField = "base"

// FieldErrors accumulates validation messages per field. Validation
// never stops at the first problem; every message of a run is
// collected and reported together. An empty FieldErrors means the
// record is valid.
type FieldErrors map[string][]string

func NewFieldErrors() FieldErrors {
	return FieldErrors{}
}

// Add appends a message for the given field.
func (e FieldErrors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// AddBase appends a record-level message.
func (e FieldErrors) AddBase(message string) {
	e.Add(baseField, message)
}

// On returns the messages attached to a field, nil if there are none.
func (e FieldErrors) On(field string) []string {
	return e[field]
}

// Empty reports whether no messages have been collected.
func (e FieldErrors) Empty() bool {
	return len(e) == 0
}

// Error renders all messages, fields in sorted order, so the output is
// stable across runs.
func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var b strings.Builder
	for _, field := range fields {
		for _, msg := range e[field] {
			if b.Len() > 0 {
				b.WriteString("; ")
			}
			if field != baseField {
				b.WriteString(field)
				b.WriteString(": ")
			}
			b.WriteString(msg)
		}
	}
	return b.String()
}
