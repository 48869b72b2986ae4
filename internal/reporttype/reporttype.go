// Package reporttype defines the closed set of time-entry variants a
// worktime can be recorded as. Each variant governs validation, time and
// date rendering and field copying for its worktimes. Variants are
// singletons built at init into an immutable ordered registry; there is
// no dynamic registration.
package reporttype

import (
	"fmt"
	"time"

	"github.com/andy/timebill/internal/domain"
)

// timeLayout renders clock instants in worktime display strings.
const timeLayout = "15:04"

// longDateLayout is the default calendar date rendering.
const longDateLayout = "02.01.2006"

// ReportType is the per-variant contract a time-entry type imposes on
// its worktimes. Validate attaches field errors and never panics; open
// is the currently open entry of the same employee (nil if none) and is
// only consulted by the open-ended variant.
type ReportType interface {
	Key() string
	Label() string
	Accuracy() int
	StartStop() bool

	Validate(w *domain.Worktime, open *domain.Worktime) domain.FieldErrors
	TimeString(w *domain.Worktime) string
	DateString(date time.Time) string
	CopyTimes(src, dst *domain.Worktime)
}

// The variant singletons. AutoStart specializes StartStopDay.
var (
	StartStopDay ReportType = &startStopType{base{key: "start_stop_day", label: "Von/Bis Zeit", accuracy: 10}}
	AutoStart    ReportType = &autoStartType{startStopType{base{key: "auto_start", label: "Von/Bis offen", accuracy: 12}}}
	AbsoluteDay  ReportType = &hoursDayType{base{key: "absolute_day", label: "Stunden/Tag", accuracy: 6}}
	Week         ReportType = &hoursWeekType{base{key: "week", label: "Stunden/Woche", accuracy: 4}}
	Month        ReportType = &hoursMonthType{base{key: "month", label: "Stunden/Monat", accuracy: 2}}
)

// Selectable lists the variants a user may assign to a worktime.
// AutoStart entries are only ever created by starting a timer.
var Selectable = []ReportType{StartStopDay, AbsoluteDay, Week, Month}

// All lists every variant, including AutoStart.
var All = []ReportType{StartStopDay, AbsoluteDay, Week, Month, AutoStart}

// Lookup resolves a variant by key. It returns nil for unknown keys;
// callers must treat that as a configuration error.
func Lookup(key string) ReportType {
	for _, t := range All {
		if t.Key() == key {
			return t
		}
	}
	return nil
}

// Compare orders variants by accuracy rank, coarser granularity first.
func Compare(a, b ReportType) int {
	return a.Accuracy() - b.Accuracy()
}

// base carries the identity and default behavior shared by all variants.
type base struct {
	key      string
	label    string
	accuracy int
}

func (t *base) Key() string     { return t.key }
func (t *base) Label() string   { return t.label }
func (t *base) Accuracy() int   { return t.accuracy }
func (t *base) StartStop() bool { return false }

func (t *base) Validate(w *domain.Worktime, _ *domain.Worktime) domain.FieldErrors {
	errs := domain.NewFieldErrors()
	if w.Hours <= 0 {
		errs.Add("hours", "Stunden müssen positiv sein")
	}
	return errs
}

func (t *base) DateString(date time.Time) string {
	return date.Format(longDateLayout)
}

// CopyTimes transfers the hours into the target. Summary variants carry
// no clock instants, so any copied-over instants are dropped.
func (t *base) CopyTimes(src, dst *domain.Worktime) {
	dst.Hours = src.Hours
	dst.FromStartTime = nil
	dst.ToEndTime = nil
}

// startStopType requires explicit start and end instants.
type startStopType struct {
	base
}

func (t *startStopType) StartStop() bool { return true }

func (t *startStopType) Validate(w *domain.Worktime, _ *domain.Worktime) domain.FieldErrors {
	errs := domain.NewFieldErrors()
	if w.FromStartTime == nil {
		errs.Add("from_start_time", "Die Anfangszeit ist ungültig")
	}
	if w.ToEndTime == nil {
		errs.Add("to_end_time", "Die Endzeit ist ungültig")
	}
	if w.FromStartTime != nil && w.ToEndTime != nil && !w.ToEndTime.After(*w.FromStartTime) {
		errs.Add("to_end_time", "Die Endzeit muss nach der Startzeit sein")
	}
	return errs
}

func (t *startStopType) TimeString(w *domain.Worktime) string {
	if w.FromStartTime == nil || w.ToEndTime == nil {
		return ""
	}
	return fmt.Sprintf("%s - %s (%s h)",
		w.FromStartTime.Format(timeLayout),
		w.ToEndTime.Format(timeLayout),
		FormatHours(w.Hours))
}

func (t *startStopType) CopyTimes(src, dst *domain.Worktime) {
	dst.Hours = src.Hours
	dst.FromStartTime = src.FromStartTime
	dst.ToEndTime = src.ToEndTime
}

// autoStartType is the open-ended timer variant. Validation forces its
// mutable fields to neutral defaults and enforces the one-open-entry-
// per-employee rule.
type autoStartType struct {
	startStopType
}

func (t *autoStartType) Validate(w *domain.Worktime, open *domain.Worktime) domain.FieldErrors {
	// Neutral defaults: an open entry has no duration or end yet.
	w.WorkDate = today()
	w.Hours = 0
	w.ToEndTime = nil

	errs := domain.NewFieldErrors()
	if w.FromStartTime == nil {
		errs.Add("from_start_time", "Die Anfangszeit ist ungültig")
	}
	if open != nil && open.ID != w.ID {
		errs.Add("employee_id",
			fmt.Sprintf("Es wurde bereits eine offene %s erfasst (Eintrag %d)", t.label, open.ID))
	}
	return errs
}

func (t *autoStartType) TimeString(w *domain.Worktime) string {
	if w.FromStartTime == nil {
		return ""
	}
	return fmt.Sprintf("Start um %s", w.FromStartTime.Format(timeLayout))
}

// hoursDayType records absolute hours per day.
type hoursDayType struct {
	base
}

func (t *hoursDayType) TimeString(w *domain.Worktime) string {
	return FormatHours(w.Hours) + " h"
}

// hoursWeekType records summed hours per ISO week.
type hoursWeekType struct {
	base
}

func (t *hoursWeekType) TimeString(w *domain.Worktime) string {
	return FormatHours(w.Hours) + " h in dieser Woche"
}

func (t *hoursWeekType) DateString(date time.Time) string {
	year, week := date.ISOWeek()
	return fmt.Sprintf("W %d, %d", week, year)
}

// hoursMonthType records summed hours per month.
type hoursMonthType struct {
	base
}

func (t *hoursMonthType) TimeString(w *domain.Worktime) string {
	return FormatHours(w.Hours) + " h in diesem Monat"
}

func (t *hoursMonthType) DateString(date time.Time) string {
	return date.Format("01.2006")
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
