package domain

// VacationAbsenceID is the built-in vacation absence. The record is
// seeded by the first migration and may never be deleted.
const VacationAbsenceID int64 = 1

// Absence is a reason for non-work time (vacation, sickness, ...).
type Absence struct {
	ID       int64
	Name     string
	Payed    bool
	Vacation bool
}

// Protected reports whether the absence is a built-in record whose
// deletion must be refused.
func (a *Absence) Protected() bool {
	return a.ID == VacationAbsenceID
}
