package domain

import "fmt"

// Employee records work and appears on employee-grouped invoice positions.
type Employee struct {
	ID        int64
	Firstname string
	Lastname  string
	Shortname string
}

func (e *Employee) String() string {
	return fmt.Sprintf("%s %s", e.Firstname, e.Lastname)
}
