package models

import "time"

// Enrollment ties a student to a class. EnrolledAt is the sole ordering
// key for waitlist computation; it is set at creation and never mutated.
type Enrollment struct {
	ID          int       `json:"id"`
	StudentID   int       `json:"student_id"`
	StudentName string    `json:"student_name,omitempty"`
	ClassID     int       `json:"class_id"`
	EnrolledAt  time.Time `json:"enrolled_at"`
}

// RosterSplit is the deterministic partition of a class roster into the
// enrolled prefix and the overflow suffix.
type RosterSplit struct {
	ClassID  int          `json:"class_id"`
	Capacity int          `json:"capacity"`
	Enrolled []Enrollment `json:"enrolled"`
	Overflow []Enrollment `json:"overflow"`
}

// SeatsLeft returns the number of free seats in the enrolled prefix.
func (s RosterSplit) SeatsLeft() int {
	left := s.Capacity - len(s.Enrolled)
	if left < 0 {
		return 0
	}
	return left
}

// ClassOverflow is one row of the exceeded-roster audit report.
type ClassOverflow struct {
	Class    Class        `json:"class"`
	Enrolled int          `json:"enrolled"`
	Overflow []Enrollment `json:"overflow"`
}

// ExchangeResult reports a completed course exchange.
type ExchangeResult struct {
	Enrollment Enrollment `json:"enrollment"`
	From       Class      `json:"from"`
	To         Class      `json:"to"`
}
