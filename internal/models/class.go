package models

// Class is a course instance with a fixed seat limit. The record store
// exposes both a numeric id and a stable document identifier; course
// exchange accepts either.
type Class struct {
	ID             int    `json:"id"`
	DocumentID     string `json:"document_id"`
	Name           string `json:"name"`
	SchoolID       int    `json:"school_id,omitempty"`
	EnrollmentOpen bool   `json:"enrollment_open"`
}
