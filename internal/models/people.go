package models

// PersonRecord is the common shape of the three role-tagged collections
// (administrators, mentors, students). Each collection is keyed by phone
// number among other fields; identity resolution only needs id, name and
// phone.
type PersonRecord struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// School groups classes for roster imports.
type School struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// NewStudent is the creation payload submitted during roster imports.
type NewStudent struct {
	Name     string `json:"name"`
	TaxID    string `json:"tax_id,omitempty"`
	SchoolID int    `json:"school_id"`
	ClassID  int    `json:"class_id,omitempty"`
}
