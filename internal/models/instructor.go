package models

// Instructor teaches course offerings; linked many-to-many via
// course_offering_instructors.
type Instructor struct {
	InstructorID string       `db:"instructor_id" json:"instructorId"`
	FirstName    string       `db:"first_name" json:"firstName"`
	LastName     string       `db:"last_name" json:"lastName"`
	Email        *string      `db:"email" json:"email,omitempty"`
	DepartmentID string       `db:"department_id" json:"departmentId"`
	Status       RecordStatus `db:"status" json:"status"`
}

// InstructorFilter captures instructor listing criteria.
type InstructorFilter struct {
	PageFilter
	Search string
}
