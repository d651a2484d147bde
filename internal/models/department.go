package models

// Department groups courses and instructors.
type Department struct {
	DepartmentID string       `db:"department_id" json:"departmentId"`
	Name         string       `db:"name" json:"name"`
	Status       RecordStatus `db:"status" json:"status"`
}

// Semester is an academic term, e.g. "2024sem1".
type Semester struct {
	SemesterID string       `db:"semester_id" json:"semesterId"`
	Name       string       `db:"name" json:"name"`
	Status     RecordStatus `db:"status" json:"status"`
}

// Encouragement is a short motivational sentence shown on the landing page.
// Ids are snowflake strings like review ids.
type Encouragement struct {
	EncouragementID string       `db:"encouragement_id" json:"encouragementId"`
	Content         string       `db:"content" json:"content"`
	Status          RecordStatus `db:"status" json:"status"`
}
