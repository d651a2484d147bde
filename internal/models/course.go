package models

import "time"

// Course is a catalog entry. The free-text description lives in a companion
// table and is joined in where needed.
type Course struct {
	CourseID     string       `db:"course_id" json:"courseId"`
	DepartmentID string       `db:"department_id" json:"departmentId"`
	Name         string       `db:"name" json:"name"`
	Credits      int          `db:"credits" json:"credits"`
	Status       RecordStatus `db:"status" json:"status"`
	Description  *string      `db:"description" json:"description,omitempty"`
}

// CourseDetail is the course page payload: base info plus department name,
// offerings and aggregated review stats.
type CourseDetail struct {
	Course
	DepartmentName string           `db:"department_name" json:"departmentName"`
	Offerings      []OfferingRow    `json:"offerings"`
	Stats          *RatingAverages  `json:"stats,omitempty"`
}

// CourseSearchRow is a ranked search result with review aggregates.
type CourseSearchRow struct {
	CourseID       string     `db:"course_id" json:"courseId"`
	Name           string     `db:"name" json:"name"`
	DepartmentID   string     `db:"department_id" json:"departmentId"`
	Description    *string    `db:"description" json:"description,omitempty"`
	AvgContent     float64    `db:"avg_content" json:"avgContentRating"`
	AvgTeaching    float64    `db:"avg_teaching" json:"avgTeachingRating"`
	AvgGrading     float64    `db:"avg_grading" json:"avgGradingRating"`
	AvgWorkload    float64    `db:"avg_workload" json:"avgWorkloadRating"`
	AvgTotal       float64    `db:"avg_total" json:"avgTotal"`
	ReviewCount    int        `db:"review_count" json:"reviewCount"`
	LatestReviewAt *time.Time `db:"latest_review_at" json:"latestReviewAt,omitempty"`
}

// CourseFilter captures course listing criteria.
type CourseFilter struct {
	PageFilter
	Search string
	Sort   string // latest | reviews | rating
}

// OfferingRow is one (offering, instructor) pair as listed on a course page.
// Instructor columns are null when the offering has no linked instructor.
type OfferingRow struct {
	CourseID     string  `db:"course_id" json:"courseId"`
	SemesterID   string  `db:"semester_id" json:"semesterId"`
	SemesterName string  `db:"semester_name" json:"semesterName"`
	InstructorID *string `db:"instructor_id" json:"instructorId,omitempty"`
	FirstName    *string `db:"first_name" json:"firstName,omitempty"`
	LastName     *string `db:"last_name" json:"lastName,omitempty"`
	Email        *string `db:"email" json:"email,omitempty"`
}
