package models

import "time"

// Review is one student's evaluation of a course offering. ReviewID is a
// snowflake identifier stored as BIGINT; it is carried as a string in Go and
// over the wire because its magnitude exceeds the float-safe integer range.
type Review struct {
	ReviewID       string       `db:"review_id" json:"reviewId"`
	UserID         string       `db:"user_id" json:"userId"`
	CourseID       string       `db:"course_id" json:"courseId"`
	SemesterID     string       `db:"semester_id" json:"semesterId"`
	ContentRating  int          `db:"content_rating" json:"contentRating"`
	TeachingRating int          `db:"teaching_rating" json:"teachingRating"`
	GradingRating  int          `db:"grading_rating" json:"gradingRating"`
	WorkloadRating int          `db:"workload_rating" json:"workloadRating"`
	Status         RecordStatus `db:"status" json:"status"`
	CreatedAt      time.Time    `db:"created_at" json:"createdAt"`
	Comment        *string      `db:"comment" json:"comment,omitempty"`
}

// ReviewFilter captures criteria for admin review listings.
type ReviewFilter struct {
	PageFilter
	CourseID string
	UserID   string
}

// RatingAverages aggregates active review ratings for a course.
type RatingAverages struct {
	ContentRating  float64 `db:"content_rating" json:"contentRating"`
	TeachingRating float64 `db:"teaching_rating" json:"teachingRating"`
	GradingRating  float64 `db:"grading_rating" json:"gradingRating"`
	WorkloadRating float64 `db:"workload_rating" json:"workloadRating"`
	Count          int     `db:"count" json:"count"`
}
