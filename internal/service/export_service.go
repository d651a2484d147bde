package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/unieval/course-review-api/internal/models"
	appErrors "github.com/unieval/course-review-api/pkg/errors"
	"github.com/unieval/course-review-api/pkg/export"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

type exportReviewReader interface {
	List(ctx context.Context, filter models.ReviewFilter) ([]models.Review, int, error)
	AveragesByCourse(ctx context.Context, courseID string) (*models.RatingAverages, error)
}

// ExportFile is a rendered export ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders admin datasets as CSV or PDF.
type ExportService struct {
	reviews exportReviewReader
	enabled bool
	logger  *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(reviews exportReviewReader, enabled bool, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{reviews: reviews, enabled: enabled, logger: logger}
}

// CourseReviews renders every active review of a course, followed by the
// aggregated averages.
func (s *ExportService) CourseReviews(ctx context.Context, courseID string, format ExportFormat) (*ExportFile, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}
	if courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	filter := models.ReviewFilter{CourseID: courseID}
	filter.PageSize = 100
	table := export.Table{
		Columns: []string{"Review ID", "Semester", "Content", "Teaching", "Grading", "Workload", "Created", "Comment"},
	}
	for page := 1; ; page++ {
		filter.Page = page
		reviews, total, err := s.reviews.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to collect reviews")
		}
		for _, review := range reviews {
			comment := ""
			if review.Comment != nil {
				comment = *review.Comment
			}
			table.Rows = append(table.Rows, []string{
				review.ReviewID,
				review.SemesterID,
				strconv.Itoa(review.ContentRating),
				strconv.Itoa(review.TeachingRating),
				strconv.Itoa(review.GradingRating),
				strconv.Itoa(review.WorkloadRating),
				review.CreatedAt.Format("2006-01-02"),
				comment,
			})
		}
		if len(table.Rows) >= total || len(reviews) == 0 {
			break
		}
	}

	averages, err := s.reviews.AveragesByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate reviews")
	}
	table.Rows = append(table.Rows, []string{
		"AVERAGE",
		"",
		formatAverage(averages.ContentRating),
		formatAverage(averages.TeachingRating),
		formatAverage(averages.GradingRating),
		formatAverage(averages.WorkloadRating),
		"",
		fmt.Sprintf("%d reviews", averages.Count),
	})

	return s.render(table, fmt.Sprintf("course-%s-reviews", courseID), fmt.Sprintf("Course %s Reviews", courseID), format)
}

func (s *ExportService) render(table export.Table, basename, title string, format ExportFormat) (*ExportFile, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data, err = export.CSV(table)
	case FormatPDF:
		data, err = export.PDF(table, title)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	file := &ExportFile{Data: data}
	if format == FormatCSV {
		file.Filename = basename + ".csv"
		file.ContentType = "text/csv"
	} else {
		file.Filename = basename + ".pdf"
		file.ContentType = "application/pdf"
	}
	s.logger.Info("export rendered", zap.String("file", file.Filename), zap.Int("rows", len(table.Rows)))
	return file, nil
}

func formatAverage(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
