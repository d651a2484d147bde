package models

// RecordStatus is the logical-delete flag shared by catalog and review rows.
// Rows are never removed physically; deletion flips 'C' to 'D'.
type RecordStatus string

const (
	StatusActive  RecordStatus = "C"
	StatusDeleted RecordStatus = "D"
)

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}

// PageFilter is the shared page/size input, clamped by NormalizePage.
type PageFilter struct {
	Page     int
	PageSize int
}

// NormalizePage clamps paging input to page >= 1 and 1 <= size <= 100,
// defaulting the size to 10.
func (f *PageFilter) NormalizePage() (limit, offset int) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 10
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
	return f.PageSize, (f.Page - 1) * f.PageSize
}
