package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unieval/course-review-api/internal/models"
)

// EncouragementRepository handles persistence of encouragement sentences.
type EncouragementRepository struct {
	db  *sqlx.DB
	ids IDAllocator
}

// NewEncouragementRepository constructs the repository.
func NewEncouragementRepository(db *sqlx.DB, ids IDAllocator) *EncouragementRepository {
	return &EncouragementRepository{db: db, ids: ids}
}

// ListActive returns every active sentence. The set is small; random
// selection happens in the service on top of the cached list.
func (r *EncouragementRepository) ListActive(ctx context.Context) ([]models.Encouragement, error) {
	const query = `SELECT encouragement_id, content, status FROM encouragements
WHERE status = $1 ORDER BY encouragement_id ASC`
	var sentences []models.Encouragement
	if err := r.db.SelectContext(ctx, &sentences, query, models.StatusActive); err != nil {
		return nil, fmt.Errorf("list encouragements: %w", err)
	}
	return sentences, nil
}

// Create persists a new sentence with a freshly minted id.
func (r *EncouragementRepository) Create(ctx context.Context, content string) (*models.Encouragement, error) {
	sentence := &models.Encouragement{
		EncouragementID: r.ids.NextID(),
		Content:         content,
		Status:          models.StatusActive,
	}
	const query = `INSERT INTO encouragements (encouragement_id, content, status) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, sentence.EncouragementID, sentence.Content, sentence.Status); err != nil {
		return nil, fmt.Errorf("create encouragement: %w", err)
	}
	return sentence, nil
}

// Update patches content and/or status; sql.ErrNoRows when absent.
func (r *EncouragementRepository) Update(ctx context.Context, encouragementID string, content *string, status *models.RecordStatus) error {
	const query = `UPDATE encouragements SET content = COALESCE($2, content), status = COALESCE($3, status)
WHERE encouragement_id = $1`
	res, err := r.db.ExecContext(ctx, query, encouragementID, content, status)
	if err != nil {
		return fmt.Errorf("update encouragement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update encouragement result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SoftDelete flips an active sentence to deleted.
func (r *EncouragementRepository) SoftDelete(ctx context.Context, encouragementID string) error {
	const query = `UPDATE encouragements SET status = $1 WHERE encouragement_id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, models.StatusDeleted, encouragementID, models.StatusActive)
	if err != nil {
		return fmt.Errorf("delete encouragement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete encouragement result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
