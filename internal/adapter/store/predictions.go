package store

import (
	"context"
	"fmt"
	"time"

	"github.com/floodcast/floodcast-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// predictionRow is the predictions table. Regency and district keep the
// Indonesian column names used by the web client's reports.
type predictionRow struct {
	ID            string `gorm:"primaryKey;size:36"`
	UserID        string `gorm:"size:36;not null;index:idx_predictions_user_created,priority:1"`
	Year          int
	Month         int
	Latitude      float64
	Longitude     float64
	Kabupaten     string    `gorm:"size:128"`
	Kecamatan     string    `gorm:"size:128"`
	PrediksiLabel bool      `gorm:"not null"`
	CreatedAt     time.Time `gorm:"index:idx_predictions_user_created,priority:2"`
}

func (predictionRow) TableName() string { return "predictions" }

func toPredictionRow(r domain.PredictionResult) predictionRow {
	return predictionRow{
		ID:            r.ID,
		UserID:        r.SubjectID,
		Year:          r.Year,
		Month:         r.Month,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		Kabupaten:     r.RegencyName,
		Kecamatan:     r.DistrictName,
		PrediksiLabel: r.PredictedLabel,
		CreatedAt:     r.CreatedAt,
	}
}

func (row predictionRow) toDomain() domain.PredictionResult {
	return domain.PredictionResult{
		ID:             row.ID,
		SubjectID:      row.UserID,
		Year:           row.Year,
		Month:          row.Month,
		Latitude:       row.Latitude,
		Longitude:      row.Longitude,
		PredictedLabel: row.PrediksiLabel,
		RegencyName:    row.Kabupaten,
		DistrictName:   row.Kecamatan,
		CreatedAt:      row.CreatedAt.UTC(),
	}
}

// PredictionRepository stores prediction records.
type PredictionRepository struct {
	db *gorm.DB
}

// Create inserts r, assigning an ID when it has none. r.ID is set on success.
func (p *PredictionRepository) Create(ctx context.Context, r *domain.PredictionResult) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	row := toPredictionRow(*r)
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert prediction: %w", translate(err))
	}
	r.CreatedAt = row.CreatedAt.UTC()
	return nil
}

// FindByID returns one prediction or domain.ErrNotFound.
func (p *PredictionRepository) FindByID(ctx context.Context, id string) (domain.PredictionResult, error) {
	var row predictionRow
	if err := p.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return domain.PredictionResult{}, translate(err)
	}
	return row.toDomain(), nil
}

// List returns every prediction, newest first.
func (p *PredictionRepository) List(ctx context.Context) ([]domain.PredictionResult, error) {
	return find(p.db.WithContext(ctx))
}

// ListBySubject returns the predictions owned by subjectID, newest first.
func (p *PredictionRepository) ListBySubject(ctx context.Context, subjectID string) ([]domain.PredictionResult, error) {
	return find(p.db.WithContext(ctx).Where("user_id = ?", subjectID))
}

// Delete removes one prediction or returns domain.ErrNotFound.
func (p *PredictionRepository) Delete(ctx context.Context, id string) error {
	res := p.db.WithContext(ctx).Delete(&predictionRow{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete prediction: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func find(q *gorm.DB) ([]domain.PredictionResult, error) {
	var rows []predictionRow
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list predictions: %w", translate(err))
	}
	out := make([]domain.PredictionResult, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}
