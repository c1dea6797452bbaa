package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/floodcast/floodcast-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRow struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"size:255;not null"`
	Email        string `gorm:"size:255;not null;uniqueIndex"`
	City         string `gorm:"size:128"`
	Latitude     *float64
	Longitude    *float64
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

func toUserRow(u domain.User) userRow {
	return userRow{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		City:         u.City,
		Latitude:     u.Latitude,
		Longitude:    u.Longitude,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (row userRow) toDomain() domain.User {
	return domain.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		City:         row.City,
		Latitude:     row.Latitude,
		Longitude:    row.Longitude,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

// UserRepository stores accounts.
type UserRepository struct {
	db *gorm.DB
}

// Create inserts u, assigning an ID when it has none. Timestamps are set on u.
// A duplicate email yields domain.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	row := toUserRow(*u)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert user: %w", translateUser(err))
	}
	*u = row.toDomain()
	return nil
}

// FindByID returns one user or domain.ErrNotFound.
func (r *UserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByEmail returns the user registered with email or domain.ErrNotFound.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

// List returns all users ordered by registration time.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := r.db.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", translate(err))
	}
	out := make([]domain.User, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

// Update overwrites the stored fields of u. u.UpdatedAt is refreshed.
// Changing to an email another user holds yields domain.ErrEmailTaken.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()
	row := toUserRow(*u)
	res := r.db.WithContext(ctx).Model(&userRow{ID: u.ID}).Select("*").Omit("id", "created_at").Updates(&row)
	if res.Error != nil {
		return fmt.Errorf("update user: %w", translateUser(res.Error))
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes one user or returns domain.ErrNotFound.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&userRow{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) first(ctx context.Context, query string, arg any) (domain.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).First(&row, query, arg).Error; err != nil {
		return domain.User{}, translate(err)
	}
	return row.toDomain(), nil
}

// translateUser maps the unique email index violation onto domain.ErrEmailTaken.
func translateUser(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", domain.ErrEmailTaken, err)
	}
	return translate(err)
}
