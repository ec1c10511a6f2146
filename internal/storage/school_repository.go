package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lesson-planner/backend/internal/storage/models"
)

// SchoolRepository provides access to the singleton school configuration.
type SchoolRepository struct {
	BaseRepository
}

// NewSchoolRepository creates a new school configuration repository.
func NewSchoolRepository(db *DB) *SchoolRepository {
	return &SchoolRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Get returns the school configuration, creating the default row on first access.
func (r *SchoolRepository) Get(ctx context.Context) (*models.SchoolConfig, error) {
	if _, err := r.DB().ExecContext(ctx, `
		INSERT INTO school_config (id) VALUES (1) ON CONFLICT(id) DO NOTHING
	`); err != nil {
		return nil, fmt.Errorf("ensuring school config: %w", err)
	}
	return getSchoolConfig(ctx, r.DB())
}

func getSchoolConfig(ctx context.Context, q Queryable) (*models.SchoolConfig, error) {
	cfg := &models.SchoolConfig{}
	var start, end sql.NullString
	var updatedAt sql.NullTime

	err := q.QueryRowContext(ctx, `
		SELECT school_name, teacher_name, start_date, end_date, logo_path, shared_roster, updated_at
		FROM school_config WHERE id = 1
	`).Scan(&cfg.SchoolName, &cfg.TeacherName, &start, &end, &cfg.LogoPath, &cfg.SharedRoster, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying school config: %w", err)
	}

	if cfg.StartDate, err = scanDate(start); err != nil {
		return nil, err
	}
	if cfg.EndDate, err = scanDate(end); err != nil {
		return nil, err
	}
	cfg.UpdatedAt = updatedAt.Time

	return cfg, nil
}

// Update overwrites the school configuration.
func (r *SchoolRepository) Update(ctx context.Context, cfg *models.SchoolConfig) error {
	cfg.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO school_config (id, school_name, teacher_name, start_date, end_date, logo_path, shared_roster, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			school_name = excluded.school_name,
			teacher_name = excluded.teacher_name,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			logo_path = excluded.logo_path,
			shared_roster = excluded.shared_roster,
			updated_at = excluded.updated_at
	`,
		cfg.SchoolName, cfg.TeacherName,
		models.FormatDatePtr(cfg.StartDate), models.FormatDatePtr(cfg.EndDate),
		cfg.LogoPath, cfg.SharedRoster, cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating school config: %w", err)
	}

	return nil
}
