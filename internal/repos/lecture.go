package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillify/skillify-backend/internal/errs"
	"github.com/skillify/skillify-backend/internal/logger"
	"github.com/skillify/skillify-backend/internal/types"
)

type LectureRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Lecture) ([]*types.Lecture, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Lecture, error)
	GetByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Lecture, error)
	CountByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
	SetPreviewFreeByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type lectureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLectureRepo(db *gorm.DB, baseLog *logger.Logger) LectureRepo {
	repoLog := baseLog.With("repo", "LectureRepo")
	return &lectureRepo{db: db, log: repoLog}
}

func (r *lectureRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Lecture) ([]*types.Lecture, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.Lecture{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *lectureRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Lecture, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.Lecture
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *lectureRepo) GetByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Lecture, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Lecture
	if courseID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *lectureRepo) CountByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Lecture{}).
		Where("course_id = ?", courseID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *lectureRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(updates) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Model(&types.Lecture{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// SetPreviewFreeByCourseID flips the preview flag on the whole course. The
// write is a flag-set, so retries and webhook replays are harmless.
func (r *lectureRepo) SetPreviewFreeByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Lecture{}).
		Where("course_id = ?", courseID).
		Update("is_preview_free", true).Error
}

func (r *lectureRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Lecture{}).Error
}
