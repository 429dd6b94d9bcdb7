package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillify/skillify-backend/internal/logger"
	"github.com/skillify/skillify-backend/internal/types"
)

type EnrollmentRepo interface {
	// AddIfAbsent is the set-add: repeated calls for the same pair leave a
	// single row behind.
	AddIfAbsent(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) error
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Enrollment, error)
	GetByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Enrollment, error)
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	repoLog := baseLog.With("repo", "EnrollmentRepo")
	return &enrollmentRepo{db: db, log: repoLog}
}

func (r *enrollmentRepo) AddIfAbsent(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	row := &types.Enrollment{}
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Attrs(&types.Enrollment{ID: uuid.New(), UserID: userID, CourseID: courseID}).
		FirstOrCreate(row).Error; err != nil {
		// A concurrent writer may win the insert; the unique index makes
		// that outcome equivalent to ours.
		var existing types.Enrollment
		if retryErr := transaction.WithContext(ctx).
			Where("user_id = ? AND course_id = ?", userID, courseID).
			First(&existing).Error; retryErr == nil {
			return nil
		}
		return err
	}
	return nil
}

func (r *enrollmentRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Enrollment
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *enrollmentRepo) GetByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Enrollment
	if courseID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Preload("User").
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
