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

type CourseProgressRepo interface {
	GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.CourseProgress, error)
	// GetOrCreate resolves the lazy-create-on-first-view step. Two racing
	// callers converge on the same row via the (user, course) unique index.
	GetOrCreate(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.CourseProgress, error)
	MarkEntryViewed(ctx context.Context, tx *gorm.DB, progressID, lectureID uuid.UUID) error
	CountViewed(ctx context.Context, tx *gorm.DB, progressID uuid.UUID) (int64, error)
	SetCompleted(ctx context.Context, tx *gorm.DB, progressID uuid.UUID, completed bool) error
	SetAllEntriesViewed(ctx context.Context, tx *gorm.DB, progressID uuid.UUID, viewed bool) error
}

type courseProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseProgressRepo(db *gorm.DB, baseLog *logger.Logger) CourseProgressRepo {
	repoLog := baseLog.With("repo", "CourseProgressRepo")
	return &courseProgressRepo{db: db, log: repoLog}
}

func (r *courseProgressRepo) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.CourseProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.CourseProgress
	if err := transaction.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("lecture_progress.position ASC")
		}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *courseProgressRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.CourseProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	row := &types.CourseProgress{}
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Attrs(&types.CourseProgress{ID: uuid.New(), UserID: userID, CourseID: courseID}).
		FirstOrCreate(row).Error
	if err == nil {
		return row, nil
	}

	// Lost the create race: the unique index rejected our insert after
	// another request created the record. Re-read and use theirs.
	var existing types.CourseProgress
	if retryErr := transaction.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&existing).Error; retryErr == nil {
		return &existing, nil
	}
	return nil, err
}

// MarkEntryViewed appends a viewed entry for the lecture, or flips an
// existing one. Calling it again for the same lecture is a no-op.
func (r *courseProgressRepo) MarkEntryViewed(ctx context.Context, tx *gorm.DB, progressID, lectureID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var position int64
	if err := transaction.WithContext(ctx).
		Model(&types.LectureProgress{}).
		Where("course_progress_id = ?", progressID).
		Count(&position).Error; err != nil {
		return err
	}

	// The keys must ride along in Attrs: GORM does not back-assign raw-SQL
	// Where conditions onto a created record, so leaving them out would
	// insert the row with nil FKs.
	row := &types.LectureProgress{}
	return transaction.WithContext(ctx).
		Where("course_progress_id = ? AND lecture_id = ?", progressID, lectureID).
		Attrs(&types.LectureProgress{
			ID:               uuid.New(),
			CourseProgressID: progressID,
			LectureID:        lectureID,
			Position:         int(position),
		}).
		Assign(&types.LectureProgress{Viewed: true}).
		FirstOrCreate(row).Error
}

func (r *courseProgressRepo) CountViewed(ctx context.Context, tx *gorm.DB, progressID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.LectureProgress{}).
		Where("course_progress_id = ? AND viewed = ?", progressID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *courseProgressRepo) SetCompleted(ctx context.Context, tx *gorm.DB, progressID uuid.UUID, completed bool) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.CourseProgress{}).
		Where("id = ?", progressID).
		Update("completed", completed).Error
}

// SetAllEntriesViewed flips every existing entry. It deliberately does not
// add entries for lectures that were never viewed.
func (r *courseProgressRepo) SetAllEntriesViewed(ctx context.Context, tx *gorm.DB, progressID uuid.UUID, viewed bool) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.LectureProgress{}).
		Where("course_progress_id = ?", progressID).
		Update("viewed", viewed).Error
}
