package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillify/skillify-backend/internal/errs"
	"github.com/skillify/skillify-backend/internal/logger"
	"github.com/skillify/skillify-backend/internal/repos"
	"github.com/skillify/skillify-backend/internal/types"
)

type LectureUpdate struct {
	Title         *string
	VideoURL      *string
	IsPreviewFree *bool
}

type LectureService interface {
	CreateLecture(ctx context.Context, courseID uuid.UUID, title string) (*types.Lecture, error)
	EditLecture(ctx context.Context, lectureID uuid.UUID, update LectureUpdate) (*types.Lecture, error)
	GetLectureByID(ctx context.Context, lectureID uuid.UUID) (*types.Lecture, error)
	GetCourseLectures(ctx context.Context, courseID uuid.UUID) ([]*types.Lecture, error)
	RemoveLecture(ctx context.Context, lectureID uuid.UUID) error
}

type lectureService struct {
	db          *gorm.DB
	log         *logger.Logger
	lectureRepo repos.LectureRepo
	courseRepo  repos.CourseRepo
}

func NewLectureService(db *gorm.DB, baseLog *logger.Logger, lectureRepo repos.LectureRepo, courseRepo repos.CourseRepo) LectureService {
	serviceLog := baseLog.With("service", "LectureService")
	return &lectureService{
		db:          db,
		log:         serviceLog,
		lectureRepo: lectureRepo,
		courseRepo:  courseRepo,
	}
}

func (ls *lectureService) CreateLecture(ctx context.Context, courseID uuid.UUID, title string) (*types.Lecture, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("lecture title is required: %w", errs.ErrInvalidArgument)
	}

	if _, err := ls.courseRepo.GetByID(ctx, nil, courseID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("course %s: %w", courseID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("load course: %w", err)
	}

	count, err := ls.lectureRepo.CountByCourseID(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("count course lectures: %w", err)
	}

	lecture := &types.Lecture{
		ID:       uuid.New(),
		CourseID: courseID,
		Position: int(count),
		Title:    title,
	}
	if _, err := ls.lectureRepo.Create(ctx, nil, []*types.Lecture{lecture}); err != nil {
		ls.log.Error("CreateLecture failed", "error", err, "course_id", courseID)
		return nil, fmt.Errorf("create lecture: %w", err)
	}
	return lecture, nil
}

func (ls *lectureService) EditLecture(ctx context.Context, lectureID uuid.UUID, update LectureUpdate) (*types.Lecture, error) {
	if _, err := ls.lectureRepo.GetByID(ctx, nil, lectureID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("lecture %s: %w", lectureID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("load lecture: %w", err)
	}

	updates := map[string]any{}
	if update.Title != nil {
		updates["title"] = strings.TrimSpace(*update.Title)
	}
	if update.VideoURL != nil {
		updates["video_url"] = *update.VideoURL
	}
	if update.IsPreviewFree != nil {
		updates["is_preview_free"] = *update.IsPreviewFree
	}

	if err := ls.lectureRepo.UpdateFields(ctx, nil, lectureID, updates); err != nil {
		ls.log.Error("EditLecture failed", "error", err, "lecture_id", lectureID)
		return nil, fmt.Errorf("update lecture: %w", err)
	}
	return ls.lectureRepo.GetByID(ctx, nil, lectureID)
}

func (ls *lectureService) GetLectureByID(ctx context.Context, lectureID uuid.UUID) (*types.Lecture, error) {
	lecture, err := ls.lectureRepo.GetByID(ctx, nil, lectureID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("lecture %s: %w", lectureID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("load lecture: %w", err)
	}
	return lecture, nil
}

func (ls *lectureService) GetCourseLectures(ctx context.Context, courseID uuid.UUID) ([]*types.Lecture, error) {
	if _, err := ls.courseRepo.GetByID(ctx, nil, courseID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("course %s: %w", courseID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("load course: %w", err)
	}

	lectures, err := ls.lectureRepo.GetByCourseID(ctx, nil, courseID)
	if err != nil {
		ls.log.Error("GetCourseLectures failed", "error", err, "course_id", courseID)
		return nil, fmt.Errorf("load course lectures: %w", err)
	}
	return lectures, nil
}

func (ls *lectureService) RemoveLecture(ctx context.Context, lectureID uuid.UUID) error {
	if _, err := ls.lectureRepo.GetByID(ctx, nil, lectureID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("lecture %s: %w", lectureID, errs.ErrNotFound)
		}
		return fmt.Errorf("load lecture: %w", err)
	}
	// Historical progress entries keep their lecture id on purpose; they
	// are weak references and are not purged with the lecture.
	return ls.lectureRepo.DeleteByID(ctx, nil, lectureID)
}
