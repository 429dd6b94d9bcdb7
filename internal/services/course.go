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

// CourseUpdate carries the editable course fields; nil means "leave as is".
type CourseUpdate struct {
	Title        *string
	Subtitle     *string
	Description  *string
	Category     *string
	Level        *string
	Price        *float64
	ThumbnailURL *string
	IsPublished  *bool
}

type CourseService interface {
	CreateCourse(ctx context.Context, creatorID uuid.UUID, title, category string) (*types.Course, error)
	EditCourse(ctx context.Context, creatorID, courseID uuid.UUID, update CourseUpdate) (*types.Course, error)
	GetCourseByID(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
	GetCreatorCourses(ctx context.Context, creatorID uuid.UUID) ([]*types.Course, error)
	GetCourseEnrollments(ctx context.Context, creatorID, courseID uuid.UUID) ([]*types.Enrollment, error)
	SearchPublished(ctx context.Context, query string, categories []string) ([]*types.Course, error)
}

type courseService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	enrollmentRepo repos.EnrollmentRepo
}

func NewCourseService(db *gorm.DB, baseLog *logger.Logger, courseRepo repos.CourseRepo, enrollmentRepo repos.EnrollmentRepo) CourseService {
	serviceLog := baseLog.With("service", "CourseService")
	return &courseService{
		db:             db,
		log:            serviceLog,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
	}
}

func (cs *courseService) CreateCourse(ctx context.Context, creatorID uuid.UUID, title, category string) (*types.Course, error) {
	title = strings.TrimSpace(title)
	category = strings.TrimSpace(category)
	if title == "" || category == "" {
		return nil, fmt.Errorf("title and category are required: %w", errs.ErrInvalidArgument)
	}

	course := &types.Course{
		ID:        uuid.New(),
		CreatorID: creatorID,
		Title:     title,
		Category:  category,
	}
	if _, err := cs.courseRepo.Create(ctx, nil, []*types.Course{course}); err != nil {
		cs.log.Error("CreateCourse failed", "error", err, "creator_id", creatorID)
		return nil, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

func (cs *courseService) EditCourse(ctx context.Context, creatorID, courseID uuid.UUID, update CourseUpdate) (*types.Course, error) {
	course, err := cs.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("course %s: %w", courseID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("load course: %w", err)
	}
	if course.CreatorID != creatorID {
		return nil, fmt.Errorf("course %s does not belong to caller: %w", courseID, errs.ErrUnauthorized)
	}

	updates := map[string]any{}
	if update.Title != nil {
		updates["title"] = strings.TrimSpace(*update.Title)
	}
	if update.Subtitle != nil {
		updates["subtitle"] = *update.Subtitle
	}
	if update.Description != nil {
		updates["description"] = *update.Description
	}
	if update.Category != nil {
		updates["category"] = strings.TrimSpace(*update.Category)
	}
	if update.Level != nil {
		updates["level"] = *update.Level
	}
	if update.Price != nil {
		updates["price"] = *update.Price
	}
	if update.ThumbnailURL != nil {
		updates["thumbnail_url"] = *update.ThumbnailURL
	}
	if update.IsPublished != nil {
		updates["is_published"] = *update.IsPublished
	}
	if len(updates) == 0 {
		return course, nil
	}

	if err := cs.courseRepo.UpdateFields(ctx, nil, courseID, updates); err != nil {
		cs.log.Error("EditCourse failed", "error", err, "course_id", courseID)
		return nil, fmt.Errorf("update course: %w", err)
	}
	return cs.courseRepo.GetByID(ctx, nil, courseID)
}

func (cs *courseService) GetCourseByID(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	course, err := cs.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("course %s: %w", courseID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("load course: %w", err)
	}
	return course, nil
}

func (cs *courseService) GetCreatorCourses(ctx context.Context, creatorID uuid.UUID) ([]*types.Course, error) {
	courses, err := cs.courseRepo.GetByCreatorID(ctx, nil, creatorID)
	if err != nil {
		cs.log.Error("GetCreatorCourses failed", "error", err, "creator_id", creatorID)
		return nil, fmt.Errorf("load creator courses: %w", err)
	}
	return courses, nil
}

// GetCourseEnrollments lists who enrolled in one of the caller's courses,
// for the creator dashboard.
func (cs *courseService) GetCourseEnrollments(ctx context.Context, creatorID, courseID uuid.UUID) ([]*types.Enrollment, error) {
	course, err := cs.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("course %s: %w", courseID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("load course: %w", err)
	}
	if course.CreatorID != creatorID {
		return nil, fmt.Errorf("course %s does not belong to caller: %w", courseID, errs.ErrUnauthorized)
	}

	enrollments, err := cs.enrollmentRepo.GetByCourseID(ctx, nil, courseID)
	if err != nil {
		cs.log.Error("GetCourseEnrollments failed", "error", err, "course_id", courseID)
		return nil, fmt.Errorf("load course enrollments: %w", err)
	}
	return enrollments, nil
}

func (cs *courseService) SearchPublished(ctx context.Context, query string, categories []string) ([]*types.Course, error) {
	courses, err := cs.courseRepo.SearchPublished(ctx, nil, query, categories)
	if err != nil {
		cs.log.Error("SearchPublished failed", "error", err, "query", query)
		return nil, fmt.Errorf("search courses: %w", err)
	}
	return courses, nil
}
