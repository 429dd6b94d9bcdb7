package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillify/skillify-backend/internal/errs"
	"github.com/skillify/skillify-backend/internal/logger"
	"github.com/skillify/skillify-backend/internal/repos"
	"github.com/skillify/skillify-backend/internal/types"
)

// CourseProgressView is the read-side shape consumed by the client to gate
// the continue/buy UI and the sidebar badges.
type CourseProgressView struct {
	Course    *types.Course            `json:"course_details"`
	Progress  []*types.LectureProgress `json:"progress"`
	Completed bool                     `json:"completed"`
	Percent   int                      `json:"percent"`
}

type ProgressService interface {
	GetCourseProgress(ctx context.Context, userID, courseID uuid.UUID) (*CourseProgressView, error)
	RecordLectureViewed(ctx context.Context, userID, courseID, lectureID uuid.UUID) error
	MarkCourseCompleted(ctx context.Context, userID, courseID uuid.UUID) error
	MarkCourseIncomplete(ctx context.Context, userID, courseID uuid.UUID) error
}

type progressService struct {
	db           *gorm.DB
	log          *logger.Logger
	progressRepo repos.CourseProgressRepo
	courseRepo   repos.CourseRepo
	lectureRepo  repos.LectureRepo
}

func NewProgressService(
	db *gorm.DB,
	baseLog *logger.Logger,
	progressRepo repos.CourseProgressRepo,
	courseRepo repos.CourseRepo,
	lectureRepo repos.LectureRepo,
) ProgressService {
	serviceLog := baseLog.With("service", "ProgressService")
	return &progressService{
		db:           db,
		log:          serviceLog,
		progressRepo: progressRepo,
		courseRepo:   courseRepo,
		lectureRepo:  lectureRepo,
	}
}

func (ps *progressService) GetCourseProgress(ctx context.Context, userID, courseID uuid.UUID) (*CourseProgressView, error) {
	course, err := ps.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("course %s: %w", courseID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("load course: %w", err)
	}

	progress, err := ps.progressRepo.GetByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		// No record yet is the expected state before the first view event,
		// not an error.
		if errors.Is(err, errs.ErrNotFound) {
			return &CourseProgressView{
				Course:    course,
				Progress:  []*types.LectureProgress{},
				Completed: false,
				Percent:   0,
			}, nil
		}
		return nil, fmt.Errorf("load course progress: %w", err)
	}

	viewed := 0
	for _, entry := range progress.Entries {
		if entry.Viewed {
			viewed++
		}
	}
	return &CourseProgressView{
		Course:    course,
		Progress:  progress.Entries,
		Completed: progress.Completed,
		Percent:   completionPercent(viewed, len(course.Lectures)),
	}, nil
}

func (ps *progressService) RecordLectureViewed(ctx context.Context, userID, courseID, lectureID uuid.UUID) error {
	progress, err := ps.progressRepo.GetOrCreate(ctx, nil, userID, courseID)
	if err != nil {
		ps.log.Error("RecordLectureViewed get-or-create failed", "error", err, "user_id", userID, "course_id", courseID)
		return fmt.Errorf("get or create course progress: %w", err)
	}

	if err := ps.progressRepo.MarkEntryViewed(ctx, nil, progress.ID, lectureID); err != nil {
		ps.log.Error("RecordLectureViewed entry upsert failed", "error", err, "progress_id", progress.ID, "lecture_id", lectureID)
		return fmt.Errorf("mark lecture viewed: %w", err)
	}

	viewed, err := ps.progressRepo.CountViewed(ctx, nil, progress.ID)
	if err != nil {
		return fmt.Errorf("count viewed lectures: %w", err)
	}
	// Progress is tracked independently of the course content lifecycle: a
	// deleted course or lecture counts as zero here and simply never
	// completes, it does not fail the view event.
	total, err := ps.lectureRepo.CountByCourseID(ctx, nil, courseID)
	if err != nil {
		return fmt.Errorf("count course lectures: %w", err)
	}

	if total > 0 && viewed == total {
		if err := ps.progressRepo.SetCompleted(ctx, nil, progress.ID, true); err != nil {
			return fmt.Errorf("set course completed: %w", err)
		}
	}
	return nil
}

// MarkCourseCompleted flips every tracked entry to viewed and sets the
// completed flag. Lectures that were never opened get no entry, so the
// record can read completed with fewer entries than the course has
// lectures. That mirrors the mark-as-complete shortcut in the client and
// is kept as-is pending product sign-off.
func (ps *progressService) MarkCourseCompleted(ctx context.Context, userID, courseID uuid.UUID) error {
	return ps.setAllViewed(ctx, userID, courseID, true)
}

func (ps *progressService) MarkCourseIncomplete(ctx context.Context, userID, courseID uuid.UUID) error {
	return ps.setAllViewed(ctx, userID, courseID, false)
}

func (ps *progressService) setAllViewed(ctx context.Context, userID, courseID uuid.UUID, viewed bool) error {
	progress, err := ps.progressRepo.GetByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			// Completing a course with zero tracked interaction is a
			// precondition violation; the record has to exist first.
			return fmt.Errorf("course progress for course %s: %w", courseID, errs.ErrNotFound)
		}
		return fmt.Errorf("load course progress: %w", err)
	}

	if err := ps.progressRepo.SetAllEntriesViewed(ctx, nil, progress.ID, viewed); err != nil {
		ps.log.Error("setAllViewed entry update failed", "error", err, "progress_id", progress.ID, "viewed", viewed)
		return fmt.Errorf("update lecture entries: %w", err)
	}
	if err := ps.progressRepo.SetCompleted(ctx, nil, progress.ID, viewed); err != nil {
		return fmt.Errorf("set completed flag: %w", err)
	}
	return nil
}

// completionPercent is computed read-side and never stored. A course with
// no lectures reads as 0%.
func completionPercent(viewed, total int) int {
	if total <= 0 {
		return 0
	}
	percent := int(math.Round(100 * float64(viewed) / float64(total)))
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}
