package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillify/skillify-backend/internal/errs"
	"github.com/skillify/skillify-backend/internal/repos"
	"github.com/skillify/skillify-backend/internal/types"
)

func newCourseService(t *testing.T, db *gorm.DB) CourseService {
	t.Helper()
	log := newTestLogger(t)
	return NewCourseService(db, log, repos.NewCourseRepo(db, log), repos.NewEnrollmentRepo(db, log))
}

func newLectureService(t *testing.T, db *gorm.DB) LectureService {
	t.Helper()
	log := newTestLogger(t)
	return NewLectureService(db, log, repos.NewLectureRepo(db, log), repos.NewCourseRepo(db, log))
}

func strptr(s string) *string   { return &s }
func f64ptr(f float64) *float64 { return &f }
func boolptr(b bool) *bool      { return &b }

func TestCreateCourseValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newCourseService(t, db)
	instructor := seedUser(t, db, types.RoleInstructor)

	_, err := svc.CreateCourse(context.Background(), instructor.ID, "  ", "backend")
	if !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("blank title err: want=%v got=%v", errs.ErrInvalidArgument, err)
	}

	course, err := svc.CreateCourse(context.Background(), instructor.ID, "Go Basics", "backend")
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	if course.CreatorID != instructor.ID {
		t.Fatalf("creator id: want=%s got=%s", instructor.ID, course.CreatorID)
	}
	if course.IsPublished {
		t.Fatalf("new course must start unpublished")
	}
}

func TestEditCourseOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := newCourseService(t, db)
	owner := seedUser(t, db, types.RoleInstructor)
	other := seedUser(t, db, types.RoleInstructor)

	course, err := svc.CreateCourse(context.Background(), owner.ID, "Go Basics", "backend")
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}

	_, err = svc.EditCourse(context.Background(), other.ID, course.ID, CourseUpdate{Title: strptr("Hijacked")})
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("foreign edit err: want=%v got=%v", errs.ErrUnauthorized, err)
	}

	edited, err := svc.EditCourse(context.Background(), owner.ID, course.ID, CourseUpdate{
		Title:       strptr("Go Basics, 2nd ed."),
		Price:       f64ptr(499),
		IsPublished: boolptr(true),
	})
	if err != nil {
		t.Fatalf("EditCourse: %v", err)
	}
	if edited.Title != "Go Basics, 2nd ed." || edited.Price != 499 || !edited.IsPublished {
		t.Fatalf("edit not applied: %+v", edited)
	}
}

func TestSearchPublished(t *testing.T) {
	db := newTestDB(t)
	svc := newCourseService(t, db)
	instructor := seedUser(t, db, types.RoleInstructor)

	published, err := svc.CreateCourse(context.Background(), instructor.ID, "Distributed Systems", "backend")
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	if _, err := svc.EditCourse(context.Background(), instructor.ID, published.ID, CourseUpdate{IsPublished: boolptr(true)}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := svc.CreateCourse(context.Background(), instructor.ID, "Distributed Drafts", "backend"); err != nil {
		t.Fatalf("CreateCourse draft: %v", err)
	}

	results, err := svc.SearchPublished(context.Background(), "distributed", nil)
	if err != nil {
		t.Fatalf("SearchPublished: %v", err)
	}
	if len(results) != 1 || results[0].ID != published.ID {
		t.Fatalf("search results: want only %s, got %d results", published.ID, len(results))
	}

	none, err := svc.SearchPublished(context.Background(), "distributed", []string{"frontend"})
	if err != nil {
		t.Fatalf("SearchPublished with category: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("category filter: want=0 got=%d", len(none))
	}
}

func TestGetCourseEnrollments(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	svc := newCourseService(t, db)
	enrollmentRepo := repos.NewEnrollmentRepo(db, log)

	owner := seedUser(t, db, types.RoleInstructor)
	other := seedUser(t, db, types.RoleInstructor)
	student := seedUser(t, db, "student")
	course, err := svc.CreateCourse(context.Background(), owner.ID, "Go Basics", "backend")
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	if err := enrollmentRepo.AddIfAbsent(context.Background(), nil, student.ID, course.ID); err != nil {
		t.Fatalf("AddIfAbsent: %v", err)
	}

	if _, err := svc.GetCourseEnrollments(context.Background(), other.ID, course.ID); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("foreign list err: want=%v got=%v", errs.ErrUnauthorized, err)
	}

	enrollments, err := svc.GetCourseEnrollments(context.Background(), owner.ID, course.ID)
	if err != nil {
		t.Fatalf("GetCourseEnrollments: %v", err)
	}
	if len(enrollments) != 1 || enrollments[0].UserID != student.ID {
		t.Fatalf("enrollments: want 1 for %s, got %d", student.ID, len(enrollments))
	}
}

func TestCreateLectureAppendsPosition(t *testing.T) {
	db := newTestDB(t)
	svc := newLectureService(t, db)
	course, _ := seedCourse(t, db, 2, 499)

	lecture, err := svc.CreateLecture(context.Background(), course.ID, "Wrap-up")
	if err != nil {
		t.Fatalf("CreateLecture: %v", err)
	}
	if lecture.Position != 2 {
		t.Fatalf("position: want=2 got=%d", lecture.Position)
	}

	if _, err := svc.CreateLecture(context.Background(), uuid.New(), "Orphan"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown course err: want=%v got=%v", errs.ErrNotFound, err)
	}
}

func TestRemoveLectureKeepsProgressEntries(t *testing.T) {
	db := newTestDB(t)
	lectureSvc := newLectureService(t, db)
	progressSvc := newProgressService(t, db)
	course, lectures := seedCourse(t, db, 2, 499)
	student := seedUser(t, db, "student")

	if err := progressSvc.RecordLectureViewed(context.Background(), student.ID, course.ID, lectures[0].ID); err != nil {
		t.Fatalf("RecordLectureViewed: %v", err)
	}
	if err := lectureSvc.RemoveLecture(context.Background(), lectures[0].ID); err != nil {
		t.Fatalf("RemoveLecture: %v", err)
	}

	var entries int64
	if err := db.Model(&types.LectureProgress{}).Where("lecture_id = ?", lectures[0].ID).Count(&entries).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if entries != 1 {
		t.Fatalf("progress entries after lecture removal: want=1 got=%d", entries)
	}
}
