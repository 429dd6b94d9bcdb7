package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/skillify/skillify-backend/internal/logger"
	"github.com/skillify/skillify-backend/internal/types"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

// newTestDB opens an isolated in-memory database per test. The shared-cache
// DSN keeps GORM's pooled connections on the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.User{},
		&types.Course{},
		&types.Lecture{},
		&types.Enrollment{},
		&types.CoursePurchase{},
		&types.CourseProgress{},
		&types.LectureProgress{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, role string) *types.User {
	t.Helper()
	user := &types.User{
		ID:    uuid.New(),
		Name:  "Test User",
		Email: fmt.Sprintf("%s@example.com", uuid.New()),
		Role:  role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedCourse(t *testing.T, db *gorm.DB, lectureCount int, price float64) (*types.Course, []*types.Lecture) {
	t.Helper()
	creator := seedUser(t, db, types.RoleInstructor)
	course := &types.Course{
		ID:          uuid.New(),
		CreatorID:   creator.ID,
		Title:       "Test Course",
		Category:    "testing",
		Price:       price,
		IsPublished: true,
	}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}

	lectures := make([]*types.Lecture, 0, lectureCount)
	for i := 0; i < lectureCount; i++ {
		lecture := &types.Lecture{
			ID:       uuid.New(),
			CourseID: course.ID,
			Position: i,
			Title:    fmt.Sprintf("Lecture %d", i+1),
		}
		if err := db.Create(lecture).Error; err != nil {
			t.Fatalf("seed lecture: %v", err)
		}
		lectures = append(lectures, lecture)
	}
	return course, lectures
}
