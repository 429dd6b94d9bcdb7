package types

import (
	"time"

	"github.com/google/uuid"
)

// CourseProgress is the per-(user, course) viewing record. It is created
// lazily on the first lecture-view event and never deleted.
type CourseProgress struct {
	ID        uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID          `gorm:"type:uuid;not null;index:idx_user_course_progress,unique" json:"user_id"`
	CourseID  uuid.UUID          `gorm:"type:uuid;not null;index:idx_user_course_progress,unique" json:"course_id"`
	Completed bool               `gorm:"column:completed;not null;default:false" json:"completed"`
	Entries   []*LectureProgress `gorm:"foreignKey:CourseProgressID;references:ID" json:"lecture_progress,omitempty"`
	CreatedAt time.Time          `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time          `gorm:"not null" json:"updated_at"`
}

func (CourseProgress) TableName() string { return "course_progress" }

// LectureProgress is a single viewed flag inside a CourseProgress record.
// The lecture reference is weak: entries survive lecture deletion.
type LectureProgress struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseProgressID uuid.UUID `gorm:"type:uuid;not null;index:idx_progress_lecture,unique" json:"-"`
	LectureID        uuid.UUID `gorm:"type:uuid;not null;index:idx_progress_lecture,unique" json:"lecture_id"`
	Viewed           bool      `gorm:"column:viewed;not null;default:false" json:"viewed"`
	Position         int       `gorm:"column:position;not null;default:0" json:"position"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

func (LectureProgress) TableName() string { return "lecture_progress" }
