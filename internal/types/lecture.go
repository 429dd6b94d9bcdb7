package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Lecture struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_id"`
	Position      int            `gorm:"column:position;not null;default:0" json:"position"`
	Title         string         `gorm:"not null;column:title" json:"title"`
	VideoURL      string         `gorm:"column:video_url" json:"video_url"`
	IsPreviewFree bool           `gorm:"column:is_preview_free;not null;default:false" json:"is_preview_free"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Lecture) TableName() string { return "lecture" }
