package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Course struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"creator_id"`
	Creator      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:CreatorID;references:ID" json:"creator,omitempty"`
	Title        string         `gorm:"not null;column:title" json:"title"`
	Subtitle     string         `gorm:"column:subtitle" json:"subtitle"`
	Description  string         `gorm:"column:description" json:"description"`
	Category     string         `gorm:"not null;column:category;index" json:"category"`
	Level        string         `gorm:"column:level" json:"level"`
	Price        float64        `gorm:"column:price;not null;default:0" json:"price"`
	ThumbnailURL string         `gorm:"column:thumbnail_url" json:"thumbnail_url"`
	IsPublished  bool           `gorm:"column:is_published;not null;default:false" json:"is_published"`
	Lectures     []*Lecture     `gorm:"foreignKey:CourseID;references:ID" json:"lectures,omitempty"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Course) TableName() string { return "course" }
