package types

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment is one edge of the user<->course membership set. The composite
// unique index is what makes repeated enrollment writes collapse into a
// single row.
type Enrollment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_user_course_enrollment,unique" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;index:idx_user_course_enrollment,unique" json:"course_id"`
	Course    *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Enrollment) TableName() string { return "enrollment" }
