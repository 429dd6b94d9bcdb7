package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusFailed    = "failed"
)

type CoursePurchase struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Course   *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User     *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	// Amount is the major-unit price snapshot taken at checkout time. It is
	// only rewritten when the provider reports a different charged total.
	Amount float64 `gorm:"column:amount;not null;default:0" json:"amount"`
	Status string  `gorm:"column:status;not null;default:'pending'" json:"status"`
	// PaymentReference correlates the checkout session with its webhook.
	PaymentReference string         `gorm:"column:payment_reference;uniqueIndex;not null" json:"payment_reference"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (CoursePurchase) TableName() string { return "course_purchase" }
