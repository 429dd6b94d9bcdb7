package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillify/skillify-backend/internal/errs"
	"github.com/skillify/skillify-backend/internal/logger"
	"github.com/skillify/skillify-backend/internal/types"
)

type PurchaseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.CoursePurchase) ([]*types.CoursePurchase, error)
	GetByPaymentReference(ctx context.Context, tx *gorm.DB, reference string) (*types.CoursePurchase, error)
	GetCompletedByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.CoursePurchase, error)
	HasCompleted(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (bool, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
}

type purchaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPurchaseRepo(db *gorm.DB, baseLog *logger.Logger) PurchaseRepo {
	repoLog := baseLog.With("repo", "PurchaseRepo")
	return &purchaseRepo{db: db, log: repoLog}
}

func (r *purchaseRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.CoursePurchase) ([]*types.CoursePurchase, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.CoursePurchase{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *purchaseRepo) GetByPaymentReference(ctx context.Context, tx *gorm.DB, reference string) (*types.CoursePurchase, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.CoursePurchase
	if err := transaction.WithContext(ctx).
		Preload("Course").
		Where("payment_reference = ?", reference).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *purchaseRepo) GetCompletedByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.CoursePurchase, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.CoursePurchase
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Preload("Course").
		Where("user_id = ? AND status = ?", userID, types.PurchaseStatusCompleted).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *purchaseRepo) HasCompleted(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.CoursePurchase{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, types.PurchaseStatusCompleted).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *purchaseRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(updates) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Model(&types.CoursePurchase{}).
		Where("id = ?", id).
		Updates(updates).Error
}
