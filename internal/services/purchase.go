package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillify/skillify-backend/internal/errs"
	"github.com/skillify/skillify-backend/internal/logger"
	"github.com/skillify/skillify-backend/internal/repos"
	"github.com/skillify/skillify-backend/internal/types"
)

// CheckoutSession is what the payment gateway hands back when a checkout is
// initiated. ID doubles as the payment reference the webhook reports later.
type CheckoutSession struct {
	ID  string
	URL string
}

// PaymentGateway abstracts the payment provider's checkout initiation.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, course *types.Course, userID uuid.UUID) (*CheckoutSession, error)
}

// EnrollmentEvent is published after a purchase reconciles into an
// enrollment.
type EnrollmentEvent struct {
	PurchaseID uuid.UUID `json:"purchase_id"`
	UserID     uuid.UUID `json:"user_id"`
	CourseID   uuid.UUID `json:"course_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EnrollmentBus fan-outs enrollment events to interested consumers. It is a
// notification concern only; publish failures never fail reconciliation.
type EnrollmentBus interface {
	Publish(ctx context.Context, event EnrollmentEvent) error
}

type PurchaseService interface {
	CreateCheckoutSession(ctx context.Context, userID, courseID uuid.UUID) (string, error)
	// HandlePaymentSucceeded reconciles a provider success event into a
	// completed purchase plus enrollment. confirmedAmount is the
	// provider-reported charged total in major units, nil when the event
	// carries none.
	HandlePaymentSucceeded(ctx context.Context, paymentReference string, confirmedAmount *float64) error
	GetCourseDetailWithStatus(ctx context.Context, userID, courseID uuid.UUID) (*types.Course, bool, error)
	GetPurchasedCourses(ctx context.Context, userID uuid.UUID) ([]*types.CoursePurchase, error)
}

type purchaseService struct {
	db             *gorm.DB
	log            *logger.Logger
	purchaseRepo   repos.PurchaseRepo
	courseRepo     repos.CourseRepo
	lectureRepo    repos.LectureRepo
	enrollmentRepo repos.EnrollmentRepo
	gateway        PaymentGateway
	events         EnrollmentBus
}

func NewPurchaseService(
	db *gorm.DB,
	baseLog *logger.Logger,
	purchaseRepo repos.PurchaseRepo,
	courseRepo repos.CourseRepo,
	lectureRepo repos.LectureRepo,
	enrollmentRepo repos.EnrollmentRepo,
	gateway PaymentGateway,
	events EnrollmentBus,
) PurchaseService {
	serviceLog := baseLog.With("service", "PurchaseService")
	return &purchaseService{
		db:             db,
		log:            serviceLog,
		purchaseRepo:   purchaseRepo,
		courseRepo:     courseRepo,
		lectureRepo:    lectureRepo,
		enrollmentRepo: enrollmentRepo,
		gateway:        gateway,
		events:         events,
	}
}

func (s *purchaseService) CreateCheckoutSession(ctx context.Context, userID, courseID uuid.UUID) (string, error) {
	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", fmt.Errorf("course %s: %w", courseID, errs.ErrNotFound)
		}
		return "", fmt.Errorf("load course: %w", err)
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, course, userID)
	if err != nil {
		s.log.Error("CreateCheckoutSession gateway call failed", "error", err, "course_id", courseID, "user_id", userID)
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	if session.URL == "" {
		return "", fmt.Errorf("checkout session %s has no redirect url", session.ID)
	}

	// Amount is locked to the price at checkout time; later price edits
	// do not change what this purchase settles at.
	purchase := &types.CoursePurchase{
		ID:               uuid.New(),
		CourseID:         courseID,
		UserID:           userID,
		Amount:           course.Price,
		Status:           types.PurchaseStatusPending,
		PaymentReference: session.ID,
	}
	if _, err := s.purchaseRepo.Create(ctx, nil, []*types.CoursePurchase{purchase}); err != nil {
		s.log.Error("CreateCheckoutSession purchase create failed", "error", err, "payment_reference", session.ID)
		return "", fmt.Errorf("create pending purchase: %w", err)
	}
	return session.URL, nil
}

// HandlePaymentSucceeded is the webhook reconciliation path. The provider
// delivers at least once, so every step below must tolerate being re-run:
// the status write is monotonic, the preview unlock is a flag-set and the
// enrollment insert is a set-add. A replay for an already completed
// purchase re-runs the side effects and reports success.
func (s *purchaseService) HandlePaymentSucceeded(ctx context.Context, paymentReference string, confirmedAmount *float64) error {
	purchase, err := s.purchaseRepo.GetByPaymentReference(ctx, nil, paymentReference)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("purchase %q: %w", paymentReference, errs.ErrNotFound)
		}
		return fmt.Errorf("load purchase: %w", err)
	}

	alreadyCompleted := purchase.Status == types.PurchaseStatusCompleted
	if !alreadyCompleted {
		updates := map[string]any{"status": types.PurchaseStatusCompleted}
		if confirmedAmount != nil && *confirmedAmount != purchase.Amount {
			// The provider's charged total wins over the checkout-time
			// estimate (currency subunit rounding and the like).
			updates["amount"] = *confirmedAmount
		}
		if err := s.purchaseRepo.UpdateFields(ctx, nil, purchase.ID, updates); err != nil {
			return fmt.Errorf("complete purchase: %w", err)
		}
	} else {
		s.log.Info("HandlePaymentSucceeded replay for completed purchase", "payment_reference", paymentReference, "purchase_id", purchase.ID)
	}

	// Any completed purchase unlocks the free preview on the whole course.
	// Looks odd, but it is the shipped product behavior.
	if err := s.lectureRepo.SetPreviewFreeByCourseID(ctx, nil, purchase.CourseID); err != nil {
		return fmt.Errorf("unlock lecture previews: %w", err)
	}
	if err := s.enrollmentRepo.AddIfAbsent(ctx, nil, purchase.UserID, purchase.CourseID); err != nil {
		return fmt.Errorf("record enrollment: %w", err)
	}

	if s.events != nil && !alreadyCompleted {
		event := EnrollmentEvent{
			PurchaseID: purchase.ID,
			UserID:     purchase.UserID,
			CourseID:   purchase.CourseID,
			OccurredAt: time.Now().UTC(),
		}
		if err := s.events.Publish(ctx, event); err != nil {
			s.log.Warn("HandlePaymentSucceeded event publish failed", "error", err, "purchase_id", purchase.ID)
		}
	}
	return nil
}

func (s *purchaseService) GetCourseDetailWithStatus(ctx context.Context, userID, courseID uuid.UUID) (*types.Course, bool, error) {
	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, false, fmt.Errorf("course %s: %w", courseID, errs.ErrNotFound)
		}
		return nil, false, fmt.Errorf("load course: %w", err)
	}

	purchased, err := s.purchaseRepo.HasCompleted(ctx, nil, userID, courseID)
	if err != nil {
		return nil, false, fmt.Errorf("check purchase status: %w", err)
	}
	return course, purchased, nil
}

func (s *purchaseService) GetPurchasedCourses(ctx context.Context, userID uuid.UUID) ([]*types.CoursePurchase, error) {
	purchases, err := s.purchaseRepo.GetCompletedByUserID(ctx, nil, userID)
	if err != nil {
		s.log.Error("GetPurchasedCourses failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("load purchased courses: %w", err)
	}
	return purchases, nil
}
