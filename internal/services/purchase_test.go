package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillify/skillify-backend/internal/errs"
	"github.com/skillify/skillify-backend/internal/repos"
	"github.com/skillify/skillify-backend/internal/types"
)

type fakeGateway struct {
	calls   int
	fail    bool
	lastURL string
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, course *types.Course, userID uuid.UUID) (*CheckoutSession, error) {
	g.calls++
	if g.fail {
		return nil, fmt.Errorf("gateway unavailable")
	}
	id := fmt.Sprintf("cs_test_%d", g.calls)
	g.lastURL = "https://checkout.example.com/" + id
	return &CheckoutSession{ID: id, URL: g.lastURL}, nil
}

type fakeBus struct {
	events []EnrollmentEvent
	fail   bool
}

func (b *fakeBus) Publish(ctx context.Context, event EnrollmentEvent) error {
	if b.fail {
		return fmt.Errorf("bus down")
	}
	b.events = append(b.events, event)
	return nil
}

func newPurchaseService(t *testing.T, db *gorm.DB, gateway PaymentGateway, bus EnrollmentBus) PurchaseService {
	t.Helper()
	log := newTestLogger(t)
	return NewPurchaseService(
		db,
		log,
		repos.NewPurchaseRepo(db, log),
		repos.NewCourseRepo(db, log),
		repos.NewLectureRepo(db, log),
		repos.NewEnrollmentRepo(db, log),
		gateway,
		bus,
	)
}

func pendingPurchase(t *testing.T, db *gorm.DB, svc PurchaseService, userID, courseID uuid.UUID) *types.CoursePurchase {
	t.Helper()
	if _, err := svc.CreateCheckoutSession(context.Background(), userID, courseID); err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	var purchase types.CoursePurchase
	if err := db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&purchase).Error; err != nil {
		t.Fatalf("load pending purchase: %v", err)
	}
	return &purchase
}

func TestCreateCheckoutSessionMissingCourse(t *testing.T) {
	db := newTestDB(t)
	svc := newPurchaseService(t, db, &fakeGateway{}, nil)

	_, err := svc.CreateCheckoutSession(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("CreateCheckoutSession err: want=%v got=%v", errs.ErrNotFound, err)
	}
}

func TestCreateCheckoutSessionSnapshotsPrice(t *testing.T) {
	db := newTestDB(t)
	gateway := &fakeGateway{}
	svc := newPurchaseService(t, db, gateway, nil)
	course, _ := seedCourse(t, db, 3, 499)
	student := seedUser(t, db, "student")

	url, err := svc.CreateCheckoutSession(context.Background(), student.ID, course.ID)
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	if url != gateway.lastURL {
		t.Fatalf("checkout url: want=%q got=%q", gateway.lastURL, url)
	}

	var purchase types.CoursePurchase
	if err := db.Where("user_id = ? AND course_id = ?", student.ID, course.ID).First(&purchase).Error; err != nil {
		t.Fatalf("load purchase: %v", err)
	}
	if purchase.Status != types.PurchaseStatusPending {
		t.Fatalf("status: want=%q got=%q", types.PurchaseStatusPending, purchase.Status)
	}
	if purchase.Amount != 499 {
		t.Fatalf("amount: want=499 got=%v", purchase.Amount)
	}
	if purchase.PaymentReference == "" {
		t.Fatalf("payment reference not stored")
	}

	// A later price edit must not move the locked amount.
	if err := db.Model(&types.Course{}).Where("id = ?", course.ID).Update("price", 999).Error; err != nil {
		t.Fatalf("edit price: %v", err)
	}
	if err := svc.HandlePaymentSucceeded(context.Background(), purchase.PaymentReference, nil); err != nil {
		t.Fatalf("HandlePaymentSucceeded: %v", err)
	}
	if err := db.First(&purchase, "id = ?", purchase.ID).Error; err != nil {
		t.Fatalf("reload purchase: %v", err)
	}
	if purchase.Amount != 499 {
		t.Fatalf("amount after completion: want=499 got=%v", purchase.Amount)
	}
}

func TestCreateCheckoutSessionGatewayFailure(t *testing.T) {
	db := newTestDB(t)
	svc := newPurchaseService(t, db, &fakeGateway{fail: true}, nil)
	course, _ := seedCourse(t, db, 1, 499)
	student := seedUser(t, db, "student")

	if _, err := svc.CreateCheckoutSession(context.Background(), student.ID, course.ID); err == nil {
		t.Fatalf("CreateCheckoutSession with failing gateway: want error, got nil")
	}

	var count int64
	if err := db.Model(&types.CoursePurchase{}).Count(&count).Error; err != nil {
		t.Fatalf("count purchases: %v", err)
	}
	if count != 0 {
		t.Fatalf("pending purchases after gateway failure: want=0 got=%d", count)
	}
}

func TestHandlePaymentSucceededUnknownReference(t *testing.T) {
	db := newTestDB(t)
	svc := newPurchaseService(t, db, &fakeGateway{}, nil)

	err := svc.HandlePaymentSucceeded(context.Background(), "cs_missing", nil)
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("HandlePaymentSucceeded err: want=%v got=%v", errs.ErrNotFound, err)
	}
}

func TestHandlePaymentSucceededEnrollsAndUnlocks(t *testing.T) {
	db := newTestDB(t)
	bus := &fakeBus{}
	svc := newPurchaseService(t, db, &fakeGateway{}, bus)
	course, _ := seedCourse(t, db, 3, 499)
	student := seedUser(t, db, "student")
	purchase := pendingPurchase(t, db, svc, student.ID, course.ID)

	if err := svc.HandlePaymentSucceeded(context.Background(), purchase.PaymentReference, nil); err != nil {
		t.Fatalf("HandlePaymentSucceeded: %v", err)
	}

	var reloaded types.CoursePurchase
	if err := db.First(&reloaded, "id = ?", purchase.ID).Error; err != nil {
		t.Fatalf("reload purchase: %v", err)
	}
	if reloaded.Status != types.PurchaseStatusCompleted {
		t.Fatalf("status: want=%q got=%q", types.PurchaseStatusCompleted, reloaded.Status)
	}

	var enrollments int64
	if err := db.Model(&types.Enrollment{}).Where("user_id = ? AND course_id = ?", student.ID, course.ID).Count(&enrollments).Error; err != nil {
		t.Fatalf("count enrollments: %v", err)
	}
	if enrollments != 1 {
		t.Fatalf("enrollments: want=1 got=%d", enrollments)
	}

	var locked int64
	if err := db.Model(&types.Lecture{}).Where("course_id = ? AND is_preview_free = ?", course.ID, false).Count(&locked).Error; err != nil {
		t.Fatalf("count locked lectures: %v", err)
	}
	if locked != 0 {
		t.Fatalf("lectures still locked after completion: want=0 got=%d", locked)
	}

	if len(bus.events) != 1 {
		t.Fatalf("published events: want=1 got=%d", len(bus.events))
	}
	if bus.events[0].UserID != student.ID || bus.events[0].CourseID != course.ID {
		t.Fatalf("event identity mismatch: %+v", bus.events[0])
	}
}

func TestHandlePaymentSucceededReplaySafe(t *testing.T) {
	db := newTestDB(t)
	bus := &fakeBus{}
	svc := newPurchaseService(t, db, &fakeGateway{}, bus)
	course, _ := seedCourse(t, db, 2, 499)
	student := seedUser(t, db, "student")
	purchase := pendingPurchase(t, db, svc, student.ID, course.ID)

	if err := svc.HandlePaymentSucceeded(context.Background(), purchase.PaymentReference, nil); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	// At-least-once delivery: the replay must be indistinguishable from
	// success and must not duplicate state.
	if err := svc.HandlePaymentSucceeded(context.Background(), purchase.PaymentReference, nil); err != nil {
		t.Fatalf("replayed delivery: %v", err)
	}

	var enrollments int64
	if err := db.Model(&types.Enrollment{}).Where("user_id = ? AND course_id = ?", student.ID, course.ID).Count(&enrollments).Error; err != nil {
		t.Fatalf("count enrollments: %v", err)
	}
	if enrollments != 1 {
		t.Fatalf("enrollments after replay: want=1 got=%d", enrollments)
	}
	if len(bus.events) != 1 {
		t.Fatalf("published events after replay: want=1 got=%d", len(bus.events))
	}
}

func TestHandlePaymentSucceededConfirmedAmountWins(t *testing.T) {
	db := newTestDB(t)
	svc := newPurchaseService(t, db, &fakeGateway{}, nil)
	course, _ := seedCourse(t, db, 1, 499)
	student := seedUser(t, db, "student")
	purchase := pendingPurchase(t, db, svc, student.ID, course.ID)

	confirmed := 501.0
	if err := svc.HandlePaymentSucceeded(context.Background(), purchase.PaymentReference, &confirmed); err != nil {
		t.Fatalf("HandlePaymentSucceeded: %v", err)
	}

	var reloaded types.CoursePurchase
	if err := db.First(&reloaded, "id = ?", purchase.ID).Error; err != nil {
		t.Fatalf("reload purchase: %v", err)
	}
	if reloaded.Amount != confirmed {
		t.Fatalf("amount: want=%v got=%v", confirmed, reloaded.Amount)
	}
}

func TestHandlePaymentSucceededBusFailureIsNotFatal(t *testing.T) {
	db := newTestDB(t)
	svc := newPurchaseService(t, db, &fakeGateway{}, &fakeBus{fail: true})
	course, _ := seedCourse(t, db, 1, 499)
	student := seedUser(t, db, "student")
	purchase := pendingPurchase(t, db, svc, student.ID, course.ID)

	if err := svc.HandlePaymentSucceeded(context.Background(), purchase.PaymentReference, nil); err != nil {
		t.Fatalf("HandlePaymentSucceeded with failing bus: %v", err)
	}
}

func TestGetCourseDetailWithStatus(t *testing.T) {
	db := newTestDB(t)
	svc := newPurchaseService(t, db, &fakeGateway{}, nil)
	course, _ := seedCourse(t, db, 2, 499)
	student := seedUser(t, db, "student")

	_, purchased, err := svc.GetCourseDetailWithStatus(context.Background(), student.ID, course.ID)
	if err != nil {
		t.Fatalf("GetCourseDetailWithStatus: %v", err)
	}
	if purchased {
		t.Fatalf("purchased before checkout: want=false got=true")
	}

	purchase := pendingPurchase(t, db, svc, student.ID, course.ID)
	_, purchased, err = svc.GetCourseDetailWithStatus(context.Background(), student.ID, course.ID)
	if err != nil {
		t.Fatalf("GetCourseDetailWithStatus pending: %v", err)
	}
	if purchased {
		t.Fatalf("purchased while pending: want=false got=true")
	}

	if err := svc.HandlePaymentSucceeded(context.Background(), purchase.PaymentReference, nil); err != nil {
		t.Fatalf("HandlePaymentSucceeded: %v", err)
	}
	_, purchased, err = svc.GetCourseDetailWithStatus(context.Background(), student.ID, course.ID)
	if err != nil {
		t.Fatalf("GetCourseDetailWithStatus completed: %v", err)
	}
	if !purchased {
		t.Fatalf("purchased after completion: want=true got=false")
	}
}

func TestGetPurchasedCourses(t *testing.T) {
	db := newTestDB(t)
	svc := newPurchaseService(t, db, &fakeGateway{}, nil)
	course, _ := seedCourse(t, db, 1, 499)
	otherCourse, _ := seedCourse(t, db, 1, 999)
	student := seedUser(t, db, "student")

	completed := pendingPurchase(t, db, svc, student.ID, course.ID)
	if err := svc.HandlePaymentSucceeded(context.Background(), completed.PaymentReference, nil); err != nil {
		t.Fatalf("HandlePaymentSucceeded: %v", err)
	}
	// Second checkout stays pending and must not show up.
	pendingPurchase(t, db, svc, student.ID, otherCourse.ID)

	purchases, err := svc.GetPurchasedCourses(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("GetPurchasedCourses: %v", err)
	}
	if len(purchases) != 1 {
		t.Fatalf("purchased courses: want=1 got=%d", len(purchases))
	}
	if purchases[0].CourseID != course.ID {
		t.Fatalf("purchased course id: want=%s got=%s", course.ID, purchases[0].CourseID)
	}
	if purchases[0].Course == nil {
		t.Fatalf("course not preloaded on purchase")
	}
}
