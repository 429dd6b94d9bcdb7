package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	stripeclient "github.com/skillify/skillify-backend/internal/clients/stripe"
	"github.com/skillify/skillify-backend/internal/logger"
	"github.com/skillify/skillify-backend/internal/services"
	"github.com/skillify/skillify-backend/internal/types"
)

type fakeVerifier struct {
	event *stripeclient.PaymentEvent
	err   error

	gotPayload   []byte
	gotSignature string
}

func (v *fakeVerifier) VerifyPaymentEvent(payload []byte, signature string) (*stripeclient.PaymentEvent, error) {
	v.gotPayload = payload
	v.gotSignature = signature
	if v.err != nil {
		return nil, v.err
	}
	return v.event, nil
}

type fakePurchaseService struct {
	handleCalls     int
	gotReference    string
	gotConfirmed    *float64
	handleErr       error
	checkoutURL     string
	checkoutErr     error
	purchasedCourse bool
}

func (s *fakePurchaseService) CreateCheckoutSession(ctx context.Context, userID, courseID uuid.UUID) (string, error) {
	return s.checkoutURL, s.checkoutErr
}

func (s *fakePurchaseService) HandlePaymentSucceeded(ctx context.Context, paymentReference string, confirmedAmount *float64) error {
	s.handleCalls++
	s.gotReference = paymentReference
	s.gotConfirmed = confirmedAmount
	return s.handleErr
}

func (s *fakePurchaseService) GetCourseDetailWithStatus(ctx context.Context, userID, courseID uuid.UUID) (*types.Course, bool, error) {
	return &types.Course{ID: courseID}, s.purchasedCourse, nil
}

func (s *fakePurchaseService) GetPurchasedCourses(ctx context.Context, userID uuid.UUID) ([]*types.CoursePurchase, error) {
	return nil, nil
}

var _ services.PurchaseService = (*fakePurchaseService)(nil)

func newWebhookRouter(t *testing.T, svc services.PurchaseService, verifier PaymentVerifier) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	handler := NewPurchaseHandler(log, svc, verifier)
	router := gin.New()
	router.POST("/api/purchase/webhook", handler.Webhook)
	return router
}

func postWebhook(router *gin.Engine, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/purchase/webhook", bytes.NewBufferString(body))
	req.Header.Set("Stripe-Signature", signature)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc := &fakePurchaseService{}
	verifier := &fakeVerifier{err: fmt.Errorf("signature mismatch")}
	router := newWebhookRouter(t, svc, verifier)

	rec := postWebhook(router, `{"type":"checkout.session.completed"}`, "t=1,v1=bogus")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
	if svc.handleCalls != 0 {
		t.Fatalf("service reached despite bad signature: calls=%d", svc.handleCalls)
	}
	if verifier.gotSignature != "t=1,v1=bogus" {
		t.Fatalf("signature header not forwarded: got=%q", verifier.gotSignature)
	}
}

func TestWebhookAcknowledgesUnhandledEvents(t *testing.T) {
	svc := &fakePurchaseService{}
	verifier := &fakeVerifier{event: &stripeclient.PaymentEvent{Type: "invoice.paid"}}
	router := newWebhookRouter(t, svc, verifier)

	rec := postWebhook(router, `{"type":"invoice.paid"}`, "sig")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	if svc.handleCalls != 0 {
		t.Fatalf("service reached for unhandled event type: calls=%d", svc.handleCalls)
	}
}

func TestWebhookReconcilesCheckoutCompleted(t *testing.T) {
	svc := &fakePurchaseService{}
	verifier := &fakeVerifier{event: &stripeclient.PaymentEvent{
		Type:        stripeclient.EventCheckoutCompleted,
		SessionID:   "cs_test_42",
		AmountTotal: 49900,
		HasAmount:   true,
	}}
	router := newWebhookRouter(t, svc, verifier)

	rec := postWebhook(router, `{"type":"checkout.session.completed"}`, "sig")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	if svc.handleCalls != 1 {
		t.Fatalf("service calls: want=1 got=%d", svc.handleCalls)
	}
	if svc.gotReference != "cs_test_42" {
		t.Fatalf("payment reference: want=%q got=%q", "cs_test_42", svc.gotReference)
	}
	if svc.gotConfirmed == nil || *svc.gotConfirmed != 499 {
		t.Fatalf("confirmed amount in major units: want=499 got=%v", svc.gotConfirmed)
	}
}

func TestWebhookOmitsMissingAmount(t *testing.T) {
	svc := &fakePurchaseService{}
	verifier := &fakeVerifier{event: &stripeclient.PaymentEvent{
		Type:      stripeclient.EventCheckoutCompleted,
		SessionID: "cs_test_43",
	}}
	router := newWebhookRouter(t, svc, verifier)

	rec := postWebhook(router, `{"type":"checkout.session.completed"}`, "sig")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d", http.StatusOK, rec.Code)
	}
	if svc.gotConfirmed != nil {
		t.Fatalf("confirmed amount: want=nil got=%v", *svc.gotConfirmed)
	}
}
