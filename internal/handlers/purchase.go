package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	stripeclient "github.com/skillify/skillify-backend/internal/clients/stripe"
	"github.com/skillify/skillify-backend/internal/errs"
	"github.com/skillify/skillify-backend/internal/logger"
	"github.com/skillify/skillify-backend/internal/requestdata"
	"github.com/skillify/skillify-backend/internal/services"
)

// PaymentVerifier authenticates a raw webhook body before anything touches
// the purchase service.
type PaymentVerifier interface {
	VerifyPaymentEvent(payload []byte, signature string) (*stripeclient.PaymentEvent, error)
}

type PurchaseHandler struct {
	log             *logger.Logger
	purchaseService services.PurchaseService
	verifier        PaymentVerifier
}

func NewPurchaseHandler(log *logger.Logger, purchaseService services.PurchaseService, verifier PaymentVerifier) *PurchaseHandler {
	return &PurchaseHandler{
		log:             log.With("handler", "PurchaseHandler"),
		purchaseService: purchaseService,
		verifier:        verifier,
	}
}

func (h *PurchaseHandler) CreateCheckoutSession(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req struct {
		CourseID string `json:"course_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}

	url, err := h.purchaseService.CreateCheckoutSession(c.Request.Context(), rd.UserID, courseID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "course_not_found", err)
			return
		}
		h.log.Error("CreateCheckoutSession failed", "error", err, "user_id", rd.UserID, "course_id", courseID)
		RespondError(c, http.StatusInternalServerError, "checkout_failed", err)
		return
	}
	RespondOK(c, gin.H{"url": url})
}

// Webhook is the unauthenticated payment-provider callback. The signature
// check stands in for auth; unverifiable payloads never reach the service.
func (h *PurchaseHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_body", err)
		return
	}

	event, err := h.verifier.VerifyPaymentEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.log.Warn("Webhook signature verification failed", "error", err)
		RespondError(c, http.StatusBadRequest, "invalid_signature", err)
		return
	}

	if event.Type != stripeclient.EventCheckoutCompleted {
		// Unhandled event types are acknowledged so the provider stops
		// redelivering them.
		c.Status(http.StatusOK)
		return
	}

	var confirmedAmount *float64
	if event.HasAmount {
		// Provider reports the minor unit; purchases store the major unit.
		major := float64(event.AmountTotal) / 100
		confirmedAmount = &major
	}

	if err := h.purchaseService.HandlePaymentSucceeded(c.Request.Context(), event.SessionID, confirmedAmount); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "purchase_not_found", err)
			return
		}
		h.log.Error("Webhook reconciliation failed", "error", err, "session_id", event.SessionID)
		RespondError(c, http.StatusInternalServerError, "reconciliation_failed", err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *PurchaseHandler) GetCourseDetailWithStatus(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}

	course, purchased, err := h.purchaseService.GetCourseDetailWithStatus(c.Request.Context(), rd.UserID, courseID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "course_not_found", err)
			return
		}
		h.log.Error("GetCourseDetailWithStatus failed", "error", err, "course_id", courseID)
		RespondError(c, http.StatusInternalServerError, "load_course_failed", err)
		return
	}
	RespondOK(c, gin.H{"course": course, "purchased": purchased})
}

func (h *PurchaseHandler) GetPurchasedCourses(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	purchases, err := h.purchaseService.GetPurchasedCourses(c.Request.Context(), rd.UserID)
	if err != nil {
		h.log.Error("GetPurchasedCourses failed", "error", err, "user_id", rd.UserID)
		RespondError(c, http.StatusInternalServerError, "load_purchases_failed", err)
		return
	}
	RespondOK(c, gin.H{"purchases": purchases})
}
