package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/skillify/skillify-backend/internal/logger"
	"github.com/skillify/skillify-backend/internal/services"
	"github.com/skillify/skillify-backend/internal/types"
	"github.com/skillify/skillify-backend/internal/utils"
)

// PaymentEvent is the provider-neutral shape handed to the webhook route
// after signature verification.
type PaymentEvent struct {
	Type        string
	SessionID   string
	AmountTotal int64
	HasAmount   bool
}

const EventCheckoutCompleted = "checkout.session.completed"

// Gateway implements services.PaymentGateway against the Stripe Checkout
// API and verifies incoming webhook payloads.
type Gateway struct {
	log           *logger.Logger
	webhookSecret string
	successURL    string
	cancelURL     string
	currency      string
}

func NewGateway(log *logger.Logger) (*Gateway, error) {
	gatewayLog := log.With("client", "StripeGateway")

	secretKey := strings.TrimSpace(utils.GetEnv("STRIPE_SECRET_KEY", "", log))
	if secretKey == "" {
		return nil, fmt.Errorf("missing STRIPE_SECRET_KEY")
	}
	stripeapi.Key = secretKey

	return &Gateway{
		log:           gatewayLog,
		webhookSecret: utils.GetEnv("STRIPE_WEBHOOK_SECRET", "", log),
		successURL:    utils.GetEnv("CHECKOUT_SUCCESS_URL", "http://localhost:5173/course-progress", log),
		cancelURL:     utils.GetEnv("CHECKOUT_CANCEL_URL", "http://localhost:5173/course-detail", log),
		currency:      utils.GetEnv("CHECKOUT_CURRENCY", "inr", log),
	}, nil
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, course *types.Course, userID uuid.UUID) (*services.CheckoutSession, error) {
	productData := &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripeapi.String(course.Title),
	}
	if course.ThumbnailURL != "" {
		productData.Images = stripeapi.StringSlice([]string{course.ThumbnailURL})
	}

	params := &stripeapi.CheckoutSessionParams{
		Mode:               stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripeapi.StringSlice([]string{"card"}),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripeapi.String(g.currency),
					ProductData: productData,
					// Stripe wants the minor unit.
					UnitAmount: stripeapi.Int64(int64(course.Price * 100)),
				},
				Quantity: stripeapi.Int64(1),
			},
		},
		SuccessURL: stripeapi.String(fmt.Sprintf("%s/%s", g.successURL, course.ID)),
		CancelURL:  stripeapi.String(fmt.Sprintf("%s/%s", g.cancelURL, course.ID)),
	}
	params.Context = ctx
	params.AddMetadata("course_id", course.ID.String())
	params.AddMetadata("user_id", userID.String())

	created, err := session.New(params)
	if err != nil {
		g.log.Error("Stripe checkout session create failed", "error", err, "course_id", course.ID)
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}
	return &services.CheckoutSession{ID: created.ID, URL: created.URL}, nil
}

// VerifyPaymentEvent authenticates the raw webhook body against the
// endpoint secret and extracts the fields reconciliation cares about.
func (g *Gateway) VerifyPaymentEvent(payload []byte, signature string) (*PaymentEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("verify webhook signature: %w", err)
	}

	out := &PaymentEvent{Type: string(event.Type)}
	if out.Type != EventCheckoutCompleted {
		return out, nil
	}

	var checkout stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &checkout); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	out.SessionID = checkout.ID
	if checkout.AmountTotal != 0 {
		out.AmountTotal = checkout.AmountTotal
		out.HasAmount = true
	}
	return out, nil
}
