package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"lensbook/internal/apperror"
	"lensbook/internal/config"
	"lensbook/internal/logger"
)

// PaymentIntent is the slice of the gateway object the booking flow needs.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
}

// PaymentGateway authorizes charges for bookings.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount int64, bookingID, customerID, photographerID string) (*PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*PaymentIntent, error)
}

// StripeGateway backs PaymentGateway with the Stripe API.
type StripeGateway struct {
	client   *client.API
	log      *logger.Logger
	currency string
	timeout  time.Duration
}

func NewStripeGateway(cfg config.StripeConfig, log *logger.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		log.Error("STRIPE", "stripe secret key not configured")
		return nil, fmt.Errorf("stripe secret key not configured")
	}

	sc := client.New(cfg.SecretKey, nil)
	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeGateway{
		client:   sc,
		log:      log,
		currency: cfg.Currency,
		timeout:  cfg.CallTimeout,
	}, nil
}

// CreateIntent opens a payment intent for the booking amount. Amounts are
// already in the currency's minor unit.
func (g *StripeGateway) CreateIntent(ctx context.Context, amount int64, bookingID, customerID, photographerID string) (*PaymentIntent, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: invalid amount %d", apperror.ErrValidation, amount)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(g.currency),
		Metadata: map[string]string{
			"booking_id":      bookingID,
			"customer_id":     customerID,
			"photographer_id": photographerID,
		},
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	pi, err := g.client.PaymentIntents.New(params)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to create payment intent: %v", err))
		return nil, fmt.Errorf("%w: %v", apperror.ErrPaymentAuthorizationFailed, err)
	}
	g.log.Info("STRIPE", fmt.Sprintf("Payment intent created: %s (booking: %s)", pi.ID, bookingID))

	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
	}, nil
}

// GetIntent fetches an existing intent so clients can resume an interrupted
// checkout instead of opening a second charge.
func (g *StripeGateway) GetIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.client.PaymentIntents.Get(id, params)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to fetch payment intent %s: %v", id, err))
		return nil, fmt.Errorf("%w: %v", apperror.ErrPaymentAuthorizationFailed, err)
	}
	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
	}, nil
}

// WebhookIntent is the payload extracted from a verified gateway event.
type WebhookIntent struct {
	Type     string
	IntentID string
}

// VerifyWebhook checks the event signature and pulls out the intent ID for
// the event types the booking flow reacts to.
func VerifyWebhook(payload []byte, sigHeader, secret string) (*WebhookIntent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, secret)
	if err != nil {
		return nil, fmt.Errorf("%w: webhook signature verification failed", apperror.ErrUnauthenticated)
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed", "payment_intent.canceled":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: bad webhook payload", apperror.ErrValidation)
		}
		return &WebhookIntent{Type: string(event.Type), IntentID: pi.ID}, nil
	default:
		return &WebhookIntent{Type: string(event.Type)}, nil
	}
}
