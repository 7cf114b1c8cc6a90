// Package payments creates Stripe payment intents for donations attached to
// food requests.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foodforall/pkg/types"

	"github.com/stripe/stripe-go/v84"
)

var ErrInvalidAmount = errors.New("donation amount must be positive")

type Intent struct {
	ID           string `json:"paymentIntentId"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type StripeProvider struct {
	client   *stripe.Client
	currency string
}

func NewStripeProvider(secretKey, currency string) *StripeProvider {
	return &StripeProvider{
		client:   stripe.NewClient(secretKey),
		currency: strings.ToLower(currency),
	}
}

func intentParams(req *types.FoodRequest, currency string) (*stripe.PaymentIntentCreateParams, error) {
	amount := req.DonationCents()
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Requester.Email != "" {
		params.ReceiptEmail = stripe.String(req.Requester.Email)
	}

	params.AddMetadata("request_id", req.ID)
	params.AddMetadata("food_id", req.Food.ID)
	params.AddMetadata("donator_email", req.Food.Donator.Email)

	return params, nil
}

// CreateDonationIntent opens a payment intent for the request's donation.
func (p *StripeProvider) CreateDonationIntent(ctx context.Context, req *types.FoodRequest) (*Intent, error) {
	params, err := intentParams(req, p.currency)
	if err != nil {
		return nil, err
	}

	pi, err := p.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent for request %s: %w", req.ID, err)
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}
