package stripeclient

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	checkoutapp "github.com/fooddash/payment-service/internal/checkout/application"
	payoutapp "github.com/fooddash/payment-service/internal/payout/application"
	"github.com/fooddash/payment-service/internal/settlement/domain"
	"github.com/fooddash/payment-service/pkg/apperror"
)

// Client adapts the Stripe API to the ports of the checkout, settlement,
// and payout contexts.
type Client struct {
	api           *client.API
	signingSecret string
	currency      string
	successURL    string
	cancelURL     string
}

type Config struct {
	SecretKey     string
	SigningSecret string
	Currency      string
	SuccessURL    string
	CancelURL     string
}

func New(cfg Config) *Client {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	currency := cfg.Currency
	if currency == "" {
		currency = "usd"
	}
	return &Client{
		api:           api,
		signingSecret: cfg.SigningSecret,
		currency:      currency,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
	}
}

func (c *Client) CreateCustomer(ctx context.Context, metadata map[string]string) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	cus, err := c.api.Customers.New(params)
	if err != nil {
		return "", err
	}
	return cus.ID, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, customerID string, items []checkoutapp.LineItem) (string, error) {
	lines := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		lines = append(lines, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(c.currency),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(item.Name),
					Description: stripe.String(item.Description),
					Metadata:    item.Metadata,
				},
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		PhoneNumberCollection: &stripe.CheckoutSessionPhoneNumberCollectionParams{
			Enabled: stripe.Bool(false),
		},
		Customer:   stripe.String(customerID),
		LineItems:  lines,
		SuccessURL: stripe.String(c.successURL),
		CancelURL:  stripe.String(c.cancelURL),
	}
	params.Context = ctx

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// Verify authenticates the raw payload against the Stripe-Signature header
// and maps the event into the settlement domain. The checkout-completed
// variant carries the session's customer id.
func (c *Client) Verify(payload []byte, signature string) (domain.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.signingSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return domain.WebhookEvent{}, apperror.Wrap(apperror.KindAuthenticity, "stripe.Verify", err)
	}

	out := domain.WebhookEvent{
		ID:      event.ID,
		RawType: string(event.Type),
	}
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		out.Kind = domain.EventPaymentIntentSucceeded
	case stripe.EventTypeCheckoutSessionCompleted:
		out.Kind = domain.EventCheckoutCompleted
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return domain.WebhookEvent{}, apperror.Wrap(apperror.KindAuthenticity, "stripe.Verify", err)
		}
		if sess.Customer != nil {
			out.CustomerID = sess.Customer.ID
		}
	default:
		out.Kind = domain.EventOther
	}
	return out, nil
}

// CustomerCart fetches the customer created at checkout time and decodes
// the cart serialized into its metadata. Customers without a cart key (e.g.
// wallet top-ups) report ok=false.
func (c *Client) CustomerCart(ctx context.Context, customerID string) ([]domain.CartLine, bool, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	cus, err := c.api.Customers.Get(customerID, params)
	if err != nil {
		return nil, false, err
	}

	raw, found := cus.Metadata["cart"]
	if !found {
		return nil, false, nil
	}
	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		// Authentic event, malformed metadata: report "no cart" so the
		// webhook is still acknowledged.
		return nil, false, nil
	}
	return lines, true, nil
}

// FindCustomerByUser resolves the provider customer tagged with the
// platform user id. Exactly one match is required.
func (c *Client) FindCustomerByUser(ctx context.Context, userID string) (string, error) {
	const op = "stripe.FindCustomerByUser"

	params := &stripe.CustomerSearchParams{
		SearchParams: stripe.SearchParams{
			Query:   "metadata['userId']:'" + userID + "'",
			Context: ctx,
		},
	}

	iter := c.api.Customers.Search(params)
	var id string
	for iter.Next() {
		if id != "" {
			return "", apperror.Newf(apperror.KindConflict, op, "multiple customers tagged with user %s", userID)
		}
		id = iter.Customer().ID
	}
	if err := iter.Err(); err != nil {
		return "", err
	}
	if id == "" {
		return "", apperror.Newf(apperror.KindNotFound, op, "no customer tagged with user %s", userID)
	}
	return id, nil
}

func (c *Client) CreatePayout(ctx context.Context, amount int64, currency, destination string) (payoutapp.Payout, error) {
	params := &stripe.PayoutParams{
		Amount:      stripe.Int64(amount),
		Currency:    stripe.String(currency),
		Destination: stripe.String(destination),
	}
	params.Context = ctx

	p, err := c.api.Payouts.New(params)
	if err != nil {
		return payoutapp.Payout{}, err
	}
	return payoutapp.Payout{
		ID:       p.ID,
		Amount:   p.Amount,
		Currency: string(p.Currency),
		Status:   string(p.Status),
	}, nil
}
