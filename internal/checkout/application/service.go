package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fooddash/payment-service/internal/checkout/domain"
	"github.com/fooddash/payment-service/pkg/apperror"
)

type Service struct {
	provider PaymentProvider
}

func NewService(provider PaymentProvider) *Service {
	return &Service{provider: provider}
}

// CreateCartSession builds one line item per cart item, creates a customer
// carrying the serialized cart in its metadata, and returns the hosted
// checkout URL. The metadata round-trip is the only persistent record of the
// cart until settlement.
func (s *Service) CreateCartSession(ctx context.Context, userID string, items []domain.CartItem) (string, error) {
	const op = "checkout.CreateCartSession"

	if userID == "" {
		return "", apperror.New(apperror.KindValidation, op, "userId is required")
	}
	if len(items) == 0 {
		return "", apperror.New(apperror.KindValidation, op, "cart is empty")
	}
	for i, item := range items {
		if !item.Valid() {
			return "", apperror.Newf(apperror.KindValidation, op, "cart item %d is invalid", i)
		}
	}

	cart, err := json.Marshal(items)
	if err != nil {
		return "", apperror.Wrap(apperror.KindValidation, op, err)
	}

	customerID, err := s.provider.CreateCustomer(ctx, map[string]string{
		"userId": userID,
		"cart":   string(cart),
	})
	if err != nil {
		return "", apperror.Wrap(apperror.KindUpstream, op, err)
	}

	lines := make([]LineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, LineItem{
			Name:        item.Name,
			Description: fmt.Sprintf("Payment for %d * %s from %s", item.Quantity, item.Name, item.RestaurantID),
			UnitAmount:  domain.MinorUnits(item.Price),
			Quantity:    item.Quantity,
			Metadata: map[string]string{
				"id":           item.ID,
				"restaurantId": item.RestaurantID,
			},
		})
	}

	url, err := s.provider.CreateCheckoutSession(ctx, customerID, lines)
	if err != nil {
		return "", apperror.Wrap(apperror.KindUpstream, op, err)
	}
	return url, nil
}

// CreateTopUpSession is the wallet variant: one "Wallet Top-Up" line per
// transaction, the user id and payment methods kept in customer metadata.
func (s *Service) CreateTopUpSession(ctx context.Context, userID string, txs []domain.WalletTransaction) (string, error) {
	const op = "checkout.CreateTopUpSession"

	if userID == "" {
		return "", apperror.New(apperror.KindValidation, op, "userId is required")
	}
	if len(txs) == 0 {
		return "", apperror.New(apperror.KindValidation, op, "walletTransactions is empty")
	}
	for i, tx := range txs {
		if !tx.Valid() {
			return "", apperror.Newf(apperror.KindValidation, op, "wallet transaction %d has a non-positive amount", i)
		}
	}

	methods := make([]string, 0, len(txs))
	for _, tx := range txs {
		methods = append(methods, tx.PaymentMethod)
	}
	payment, err := json.Marshal(methods)
	if err != nil {
		return "", apperror.Wrap(apperror.KindValidation, op, err)
	}

	customerID, err := s.provider.CreateCustomer(ctx, map[string]string{
		"userId":        userID,
		"paymentMethod": string(payment),
	})
	if err != nil {
		return "", apperror.Wrap(apperror.KindUpstream, op, err)
	}

	lines := make([]LineItem, 0, len(txs))
	for _, tx := range txs {
		lines = append(lines, LineItem{
			Name:        "Wallet Top-Up",
			Description: fmt.Sprintf("Top-up of $%s", tx.Amount.StringFixed(2)),
			UnitAmount:  domain.MinorUnits(tx.Amount),
			Quantity:    1,
			Metadata:    map[string]string{"userId": userID},
		})
	}

	url, err := s.provider.CreateCheckoutSession(ctx, customerID, lines)
	if err != nil {
		return "", apperror.Wrap(apperror.KindUpstream, op, err)
	}
	return url, nil
}
