package application

import (
	"context"

	"github.com/fooddash/payment-service/internal/checkout/domain"
	"github.com/fooddash/payment-service/pkg/apperror"
)

type Service struct {
	directory CustomerDirectory
	provider  PayoutProvider
}

func NewService(directory CustomerDirectory, provider PayoutProvider) *Service {
	return &Service{directory: directory, provider: provider}
}

// Issue locates the provider customer tagged with the user id and requests
// a payout to the destination payment method. The customer lookup runs
// first: no payout call is made for an unknown user.
func (s *Service) Issue(ctx context.Context, req Request) (Payout, error) {
	const op = "payout.Issue"

	if req.UserID == "" {
		return Payout{}, apperror.New(apperror.KindValidation, op, "userId is required")
	}
	if req.PaymentMethodID == "" {
		return Payout{}, apperror.New(apperror.KindValidation, op, "paymentMethodId is required")
	}
	if req.Currency == "" {
		return Payout{}, apperror.New(apperror.KindValidation, op, "currency is required")
	}
	if !req.Amount.IsPositive() {
		return Payout{}, apperror.New(apperror.KindValidation, op, "amount must be positive")
	}

	if _, err := s.directory.FindCustomerByUser(ctx, req.UserID); err != nil {
		if k := apperror.KindOf(err); k == apperror.KindNotFound || k == apperror.KindConflict {
			return Payout{}, err
		}
		return Payout{}, apperror.Wrap(apperror.KindUpstream, op, err)
	}

	p, err := s.provider.CreatePayout(ctx, domain.MinorUnits(req.Amount), req.Currency, req.PaymentMethodID)
	if err != nil {
		return Payout{}, apperror.Wrap(apperror.KindUpstream, op, err)
	}
	return p, nil
}
