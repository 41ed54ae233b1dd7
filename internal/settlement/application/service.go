package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fooddash/payment-service/internal/settlement/domain"
	"github.com/fooddash/payment-service/pkg/apperror"
)

// DriverStatus is the status propagated to the driver-assignment workflow
// once payment completes.
const DriverStatus = "Placed"

type Service struct {
	log      *slog.Logger
	store    OrderStore
	customer CustomerSource
	notifier Notifier
}

func NewService(log *slog.Logger, store OrderStore, customer CustomerSource, notifier Notifier) *Service {
	return &Service{
		log:      log,
		store:    store,
		customer: customer,
		notifier: notifier,
	}
}

// Settle runs the order-settlement workflow for a completed checkout
// session: recover the cart from the provider customer's metadata, flip the
// referenced order to Completed, enqueue the settled event for the
// driver-assignment relay, and push notifications to the buyer and the
// restaurant owner. A customer without cart metadata is a benign no-op so
// the webhook still gets acknowledged.
func (s *Service) Settle(ctx context.Context, customerID, traceparent string) error {
	const op = "settlement.Settle"

	lines, ok, err := s.customer.CustomerCart(ctx, customerID)
	if err != nil {
		return apperror.Wrap(apperror.KindUpstream, op, err)
	}
	if !ok || len(lines) == 0 {
		s.log.Info("session without cart metadata, nothing to settle", "customer_id", customerID)
		return nil
	}

	orderID, err := primitive.ObjectIDFromHex(lines[0].ID)
	if err != nil {
		return apperror.Newf(apperror.KindValidation, op, "invalid order id %q", lines[0].ID)
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindNotFound {
			return apperror.Newf(apperror.KindNotFound, op, "order %s not found", orderID.Hex())
		}
		return apperror.Wrap(apperror.KindUpstream, op, err)
	}

	settled := domain.OrderSettled{
		OrderID:      order.ID.Hex(),
		UserID:       order.UserID.Hex(),
		RestaurantID: order.RestaurantID.Hex(),
		Status:       DriverStatus,
	}
	payload, err := json.Marshal(settled)
	if err != nil {
		return apperror.Wrap(apperror.KindUpstream, op, err)
	}

	headers := map[string]string{"source": "payment-service"}
	updated, err := s.store.SettleWithOutbox(ctx, orderID, "OrderSettled", payload, headers, traceparent)
	if err != nil {
		return apperror.Wrap(apperror.KindUpstream, op, err)
	}
	s.log.Info("order settled", "order_id", updated.ID.Hex(), "status", updated.PaymentStatus)

	s.notifyParties(ctx, updated)
	return nil
}

// notifyParties fans out pushes to the buyer and the restaurant owner.
// Every failure here is logged and swallowed: a lost push must not fail the
// webhook response.
func (s *Service) notifyParties(ctx context.Context, order domain.Order) {
	data := map[string]string{
		"orderId":     order.ID.Hex(),
		"messageType": "order",
	}
	if len(order.OrderItems) > 0 {
		food, err := s.store.GetFood(ctx, order.OrderItems[0].FoodID)
		if err != nil {
			s.log.Error("food lookup failed", "order_id", order.ID.Hex(), "err", err)
		} else if len(food.ImageURL) > 0 {
			data["imageUrl"] = food.ImageURL[0]
		}
	}

	buyer, err := s.store.GetUser(ctx, order.UserID)
	if err != nil {
		s.log.Error("buyer lookup failed", "order_id", order.ID.Hex(), "err", err)
	} else if buyer.HasDeviceToken() {
		body := fmt.Sprintf("Please wait patiently, you will be updated on your order: %s as soon as there is an update.", order.ID.Hex())
		if err := s.notifier.Send(ctx, buyer.FCM, "Your Order Placed Successfully", body, data); err != nil {
			s.log.Error("buyer notification failed", "order_id", order.ID.Hex(), "err", err)
		}
	}

	restaurant, err := s.store.GetRestaurant(ctx, order.RestaurantID)
	if err != nil {
		s.log.Error("restaurant lookup failed", "order_id", order.ID.Hex(), "err", err)
		return
	}
	owner, err := s.store.GetUser(ctx, restaurant.Owner)
	if err != nil {
		s.log.Error("owner lookup failed", "order_id", order.ID.Hex(), "err", err)
		return
	}
	if owner.HasDeviceToken() {
		body := fmt.Sprintf("You have a new order: %s. Please process the order.", order.ID.Hex())
		if err := s.notifier.Send(ctx, owner.FCM, "Incoming Order", body, data); err != nil {
			s.log.Error("owner notification failed", "order_id", order.ID.Hex(), "err", err)
		}
	}
}
