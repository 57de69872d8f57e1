package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
)

// SellerOrderBounds are the default and maximum sizes of a seller's order listing.
var SellerOrderBounds = pagination.Bounds{Default: 20, Max: 100}

// CreateOrderInput holds the parameters for creating an order.
type CreateOrderInput struct {
	BuyerID         string
	Lines           []CartLine
	ShippingAddress domain.Address
	PaymentMethod   string

	// ClientTotal is the total the client computed. It is only compared
	// against the server total for logging.
	ClientTotal *decimal.Decimal
}

// OrderService implements the order lifecycle.
type OrderService struct {
	repo     repository.OrderRepository
	cart     *CartAssembler
	emitter  *domain.NotificationEmitter
	producer *event.Producer
	settings Settings
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(repo repository.OrderRepository, cart *CartAssembler, producer *event.Producer, settings Settings, logger *slog.Logger) *OrderService {
	return &OrderService{
		repo:     repo,
		cart:     cart,
		emitter:  domain.NewNotificationEmitter(settings.now),
		producer: producer,
		settings: settings,
		logger:   logger,
	}
}

// CreateOrder validates the cart, captures prices, computes totals and
// persists the order with one notification per seller in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, actor domain.Actor, input CreateOrderInput) (*domain.Order, error) {
	if input.BuyerID == "" {
		input.BuyerID = actor.ID
	}
	if input.BuyerID == "" {
		return nil, apperrors.InvalidInput("buyer id is required")
	}
	if input.BuyerID != actor.ID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("orders can only be placed for yourself")
	}
	if err := ValidateLines(input.Lines); err != nil {
		return nil, err
	}
	if input.ShippingAddress.IsEmpty() {
		return nil, apperrors.InvalidInput("shipping address is required")
	}

	now := s.settings.now()
	orderID := uuid.New().String()

	ctx, cancel := s.settings.storeContext(ctx)
	defer cancel()

	items, err := s.cart.Assemble(ctx, orderID, input.Lines, now)
	if err != nil {
		return nil, fmt.Errorf("assemble cart: %w", err)
	}
	totals := s.settings.Pricing.Compute(items)
	if totals.Total.GreaterThan(domain.MaxMoney) {
		return nil, apperrors.InvalidInput("order total exceeds " + domain.MaxMoney.String())
	}

	order := &domain.Order{
		ID:              orderID,
		BuyerID:         input.BuyerID,
		Buyer:           &domain.UserRef{ID: input.BuyerID},
		Status:          domain.OrderStatusPending,
		Items:           items,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   strings.TrimSpace(input.PaymentMethod),
		Subtotal:        totals.Subtotal,
		ShippingAmount:  totals.ShippingAmount,
		TaxAmount:       totals.TaxAmount,
		Total:           totals.Total,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if sellers := order.SellerIDs(); len(sellers) == 1 {
		order.SellerID = &sellers[0]
	}

	notes := s.emitter.OrderCreated(order)
	if err := s.repo.Create(ctx, order, notes); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	ordersCreated.Inc()

	if input.ClientTotal != nil && !input.ClientTotal.Equal(order.Total) {
		s.logger.WarnContext(ctx, "client total differs from computed total",
			slog.String("order_id", order.ID),
			slog.String("client_total", input.ClientTotal.StringFixed(2)),
			slog.String("total", order.Total.StringFixed(2)),
		)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		eventPublishFailures.Inc()
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("buyer_id", order.BuyerID),
		slog.Int("items", len(order.Items)),
		slog.String("total", order.Total.StringFixed(2)),
	)

	return order, nil
}

// GetOrder returns an order visible to the actor.
func (s *OrderService) GetOrder(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	ctx, cancel := s.settings.storeContext(ctx)
	defer cancel()

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	if !order.CanView(actor) {
		return nil, apperrors.Forbidden("you are not a party to this order")
	}
	return order, nil
}

// Transition moves an order to the requested status. Checks run in order:
// status name, existence, state machine edge, actor permission.
func (s *OrderService) Transition(ctx context.Context, actor domain.Actor, id, requested string) (*domain.Order, error) {
	target, ok := domain.ParseOrderStatus(requested)
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", requested))
	}

	ctx, cancel := s.settings.storeContext(ctx)
	defer cancel()

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}

	from := order.Status
	if !order.CanTransitionTo(target) {
		return nil, apperrors.InvalidTransition(from, target)
	}
	if !order.CanBeMovedBy(actor, target) {
		return nil, apperrors.Forbidden(fmt.Sprintf("not allowed to move this order to %s", target))
	}

	now := s.settings.now()
	order.Status = target
	order.UpdatedAt = now
	notes := s.emitter.OrderStatusChanged(order, from, target)

	if err := s.repo.UpdateStatus(ctx, order.ID, from, target, now, notes); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, apperrors.InvalidTransition(from, target)
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	orderTransitions.WithLabelValues(from, target).Inc()

	if err := s.producer.PublishOrderStatusChanged(ctx, order, from, actor.ID); err != nil {
		eventPublishFailures.Inc()
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", order.ID),
		slog.String("old_status", from),
		slog.String("new_status", target),
		slog.String("actor_id", actor.ID),
	)

	return order, nil
}

// ListBySeller returns orders with at least one of the seller's items, newest
// first. An empty status lists every status.
func (s *OrderService) ListBySeller(ctx context.Context, actor domain.Actor, sellerID, status string, limit int) ([]domain.Order, error) {
	if sellerID == "" {
		return nil, apperrors.InvalidInput("seller id is required")
	}
	filter := repository.OrderFilter{SellerID: sellerID, Limit: SellerOrderBounds.Clamp(limit)}
	if status != "" {
		parsed, ok := domain.ParseOrderStatus(status)
		if !ok {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", status))
		}
		filter.Status = &parsed
	}
	if actor.ID != sellerID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("sellers can only list their own orders")
	}

	ctx, cancel := s.settings.storeContext(ctx)
	defer cancel()

	orders, err := s.repo.ListBySeller(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list seller orders: %w", err)
	}
	return orders, nil
}

// ListByBuyer returns every order of the buyer, newest first.
func (s *OrderService) ListByBuyer(ctx context.Context, actor domain.Actor, buyerID string) ([]domain.Order, error) {
	if buyerID == "" {
		return nil, apperrors.InvalidInput("buyer id is required")
	}
	if actor.ID != buyerID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("buyers can only list their own orders")
	}

	ctx, cancel := s.settings.storeContext(ctx)
	defer cancel()

	orders, err := s.repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list buyer orders: %w", err)
	}
	return orders, nil
}
