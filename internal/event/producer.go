package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Aggregate type constants.
const (
	AggregateTypeOrder   = "order"
	AggregateTypeProduct = "product"
	AggregateTypeReview  = "review"
)

// Kafka topics for storefront domain events.
var (
	TopicOrderCreated       = pkgkafka.Topic(AggregateTypeOrder, "created")
	TopicOrderStatusChanged = pkgkafka.Topic(AggregateTypeOrder, "status_changed")
	TopicProductCreated     = pkgkafka.Topic(AggregateTypeProduct, "created")
	TopicProductUpdated     = pkgkafka.Topic(AggregateTypeProduct, "updated")
	TopicProductArchived    = pkgkafka.Topic(AggregateTypeProduct, "archived")
	TopicReviewCreated      = pkgkafka.Topic(AggregateTypeReview, "created")
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront"

// OrderCreatedData is the payload for an order.created event (full order snapshot).
type OrderCreatedData struct {
	ID              string          `json:"id"`
	BuyerID         string          `json:"buyer_id"`
	SellerIDs       []string        `json:"seller_ids"`
	Status          string          `json:"status"`
	Items           []OrderItemData `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingAmount  decimal.Decimal `json:"shipping_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   string          `json:"payment_method"`
	ShippingAddress domain.Address  `json:"shipping_address"`
}

// OrderItemData is the event payload for an order item.
type OrderItemData struct {
	ProductID string          `json:"product_id"`
	SellerID  string          `json:"seller_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID   string   `json:"order_id"`
	OldStatus string   `json:"old_status"`
	NewStatus string   `json:"new_status"`
	ChangedBy string   `json:"changed_by"`
	SellerIDs []string `json:"seller_ids"`
}

// ProductData is the payload for product.* events.
type ProductData struct {
	ID             string          `json:"id"`
	SellerID       string          `json:"seller_id"`
	Name           string          `json:"name"`
	BasePrice      decimal.Decimal `json:"base_price"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	Stock          int             `json:"stock"`
	DiscountActive bool            `json:"discount_active"`
	Status         string          `json:"status"`
}

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ReviewID      string          `json:"review_id"`
	ProductID     string          `json:"product_id"`
	UserID        string          `json:"user_id"`
	Rating        int             `json:"rating"`
	RatingAverage decimal.Decimal `json:"rating_average"`
	RatingCount   int             `json:"rating_count"`
}

// Publisher writes an event envelope to a topic. *pkgkafka.Producer
// implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewProducer creates a new event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateType, aggregateID string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, p.now(), data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}
	if uid := logger.UserIDFromContext(ctx); uid != "" {
		evt.WithMetadata("user_id", uid)
	}

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// PublishOrderCreated publishes an order.created event with the full order snapshot.
func (p *Producer) PublishOrderCreated(ctx context.Context, o *domain.Order) error {
	items := make([]OrderItemData, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemData{
			ProductID: item.ProductID,
			SellerID:  item.SellerID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	return p.publish(ctx, TopicOrderCreated, AggregateTypeOrder, o.ID, OrderCreatedData{
		ID:              o.ID,
		BuyerID:         o.BuyerID,
		SellerIDs:       o.SellerIDs(),
		Status:          o.Status,
		Items:           items,
		Subtotal:        o.Subtotal,
		ShippingAmount:  o.ShippingAmount,
		TaxAmount:       o.TaxAmount,
		Total:           o.Total,
		PaymentMethod:   o.PaymentMethod,
		ShippingAddress: o.ShippingAddress,
	})
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, o *domain.Order, oldStatus, changedBy string) error {
	return p.publish(ctx, TopicOrderStatusChanged, AggregateTypeOrder, o.ID, OrderStatusChangedData{
		OrderID:   o.ID,
		OldStatus: oldStatus,
		NewStatus: o.Status,
		ChangedBy: changedBy,
		SellerIDs: o.SellerIDs(),
	})
}

// PublishProduct publishes a product event on topic with the product snapshot.
func (p *Producer) PublishProduct(ctx context.Context, topic string, prod *domain.Product) error {
	return p.publish(ctx, topic, AggregateTypeProduct, prod.ID, ProductData{
		ID:             prod.ID,
		SellerID:       prod.SellerID,
		Name:           prod.Name,
		BasePrice:      prod.BasePrice,
		CurrentPrice:   prod.CurrentPrice,
		Stock:          prod.Stock,
		DiscountActive: prod.DiscountActive,
		Status:         prod.Status,
	})
}

// PublishReviewCreated publishes a review.created event with the new aggregate.
func (p *Producer) PublishReviewCreated(ctx context.Context, r *domain.Review, summary domain.RatingSummary) error {
	return p.publish(ctx, TopicReviewCreated, AggregateTypeReview, r.ID, ReviewCreatedData{
		ReviewID:      r.ID,
		ProductID:     r.ProductID,
		UserID:        r.UserID,
		Rating:        r.Rating,
		RatingAverage: summary.Average,
		RatingCount:   summary.Count,
	})
}

// Discard is a Publisher that drops every event. It stands in for Kafka when
// no brokers are configured.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(context.Context, string, *pkgkafka.Event) error { return nil }
