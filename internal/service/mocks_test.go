package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
)

// --- Mock Repositories ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*domain.Product), args.Error(1)
}

// Update applies fn to a copy of the stored product, like the row-locked
// update does.
func (m *mockProductRepository) Update(ctx context.Context, id string, fn repository.ProductMutation) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	p := *args.Get(0).(*domain.Product)
	if err := fn(&p); err != nil {
		return nil, err
	}
	return &p, args.Error(1)
}

func (m *mockProductRepository) ListActiveOffers(ctx context.Context, now time.Time, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, o *domain.Order, notes []domain.Notification) error {
	args := m.Called(ctx, o, notes)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id, from, to string, at time.Time, notes []domain.Notification) error {
	args := m.Called(ctx, id, from, to, at, notes)
	return args.Error(0)
}

func (m *mockOrderRepository) ListBySeller(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) CreateAndAggregate(ctx context.Context, r *domain.Review) (domain.RatingSummary, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(domain.RatingSummary), args.Error(1)
}

func (m *mockReviewRepository) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

type mockNotificationRepository struct {
	mock.Mock
}

func (m *mockNotificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *mockNotificationRepository) ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	args := m.Called(ctx, recipientID, unreadOnly, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}

func (m *mockNotificationRepository) MarkRead(ctx context.Context, id string, at time.Time) (*domain.Notification, error) {
	args := m.Called(ctx, id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

type mockReportRepository struct {
	mock.Mock
}

func (m *mockReportRepository) TopProducts(ctx context.Context, limit int) ([]domain.ProductSales, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProductSales), args.Error(1)
}

type mockOffersCache struct {
	mock.Mock
}

func (m *mockOffersCache) Get(ctx context.Context, limit int) ([]domain.Product, bool, error) {
	args := m.Called(ctx, limit)
	var products []domain.Product
	if v := args.Get(0); v != nil {
		products = v.([]domain.Product)
	}
	return products, args.Bool(1), args.Error(2)
}

func (m *mockOffersCache) Set(ctx context.Context, limit int, products []domain.Product) error {
	args := m.Called(ctx, limit, products)
	return args.Error(0)
}

func (m *mockOffersCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- Event Publisher ---

type recordingPublisher struct {
	topics []string
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	if r.err != nil {
		return r.err
	}
	r.topics = append(r.topics, topic)
	return nil
}

// --- Test Helpers ---

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var (
	seller  = domain.Actor{ID: "seller-1", Role: domain.RoleSeller}
	seller2 = domain.Actor{ID: "seller-2", Role: domain.RoleSeller}
	buyer   = domain.Actor{ID: "buyer-1", Role: domain.RoleCustomer}
	admin   = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSettings() Settings {
	return Settings{
		StoreTimeout:   time.Second,
		DiscountWindow: 7 * 24 * time.Hour,
		Pricing:        domain.Pricing{ShippingFlatFee: decimal.Zero, TaxRate: decimal.Zero},
		Now:            func() time.Time { return testNow },
	}
}

func newTestProducer(pub *recordingPublisher) *event.Producer {
	return event.NewProducer(pub, newTestLogger())
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func strPtr(s string) *string {
	return &s
}

func sampleProduct(id, sellerID, price string) *domain.Product {
	return &domain.Product{
		ID:           id,
		SellerID:     sellerID,
		Name:         "Product " + id,
		Slug:         "product-" + id,
		Images:       []string{},
		BasePrice:    dec(price),
		CurrentPrice: dec(price),
		Stock:        10,
		Status:       domain.ProductStatusActive,
		CreatedAt:    testNow.Add(-48 * time.Hour),
		UpdatedAt:    testNow.Add(-48 * time.Hour),
	}
}

func withDiscount(p *domain.Product, pct string, start, end time.Time) *domain.Product {
	p.Discount = &domain.Discount{
		Percentage: dec(pct),
		StartsAt:   start,
		EndsAt:     end,
		Enabled:    true,
		AppliedAt:  start,
	}
	p.Reprice(testNow)
	return p
}
