package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
)

// --- Mock Repositories ---

type mockProductRepository struct{ mock.Mock }

func (m *mockProductRepository) Create(ctx context.Context, p *domain.Product) error {
	return m.Called(ctx, p).Error(0)
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

type mockOrderRepository struct{ mock.Mock }

func (m *mockOrderRepository) Create(ctx context.Context, o *domain.Order, notes []domain.Notification) error {
	return m.Called(ctx, o, notes).Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id, from, to string, at time.Time, notes []domain.Notification) error {
	return m.Called(ctx, id, from, to, at, notes).Error(0)
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

type mockReviewRepository struct{ mock.Mock }

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

type mockNotificationRepository struct{ mock.Mock }

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

type mockReportRepository struct{ mock.Mock }

func (m *mockReportRepository) TopProducts(ctx context.Context, limit int) ([]domain.ProductSales, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProductSales), args.Error(1)
}

// --- Test Fixture ---

const (
	testSecret = "handler-test-secret"

	sellerID  = "7d2c1f9e-3b8a-4e6f-9c1d-2a5b8e0f4c71"
	seller2ID = "5a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
	buyerID   = "0b9e4d3c-6a1f-4f2e-8d7c-5e3a9b1c2d40"
	adminID   = "e3f1a2b4-c5d6-4e7f-8a9b-0c1d2e3f4a5b"

	productID      = "3c6f0b7e-1d2a-4b5c-9e8f-7a6b5c4d3e21"
	orderID        = "9f8e7d6c-5b4a-4c3d-8e2f-1a0b9c8d7e6f"
	notificationID = "2b3c4d5e-6f7a-4b8c-9d0e-1f2a3b4c5d6e"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	t             *testing.T
	router        http.Handler
	jwt           *auth.JWTManager
	products      *mockProductRepository
	orders        *mockOrderRepository
	reviews       *mockReviewRepository
	notifications *mockNotificationRepository
	reports       *mockReportRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		t:             t,
		jwt:           auth.NewJWTManager(testSecret),
		products:      new(mockProductRepository),
		orders:        new(mockOrderRepository),
		reviews:       new(mockReviewRepository),
		notifications: new(mockNotificationRepository),
		reports:       new(mockReportRepository),
	}

	settings := service.Settings{
		StoreTimeout:   time.Second,
		DiscountWindow: 30 * 24 * time.Hour,
		Pricing:        domain.Pricing{ShippingFlatFee: decimal.NewFromInt(10), TaxRate: decimal.Zero},
		Now:            func() time.Time { return testNow },
	}
	producer := event.NewProducer(event.Discard{}, logger)
	svcs := Services{
		Products:      service.NewProductService(f.products, nil, producer, settings, logger),
		Orders:        service.NewOrderService(f.orders, service.NewCartAssembler(f.products, logger), producer, settings, logger),
		Reviews:       service.NewReviewService(f.reviews, f.products, producer, settings, logger),
		Notifications: service.NewNotificationService(f.notifications, settings, logger),
		Reports:       service.NewReportService(f.reports, settings, logger),
	}

	f.router = NewRouter(RouterConfig{
		Context:        t.Context(),
		ServiceName:    "storefront-test",
		ValidateToken:  f.jwt.ValidateAccessToken,
		CORSOrigins:    []string{"*"},
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		OffersMaxAge:   30 * time.Second,
	}, svcs, health.NewHandler(), logger)
	return f
}

func (f *fixture) token(userID, role string) string {
	f.t.Helper()
	tok, err := f.jwt.GenerateAccessToken(userID, role, time.Hour)
	require.NoError(f.t, err)
	return tok
}

// do sends a request with an optional JSON body and bearer token.
func (f *fixture) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	f.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeMap(t, rec)
	envelope, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %s", rec.Body.String())
	code, _ := envelope["code"].(string)
	return code
}

func sampleProduct() *domain.Product {
	price := decimal.NewFromInt(1000)
	return &domain.Product{
		ID:           productID,
		SellerID:     sellerID,
		Name:         "Zapatillas",
		Slug:         "zapatillas",
		Images:       []string{},
		BasePrice:    price,
		CurrentPrice: price,
		Stock:        10,
		Status:       domain.ProductStatusActive,
		CreatedAt:    testNow.Add(-time.Hour),
		UpdatedAt:    testNow.Add(-time.Hour),
	}
}

func sampleOrder(status string) *domain.Order {
	return &domain.Order{
		ID:      orderID,
		BuyerID: buyerID,
		Status:  status,
		Items: []domain.OrderItem{{
			ID: "i1", OrderID: orderID, ProductID: productID, SellerID: sellerID,
			Name: "Zapatillas", Quantity: 1, UnitPrice: decimal.NewFromInt(1000), LineTotal: decimal.NewFromInt(1000),
		}},
		CreatedAt: testNow.Add(-time.Hour),
		UpdatedAt: testNow.Add(-time.Hour),
	}
}
