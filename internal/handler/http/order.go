package http

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// OrderLineRequest is one cart line. PrecioUnitario is accepted for
// compatibility and ignored; the price is captured from the catalog.
type OrderLineRequest struct {
	ProductoID     string           `json:"productoId" validate:"required,uuid"`
	Cantidad       int              `json:"cantidad" validate:"gte=1,lte=10000"`
	PrecioUnitario *decimal.Decimal `json:"precioUnitario"`
}

// AddressRequest is the shipping address of an order.
type AddressRequest struct {
	Calle        string `json:"calle" validate:"max=200"`
	Numero       string `json:"numero" validate:"max=20"`
	Colonia      string `json:"colonia" validate:"max=200"`
	Ciudad       string `json:"ciudad" validate:"max=100"`
	Estado       string `json:"estado" validate:"max=100"`
	CodigoPostal string `json:"codigoPostal" validate:"max=20"`
	Pais         string `json:"pais" validate:"max=100"`
}

func (a AddressRequest) toDomain() domain.Address {
	return domain.Address{
		Street:       a.Calle,
		Number:       a.Numero,
		Neighborhood: a.Colonia,
		City:         a.Ciudad,
		State:        a.Estado,
		PostalCode:   a.CodigoPostal,
		Country:      a.Pais,
	}
}

// CreateOrderRequest is the JSON request body for creating an order.
type CreateOrderRequest struct {
	UsuarioID      string             `json:"usuarioId" validate:"omitempty,uuid"`
	Productos      []OrderLineRequest `json:"productos" validate:"required,min=1,max=100,dive"`
	DireccionEnvio AddressRequest     `json:"direccionEnvio"`
	Total          *decimal.Decimal   `json:"total"`
	MetodoPago     string             `json:"metodoPago" validate:"max=50"`
}

// UpdateStatusRequest is the JSON request body for moving an order. Spanish
// and English status names are accepted.
type UpdateStatusRequest struct {
	Estado string `json:"estado" validate:"required"`
}

// --- Handlers ---

// CreateOrder handles POST /api/v1/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := decode(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	lines := make([]service.CartLine, len(req.Productos))
	for i, p := range req.Productos {
		lines[i] = service.CartLine{ProductID: p.ProductoID, Quantity: p.Cantidad}
	}

	order, err := h.service.CreateOrder(r.Context(), actorFrom(r), service.CreateOrderInput{
		BuyerID:         req.UsuarioID,
		Lines:           lines,
		ShippingAddress: req.DireccionEnvio.toDomain(),
		PaymentMethod:   req.MetodoPago,
		ClientTotal:     req.Total,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, order)
}

// GetOrder handles GET /api/v1/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), actorFrom(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}

// UpdateOrderStatus handles PATCH /api/v1/orders/{id}/status
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := decode(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	order, err := h.service.Transition(r.Context(), actorFrom(r), id, req.Estado)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, order)
}

// ListSellerOrders handles GET /api/v1/orders/seller/{sellerId}
func (h *OrderHandler) ListSellerOrders(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := pathID(w, r, "sellerId")
	if !ok {
		return
	}
	limit, err := pagination.LimitFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	orders, err := h.service.ListBySeller(r.Context(), actorFrom(r), sellerID, r.URL.Query().Get("status"), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items(orders))
}

// ListBuyerOrders handles GET /api/v1/orders/buyer/{buyerId}
func (h *OrderHandler) ListBuyerOrders(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := pathID(w, r, "buyerId")
	if !ok {
		return
	}

	orders, err := h.service.ListByBuyer(r.Context(), actorFrom(r), buyerID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items(orders))
}
