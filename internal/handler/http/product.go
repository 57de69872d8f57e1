package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/service"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
)

// SectionOffers is the only listing section of GET /products.
const SectionOffers = "offers"

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CreateProductRequest is the JSON request body for creating a product.
type CreateProductRequest struct {
	Nombre      string           `json:"nombre" validate:"required,max=200"`
	Descripcion string           `json:"descripcion" validate:"max=5000"`
	Precio      *decimal.Decimal `json:"precio" validate:"required,gte=0,lte=9999999999.99"`
	Stock       *int             `json:"stock" validate:"required,gte=0,lte=2147483647"`
	Imagenes    []string         `json:"imagenes" validate:"omitempty,max=20,dive,required"`
	CategoriaID *string          `json:"categoriaId" validate:"omitempty,uuid"`
}

// UpdateProductRequest is the JSON request body for updating a product. Every
// field is optional; a zero porcentajeDescuento clears the discount.
type UpdateProductRequest struct {
	Precio               *decimal.Decimal `json:"precio" validate:"omitempty,gte=0,lte=9999999999.99"`
	Stock                *int             `json:"stock" validate:"omitempty,gte=0,lte=2147483647"`
	PorcentajeDescuento  *decimal.Decimal `json:"porcentajeDescuento" validate:"omitempty,gte=0,lte=100"`
	FechaInicioDescuento *time.Time       `json:"fechaInicioDescuento"`
	FechaFinDescuento    *time.Time       `json:"fechaFinDescuento"`
}

func (req UpdateProductRequest) input() (service.UpdateProductInput, error) {
	in := service.UpdateProductInput{Price: req.Precio, Stock: req.Stock}
	if req.PorcentajeDescuento == nil {
		if req.FechaInicioDescuento != nil || req.FechaFinDescuento != nil {
			return in, apperrors.InvalidInput("discount dates require porcentajeDescuento")
		}
		return in, nil
	}
	in.Discount = &service.DiscountInput{
		Percentage: *req.PorcentajeDescuento,
		StartsAt:   req.FechaInicioDescuento,
		EndsAt:     req.FechaFinDescuento,
	}
	return in, nil
}

// --- Handlers ---

// ListProducts handles GET /api/v1/products?section=offers
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	if section := r.URL.Query().Get("section"); section != "" && section != SectionOffers {
		httputil.WriteError(w, r, apperrors.InvalidInput("section must be "+SectionOffers), h.logger)
		return
	}
	limit, err := pagination.LimitFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	products, err := h.service.ListActiveOffers(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items(products))
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// CreateProduct handles POST /api/v1/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := decode(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	p, err := h.service.CreateProduct(r.Context(), actorFrom(r), service.CreateProductInput{
		Name:        req.Nombre,
		Description: req.Descripcion,
		Price:       *req.Precio,
		Stock:       *req.Stock,
		Images:      req.Imagenes,
		CategoryID:  req.CategoriaID,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

// UpdateProduct handles PUT /api/v1/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := decode(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	input, err := req.input()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	p, err := h.service.UpdateProduct(r.Context(), actorFrom(r), id, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// ArchiveProduct handles DELETE /api/v1/products/{id}
func (h *ProductHandler) ArchiveProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.service.ArchiveProduct(r.Context(), actorFrom(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}
