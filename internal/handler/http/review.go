package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: svc, logger: logger}
}

// CreateReviewRequest is the JSON request body for reviewing a product. The
// rating range is checked by the aggregator.
type CreateReviewRequest struct {
	UsuarioID    string  `json:"usuarioId" validate:"omitempty,uuid"`
	ProductoID   string  `json:"productoId" validate:"required,uuid"`
	Comentario   *string `json:"comentario" validate:"omitempty,max=2000"`
	Calificacion int     `json:"calificacion"`
}

// ReviewsResponse is the body of a product's review listing.
type ReviewsResponse struct {
	Reviews []domain.Review `json:"reviews"`
}

// CreateReview handles POST /api/v1/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if err := decode(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	review, err := h.service.AddReview(r.Context(), actorFrom(r), service.AddReviewInput{
		UserID:    req.UsuarioID,
		ProductID: req.ProductoID,
		Rating:    req.Calificacion,
		Comment:   req.Comentario,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, review)
}

// ListProductReviews handles GET /api/v1/products/{id}/reviews
func (h *ReviewHandler) ListProductReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	reviews, err := h.service.ListByProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	httputil.WriteJSON(w, http.StatusOK, ReviewsResponse{Reviews: reviews})
}
