package http

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
)

func TestTopProducts_SpanishAlias(t *testing.T) {
	f := newFixture(t)
	f.reports.On("TopProducts", mock.Anything, 10).Return([]domain.ProductSales{{
		ProductID: productID, Name: "Zapatillas", SellerID: sellerID,
		QuantitySold: 7, Revenue: decimal.NewFromInt(7000), OrderCount: 4,
	}}, nil)

	rec := f.do(http.MethodGet, "/api/v1/reports/mayores-ventas", nil, f.token(sellerID, domain.RoleSeller))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rows := decodeMap(t, rec)["items"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.Equal(t, float64(7), row["quantity_sold"])
	assert.Equal(t, "7000", row["revenue"])
}

func TestTopProducts_LimitClamped(t *testing.T) {
	f := newFixture(t)
	f.reports.On("TopProducts", mock.Anything, 100).Return(nil, nil)

	rec := f.do(http.MethodGet, "/api/v1/reports/top-products?limit=250", nil, f.token(adminID, domain.RoleAdmin))

	assert.Equal(t, http.StatusOK, rec.Code)
	f.reports.AssertExpectations(t)
}

func TestTopProducts_BadLimit(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/reports/top-products?limit=ten", nil, f.token(sellerID, domain.RoleSeller))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTopProducts_CustomerForbidden(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/reports/top-products", nil, f.token(buyerID, domain.RoleCustomer))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
