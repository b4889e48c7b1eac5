package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-rental-cart/internal/cart"
	"github.com/imrishuroy/go-rental-cart/internal/catalog"
	"github.com/imrishuroy/go-rental-cart/internal/checkout"
	"github.com/imrishuroy/go-rental-cart/internal/invoices"
)

type staticCatalog []catalog.Product

func (s staticCatalog) GetProducts(ctx context.Context) ([]catalog.Product, error) { return s, nil }

type staticInventory []catalog.InventoryRecord

func (s staticInventory) GetInventory(ctx context.Context) ([]catalog.InventoryRecord, error) {
	return s, nil
}

type stubGenerator struct {
	calls int
}

func (g *stubGenerator) Generate(ctx context.Context, req invoices.Request) (*invoices.Invoice, error) {
	g.calls++
	lines, amount := invoices.LinesFromCart(req.Items)
	return &invoices.Invoice{InvoiceID: "inv-42", CartID: req.CartID, Status: invoices.StatusPending, Amount: amount, Lines: lines}, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *cart.Registry, *stubGenerator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	products := staticCatalog{
		{ID: "muletas-axilares", BasePrice: 4, Pricing: &catalog.PricingConstants{A: 3.72, B: 1.89}},
		{ID: "p1", BasePrice: 5, SalePrice: 180, Sizes: []string{"M", "G"}, Pricing: &catalog.PricingConstants{A: 5.1, B: 2.3}},
	}
	stock := staticInventory{
		{ProductID: "muletas-axilares", TotalQuantity: 4},
		{ProductID: "p1", Size: "M", TotalQuantity: 8, RentedQuantity: 2},
	}
	gen := &stubGenerator{}
	carts := cart.NewRegistry()
	svc := checkout.NewService(products, stock, gen, nil, nil)
	return NewRouter(HandlerConfig{Service: svc, Carts: carts}, []string{"*"}), carts, gen
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestQuoteRoute(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/quote", map[string]interface{}{"product_id": "muletas-axilares", "days": 1}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "5.50", body["total_display"])

	w = do(t, r, http.MethodPost, "/quote", map[string]interface{}{"product_id": "ghost", "days": 1}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/quote", map[string]interface{}{"days": 1}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaleListingRoute(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/products/sale", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	products := decode(t, w)["products"].([]interface{})
	require.Len(t, products, 1)
	assert.Equal(t, "p1", products[0].(map[string]interface{})["product_id"])
}

func TestCartFlow(t *testing.T) {
	r, carts, gen := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/carts/c1/items", map[string]interface{}{
		"product_id": "p1", "size": "M", "quantity": 2, "days": 3,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodPatch, "/carts/c1/items", map[string]interface{}{
		"product_id": "p1", "size": "M", "quantity": 5,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodPatch, "/carts/c1/items", map[string]interface{}{
		"product_id": "p1", "size": "M", "quantity": 7,
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "insufficient_stock", decode(t, w)["error"])

	w = do(t, r, http.MethodPatch, "/carts/c1/items", map[string]interface{}{
		"product_id": "p1", "size": "M", "days": 10,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	line := decode(t, w)["line"].(map[string]interface{})
	assert.Equal(t, 250.0, line["total"])

	w = do(t, r, http.MethodGet, "/carts/c1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode(t, w)
	assert.Equal(t, "250.00", view["subtotal_display"])
	assert.Len(t, view["items"], 1)

	w = do(t, r, http.MethodPost, "/carts/c1/checkout", map[string]interface{}{"client_id": "c-1", "name": "Ana"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/carts/c1/checkout", map[string]interface{}{"client_id": "c-1", "name": "Ana"},
		map[string]string{"Idempotency-Key": "k-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/invoices/inv-42", w.Header().Get("Location"))
	assert.Equal(t, 1, gen.calls)

	assert.Zero(t, carts.Len())

	w = do(t, r, http.MethodPost, "/carts/c1/checkout", map[string]interface{}{"client_id": "c-1", "name": "Ana"},
		map[string]string{"Idempotency-Key": "k-2"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAddSaleRoutes(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/carts/c2/items", map[string]interface{}{
		"product_id": "muletas-axilares", "quantity": 1, "is_sale": true,
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, r, http.MethodPost, "/carts/c2/items", map[string]interface{}{
		"product_id": "p1", "size": "M", "quantity": 2, "is_sale": true,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	line := decode(t, w)["line"].(map[string]interface{})
	assert.Equal(t, 360.0, line["total"])
	assert.Equal(t, "360.00", line["total_display"])
}

func TestRemoveAndClearRoutes(t *testing.T) {
	r, carts, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/carts/c3/items", map[string]interface{}{
		"product_id": "muletas-axilares", "quantity": 1, "days": 2,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodDelete, "/carts/c3/items", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodDelete, "/carts/c3/items?product_id=muletas-axilares&size=M", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 1)

	w = do(t, r, http.MethodDelete, "/carts/c3/items?product_id=muletas-axilares", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 0)

	w = do(t, r, http.MethodDelete, "/carts/c3", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, carts.Len())
}

func TestReadsDoNotCreateCarts(t *testing.T) {
	r, carts, _ := newTestRouter(t)

	for _, id := range []string{"a", "b", "c"} {
		w := do(t, r, http.MethodGet, "/carts/"+id, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["items"], 0)

		w = do(t, r, http.MethodDelete, "/carts/"+id+"/items?product_id=p1", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = do(t, r, http.MethodDelete, "/carts/"+id, nil, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = do(t, r, http.MethodPost, "/carts/"+id+"/checkout", map[string]interface{}{"client_id": "c-1", "name": "Ana"},
			map[string]string{"Idempotency-Key": "k-" + id})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	}
	assert.Zero(t, carts.Len())
}

func TestRejectedAddLeavesNoCart(t *testing.T) {
	r, carts, _ := newTestRouter(t)
	w := do(t, r, http.MethodPost, "/carts/c5/items", map[string]interface{}{
		"product_id": "p1", "size": "G", "quantity": 1, "days": 2,
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, carts.Len())
}

func TestPatchMissingLine(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := do(t, r, http.MethodPatch, "/carts/c4/items", map[string]interface{}{"product_id": "p1", "size": "M", "quantity": 1}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
