package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/tienda-api/internal/db"
	"github.com/MikeMC777/tienda-api/internal/order"
)

//
// ---------- STUBS & FAKES ----------
//

type fakePlacer struct {
	gotUser     string
	gotShipping string
	gotBilling  string
	out         *order.Order
	err         error
}

func (f *fakePlacer) PlaceOrder(ctx context.Context, userID, shippingID, billingID string) (*order.Order, error) {
	f.gotUser, f.gotShipping, f.gotBilling = userID, shippingID, billingID
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

// stubOrderRepo keeps orders in a slice; the insert/payment methods are
// checkout internals and never run through these handlers.
type stubOrderRepo struct {
	orders []*order.Order
}

func (s *stubOrderRepo) find(id string) *order.Order {
	for _, o := range s.orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (s *stubOrderRepo) InsertOrder(ctx context.Context, q db.Querier, o *order.Order) error {
	return fmt.Errorf("not implemented")
}

func (s *stubOrderRepo) InsertItems(ctx context.Context, q db.Querier, items []order.Item) error {
	return fmt.Errorf("not implemented")
}

func (s *stubOrderRepo) GetByID(ctx context.Context, userID, orderID string) (*order.Order, error) {
	o := s.find(orderID)
	if o == nil || o.UserID != userID {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *stubOrderRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]order.Order, error) {
	var out []order.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *stubOrderRepo) UpdateStatus(ctx context.Context, orderID, status string) error {
	o := s.find(orderID)
	if o == nil {
		return order.ErrNotFound
	}
	o.Status = status
	return nil
}

func (s *stubOrderRepo) MarkShipped(ctx context.Context, orderID string, shippedAt time.Time) error {
	o := s.find(orderID)
	if o == nil {
		return order.ErrNotFound
	}
	o.Status = order.StatusShipped
	o.ShippedAt = &shippedAt
	return nil
}

func (s *stubOrderRepo) MarkPaid(ctx context.Context, q db.Querier, orderID string) error {
	return fmt.Errorf("not implemented")
}

func (s *stubOrderRepo) MarkPaymentFailed(ctx context.Context, q db.Querier, orderID string) error {
	return fmt.Errorf("not implemented")
}

func (s *stubOrderRepo) seed(id, userID, status string) *order.Order {
	o := &order.Order{
		ID: id, UserID: userID,
		OrderNumber: order.NewOrderNumber(), TxRef: order.NewTxRef(),
		TotalAmount: decimal.RequireFromString("150.00"),
		Status:      status, PaymentStatus: order.PaymentPending,
		OrderDate: time.Now().UTC(),
	}
	s.orders = append(s.orders, o)
	return o
}

// asUser replaces the auth middleware: it plants the uid the way Auth does.
func asUser(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("uid", uid)
		c.Next()
	}
}

// newOrderRouter: mismas rutas que main, con un uid fijo en vez de JWT.
func newOrderRouter(placer checkoutPlacer, repo order.Repository, uid string) *gin.Engine {
	r := gin.New()
	g := r.Group("/orders", asUser(uid))
	g.POST("", createOrderHandler(placer))
	g.GET("", listOrdersHandler(repo))
	g.GET("/:id", getOrderHandler(repo))

	adm := r.Group("/admin/orders")
	adm.PUT("/:id/status", updateOrderStatusHandler(repo))
	adm.PUT("/:id/shipping", markShippedHandler(repo))
	return r
}

//
// ---------- TESTS ----------
//

func TestCheckout_HappyPath(t *testing.T) {
	t.Parallel()

	placer := &fakePlacer{out: &order.Order{
		ID: "o1", UserID: "u1",
		OrderNumber: "ORD-20260112,093011-AB12CD34EF", TxRef: "TX-abc",
		TotalAmount: decimal.RequireFromString("259.80"),
		Status:      order.StatusPending, PaymentStatus: order.PaymentPending,
	}}
	r := newOrderRouter(placer, &stubOrderRepo{}, "u1")

	w := do(r, http.MethodPost, "/orders", `{"shipping_address_id":"a1","billing_address_id":"a2"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if placer.gotUser != "u1" || placer.gotShipping != "a1" || placer.gotBilling != "a2" {
		t.Fatalf("PlaceOrder llamado con %q %q %q", placer.gotUser, placer.gotShipping, placer.gotBilling)
	}

	var got order.Order
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("json inválido: %v", err)
	}
	if !strings.HasPrefix(got.OrderNumber, "ORD-") || got.Status != order.StatusPending {
		t.Fatalf("orden inesperada: %+v", got)
	}
	if !got.TotalAmount.Equal(decimal.RequireFromString("259.80")) {
		t.Fatalf("total=%s", got.TotalAmount)
	}
}

func TestCheckout_StockConflict(t *testing.T) {
	t.Parallel()

	placer := &fakePlacer{err: &order.StockError{ProductID: "p9", ProductName: "Teclado", Available: 1}}
	r := newOrderRouter(placer, &stubOrderRepo{}, "u1")

	w := do(r, http.MethodPost, "/orders", `{"shipping_address_id":"a1","billing_address_id":"a2"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got struct {
		Error     string `json:"error"`
		ProductID string `json:"product_id"`
		Available int    `json:"available"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.ProductID != "p9" || got.Available != 1 {
		t.Fatalf("cuerpo del conflicto incompleto: %+v", got)
	}
	if !strings.Contains(got.Error, "not enough stock") {
		t.Fatalf("error=%q", got.Error)
	}
}

func TestCheckout_BadRequests(t *testing.T) {
	t.Parallel()

	// falta una dirección
	{
		r := newOrderRouter(&fakePlacer{}, &stubOrderRepo{}, "u1")
		if w := do(r, http.MethodPost, "/orders", `{"shipping_address_id":"a1"}`); w.Code != http.StatusBadRequest {
			t.Fatalf("esperaba 400, got %d", w.Code)
		}
	}
	// carrito vacío
	{
		r := newOrderRouter(&fakePlacer{err: order.ErrEmptyCart}, &stubOrderRepo{}, "u1")
		w := do(r, http.MethodPost, "/orders", `{"shipping_address_id":"a1","billing_address_id":"a2"}`)
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "cart is empty") {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
	}
	// dirección ajena o inexistente
	{
		r := newOrderRouter(&fakePlacer{err: order.ErrInvalidAddress}, &stubOrderRepo{}, "u1")
		w := do(r, http.MethodPost, "/orders", `{"shipping_address_id":"a1","billing_address_id":"a2"}`)
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "invalid address") {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
	}
}

func TestGetOrder_ScopedToOwner(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepo{}
	repo.seed("o1", "u1", order.StatusPending)

	// el dueño la ve
	{
		r := newOrderRouter(&fakePlacer{}, repo, "u1")
		if w := do(r, http.MethodGet, "/orders/o1", ""); w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
	}
	// otro usuario recibe 404, no 403: el id no delata existencia
	{
		r := newOrderRouter(&fakePlacer{}, repo, "u2")
		if w := do(r, http.MethodGet, "/orders/o1", ""); w.Code != http.StatusNotFound {
			t.Fatalf("esperaba 404, got %d", w.Code)
		}
	}
}

func TestListOrders(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepo{}
	repo.seed("o1", "u1", order.StatusPending)
	repo.seed("o2", "u1", order.StatusPaid)
	repo.seed("o3", "u2", order.StatusPending)

	{
		r := newOrderRouter(&fakePlacer{}, repo, "u1")
		w := do(r, http.MethodGet, "/orders", "")
		var got []order.Order
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("json inválido: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("esperaba 2 órdenes, got %d", len(got))
		}
	}
	// sin órdenes ⇒ [] y no null
	{
		r := newOrderRouter(&fakePlacer{}, repo, "u3")
		w := do(r, http.MethodGet, "/orders", "")
		if strings.TrimSpace(w.Body.String()) != "[]" {
			t.Fatalf("esperaba [], got %s", w.Body.String())
		}
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepo{}
	repo.seed("o1", "u1", order.StatusPending)
	r := newOrderRouter(&fakePlacer{}, repo, "u1")

	// transición válida
	{
		w := do(r, http.MethodPut, "/admin/orders/o1/status", `{"status":"cancelled"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		if repo.find("o1").Status != order.StatusCancelled {
			t.Fatalf("no persistió el estado: %s", repo.find("o1").Status)
		}
		if !strings.Contains(w.Body.String(), `"new_status":"cancelled"`) {
			t.Fatalf("body=%s", w.Body.String())
		}
	}
	// estado inventado ⇒ 400 con la lista de válidos
	{
		w := do(r, http.MethodPut, "/admin/orders/o1/status", `{"status":"teleported"}`)
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "must be one of") {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
	}
	// orden inexistente ⇒ 404
	{
		w := do(r, http.MethodPut, "/admin/orders/zzz/status", `{"status":"paid"}`)
		if w.Code != http.StatusNotFound {
			t.Fatalf("esperaba 404, got %d", w.Code)
		}
	}
}

func TestMarkShipped(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepo{}
	repo.seed("o1", "u1", order.StatusPaid)
	r := newOrderRouter(&fakePlacer{}, repo, "u1")

	// sin body usa la hora actual
	{
		w := do(r, http.MethodPut, "/admin/orders/o1/shipping", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		o := repo.find("o1")
		if o.Status != order.StatusShipped || o.ShippedAt == nil || o.ShippedAt.IsZero() {
			t.Fatalf("orden sin marcar: %+v", o)
		}
	}
	// fecha explícita en RFC3339
	{
		w := do(r, http.MethodPut, "/admin/orders/o1/shipping", `{"shipped_at":"2026-01-15T10:30:00Z"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		want := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
		if !repo.find("o1").ShippedAt.Equal(want) {
			t.Fatalf("shipped_at=%v", repo.find("o1").ShippedAt)
		}
	}
	// fecha malformada ⇒ 400
	{
		w := do(r, http.MethodPut, "/admin/orders/o1/shipping", `{"shipped_at":"15/01/2026"}`)
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "RFC3339") {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
	}
	// orden inexistente ⇒ 404
	{
		if w := do(r, http.MethodPut, "/admin/orders/zzz/shipping", ""); w.Code != http.StatusNotFound {
			t.Fatalf("esperaba 404, got %d", w.Code)
		}
	}
}
