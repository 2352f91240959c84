package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/tienda-api/internal/db"
	"github.com/MikeMC777/tienda-api/internal/product"
)

//
// ---------- STUBS & FAKES ----------
//

// stubCatalog implements product.Repository in memory, slug collisions
// included.
type stubCatalog struct {
	items     map[string]*product.Product
	lastQuery product.Query
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{items: map[string]*product.Product{}}
}

func (s *stubCatalog) GetByID(ctx context.Context, id string) (*product.Product, error) {
	p, ok := s.items[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubCatalog) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	for _, p := range s.items {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, product.ErrNotFound
}

func (s *stubCatalog) List(ctx context.Context, q product.Query) ([]product.Product, error) {
	s.lastQuery = q
	var out []product.Product
	for _, p := range s.items {
		if !q.IncludeInactive && !p.IsActive {
			continue
		}
		if q.Q != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Q)) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubCatalog) Create(ctx context.Context, p *product.Product) error {
	slug, _ := s.EnsureSlug(ctx, p.Name, p.ID)
	p.Slug = slug
	if p.SKU == "" {
		p.SKU = product.GenerateSKU(p.Name)
	}
	cp := *p
	s.items[cp.ID] = &cp
	return nil
}

func (s *stubCatalog) Update(ctx context.Context, p *product.Product) error {
	if _, ok := s.items[p.ID]; !ok {
		return product.ErrNotFound
	}
	cp := *p
	s.items[cp.ID] = &cp
	return nil
}

func (s *stubCatalog) EnsureSlug(ctx context.Context, name, excludeID string) (string, error) {
	base := product.Slugify(name)
	if base == "" {
		base = "product"
	}
	candidate := base
	for i := 2; ; i++ {
		taken := false
		for id, p := range s.items {
			if p.Slug == candidate && id != excludeID {
				taken = true
				break
			}
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *stubCatalog) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

func (s *stubCatalog) SetStock(ctx context.Context, id string, qty int) error {
	p, ok := s.items[id]
	if !ok {
		return product.ErrNotFound
	}
	p.StockQuantity = qty
	return nil
}

func (s *stubCatalog) DecrementStock(ctx context.Context, q db.Querier, productID string, qty int) error {
	return fmt.Errorf("not implemented")
}

func (s *stubCatalog) seed(name, slug string, active bool, stock int) *product.Product {
	p := &product.Product{
		ID:            uuid.NewString(),
		Name:          name,
		Slug:          slug,
		Price:         decimal.RequireFromString("19.99"),
		StockQuantity: stock,
		SKU:           product.GenerateSKU(name),
		IsActive:      active,
	}
	s.items[p.ID] = p
	return p
}

// fakeProductCache records which entries got invalidated.
type fakeProductCache struct {
	invalidated []string
}

func (f *fakeProductCache) Invalidate(ctx context.Context, p *product.Product) {
	f.invalidated = append(f.invalidated, p.ID+"|"+p.Slug)
}

func (f *fakeProductCache) sawSlug(slug string) bool {
	for _, key := range f.invalidated {
		if strings.HasSuffix(key, "|"+slug) {
			return true
		}
	}
	return false
}

// newCatalogRouter registra las rutas de catálogo igual que main, sin los
// guards de auth: aquí se prueba el handler, no el middleware.
func newCatalogRouter(repo *stubCatalog, cache *fakeProductCache) *gin.Engine {
	r := gin.New()
	r.GET("/products", listProductsHandler(repo))
	r.GET("/products/:key", getProductHandler(repo))
	r.GET("/admin/products", adminListProductsHandler(repo))
	r.POST("/admin/products", createProductHandler(repo))
	r.PUT("/admin/products/:id", updateProductHandler(repo, cache))
	r.DELETE("/admin/products/:id", deleteProductHandler(repo, cache))
	r.PUT("/admin/products/:id/stock", setStockHandler(repo, cache))
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

//
// ---------- TESTS ----------
//

func TestListProducts(t *testing.T) {
	repo := newStubCatalog()
	repo.seed("Teclado Mecánico", "teclado-mecanico", true, 10)
	repo.seed("Mouse Viejo", "mouse-viejo", false, 0)
	r := newCatalogRouter(repo, &fakeProductCache{})

	// la lista pública esconde los inactivos
	{
		w := do(r, http.MethodGet, "/products?q=&limit=5&offset=0", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		var got product.ListResponse
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("json inválido: %v", err)
		}
		if len(got.Items) != 1 || got.Items[0].Slug != "teclado-mecanico" {
			t.Fatalf("items inesperados: %+v", got.Items)
		}
		if got.Limit != 5 {
			t.Fatalf("limit=%d, esperaba el query param", got.Limit)
		}
		if repo.lastQuery.IncludeInactive {
			t.Fatalf("la ruta pública no debe pedir inactivos")
		}
	}

	// la lista de admin los incluye
	{
		w := do(r, http.MethodGet, "/admin/products", "")
		var got product.ListResponse
		_ = json.Unmarshal(w.Body.Bytes(), &got)
		if len(got.Items) != 2 {
			t.Fatalf("admin esperaba 2 items, got %d", len(got.Items))
		}
	}

	// catálogo vacío ⇒ items: [] y no null
	{
		r := newCatalogRouter(newStubCatalog(), &fakeProductCache{})
		w := do(r, http.MethodGet, "/products", "")
		if !strings.Contains(w.Body.String(), `"items":[]`) {
			t.Fatalf("esperaba items:[], body=%s", w.Body.String())
		}
	}
}

func TestGetProduct_ByIDOrSlug(t *testing.T) {
	repo := newStubCatalog()
	p := repo.seed("Teclado Mecánico", "teclado-mecanico", true, 10)
	hidden := repo.seed("Mouse Viejo", "mouse-viejo", false, 0)
	r := newCatalogRouter(repo, &fakeProductCache{})

	// por uuid
	{
		w := do(r, http.MethodGet, "/products/"+p.ID, "")
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
	}
	// por slug
	{
		w := do(r, http.MethodGet, "/products/teclado-mecanico", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		var got product.Product
		_ = json.Unmarshal(w.Body.Bytes(), &got)
		if got.ID != p.ID {
			t.Fatalf("resolvió otro producto: %s", got.ID)
		}
	}
	// inactivo ⇒ 404 aunque exista
	{
		w := do(r, http.MethodGet, "/products/"+hidden.ID, "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("esperaba 404 para inactivo, got %d", w.Code)
		}
	}
	// desconocido ⇒ 404
	{
		w := do(r, http.MethodGet, "/products/no-existe", "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("esperaba 404, got %d", w.Code)
		}
	}
}

func TestCreateProduct(t *testing.T) {
	repo := newStubCatalog()
	r := newCatalogRouter(repo, &fakeProductCache{})

	// alta normal: slug y sku generados, activo por default
	{
		w := do(r, http.MethodPost, "/admin/products", `{"name":"Mecanical Keyboard RGB","price":"89.90","stock":15}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		var got product.Product
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("json inválido: %v", err)
		}
		if got.Slug != "mecanical-keyboard-rgb" {
			t.Fatalf("slug=%q", got.Slug)
		}
		if !strings.HasPrefix(got.SKU, "PRD-") {
			t.Fatalf("sku=%q", got.SKU)
		}
		if !got.IsActive {
			t.Fatalf("el producto nuevo debe nacer activo")
		}
	}

	// validaciones
	{
		cases := []struct {
			name string
			body string
		}{
			{"sin nombre", `{"price":"10.00","stock":1}`},
			{"precio basura", `{"name":"X","price":"gratis","stock":1}`},
			{"precio negativo", `{"name":"X","price":"-1.00","stock":1}`},
			{"stock negativo", `{"name":"X","price":"10.00","stock":-3}`},
			{"json roto", `{"name":`},
		}
		for _, tc := range cases {
			if w := do(r, http.MethodPost, "/admin/products", tc.body); w.Code != http.StatusBadRequest {
				t.Fatalf("%s: esperaba 400, got %d", tc.name, w.Code)
			}
		}
	}
}

func TestUpdateProduct(t *testing.T) {
	repo := newStubCatalog()
	p := repo.seed("Teclado Mecánico", "teclado-mecanico", true, 10)
	cache := &fakeProductCache{}
	r := newCatalogRouter(repo, cache)

	// renombrar regenera el slug e invalida la entrada vieja y la nueva
	{
		w := do(r, http.MethodPut, "/admin/products/"+p.ID, `{"name":"Optical Keyboard"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		var got product.Product
		_ = json.Unmarshal(w.Body.Bytes(), &got)
		if got.Slug != "optical-keyboard" {
			t.Fatalf("slug=%q", got.Slug)
		}
		if !cache.sawSlug("teclado-mecanico") || !cache.sawSlug("optical-keyboard") {
			t.Fatalf("cache sin invalidar ambos slugs: %v", cache.invalidated)
		}
	}

	// update parcial: solo precio, el resto queda igual
	{
		w := do(r, http.MethodPut, "/admin/products/"+p.ID, `{"price":"120.00"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		var got product.Product
		_ = json.Unmarshal(w.Body.Bytes(), &got)
		if !got.Price.Equal(decimal.RequireFromString("120.00")) {
			t.Fatalf("price=%s", got.Price)
		}
		if got.Name != "Optical Keyboard" {
			t.Fatalf("el nombre no debía cambiar: %q", got.Name)
		}
	}

	// desactivar lo saca del catálogo público
	{
		do(r, http.MethodPut, "/admin/products/"+p.ID, `{"is_active":false}`)
		if w := do(r, http.MethodGet, "/products/"+p.ID, ""); w.Code != http.StatusNotFound {
			t.Fatalf("inactivo debía dar 404, got %d", w.Code)
		}
	}

	// errores
	{
		if w := do(r, http.MethodPut, "/admin/products/"+p.ID, `{"price":"-5"}`); w.Code != http.StatusBadRequest {
			t.Fatalf("esperaba 400 por precio, got %d", w.Code)
		}
		if w := do(r, http.MethodPut, "/admin/products/"+p.ID, `{"name":""}`); w.Code != http.StatusBadRequest {
			t.Fatalf("esperaba 400 por nombre vacío, got %d", w.Code)
		}
		if w := do(r, http.MethodPut, "/admin/products/"+uuid.NewString(), `{"price":"9.99"}`); w.Code != http.StatusNotFound {
			t.Fatalf("esperaba 404, got %d", w.Code)
		}
	}
}

func TestDeleteProduct(t *testing.T) {
	repo := newStubCatalog()
	p := repo.seed("Teclado Mecánico", "teclado-mecanico", true, 10)
	cache := &fakeProductCache{}
	r := newCatalogRouter(repo, cache)

	if w := do(r, http.MethodDelete, "/admin/products/"+p.ID, ""); w.Code != http.StatusNoContent {
		t.Fatalf("status=%d", w.Code)
	}
	if !cache.sawSlug("teclado-mecanico") {
		t.Fatalf("borrar no invalidó la cache")
	}
	// segundo delete ⇒ 404
	if w := do(r, http.MethodDelete, "/admin/products/"+p.ID, ""); w.Code != http.StatusNotFound {
		t.Fatalf("esperaba 404, got %d", w.Code)
	}
}

func TestSetStock(t *testing.T) {
	repo := newStubCatalog()
	p := repo.seed("Teclado Mecánico", "teclado-mecanico", true, 10)
	cache := &fakeProductCache{}
	r := newCatalogRouter(repo, cache)

	{
		w := do(r, http.MethodPut, "/admin/products/"+p.ID+"/stock", `{"stock":42}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		if repo.items[p.ID].StockQuantity != 42 {
			t.Fatalf("stock=%d", repo.items[p.ID].StockQuantity)
		}
		if len(cache.invalidated) == 0 {
			t.Fatalf("fijar stock debe invalidar la cache")
		}
	}
	{
		if w := do(r, http.MethodPut, "/admin/products/"+p.ID+"/stock", `{}`); w.Code != http.StatusBadRequest {
			t.Fatalf("esperaba 400 sin campo stock, got %d", w.Code)
		}
		if w := do(r, http.MethodPut, "/admin/products/"+p.ID+"/stock", `{"stock":-1}`); w.Code != http.StatusBadRequest {
			t.Fatalf("esperaba 400 por negativo, got %d", w.Code)
		}
		if w := do(r, http.MethodPut, "/admin/products/"+uuid.NewString()+"/stock", `{"stock":5}`); w.Code != http.StatusNotFound {
			t.Fatalf("esperaba 404, got %d", w.Code)
		}
	}
}
