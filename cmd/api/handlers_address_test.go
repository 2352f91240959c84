package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/tienda-api/internal/address"
	"github.com/MikeMC777/tienda-api/internal/db"
)

//
// ---------- STUBS & FAKES ----------
//

type stubAddresses struct {
	byUser map[string][]address.Address
}

func (s *stubAddresses) Create(ctx context.Context, a *address.Address) error {
	if s.byUser == nil {
		s.byUser = map[string][]address.Address{}
	}
	s.byUser[a.UserID] = append(s.byUser[a.UserID], *a)
	return nil
}

func (s *stubAddresses) GetByID(ctx context.Context, id string) (*address.Address, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *stubAddresses) ListByUser(ctx context.Context, userID string) ([]address.Address, error) {
	return s.byUser[userID], nil
}

func (s *stubAddresses) BelongsTo(ctx context.Context, q db.Querier, addressID, userID string) (bool, error) {
	return false, fmt.Errorf("not implemented")
}

func newAddressRouter(repo address.Repository, uid string) *gin.Engine {
	r := gin.New()
	g := r.Group("/addresses", asUser(uid))
	g.POST("", createAddressHandler(repo))
	g.GET("", listAddressesHandler(repo))
	return r
}

//
// ---------- TESTS ----------
//

func TestAddresses_CreateAndList(t *testing.T) {
	t.Parallel()

	repo := &stubAddresses{}
	r := newAddressRouter(repo, "u1")

	body := `{"type":"shipping","street":"Av. Reforma 123","city":"CDMX","postal_code":"06600","country":"MX","is_default":true}`
	w := do(r, http.MethodPost, "/addresses", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got address.Address
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.ID == "" || got.UserID != "u1" || got.Type != "shipping" {
		t.Fatalf("dirección inesperada: %+v", got)
	}

	w = do(r, http.MethodGet, "/addresses", "")
	var list []address.Address
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 1 || list[0].Street != "Av. Reforma 123" {
		t.Fatalf("lista inesperada: %+v", list)
	}
}

func TestAddresses_Validation(t *testing.T) {
	t.Parallel()

	r := newAddressRouter(&stubAddresses{}, "u1")

	// el tipo solo puede ser shipping o billing
	if w := do(r, http.MethodPost, "/addresses", `{"type":"pickup","street":"x","city":"y","postal_code":"1","country":"MX"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("esperaba 400 por tipo, got %d", w.Code)
	}
	// campos obligatorios
	if w := do(r, http.MethodPost, "/addresses", `{"type":"shipping"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("esperaba 400 por campos faltantes, got %d", w.Code)
	}
}

func TestAddresses_EmptyListIsArray(t *testing.T) {
	t.Parallel()

	r := newAddressRouter(&stubAddresses{}, "u9")
	w := do(r, http.MethodGet, "/addresses", "")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("esperaba [], got %s", w.Body.String())
	}
}
