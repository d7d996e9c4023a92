package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/cordobacasas/listing-api/internal/api/middleware"
	"github.com/cordobacasas/listing-api/internal/core/domain"
	"github.com/cordobacasas/listing-api/internal/core/ports"
)

type stubPropertyService struct {
	listFn   func(ctx context.Context, f ports.PropertyFilter) ([]*domain.Property, error)
	getFn    func(ctx context.Context, id string) (*domain.Property, error)
	createFn func(ctx context.Context, caller domain.Identity, in ports.CreatePropertyInput) (*ports.CreatePropertyResult, error)
	updateFn func(ctx context.Context, caller domain.Identity, id string, patch domain.PropertyPatch) (*domain.Property, error)
	deleteFn func(ctx context.Context, caller domain.Identity, id string) error
	toggleFn func(ctx context.Context, caller domain.Identity, id string) (*domain.Property, error)
}

func (s *stubPropertyService) List(ctx context.Context, f ports.PropertyFilter) ([]*domain.Property, error) {
	return s.listFn(ctx, f)
}

func (s *stubPropertyService) Get(ctx context.Context, id string) (*domain.Property, error) {
	return s.getFn(ctx, id)
}

func (s *stubPropertyService) Create(ctx context.Context, caller domain.Identity, in ports.CreatePropertyInput) (*ports.CreatePropertyResult, error) {
	return s.createFn(ctx, caller, in)
}

func (s *stubPropertyService) Update(ctx context.Context, caller domain.Identity, id string, patch domain.PropertyPatch) (*domain.Property, error) {
	return s.updateFn(ctx, caller, id, patch)
}

func (s *stubPropertyService) Delete(ctx context.Context, caller domain.Identity, id string) error {
	return s.deleteFn(ctx, caller, id)
}

func (s *stubPropertyService) ToggleStatus(ctx context.Context, caller domain.Identity, id string) (*domain.Property, error) {
	return s.toggleFn(ctx, caller, id)
}

var ownerIdentity = domain.Identity{PrincipalID: "owner-1", Kind: domain.KindUser}

func sampleProperty() *domain.Property {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Property{
		ID:           "p1",
		Slug:         "casa-en-nueva-cordoba",
		Title:        "Casa en Nueva Córdoba",
		Price:        150000,
		Neighborhood: "Nueva Córdoba",
		Bedrooms:     3,
		Images:       []string{"https://img.example.com/1.jpg", "https://img.example.com/2.jpg"},
		PropertyType: domain.TypeSale,
		Status:       domain.StatusActive,
		OwnerID:      "owner-1",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// authedContext returns a context carrying the identity the Auth middleware would set.
func authedContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, id domain.Identity) echo.Context {
	c := e.NewContext(req, rec)
	middleware.SetIdentity(c, id)
	return c
}

func TestPropertyHandler_List_ParsesFilters(t *testing.T) {
	e := newEcho()
	var got ports.PropertyFilter
	stub := &stubPropertyService{
		listFn: func(ctx context.Context, f ports.PropertyFilter) ([]*domain.Property, error) {
			got = f
			return []*domain.Property{sampleProperty()}, nil
		},
	}
	handler := NewPropertyHandler(stub, newMetrics())

	req := httptest.NewRequest(http.MethodGet,
		"/properties?minPrice=100000&maxPrice=200000&bedrooms=2&neighborhood=nueva&propertyType=sale&status=active&ownerId=owner-1&limit=10&offset=20", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	want := ports.PropertyFilter{
		MinPrice: 100000, MaxPrice: 200000, MinBedrooms: 2, Neighborhood: "nueva",
		PropertyType: domain.TypeSale, Status: domain.StatusActive, OwnerID: "owner-1",
		Limit: 10, Offset: 20,
	}
	if got != want {
		t.Fatalf("unexpected filter:\n got  %+v\n want %+v", got, want)
	}

	var resp []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 1 || resp[0]["image_url"] != "https://img.example.com/1.jpg" || resp[0]["property_type"] != "sale" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestPropertyHandler_List_NonNumericFilter(t *testing.T) {
	e := newEcho()
	stub := &stubPropertyService{
		listFn: func(ctx context.Context, f ports.PropertyFilter) ([]*domain.Property, error) {
			t.Fatal("should not be called")
			return nil, nil
		},
	}
	handler := NewPropertyHandler(stub, newMetrics())

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/properties?bedrooms=many", nil), httptest.NewRecorder())
	err := handler.List(c)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestPropertyHandler_List_EmptyIsArray(t *testing.T) {
	e := newEcho()
	stub := &stubPropertyService{
		listFn: func(ctx context.Context, f ports.PropertyFilter) ([]*domain.Property, error) {
			return nil, nil
		},
	}
	handler := NewPropertyHandler(stub, newMetrics())

	rec := httptest.NewRecorder()
	if err := handler.List(e.NewContext(httptest.NewRequest(http.MethodGet, "/properties", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty JSON array, got %q", body)
	}
}

func TestPropertyHandler_Get_NotFound(t *testing.T) {
	e := newEcho()
	stub := &stubPropertyService{
		getFn: func(ctx context.Context, id string) (*domain.Property, error) {
			return nil, domain.ErrPropertyNotFound
		},
	}
	handler := NewPropertyHandler(stub, newMetrics())

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/properties/missing", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("missing")

	if err := handler.Get(c); !errors.Is(err, domain.ErrPropertyNotFound) {
		t.Fatalf("expected ErrPropertyNotFound, got %v", err)
	}
}

func TestPropertyHandler_Create_Success(t *testing.T) {
	e := newEcho()
	stub := &stubPropertyService{
		createFn: func(ctx context.Context, caller domain.Identity, in ports.CreatePropertyInput) (*ports.CreatePropertyResult, error) {
			if caller != ownerIdentity {
				t.Fatalf("unexpected caller: %+v", caller)
			}
			if in.Title != "Casa en Nueva Córdoba" || in.PropertyType != domain.TypeSale || in.IdempotencyKey != "abc-123" {
				t.Fatalf("unexpected input: %+v", in)
			}
			if len(in.Images) != 1 || in.Images[0] != "https://img.example.com/cover.jpg" {
				t.Fatalf("image_url must become the single image: %+v", in.Images)
			}
			return &ports.CreatePropertyResult{Property: sampleProperty()}, nil
		},
	}
	m := newMetrics()
	handler := NewPropertyHandler(stub, m)

	req := jsonRequest(http.MethodPost, "/properties",
		`{"title":"Casa en Nueva Córdoba","price":150000,"property_type":"sale","image_url":"https://img.example.com/cover.jpg","owner_id":"intruder"}`)
	req.Header.Set("Idempotency-Key", "abc-123")
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, ownerIdentity)

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if got := testutil.ToFloat64(m.PropertiesCreatedTotal.WithLabelValues("sale")); got != 1 {
		t.Fatalf("expected 1 created sale, got %v", got)
	}
}

func TestPropertyHandler_Create_Replay(t *testing.T) {
	e := newEcho()
	stub := &stubPropertyService{
		createFn: func(ctx context.Context, caller domain.Identity, in ports.CreatePropertyInput) (*ports.CreatePropertyResult, error) {
			return &ports.CreatePropertyResult{Property: sampleProperty(), AlreadyExisted: true}, nil
		},
	}
	m := newMetrics()
	handler := NewPropertyHandler(stub, m)

	req := jsonRequest(http.MethodPost, "/properties", `{"title":"Casa","property_type":"sale"}`)
	req.Header.Set("Idempotency-Key", "abc-123")
	rec := httptest.NewRecorder()

	if err := handler.Create(authedContext(e, req, rec, ownerIdentity)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on replay, got %d", rec.Code)
	}
	if got := testutil.ToFloat64(m.IdempotentReplaysTotal); got != 1 {
		t.Fatalf("expected 1 replay, got %v", got)
	}
}

func TestPropertyHandler_Create_Validation(t *testing.T) {
	for name, body := range map[string]string{
		"missing title":  `{"property_type":"sale"}`,
		"bad type":       `{"title":"Casa","property_type":"lease"}`,
		"negative price": `{"title":"Casa","property_type":"rental","price":-1}`,
	} {
		t.Run(name, func(t *testing.T) {
			e := newEcho()
			stub := &stubPropertyService{
				createFn: func(ctx context.Context, caller domain.Identity, in ports.CreatePropertyInput) (*ports.CreatePropertyResult, error) {
					t.Fatal("should not be called")
					return nil, nil
				},
			}
			handler := NewPropertyHandler(stub, newMetrics())

			c := authedContext(e, jsonRequest(http.MethodPost, "/properties", body), httptest.NewRecorder(), ownerIdentity)
			if err := handler.Create(c); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestPropertyHandler_Create_WithoutIdentity(t *testing.T) {
	e := newEcho()
	handler := NewPropertyHandler(&stubPropertyService{}, newMetrics())

	c := e.NewContext(jsonRequest(http.MethodPost, "/properties", `{"title":"Casa","property_type":"sale"}`), httptest.NewRecorder())
	if err := handler.Create(c); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestPropertyHandler_Update_IgnoresOwner(t *testing.T) {
	e := newEcho()
	stub := &stubPropertyService{
		updateFn: func(ctx context.Context, caller domain.Identity, id string, patch domain.PropertyPatch) (*domain.Property, error) {
			if id != "p1" {
				t.Fatalf("unexpected id %q", id)
			}
			if patch.Price == nil || *patch.Price != 175000 {
				t.Fatalf("price not patched: %+v", patch)
			}
			if patch.Status == nil || *patch.Status != domain.StatusPaused {
				t.Fatalf("status not patched: %+v", patch)
			}
			if patch.Title != nil || patch.Images != nil {
				t.Fatalf("unset fields must stay nil: %+v", patch)
			}
			p := sampleProperty()
			patch.Apply(p)
			return p, nil
		},
	}
	m := newMetrics()
	handler := NewPropertyHandler(stub, m)

	rec := httptest.NewRecorder()
	c := authedContext(e, jsonRequest(http.MethodPut, "/properties/p1", `{"price":175000,"status":"paused","owner_id":"intruder"}`), rec, ownerIdentity)
	c.SetParamNames("id")
	c.SetParamValues("p1")

	if err := handler.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["owner_id"] != "owner-1" || resp["price"] != 175000.0 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if got := testutil.ToFloat64(m.PropertyMutationsTotal.WithLabelValues("update", "success")); got != 1 {
		t.Fatalf("expected 1 successful update, got %v", got)
	}
}

func TestPropertyHandler_Mutations_PropagateAccessErrors(t *testing.T) {
	forbidden := fmt.Errorf("property p1: %w", domain.ErrForbidden)
	stub := &stubPropertyService{
		updateFn: func(ctx context.Context, caller domain.Identity, id string, patch domain.PropertyPatch) (*domain.Property, error) {
			return nil, forbidden
		},
		deleteFn: func(ctx context.Context, caller domain.Identity, id string) error {
			return domain.ErrPropertyNotFound
		},
		toggleFn: func(ctx context.Context, caller domain.Identity, id string) (*domain.Property, error) {
			return nil, forbidden
		},
	}
	m := newMetrics()
	handler := NewPropertyHandler(stub, m)
	e := newEcho()

	newCtx := func(method, body string) echo.Context {
		c := authedContext(e, jsonRequest(method, "/properties/p1", body), httptest.NewRecorder(), ownerIdentity)
		c.SetParamNames("id")
		c.SetParamValues("p1")
		return c
	}

	if err := handler.Update(newCtx(http.MethodPut, `{"price":1}`)); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("update: expected ErrForbidden, got %v", err)
	}
	if err := handler.ToggleStatus(newCtx(http.MethodPatch, "")); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("toggle: expected ErrForbidden, got %v", err)
	}
	if err := handler.Delete(newCtx(http.MethodDelete, "")); !errors.Is(err, domain.ErrPropertyNotFound) {
		t.Fatalf("delete: expected ErrPropertyNotFound, got %v", err)
	}

	if got := testutil.ToFloat64(m.PropertyMutationsTotal.WithLabelValues("update", "forbidden")); got != 1 {
		t.Fatalf("expected 1 forbidden update, got %v", got)
	}
	if got := testutil.ToFloat64(m.PropertyMutationsTotal.WithLabelValues("delete", "not_found")); got != 1 {
		t.Fatalf("expected 1 not_found delete, got %v", got)
	}
}

func TestPropertyHandler_Delete_Success(t *testing.T) {
	e := newEcho()
	stub := &stubPropertyService{
		deleteFn: func(ctx context.Context, caller domain.Identity, id string) error {
			return nil
		},
	}
	handler := NewPropertyHandler(stub, newMetrics())

	rec := httptest.NewRecorder()
	c := authedContext(e, httptest.NewRequest(http.MethodDelete, "/properties/p1", nil), rec, ownerIdentity)
	c.SetParamNames("id")
	c.SetParamValues("p1")

	if err := handler.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if rec.Code != http.StatusOK || resp["message"] != "Property removed" {
		t.Fatalf("unexpected response: %d %v", rec.Code, resp)
	}
}

func TestPropertyHandler_ToggleStatus(t *testing.T) {
	e := newEcho()
	stub := &stubPropertyService{
		toggleFn: func(ctx context.Context, caller domain.Identity, id string) (*domain.Property, error) {
			p := sampleProperty()
			p.Status = domain.StatusPaused
			return p, nil
		},
	}
	handler := NewPropertyHandler(stub, newMetrics())

	rec := httptest.NewRecorder()
	c := authedContext(e, httptest.NewRequest(http.MethodPatch, "/properties/p1/status", nil), rec, ownerIdentity)
	c.SetParamNames("id")
	c.SetParamValues("p1")

	if err := handler.ToggleStatus(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["status"] != "paused" {
		t.Fatalf("expected paused, got %v", resp["status"])
	}
}
