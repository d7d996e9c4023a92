package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cordobacasas/listing-api/internal/api/handler"
	"github.com/cordobacasas/listing-api/internal/core/domain"
	"github.com/cordobacasas/listing-api/internal/core/service"
	"github.com/cordobacasas/listing-api/internal/infrastructure/db/sqlstore"
	"github.com/cordobacasas/listing-api/internal/infrastructure/security"
)

// newTestRouter wires the real services to a fresh SQLite file.
func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	ctx := context.Background()

	store, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "listings.db"), 1, zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	hasher := security.NewBcryptHasher()
	issuer, err := security.NewJWTIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	authSvc, err := service.NewAuthService(store.Principals(), hasher, issuer, zerolog.Nop())
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}

	return NewRouter(Deps{
		Auth:       authSvc,
		Profiles:   service.NewProfileService(store.Principals(), hasher, zerolog.Nop()),
		Properties: service.NewPropertyService(store.Properties(), nil, 0, zerolog.Nop()),
		Tokens:     issuer,
		Checks:     map[string]handler.Pinger{"store": store},
		Logger:     zerolog.Nop(),
	})
}

func do(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
}

func register(t *testing.T, e *echo.Echo, username, email string) string {
	t.Helper()
	rec := do(e, http.MethodPost, "/auth/register",
		`{"username":"`+username+`","email":"`+email+`","password":"secret1"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", username, rec.Code, rec.Body.String())
	}
	var resp map[string]any
	decode(t, rec, &resp)
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatalf("register %s: no token in %v", username, resp)
	}
	return token
}

func TestRouter_RegisterListAndUnauthenticatedCreate(t *testing.T) {
	e := newTestRouter(t)

	rec := do(e, http.MethodPost, "/auth/register", `{"username":"lucia","email":"lucia@example.com","password":"secret1"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var reg map[string]any
	decode(t, rec, &reg)
	if reg["token"] == "" || reg["kind"] != "user" {
		t.Fatalf("unexpected register response: %v", reg)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response leaks password data: %s", rec.Body.String())
	}

	rec = do(e, http.MethodGet, "/properties", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %s", rec.Body.String())
	}

	rec = do(e, http.MethodPost, "/properties", `{"title":"Casa","property_type":"sale"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var errBody map[string]string
	decode(t, rec, &errBody)
	if errBody["error"] == "" {
		t.Fatal("expected error envelope")
	}
}

func TestRouter_LoginByEmail(t *testing.T) {
	e := newTestRouter(t)
	register(t, e, "lucia", "lucia@example.com")

	rec := do(e, http.MethodPost, "/auth/login", `{"email":"lucia@example.com","password":"secret1"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodPost, "/auth/login", `{"email":"lucia@example.com","password":"wrong"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = do(e, http.MethodPost, "/auth/login", `{"password":"secret1"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing identifier, got %d", rec.Code)
	}
}

func TestRouter_PropertyOwnershipFlow(t *testing.T) {
	e := newTestRouter(t)
	owner := register(t, e, "lucia", "lucia@example.com")
	other := register(t, e, "mateo", "mateo@example.com")

	rec := do(e, http.MethodPost, "/properties",
		`{"title":"Casa en Güemes","price":150000,"bedrooms":3,"neighborhood":"Güemes","property_type":"sale","owner_id":"someone-else"}`, owner)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created map[string]any
	decode(t, rec, &created)
	id, _ := created["id"].(string)
	ownerID, _ := created["owner_id"].(string)
	if id == "" || ownerID == "" || ownerID == "someone-else" {
		t.Fatalf("unexpected created property: %v", created)
	}
	if created["status"] != "active" || created["slug"] != "casa-en-guemes" {
		t.Fatalf("unexpected defaults: %v", created)
	}

	rec = do(e, http.MethodPut, "/properties/"+id, `{"price":1}`, other)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cross-owner PUT: expected 403, got %d", rec.Code)
	}
	rec = do(e, http.MethodDelete, "/properties/"+id, "", other)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cross-owner DELETE: expected 403, got %d", rec.Code)
	}
	rec = do(e, http.MethodPut, "/properties/does-not-exist", `{"price":1}`, other)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing PUT: expected 404, got %d", rec.Code)
	}

	rec = do(e, http.MethodPut, "/properties/"+id, `{"price":175000,"owner_id":"hijack"}`, owner)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner PUT: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated map[string]any
	decode(t, rec, &updated)
	if updated["price"] != 175000.0 || updated["owner_id"] != ownerID {
		t.Fatalf("unexpected update result: %v", updated)
	}

	rec = do(e, http.MethodPatch, "/properties/"+id+"/status", "", owner)
	var toggled map[string]any
	decode(t, rec, &toggled)
	if rec.Code != http.StatusOK || toggled["status"] != "paused" {
		t.Fatalf("toggle: got %d %v", rec.Code, toggled)
	}

	rec = do(e, http.MethodGet, "/properties?status=paused&minPrice=100000", "", "")
	var listed []map[string]any
	decode(t, rec, &listed)
	if len(listed) != 1 || listed[0]["id"] != id {
		t.Fatalf("unexpected list: %v", listed)
	}

	rec = do(e, http.MethodGet, "/properties?minPrice=cheap", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric filter: expected 400, got %d", rec.Code)
	}

	rec = do(e, http.MethodDelete, "/properties/"+id, "", owner)
	var msg map[string]string
	decode(t, rec, &msg)
	if rec.Code != http.StatusOK || msg["message"] != "Property removed" {
		t.Fatalf("delete: got %d %v", rec.Code, msg)
	}
	rec = do(e, http.MethodGet, "/properties/"+id, "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestRouter_Profile(t *testing.T) {
	e := newTestRouter(t)
	token := register(t, e, "lucia", "lucia@example.com")

	rec := do(e, http.MethodGet, "/users/profile", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = do(e, http.MethodPut, "/users/profile", `{"password":"newsecret"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodPost, "/auth/login", `{"email":"lucia@example.com","password":"newsecret"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login with new password: expected 200, got %d", rec.Code)
	}

	rec = do(e, http.MethodGet, "/users/profile", "", token)
	var profile map[string]any
	decode(t, rec, &profile)
	if rec.Code != http.StatusOK || profile["username"] != "lucia" || profile["email"] != "lucia@example.com" {
		t.Fatalf("unexpected profile: %d %v", rec.Code, profile)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	e := newTestRouter(t)

	rec := do(e, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", rec.Code)
	}
	rec = do(e, http.MethodGet, "/health/ready", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("readiness: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	register(t, e, "lucia", "lucia@example.com")
	rec = do(e, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `listings_registrations_total{result="success"} 1`) {
		t.Fatalf("registration counter missing from metrics output")
	}
}

func TestRouter_ReadinessReportsFailingDependency(t *testing.T) {
	e := NewRouter(Deps{
		Checks: map[string]handler.Pinger{
			"redis": handler.PingFunc(func(context.Context) error { return errors.New("connection refused") }),
		},
		Logger: zerolog.Nop(),
	})

	rec := do(e, http.MethodGet, "/health/ready", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var resp struct {
		Dependencies map[string]map[string]string `json:"dependencies"`
	}
	decode(t, rec, &resp)
	if resp.Dependencies["redis"]["status"] != "unhealthy" {
		t.Fatalf("expected redis unhealthy: %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("dependency error leaked to the client: %s", rec.Body.String())
	}
}

func TestRouter_ExpiredAndInvalidTokensAnswerAlike(t *testing.T) {
	e := newTestRouter(t)

	stale, err := security.NewJWTIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	stale.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	expired, err := stale.Issue(&domain.Principal{ID: "u1", Kind: domain.KindUser})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	body := `{"title":"Casa","property_type":"sale"}`
	expiredRec := do(e, http.MethodPost, "/properties", body, expired)
	garbageRec := do(e, http.MethodPost, "/properties", body, "not-a-token")

	if expiredRec.Code != http.StatusUnauthorized || garbageRec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401s, got %d and %d", expiredRec.Code, garbageRec.Code)
	}
	if expiredRec.Body.String() != garbageRec.Body.String() {
		t.Fatalf("responses differ: %s vs %s", expiredRec.Body.String(), garbageRec.Body.String())
	}
}

func TestRouter_OverlongPasswordIsBadRequest(t *testing.T) {
	e := newTestRouter(t)
	long := strings.Repeat("a", 80)

	rec := do(e, http.MethodPost, "/auth/register",
		`{"username":"lucia","email":"lucia@example.com","password":"`+long+`"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("register: expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	token := register(t, e, "mateo", "mateo@example.com")
	rec = do(e, http.MethodPut, "/users/profile", `{"password":"`+long+`"}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("profile: expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	// 25 three-byte runes pass the character limit but exceed bcrypt's 72 bytes.
	wide := strings.Repeat("€", 25)
	rec = do(e, http.MethodPut, "/users/profile", `{"password":"`+wide+`"}`, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("multibyte profile password: expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}
