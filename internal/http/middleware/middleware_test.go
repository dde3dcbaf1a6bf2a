package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gestaozabele/painelpregao/internal/auth"
	"github.com/gestaozabele/painelpregao/internal/identity"
	"github.com/gestaozabele/painelpregao/internal/kv"
	"github.com/gestaozabele/painelpregao/internal/workspace"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestCORSAllowsProfileHeader(t *testing.T) {
	h := CORS([]string{"http://localhost:5173", "*.zabele.com.br"})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodOptions, "/api/me", nil)
	req.Header.Set("Origin", "https://painel.zabele.com.br")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight: %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://painel.zabele.com.br" {
		t.Fatalf("unexpected origin %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "X-Profile") {
		t.Fatalf("X-Profile must be allowed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Origin", "https://zabele.com.br")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("root domain must not match wildcard")
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/me", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("preflight from unknown origin: %d", rec.Code)
	}
}

func TestCORSWildcardAllowsAnyOrigin(t *testing.T) {
	h := CORS([]string{"*"})(http.HandlerFunc(okHandler))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://192.168.0.10:8080")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Origin") != "http://192.168.0.10:8080" {
		t.Fatalf("code=%d origin=%q", rec.Code, rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestProfileRateLimitKeysByProfile(t *testing.T) {
	reg := workspace.NewRegistry(kv.NewMemoryBackend(), nil, zerolog.Nop())
	limiter := NewRateLimiter("test", 0.0001, 1)
	h := Profile(reg)(ProfileRateLimit(limiter)(http.HandlerFunc(okHandler)))

	call := func(profile string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderProfile, profile)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := call("a"); code != http.StatusOK {
		t.Fatalf("first call: %d", code)
	}
	if code := call("a"); code != http.StatusTooManyRequests {
		t.Fatalf("second call on same profile: %d", code)
	}
	if code := call("b"); code != http.StatusOK {
		t.Fatalf("other profile must have its own bucket: %d", code)
	}
}

func TestRequireSessionAndAdmin(t *testing.T) {
	ctx := context.Background()
	ws, err := workspace.Open(ctx, kv.NewMemoryBackend(), "p", nil, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	admin, err := ws.Identity.RegisterCompanyAndAdmin(ctx, identity.RegisterCompanyInput{
		CompanyName: "Zabelê", CNPJ: "11.111.111/0001-11", FullName: "Ana", Email: "ana@zabele.com.br", Password: "Senha123",
	})
	if err != nil {
		t.Fatal(err)
	}
	employee, err := ws.Identity.RegisterEmployee(ctx, identity.RegisterEmployeeInput{
		CompanyID: admin.CompanyID, FullName: "Carlos", Email: "carlos@zabele.com.br", Password: "temp123",
	})
	if err != nil {
		t.Fatal(err)
	}

	tokens := auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour)
	revoked := auth.NewMemoryRevocations()
	h := RequireSession(tokens, revoked)(RequireAdmin(http.HandlerFunc(okHandler)))

	call := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), ContextKeyWorkspace, ws))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := call(""); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}

	adminToken, adminClaims, err := tokens.GenerateAccessToken(admin.ID, "p", nil)
	if err != nil {
		t.Fatal(err)
	}
	if code := call(adminToken); code != http.StatusOK {
		t.Fatalf("admin: %d", code)
	}

	employeeToken, _, _ := tokens.GenerateAccessToken(employee.ID, "p", nil)
	if code := call(employeeToken); code != http.StatusForbidden {
		t.Fatalf("employee on admin route: %d", code)
	}

	foreign, _, _ := tokens.GenerateAccessToken(admin.ID, "outro", nil)
	if code := call(foreign); code != http.StatusUnauthorized {
		t.Fatalf("token of another profile: %d", code)
	}

	if err := revoked.Revoke(ctx, adminClaims.ID, time.Hour); err != nil {
		t.Fatal(err)
	}
	if code := call(adminToken); code != http.StatusUnauthorized {
		t.Fatalf("revoked token: %d", code)
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := BearerToken(req); ok {
		t.Fatalf("missing header must not yield a token")
	}
	req.Header.Set("Authorization", "Basic abc")
	if _, ok := BearerToken(req); ok {
		t.Fatalf("basic auth is not a bearer token")
	}
	req.Header.Set("Authorization", "bearer  abc.def ")
	if tok, ok := BearerToken(req); !ok || tok != "abc.def" {
		t.Fatalf("unexpected token %q %v", tok, ok)
	}
}

func TestRecoverReturnsInternalError(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestIPRateLimitUsesForwardedAddress(t *testing.T) {
	limiter := NewRateLimiter("test", 0.5, 1)
	h := IPRateLimit(limiter)(http.HandlerFunc(okHandler))

	call := func(forwarded string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := call("10.0.0.1, 172.16.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("first call: %d", rec.Code)
	}
	rec := call("10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second call: %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("Retry-After = %q, want 2", got)
	}
	if !strings.Contains(rec.Body.String(), "RATE_LIMIT") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if rec := call("10.0.0.2"); rec.Code != http.StatusOK {
		t.Fatalf("other address: %d", rec.Code)
	}
}

func TestRequestLevel(t *testing.T) {
	cases := map[string]struct {
		path   string
		status int
		want   zerolog.Level
	}{
		"health":      {"/health", 200, zerolog.DebugLevel},
		"client":      {"/api/me", 401, zerolog.WarnLevel},
		"server":      {"/health", 503, zerolog.ErrorLevel},
		"regular api": {"/api/monitor/items", 200, zerolog.InfoLevel},
	}
	for name, tc := range cases {
		if got := requestLevel(tc.path, tc.status); got != tc.want {
			t.Errorf("%s: level = %v, want %v", name, got, tc.want)
		}
	}
}
