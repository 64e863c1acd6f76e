package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront-backend/api/views"
	internaladmin "github.com/angelmondragon/storefront-backend/internal/admin"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/rules"
	stripewebhook "github.com/angelmondragon/storefront-backend/internal/webhooks/stripe"
	pkgauth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/session"
)

type stubCheckout struct{}

func (stubCheckout) BuyItem(context.Context, uint) (string, error)  { return "cs_item", nil }
func (stubCheckout) BuyOrder(context.Context, uint) (string, error) { return "cs_order", nil }
func (stubCheckout) MarkPaid(context.Context, uint) error           { return nil }

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		App:            config.AppConfig{Env: "test", BaseURL: "http://127.0.0.1:8000"},
		Session:        config.SessionConfig{CookieName: "sf_session", TTL: time.Hour},
		JWT:            config.JWTConfig{Secret: "router-secret", Issuer: "storefront-test", ExpirationMinutes: 5},
		Password:       config.PasswordConfig{ArgonMemoryKB: 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
		AdminRateLimit: config.AdminRateLimitConfig{LoginWindow: time.Minute, LoginIPLimit: 2, LoginUserLimit: 2},
	}
}

type routerFixture struct {
	handler http.Handler
	cfg     *config.Config
	item    models.Item
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	cfg := testConfig()
	conn := dbtest.Open(t)

	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	redisClient := redis.NewFromClient(raw)

	sessions, err := session.NewStore(redisClient, cfg.Session.TTL)
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn))
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	rulesSvc, err := rules.NewService(rules.NewRepository(conn))
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	orderRepo := orders.NewRepository(conn)
	ordersSvc, err := orders.NewService(orderRepo, rulesSvc, nil, nil)
	if err != nil {
		t.Fatalf("orders: %v", err)
	}
	cartSvc, err := cart.NewService(orderRepo, catalogSvc, sessions, nil)
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	adminSvc, err := internaladmin.NewService(internaladmin.ServiceParams{
		Repo:           internaladmin.NewRepository(conn),
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		t.Fatalf("admin: %v", err)
	}
	if _, err := adminSvc.Bootstrap(context.Background(), internaladmin.BootstrapInput{Username: "admin", Password: "s3cret"}); err != nil {
		t.Fatalf("bootstrap admin: %v", err)
	}
	webhookSvc, err := stripewebhook.NewService(ordersSvc, nil)
	if err != nil {
		t.Fatalf("webhook service: %v", err)
	}
	guard, err := stripewebhook.NewIdempotencyGuard(redisClient, time.Minute, "stripe-webhook")
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	renderer, err := views.New()
	if err != nil {
		t.Fatalf("views: %v", err)
	}

	item := models.Item{Name: "Item A", Price: 1000}
	if err := conn.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}

	reg := prometheus.NewRegistry()
	handler := NewRouter(Deps{
		Config:        cfg,
		DB:            stubPinger{},
		Redis:         redisClient,
		Renderer:      renderer,
		Catalog:       catalogSvc,
		Rules:         rulesSvc,
		Cart:          cartSvc,
		Orders:        ordersSvc,
		Checkout:      stubCheckout{},
		Admin:         adminSvc,
		StripeWebhook: webhookSvc,
		WebhookGuard:  guard,
		HTTPMetrics:   metrics.NewHTTPMetrics(reg),
		Gatherer:      reg,
	})
	return &routerFixture{handler: handler, cfg: cfg, item: item}
}

func (f *routerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	f := newRouterFixture(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := f.do(httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d (%s)", path, rec.Code, rec.Body.String())
		}
	}
}

func TestStorefrontCartFlow(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/items/1/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected item page, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "sf_session" {
		t.Fatalf("expected session cookie, got %v", cookies)
	}

	addToCart := func() map[string]any {
		req := httptest.NewRequest(http.MethodPost, "/add-to-cart/1/", nil)
		req.AddCookie(cookies[0])
		rec := f.do(req)
		if rec.Code != http.StatusOK {
			t.Fatalf("add to cart: expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return body
	}

	first := addToCart()
	if first["ok"] != true || first["item_name"] != "Item A" {
		t.Fatalf("unexpected first add %v", first)
	}
	second := addToCart()
	if second["ok"] != false || second["already_in_cart"] != true {
		t.Fatalf("unexpected second add %v", second)
	}

	req := httptest.NewRequest(http.MethodGet, "/cart/", nil)
	req.AddCookie(cookies[0])
	rec = f.do(req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Item A") || !strings.Contains(rec.Body.String(), "10.00") {
		t.Fatalf("expected cart with Item A, got %d", rec.Code)
	}

	rec = f.do(httptest.NewRequest(http.MethodGet, "/cart/", nil))
	if !strings.Contains(rec.Body.String(), "Your cart is empty") {
		t.Fatalf("expected a fresh session to see an empty cart")
	}
}

func TestStorefrontNotFound(t *testing.T) {
	f := newRouterFixture(t)

	for _, path := range []string{"/items/999/", "/items/abc/"} {
		rec := f.do(httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rec.Code)
		}
	}
	rec := f.do(httptest.NewRequest(http.MethodPost, "/buy/1/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "cs_item") {
		t.Fatalf("expected checkout id, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/admin/v1/items/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	token, _, err := pkgauth.MintAdminToken(f.cfg.JWT, time.Now(), 1, "admin")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/admin/v1/items/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = f.do(req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Item A") {
		t.Fatalf("expected item list, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestAdminLoginIsRateLimited(t *testing.T) {
	f := newRouterFixture(t)

	login := func(password string) int {
		req := httptest.NewRequest(http.MethodPost, "/admin/v1/auth/login", strings.NewReader(`{"username":"admin","password":"`+password+`"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "10.1.1.1:1234"
		return f.do(req).Code
	}

	if code := login("s3cret"); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := login("wrong"); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	if code := login("s3cret"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	f.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `storefront_http_request_duration_seconds_count{method="GET",route="/health/live",status="200"} 1`) {
		t.Fatalf("expected request histogram in metrics output:\n%s", rec.Body.String())
	}
}
