package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	admincontrollers "github.com/angelmondragon/storefront-backend/api/controllers/admin"
	webhookcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/webhooks"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/views"
	internaladmin "github.com/angelmondragon/storefront-backend/internal/admin"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/rules"
	stripewebhook "github.com/angelmondragon/storefront-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/session"
	"github.com/angelmondragon/storefront-backend/pkg/stripe"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    *redis.Client
	Renderer *views.Renderer

	Catalog  catalog.Service
	Rules    rules.Service
	Cart     cart.Service
	Orders   orders.Service
	Checkout checkout.Service
	Admin    internaladmin.Service

	Stripe        *stripe.Client
	StripeWebhook *stripewebhook.Service
	WebhookGuard  *stripewebhook.IdempotencyGuard

	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, d.HTTPMetrics),
	)

	publishableKey := ""
	if d.Stripe != nil {
		publishableKey = d.Stripe.PublishableKey()
	}

	pingers := map[string]controllers.Pinger{}
	if d.DB != nil {
		pingers["db"] = d.DB
	}
	if d.Redis != nil {
		pingers["redis"] = d.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, pingers, logg))
	})

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(d.StripeWebhook, d.Stripe, d.WebhookGuard, logg))
	})

	cookies := session.Cookies{
		Name:   cfg.Session.CookieName,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.Secure,
	}
	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(cookies, logg))

		r.Get("/items/{id}/", controllers.ItemPage(d.Catalog, d.Renderer, publishableKey, logg))
		r.Post("/buy/{id}/", controllers.BuyItem(d.Checkout, logg))
		r.Post("/add-to-cart/{id}/", controllers.AddToCart(d.Cart, logg))
		r.Get("/cart/", controllers.CartPage(d.Cart, d.Renderer, publishableKey, logg))
		r.Post("/cart/change/{order_id}/{item_id}/", controllers.ChangeQuantity(d.Cart, logg))
		r.Post("/cart/delete/{order_id}/{item_id}/", controllers.DeleteItem(d.Cart, logg))
		r.Post("/buy-order/{order_id}/", controllers.BuyOrder(d.Checkout, logg))
		r.Get("/success.html", controllers.CheckoutSuccess(d.Checkout, d.Cart, d.Renderer, logg))
		r.Get("/cancel.html", controllers.CheckoutCancel(d.Renderer, logg))
	})

	loginPolicy := middleware.NewLoginRateLimitPolicy(
		"admin-login",
		cfg.AdminRateLimit.LoginWindow,
		cfg.AdminRateLimit.LoginIPLimit,
		cfg.AdminRateLimit.LoginUserLimit,
	)
	items := admincontrollers.NewItems(d.Catalog, logg)
	rulesH := admincontrollers.NewRules(d.Rules, logg)
	ordersH := admincontrollers.NewOrders(d.Orders, d.Cart, logg)

	r.Route("/admin/v1", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.App.BaseURL))

		if d.Redis != nil {
			r.With(middleware.LoginRateLimit(loginPolicy, d.Redis, logg)).Post("/auth/login", admincontrollers.Login(d.Admin, logg))
		} else {
			r.Post("/auth/login", admincontrollers.Login(d.Admin, logg))
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.JWT, logg))

			r.Route("/items", func(r chi.Router) {
				r.Get("/", items.List)
				r.Post("/", items.Create)
				r.Get("/{id}", items.Get)
				r.Put("/{id}", items.Update)
				r.Delete("/{id}", items.Delete)
			})

			r.Route("/discounts", func(r chi.Router) {
				r.Get("/", rulesH.ListDiscounts)
				r.Post("/", rulesH.CreateDiscount)
				r.Get("/{id}", rulesH.GetDiscount)
				r.Put("/{id}", rulesH.UpdateDiscount)
				r.Patch("/{id}/active", rulesH.SetDiscountActive)
				r.Delete("/{id}", rulesH.DeleteDiscount)
			})

			r.Route("/taxes", func(r chi.Router) {
				r.Get("/", rulesH.ListTaxes)
				r.Post("/", rulesH.CreateTax)
				r.Get("/{id}", rulesH.GetTax)
				r.Put("/{id}", rulesH.UpdateTax)
				r.Patch("/{id}/active", rulesH.SetTaxActive)
				r.Delete("/{id}", rulesH.DeleteTax)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordersH.List)
				r.Get("/{order_id}", ordersH.Get)
				r.Put("/{order_id}/discount", ordersH.AttachDiscount)
				r.Put("/{order_id}/tax", ordersH.AttachTax)
				r.Put("/{order_id}/items/{item_id}", ordersH.SetLineQuantity)
				r.Post("/{order_id}/paid", ordersH.MarkPaid)
			})
		})
	})

	return r
}
