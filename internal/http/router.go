package httpapi

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/clients"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/config"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/http/handlers"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/middleware"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/notify"
	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/storefront"
)

type Deps struct {
	Logger *log.Logger
	Cfg    config.Config

	Manager *storefront.Manager
	Catalog *clients.CatalogClient
	Orders  *clients.OrderClient
	Notices *notify.Feed

	HealthProbes []clients.HealthProbe
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// Middlewares (outer -> inner)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logging(d.Logger))
	r.Use(middleware.CORS(d.Cfg.CORSAllowOrigins))
	r.Use(middleware.Recover(d.Logger))

	// Health
	health := &handlers.HealthHandler{Probes: d.HealthProbes}
	r.Get("/health", health.Shell)
	r.Get("/health/upstream", health.Upstream)

	// Session
	sess := handlers.NewSessionHandler(d.Manager)
	r.Route("/session", func(r chi.Router) {
		r.Get("/", sess.Status)
		r.Post("/login", sess.Login)
		r.Post("/register", sess.Register)
		r.Post("/logout", sess.Logout)
	})

	// Cart
	cart := handlers.NewCartHandler(d.Manager.Cart())
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", cart.Get)
		r.Delete("/", cart.Clear)
		r.Post("/items", cart.AddItem)
		r.Patch("/items/{id}", cart.UpdateItem)
		r.Delete("/items/{id}", cart.RemoveItem)
	})

	// Catalog
	cat := handlers.NewCatalogHandler(d.Catalog)
	r.Get("/products", cat.ListProducts)
	r.Get("/products/categories", cat.Categories)
	r.Get("/products/{id}", cat.GetProduct)

	r.Route("/admin/products", func(r chi.Router) {
		r.Post("/", cat.CreateProduct)
		r.Put("/{id}", cat.UpdateProduct)
		r.Delete("/{id}", cat.DeleteProduct)
	})

	// Checkout + orders
	order := handlers.NewOrderHandler(d.Manager, d.Orders)
	r.Post("/checkout", order.Checkout)
	r.Get("/checkout/estimate", order.Estimate)
	r.Get("/orders", order.ListOrders)
	r.Get("/orders/{id}", order.GetOrder)

	r.Get("/notices", handlers.NewNoticesHandler(d.Notices).List)

	return r
}
