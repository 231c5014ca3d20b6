package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	otelinit "github.com/corray333/backend-labs/fooddelivery/internal/otel"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/invoice"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/menu"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/message"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/order"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/restaurant"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/user"
	"github.com/corray333/backend-labs/fooddelivery/internal/transport/http/invoices"
	"github.com/corray333/backend-labs/fooddelivery/internal/transport/http/menus"
	"github.com/corray333/backend-labs/fooddelivery/internal/transport/http/orders"
	"github.com/corray333/backend-labs/fooddelivery/internal/transport/http/respond"
	"github.com/corray333/backend-labs/fooddelivery/internal/transport/http/users"
	"github.com/corray333/backend-labs/fooddelivery/pkg/http/middleware/ratelimit"
	"github.com/corray333/backend-labs/fooddelivery/pkg/http/middleware/trace"
	"github.com/corray333/backend-labs/fooddelivery/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

type orderService interface {
	CreateOrder(ctx context.Context, userID, restaurantID int64, menuIDs []int64, quantities []int) (order.Order, error)
	GetOrder(ctx context.Context, orderID int64) (order.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]order.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, paymentSuccess bool) (order.Order, error)
	CancelOrder(ctx context.Context, orderID int64) (order.Order, error)
}

type invoiceService interface {
	GenerateInvoice(ctx context.Context, orderID int64) (invoice.Invoice, error)
	GetInvoiceByID(ctx context.Context, invoiceID int64) (invoice.Invoice, error)
}

type userService interface {
	RegisterTemporaryUser(ctx context.Context, c user.Candidate, picture []byte) (string, error)
	VerifyOtpToRegister(ctx context.Context, email, otp string) (string, error)
	Login(ctx context.Context, username, password string) (user.User, string, error)
	ValidateSession(ctx context.Context, token string) (int64, error)
	GetUserByID(ctx context.Context, userID int64) (user.User, error)
	GetAllUsers(ctx context.Context) ([]user.User, error)
	UpdateUser(ctx context.Context, userID int64, c user.Candidate, picture []byte) (user.User, error)
	DeleteProfilePicture(ctx context.Context, userID int64) (user.User, error)
	DeleteUser(ctx context.Context, userID int64) error
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ValidateForgotPasswordOtp(ctx context.Context, email, otp string) (string, error)
	ResetPassword(ctx context.Context, email, password, confirmPassword string) (string, error)
	GetMessagesByUserID(ctx context.Context, userID int64) ([]message.Message, error)
}

type menuService interface {
	CreateRestaurant(ctx context.Context, r restaurant.Restaurant) (restaurant.Restaurant, error)
	GetRestaurant(ctx context.Context, id int64) (restaurant.Restaurant, error)
	ListRestaurants(ctx context.Context) ([]restaurant.Restaurant, error)
	SaveMenu(ctx context.Context, m menu.Menu) (menu.Menu, error)
	GetMenu(ctx context.Context, id int64) (menu.Menu, error)
	GetAllMenus(ctx context.Context) ([]menu.Menu, error)
	UpdateMenu(ctx context.Context, id int64, m menu.Menu) (menu.Menu, error)
	DeleteMenu(ctx context.Context, id int64) error
	GetMenusByRestaurantName(ctx context.Context, name string) ([]menu.Menu, error)
}

// Services are the services the HTTP API exposes.
type Services struct {
	Orders   orderService
	Invoices invoiceService
	Users    userService
	Menus    menuService
}

type HTTPTransport struct {
	server      *http.Server
	router      *chi.Mux
	services    Services
	authLimiter *ratelimit.Limiter
}

func NewHTTPTransport(services Services) *HTTPTransport {
	trusted := trustedProxies()
	router := newRouter(trusted)
	server := newServer(router)

	return &HTTPTransport{
		server:      server,
		router:      router,
		services:    services,
		authLimiter: newAuthLimiter(trusted),
	}
}

// Handler returns the router, for serving without a listener.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

func (h *HTTPTransport) Run() error {
	slog.Info("Starting HTTP server", "address", h.server.Addr)

	return h.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	orderHandler := orders.NewHandler(h.services.Orders)
	invoiceHandler := invoices.NewHandler(h.services.Invoices)
	userHandler := users.NewHandler(h.services.Users)
	menuHandler := menus.NewHandler(h.services.Menus)

	h.router.Get("/health", health)

	h.router.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/order/create", orderHandler.CreateOrder)
			r.Get("/byOrderId/{id}", orderHandler.GetOrder)
			r.Get("/order/byUserId/{userId}", orderHandler.GetOrdersByUserID)
			r.Put("/order/updateStatus/{orderId}/{paymentSuccess}", orderHandler.UpdateStatus)
			r.Put("/order/cancel/{orderId}", orderHandler.CancelOrder)
		})

		r.Route("/invoices/invoice", func(r chi.Router) {
			r.Post("/generate/{orderId}", invoiceHandler.GenerateInvoice)
			r.Get("/getInvoiceById/{id}", invoiceHandler.GetInvoice)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/getAllUsers", userHandler.GetAllUsers)
			r.Get("/getalluserswithmsg", userHandler.GetAllUsers)
			r.Get("/messages/{userId}", userHandler.GetMessages)

			r.Route("/user", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(h.authLimiter.Handler)
					r.Post("/register", userHandler.Register)
					r.Post("/verifyOtpToRegisterUser", userHandler.VerifyOtpToRegister)
					r.Post("/login/{username}/{password}", userHandler.Login)
					r.Post("/verifyMail/{email}", userHandler.ForgotPassword)
					r.Post("/verifyForgotPasswordOtp", userHandler.VerifyForgotPasswordOtp)
					r.Post("/resetPassword/{email}", userHandler.ResetPassword)
				})

				r.Get("/validate", userHandler.ValidateSession)
				r.Get("/getUserById/{userId}", userHandler.GetUser)
				r.Put("/update/{id}", userHandler.Update)
				r.Delete("/profilePicture/delete/{userId}", userHandler.DeleteProfilePicture)
				r.Delete("/delete/{id}", userHandler.Delete)
			})
		})

		r.Get("/messages/byUserId/{userId}", userHandler.GetMessages)

		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", menuHandler.ListRestaurants)
			r.Post("/restaurant/create", menuHandler.CreateRestaurant)
			r.Get("/restaurant/{id}", menuHandler.GetRestaurant)
		})

		r.Route("/menus/menu", func(r chi.Router) {
			r.Post("/create", menuHandler.CreateMenu)
			r.Get("/getAll", menuHandler.GetAllMenus)
			r.Get("/{menuId}", menuHandler.GetMenu)
			r.Put("/update/{menuId}", menuHandler.UpdateMenu)
			r.Delete("/delete/{menuId}", menuHandler.DeleteMenu)
			r.Get("/byRestaurantName/{restaurantName}", menuHandler.GetMenusByRestaurantName)
		})
	})
}

func health(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// trustedProxies reads the proxies whose forwarding headers identify the client.
// Invalid entries are logged and none are trusted.
func trustedProxies() []netip.Prefix {
	prefixes, err := logger.ParseTrustedProxies(viper.GetStringSlice("server.http.trusted_proxies"))
	if err != nil {
		slog.Error("Ignoring trusted proxies", "error", err)

		return nil
	}

	return prefixes
}

func newAuthLimiter(trusted []netip.Prefix) *ratelimit.Limiter {
	perSecond := viper.GetFloat64("server.http.rate_limit.requests_per_second")
	if perSecond == 0 {
		perSecond = 1
	}
	burst := viper.GetInt("server.http.rate_limit.burst")
	if burst == 0 {
		burst = 5
	}

	return ratelimit.New(rate.Limit(perSecond), burst, 3*time.Minute, trusted...)
}

func newRouter(trusted []netip.Prefix) *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(logger.NewLoggerMiddleware(slog.Default(), trusted...))
	router.Use(trace.NewTraceMiddleware(otelinit.ServiceName))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
