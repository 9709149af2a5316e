package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/storefront-api/internal/application/auth"
	"github.com/storefront-api/internal/application/order"
	"github.com/storefront-api/internal/application/product"
	"github.com/storefront-api/internal/application/token"
	"github.com/storefront-api/internal/application/user"
	"github.com/storefront-api/internal/config"
	jwtinfra "github.com/storefront-api/internal/infrastructure/jwt"
	"github.com/storefront-api/internal/pkg/password"
	"github.com/storefront-api/internal/transport/http/handler"
	appmiddleware "github.com/storefront-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    UserRepository
	ProductRepo ProductRepository
	OrderRepo   OrderRepository
	Images      ObjectStore
	Notifier    Notifier
	JWTProvider *jwtinfra.Provider
	// Now overrides the clock used for token expiry; nil means time.Now.
	Now func() time.Time
}

// NewRouter builds and returns the application router. ctx bounds the
// lifetime of background work such as rate-limiter cleanup.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", appmiddleware.AdminTokenHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	issuer := token.NewIssuer(token.IssuerDeps{
		Store:    deps.UserRepo,
		Notifier: deps.Notifier,
		Windows: token.Windows{
			PasswordReset:     cfg.ResetTokenTTL,
			EmailVerification: cfg.VerificationTokenTTL,
			EmailCode:         cfg.VerificationCodeTTL,
		},
		ClientURL: cfg.ClientURL,
		Now:       deps.Now,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:          deps.UserRepo,
		Signer:            deps.JWTProvider,
		Issuer:            issuer,
		Redeemer:          token.NewValidator(deps.UserRepo, deps.Now),
		ChangePolicy:      password.ChangePolicy(cfg.PasswordChangeMinLength),
		ResetPolicy:       password.ResetPolicy(cfg.PasswordResetMinLength),
		AdminEmail:        cfg.AdminEmail,
		AdminPasswordHash: cfg.AdminPasswordHash,
		Now:               deps.Now,
	})
	userSvc := user.NewService(user.ServiceDeps{UserRepo: deps.UserRepo})
	productSvc := product.NewService(product.ServiceDeps{ProductRepo: deps.ProductRepo, Images: deps.Images})
	orderSvc := order.NewService(order.ServiceDeps{OrderRepo: deps.OrderRepo})

	gate := auth.NewGate(deps.JWTProvider, deps.UserRepo, cfg.AdminEmail)
	requireUser := appmiddleware.Auth(gate)
	requireAdminToken := appmiddleware.AdminToken(gate)
	requireAdmin := appmiddleware.AdminOrRole(gate)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	userH := handler.NewUserHandler(userSvc)
	productH := handler.NewProductHandler(productSvc)
	orderH := handler.NewOrderHandler(orderSvc)

	r.Get("/health", healthH.Health)

	r.Route("/api/user", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(sensitiveRL.Limit)
			r.Post("/register", authH.Register)
			r.Post("/login", authH.Login)
			r.Post("/admin", authH.AdminLogin)
			r.Post("/admin-login", authH.AdminLogin)
			r.Post("/forgot-password", authH.ForgotPassword)
			r.Put("/reset-password/{token}", authH.ResetPassword)
			r.Post("/send-verification-email", authH.SendVerificationEmail)
			r.Post("/verify-email", authH.VerifyEmail)
			r.Get("/verify-email/{token}", authH.VerifyEmailLink)
		})

		r.With(requireUser).Put("/change-password", authH.ChangePassword)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/users", userH.List)
			r.Put("/update/{id}", userH.Update)
			r.Delete("/delete/{id}", userH.Delete)
		})
	})

	r.Route("/api/product", func(r chi.Router) {
		r.Get("/list", productH.List)
		r.Post("/single", productH.Single)
		r.With(requireAdminToken).Post("/add", productH.Add)
		r.With(requireAdminToken).Post("/remove", productH.Remove)
	})

	r.Route("/api/order", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/place", orderH.Place)
			r.Post("/userorders", orderH.UserOrders)
		})
		r.Group(func(r chi.Router) {
			r.Use(requireAdminToken)
			r.Post("/list", orderH.List)
			r.Post("/status", orderH.UpdateStatus)
			r.Delete("/delete", orderH.Delete)
		})
	})

	return r
}
