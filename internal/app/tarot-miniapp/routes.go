package tarotminiapp

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/taroteka/tarot-miniapp/internal/cache"
	"github.com/taroteka/tarot-miniapp/internal/config"
	adminreviewlist "github.com/taroteka/tarot-miniapp/internal/http/handlers/admin/reviewlist"
	"github.com/taroteka/tarot-miniapp/internal/http/handlers/admin/reviewmoderate"
	"github.com/taroteka/tarot-miniapp/internal/http/handlers/admin/supportanswer"
	"github.com/taroteka/tarot-miniapp/internal/http/handlers/admin/supportlist"
	"github.com/taroteka/tarot-miniapp/internal/http/handlers/auth/adminlogin"
	"github.com/taroteka/tarot-miniapp/internal/http/handlers/auth/telegramauth"
	"github.com/taroteka/tarot-miniapp/internal/http/handlers/health"
	"github.com/taroteka/tarot-miniapp/internal/http/handlers/payment/paymentcreate"
	"github.com/taroteka/tarot-miniapp/internal/http/handlers/payment/paymentwebhook"
	"github.com/taroteka/tarot-miniapp/internal/http/handlers/reading/readingcreate"
	"github.com/taroteka/tarot-miniapp/internal/http/handlers/reading/readinghistory"
	"github.com/taroteka/tarot-miniapp/internal/http/handlers/review/reviewcreate"
	"github.com/taroteka/tarot-miniapp/internal/http/handlers/review/reviewlist"
	"github.com/taroteka/tarot-miniapp/internal/http/handlers/support/supportcreate"
	"github.com/taroteka/tarot-miniapp/internal/http/handlers/user/me"
	"github.com/taroteka/tarot-miniapp/internal/http/middlewarectx"
	"github.com/taroteka/tarot-miniapp/internal/lib/jwt"
	"github.com/taroteka/tarot-miniapp/internal/models"
	authservice "github.com/taroteka/tarot-miniapp/internal/services/auth"
	paymentservice "github.com/taroteka/tarot-miniapp/internal/services/payment"
	readingservice "github.com/taroteka/tarot-miniapp/internal/services/reading"
	reviewservice "github.com/taroteka/tarot-miniapp/internal/services/review"
	supportservice "github.com/taroteka/tarot-miniapp/internal/services/support"
)

// RouteServices объединяет сервисы, нужные маршрутам.
type RouteServices struct {
	Auth    *authservice.AuthService
	Reading *readingservice.ReadingService
	Payment *paymentservice.PaymentService
	Support *supportservice.SupportService
	Review  *reviewservice.ReviewService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	cacheRedis *cache.Cache, maker jwt.Maker, svc RouteServices) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	rateLimit := middlewarectx.RateLimitMiddleware(logger, cacheRedis, middlewarectx.RateLimitOptions{
		Window: cfg.RateLimitWindow,
		Limit:  int64(cfg.RateLimitMax),
	})
	responseCache := middlewarectx.CacheMiddleware(logger, cacheRedis, middlewarectx.CacheOptions{
		TTL: cfg.CacheTTL,
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/telegram", telegramauth.New(logger, svc.Auth).ServeHTTP)
		r.Post("/admin/login", adminlogin.New(logger, svc.Auth).ServeHTTP)

		// Группа пользователя с JWT аутентификацией и лимитером
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(maker, logger))
			r.Use(rateLimit)
			r.With(responseCache).Get("/reviews", reviewlist.New(logger, svc.Review).ServeHTTP)
			r.Get("/me", me.New(logger, svc.Reading).ServeHTTP)
			r.Post("/readings/daily", readingcreate.New(logger, svc.Reading, models.ReadingDaily).ServeHTTP)
			r.Post("/readings/yesno", readingcreate.New(logger, svc.Reading, models.ReadingYesNo).ServeHTTP)
			r.Post("/readings/three-cards", readingcreate.New(logger, svc.Reading, models.ReadingThreeCards).ServeHTTP)
			r.Get("/readings/history", readinghistory.New(logger, svc.Reading).ServeHTTP)
			r.Post("/payments", paymentcreate.New(logger, svc.Payment).ServeHTTP)
			r.Post("/support", supportcreate.New(logger, svc.Support).ServeHTTP)
			r.Post("/reviews", reviewcreate.New(logger, svc.Review).ServeHTTP)
		})

		// Админ-панель
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(maker, logger))
			r.Use(middlewarectx.AdminOnlyMiddleware(logger))
			r.Get("/admin/support", supportlist.New(logger, svc.Support).ServeHTTP)
			r.Post("/admin/support/{id}/answer", supportanswer.New(logger, svc.Support).ServeHTTP)
			r.Get("/admin/reviews", adminreviewlist.New(logger, svc.Review).ServeHTTP)
			r.Post("/admin/reviews/{id}/moderate", reviewmoderate.New(logger, svc.Review).ServeHTTP)
		})

		// Webhook ЮKassa: без JWT, но под локальным лимитером
		r.With(middlewarectx.LocalRateLimitMiddleware(logger, rate.Limit(5), 10)).
			Post("/payments/webhook", paymentwebhook.New(logger, svc.Payment, cfg.WebhookSecret).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", health.New(logger).ServeHTTP)
}
