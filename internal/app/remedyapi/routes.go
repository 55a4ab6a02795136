// Package remedyapi собирает зависимости и маршруты основного приложения.
package remedyapi

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	adminuserlist "github.com/remedyhub/remedy-api/internal/http/handlers/admin/userlist"
	adminuserstatus "github.com/remedyhub/remedy-api/internal/http/handlers/admin/userstatus"
	ailmentcreate "github.com/remedyhub/remedy-api/internal/http/handlers/ailment/create"
	ailmentlist "github.com/remedyhub/remedy-api/internal/http/handlers/ailment/list"
	articlecreate "github.com/remedyhub/remedy-api/internal/http/handlers/article/create"
	articlegenerate "github.com/remedyhub/remedy-api/internal/http/handlers/article/generate"
	articlelist "github.com/remedyhub/remedy-api/internal/http/handlers/article/list"
	articleread "github.com/remedyhub/remedy-api/internal/http/handlers/article/read"
	"github.com/remedyhub/remedy-api/internal/http/handlers/auth/login"
	"github.com/remedyhub/remedy-api/internal/http/handlers/auth/register"
	"github.com/remedyhub/remedy-api/internal/http/handlers/auth/resetconfirm"
	"github.com/remedyhub/remedy-api/internal/http/handlers/auth/resetrequest"
	"github.com/remedyhub/remedy-api/internal/http/handlers/auth/verify"
	commentcreate "github.com/remedyhub/remedy-api/internal/http/handlers/comment/create"
	commentlist "github.com/remedyhub/remedy-api/internal/http/handlers/comment/list"
	flagcreate "github.com/remedyhub/remedy-api/internal/http/handlers/flag/create"
	"github.com/remedyhub/remedy-api/internal/http/handlers/health"
	moderationqueue "github.com/remedyhub/remedy-api/internal/http/handlers/moderation/queue"
	moderationresolve "github.com/remedyhub/remedy-api/internal/http/handlers/moderation/resolve"
	"github.com/remedyhub/remedy-api/internal/http/handlers/payment/paymentwebhook"
	plancreate "github.com/remedyhub/remedy-api/internal/http/handlers/plan/create"
	planlist "github.com/remedyhub/remedy-api/internal/http/handlers/plan/list"
	planread "github.com/remedyhub/remedy-api/internal/http/handlers/plan/read"
	remedycreate "github.com/remedyhub/remedy-api/internal/http/handlers/remedy/create"
	remedylist "github.com/remedyhub/remedy-api/internal/http/handlers/remedy/list"
	remedyread "github.com/remedyhub/remedy-api/internal/http/handlers/remedy/read"
	remedyremove "github.com/remedyhub/remedy-api/internal/http/handlers/remedy/remove"
	remedyunlock "github.com/remedyhub/remedy-api/internal/http/handlers/remedy/unlock"
	remedyupdate "github.com/remedyhub/remedy-api/internal/http/handlers/remedy/update"
	reviewcreate "github.com/remedyhub/remedy-api/internal/http/handlers/review/create"
	reviewlist "github.com/remedyhub/remedy-api/internal/http/handlers/review/list"
	subscriptioncancel "github.com/remedyhub/remedy-api/internal/http/handlers/subscription/cancel"
	subscriptioncurrent "github.com/remedyhub/remedy-api/internal/http/handlers/subscription/current"
	subscriptionsubscribe "github.com/remedyhub/remedy-api/internal/http/handlers/subscription/subscribe"
	userprofile "github.com/remedyhub/remedy-api/internal/http/handlers/user/profile"
	userunlocked "github.com/remedyhub/remedy-api/internal/http/handlers/user/unlocked"
	"github.com/remedyhub/remedy-api/internal/http/middlewarectx"
	"github.com/remedyhub/remedy-api/internal/lib/jwt"
	"github.com/remedyhub/remedy-api/internal/models"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwt.Maker, svcs *services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.MetricsMiddleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(logger).ServeHTTP)

		r.Post("/auth/register", register.New(logger, svcs.auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, svcs.auth).ServeHTTP)
		r.Get("/auth/verify", verify.New(logger, svcs.auth).ServeHTTP)
		r.Post("/auth/reset-password", resetrequest.New(logger, svcs.auth).ServeHTTP)
		r.Post("/auth/reset-password/confirm", resetconfirm.New(logger, svcs.auth).ServeHTTP)

		r.Get("/plans", planlist.New(logger, svcs.plan).ServeHTTP)
		r.Get("/plans/{id}", planread.New(logger, svcs.plan).ServeHTTP)
		r.Get("/ailments", ailmentlist.New(logger, svcs.ailment).ServeHTTP)
		r.Get("/remedies", remedylist.New(logger, svcs.remedy).ServeHTTP)
		r.Get("/remedies/{id}", remedyread.New(logger, svcs.remedy).ServeHTTP)
		r.Get("/remedies/{id}/reviews", reviewlist.New(logger, svcs.review).ServeHTTP)
		r.Get("/articles", articlelist.New(logger, svcs.article).ServeHTTP)
		r.Get("/articles/{id}", articleread.New(logger, svcs.article).ServeHTTP)
		r.Get("/articles/{id}/comments", commentlist.New(logger, svcs.article).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, 20, 40))

			r.Get("/users/me", userprofile.New(logger, svcs.user).ServeHTTP)
			r.Get("/users/me/unlocked", userunlocked.New(logger, svcs.entitlement).ServeHTTP)

			r.Post("/remedies", remedycreate.New(logger, svcs.remedy).ServeHTTP)
			r.Put("/remedies/{id}", remedyupdate.New(logger, svcs.remedy).ServeHTTP)
			r.Delete("/remedies/{id}", remedyremove.New(logger, svcs.remedy).ServeHTTP)
			r.Post("/remedies/{id}/unlock", remedyunlock.New(logger, svcs.entitlement).ServeHTTP)
			r.Post("/remedies/{id}/flag", flagcreate.New(logger, svcs.moderation, models.ContentTypeRemedy).ServeHTTP)

			r.Post("/reviews", reviewcreate.New(logger, svcs.review).ServeHTTP)
			r.Post("/reviews/{id}/flag", flagcreate.New(logger, svcs.moderation, models.ContentTypeReview).ServeHTTP)
			r.Post("/comments", commentcreate.New(logger, svcs.article).ServeHTTP)

			r.Post("/subscriptions", subscriptionsubscribe.New(logger, svcs.subscription).ServeHTTP)
			r.Get("/subscriptions/current", subscriptioncurrent.New(logger, svcs.subscription, svcs.entitlement).ServeHTTP)
			r.Delete("/subscriptions/{id}", subscriptioncancel.New(logger, svcs.subscription).ServeHTTP)

			// Авторы статей
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleWriter, models.RoleAdmin))
				r.Post("/articles", articlecreate.New(logger, svcs.article).ServeHTTP)
				r.Post("/articles/generate", articlegenerate.New(logger, svcs.article).ServeHTTP)
			})

			// Модерация
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleModerator, models.RoleAdmin))
				r.Get("/moderation/queue", moderationqueue.New(logger, svcs.moderation).ServeHTTP)
				r.Patch("/moderation/flags/{id}", moderationresolve.New(logger, svcs.moderation).ServeHTTP)
			})

			// Административные конечные точки
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin))
				r.Post("/plans", plancreate.New(logger, svcs.plan).ServeHTTP)
				r.Post("/ailments", ailmentcreate.New(logger, svcs.ailment).ServeHTTP)
				r.Get("/admin/users", adminuserlist.New(logger, svcs.user).ServeHTTP)
				r.Patch("/admin/users/{uid}/status", adminuserstatus.New(logger, svcs.user).ServeHTTP)
			})
		})

		// Webhook endpoint (без аутентификации)
		r.Post("/payments/webhook", paymentwebhook.New(logger, svcs.payment).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
