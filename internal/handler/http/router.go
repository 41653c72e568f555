package http

import (
	"log/slog"
	"os"

	"github.com/agilabus/ftms-backend-go/internal/config"
	"github.com/agilabus/ftms-backend-go/internal/handler/http/middleware"
	"github.com/agilabus/ftms-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(cfg *config.Config, jwtService jwt.Service, periodHandler PeriodHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "ftms-backend"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))
	r.Use(chiMiddleware.ThrottleBacklog(cfg.RateLimit.Max, cfg.RateLimit.Max*2, cfg.RateLimit.Window))

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			// Admin only
			r.Route("/admin/payroll-periods", func(r chi.Router) {
				r.Use(middleware.AdminOnly)

				r.Post("/", periodHandler.Create)
				r.Get("/", periodHandler.List)
				r.Get("/{id}", periodHandler.Get)
				r.Patch("/{id}", periodHandler.Update)
				r.Delete("/{id}", periodHandler.Delete)
				r.Post("/{id}/process", periodHandler.Process)
				r.Post("/{id}/release", periodHandler.Release)
				r.Get("/{id}/payrolls/{payrollId}/payslip", periodHandler.Payslip)
			})
		})
	})
	return r
}
