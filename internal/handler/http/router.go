package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	AllowedOrigins []string
	Env            string
	LogLevel       slog.Level
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, attendanceHandler AttendanceHandler, payrollHandler PayrollHandler, taxHandler TaxConfigurationHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-engine"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.Env),
	)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			// Employee self-service
			r.Route("/attendance", func(r chi.Router) {
				r.Use(middleware.EmployeeRequired)
				r.Post("/clock-in", attendanceHandler.ClockIn)
				r.Post("/clock-out", attendanceHandler.ClockOut)
				r.Get("/status", attendanceHandler.Status)
				r.Get("/summary", attendanceHandler.Summary)
				r.Get("/overtime", attendanceHandler.Overtime)
			})

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminOnly)

				r.Route("/employees/{employeeID}/attendance", func(r chi.Router) {
					r.Get("/status", attendanceHandler.Status)
					r.Get("/summary", attendanceHandler.Summary)
					r.Get("/overtime", attendanceHandler.Overtime)
				})

				r.Route("/payroll", func(r chi.Router) {
					r.Post("/preview", payrollHandler.Preview)

					r.Route("/batches", func(r chi.Router) {
						r.Post("/", payrollHandler.CreateBatch)
						r.Route("/{periodID}", func(r chi.Router) {
							r.Get("/", payrollHandler.GetBatch)
							r.Post("/run", payrollHandler.RunBatch)
							r.Post("/cancel", payrollHandler.CancelBatch)
							r.Post("/totals", payrollHandler.RecomputeTotals)
							r.Get("/payslips", payrollHandler.ListPayslips)
						})
					})
				})

				r.Route("/tax-configurations", func(r chi.Router) {
					r.Get("/", taxHandler.List)
					r.Post("/", taxHandler.Create)
					r.Get("/active", taxHandler.GetActive)
					r.Get("/{id}", taxHandler.Get)
					r.Post("/{id}/activate", taxHandler.Activate)
				})
			})
		})
	})
	return r
}
