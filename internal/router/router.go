package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinic-api/internal/config"
	"clinic-api/internal/handler"
	"clinic-api/internal/metrics"
	"clinic-api/internal/middleware"
	"clinic-api/internal/model"
)

type Handlers struct {
	Auth          *handler.AuthHandler
	User          *handler.UserHandler
	Patient       *handler.PatientHandler
	Visit         *handler.VisitHandler
	MedicalRecord *handler.MedicalRecordHandler
	Prescription  *handler.PrescriptionHandler
	Audit         *handler.AuditHandler
	Health        *handler.HealthHandler
	Docs          *handler.DocsHandler
	// Metrics is optional; nil disables instrumentation and /metrics.
	Metrics *metrics.Metrics
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	if h.Metrics != nil {
		r.Use(h.Metrics.Middleware)
	}
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/health", h.Health.Health)
	r.Get("/openapi.yaml", h.Docs.OpenAPI)
	r.Get("/swagger", h.Docs.SwaggerUI)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())
	}

	doctorOnly := authMiddleware.RequireRoles(model.RoleDoctor)
	adminOnly := authMiddleware.RequireRoles(model.RoleAdmin)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", h.Auth.Login)
			auth.With(authMiddleware.RequireAuth).Get("/verify", h.Auth.Verify)
		})

		api.Group(func(protected chi.Router) {
			protected.Use(authMiddleware.RequireAuth)

			protected.With(adminOnly).Post("/users", h.User.Create)

			protected.Route("/patients", func(patients chi.Router) {
				patients.Get("/search", h.Patient.Search)
				patients.Post("/", h.Patient.Create)
				patients.Get("/{patientId}", h.Patient.Get)
				patients.Put("/{patientId}", h.Patient.Update)
			})

			protected.Route("/visits", func(visits chi.Router) {
				visits.Post("/", h.Visit.Create)
				visits.Get("/patient/{patientId}", h.Visit.ListByPatient)
				visits.Get("/today/list", h.Visit.Today)
				visits.Get("/{visitId}", h.Visit.Get)
			})

			protected.Route("/medical-records", func(records chi.Router) {
				records.With(doctorOnly).Post("/", h.MedicalRecord.Create)
				records.With(doctorOnly).Post("/{recordId}/sign", h.MedicalRecord.Sign)
				records.Get("/patient/{patientId}", h.MedicalRecord.ListByPatient)
				records.Get("/{recordId}", h.MedicalRecord.Get)
			})

			protected.Route("/prescriptions", func(prescriptions chi.Router) {
				prescriptions.With(doctorOnly).Post("/", h.Prescription.Create)
				prescriptions.Get("/patient/{patientId}", h.Prescription.ListByPatient)
				prescriptions.Get("/medications/search", h.Prescription.SearchMedications)
				prescriptions.Get("/{orderId}", h.Prescription.Get)
			})

			protected.With(adminOnly).Get("/audit", h.Audit.List)
		})
	})

	return r
}
