package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sealdesk/sealdesk/internal/api/handler"
	apimw "github.com/sealdesk/sealdesk/internal/api/middleware"
	"github.com/sealdesk/sealdesk/internal/billing"
	"github.com/sealdesk/sealdesk/internal/queue"
	"github.com/sealdesk/sealdesk/internal/service"
)

// Deps carries everything the router needs. Grouping them in a struct keeps
// the constructor signature stable as the surface grows.
type Deps struct {
	Auth        *service.AuthService
	Templates   *service.TemplateService
	Submissions *service.SubmissionService
	Billing     *billing.WebhookProcessor
	Queue       *queue.PaymentQueue
	Registry    prometheus.Gatherer
	JWTSecret   string
	Logger      *zap.Logger
}

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)           // recover panics, return 500
	r.Use(chimw.RealIP)              // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(25<<20)) // bounded by the document upload cap
	r.Use(apimw.CorrelationID)       // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(d.Logger))

	// --- handler instances ---
	ah := handler.NewAuthHandler(d.Auth, d.Logger)
	th := handler.NewTemplateHandler(d.Templates, d.Logger)
	sh := handler.NewSubmissionHandler(d.Submissions, d.Logger)
	gh := handler.NewSigningHandler(d.Submissions, d.Logger)
	bh := handler.NewBillingHandler(d.Billing, d.Logger)
	mh := handler.NewMetricsHandler(d.Queue)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))

	// Public signer surface: the slug is the credential.
	r.Route("/sign/{slug}", func(r chi.Router) {
		r.Get("/", gh.Open)
		r.Post("/complete", gh.Complete)
		r.Post("/decline", gh.Decline)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", ah.Register)
		r.Post("/auth/login", ah.Login)
		r.Post("/auth/password/forgot", ah.ForgotPassword)
		r.Post("/auth/password/reset", ah.ResetPassword)

		// Signature is verified against the shared secret, not a session.
		r.Post("/webhooks/billing", bh.Webhook)

		// Everything below requires a Bearer token.
		r.Group(func(r chi.Router) {
			r.Use(apimw.Authenticate(d.JWTSecret))

			// Templates — /documents must be registered before /{id}
			// so chi does not treat the literal string as an ID.
			r.Post("/templates/documents", th.UploadDocument)
			r.Post("/templates", th.Create)
			r.Get("/templates", th.List)
			r.Get("/templates/{id}", th.Get)
			r.Put("/templates/{id}", th.Update)
			r.Delete("/templates/{id}", th.Delete)

			r.Post("/submissions", sh.Create)
			r.Get("/submissions", sh.List)
			r.Get("/submissions/{id}", sh.Get)
			r.Delete("/submissions/{id}", sh.Archive)

			// JSON metrics snapshot
			r.Get("/metrics", mh.GetMetrics)
		})
	})

	return r
}
