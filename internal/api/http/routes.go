package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortly/internal/models"
	"github.com/vadimbarashkov/shortly/internal/ratelimit"

	httpSwagger "github.com/swaggo/http-swagger"
)

// URLService defines the interface for the core URL shortening business logic.
type URLService interface {
	// ShortenURL creates a shortened version of the provided long URL.
	// It returns the generated short code and associated URL details, or an error if the operation fails.
	ShortenURL(ctx context.Context, longURL string) (*models.URL, error)

	// ResolveShortCode retrieves the long URL for a given short code.
	// It returns an error if the URL is not found.
	ResolveShortCode(ctx context.Context, shortCode string) (string, error)

	// RecordClick persists a click event for the short code and bumps the click counter.
	// Unknown short codes are dropped internally; only storage failures are returned.
	RecordClick(ctx context.Context, shortCode, ipAddress string) error

	// GetURLAnalytics retrieves the URL details together with the running click total.
	// It returns an error if the URL is not found.
	GetURLAnalytics(ctx context.Context, shortCode string) (*models.URLAnalytics, error)
}

// getValidate initializes a new validator instance for validating incoming request payloads.
// It customizes tag name extraction from struct fields to match JSON tags.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes and returns a new HTTP router with all routes and middleware configured.
func NewRouter(logger *httplog.Logger, urlSvc URLService, limiter *ratelimit.SlidingWindow) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.yml")
	})

	r.Route("/api/v1", func(r chi.Router) {
		validate := getValidate()

		r.Get("/ping", handlePing)

		r.With(rateLimit(limiter)).
			Post("/shorten", handleShortenURL(urlSvc, validate))

		r.Get("/analytics/{shortCode}", handleGetURLAnalytics(urlSvc))
	})

	r.Get("/{shortCode}", handleRedirect(urlSvc))

	return r
}
