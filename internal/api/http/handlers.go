package http

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortly/internal/database"
	"github.com/vadimbarashkov/shortly/internal/models"
	"github.com/vadimbarashkov/shortly/internal/ratelimit"
	"github.com/vadimbarashkov/shortly/pkg/response"
)

// handlePing handles health check requests to ensure the server is running.
func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

// clientIP extracts the client's IP address, preferring the first entry
// of the X-Forwarded-For header when the server sits behind a proxy.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// rateLimit rejects requests exceeding the sliding window limit for the
// client's IP, answering with 429 and a Retry-After hint in seconds.
func rateLimit(limiter *ratelimit.SlidingWindow) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter := limiter.Allow(clientIP(r))
			if !allowed {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}

				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.RateLimitExceededResponse(seconds))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// urlRequest represents the request payload for creating a shortened URL.
type urlRequest struct {
	LongURL string `json:"long_url" validate:"required,url"`
}

// urlResponse represents the response payload for a shortened URL operation.
type urlResponse struct {
	ID        int64     `json:"id"`
	ShortCode string    `json:"short_code"`
	LongURL   string    `json:"long_url"`
	CreatedAt time.Time `json:"created_at"`
}

// toURLResponse converts a URL model from the business layer into a response payload.
func toURLResponse(url *models.URL) urlResponse {
	return urlResponse{
		ID:        url.ID,
		ShortCode: url.ShortCode,
		LongURL:   url.LongURL,
		CreatedAt: url.CreatedAt,
	}
}

// analyticsResponse represents the response payload for URL analytics.
type analyticsResponse struct {
	ShortCode   string    `json:"short_code"`
	LongURL     string    `json:"long_url"`
	CreatedAt   time.Time `json:"created_at"`
	TotalClicks int64     `json:"total_clicks"`
}

// handleShortenURL handles POST requests to shorten a URL.
//
// The request must contain a valid long URL. The handler validates the input,
// calls the URL shortening service, and returns the generated short code with
// relevant metadata.
func handleShortenURL(svc URLService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleShortenURL"
	const successMsg = "The URL has been shortened successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req urlRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		url, err := svc.ShortenURL(r.Context(), req.LongURL)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLResponse(url)))
	}
}

// handleRedirect handles GET requests to redirect a short code to the long URL.
//
// A click event is recorded for analytics before redirecting. Click recording
// failures are logged and never fail the redirect.
func handleRedirect(svc URLService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		longURL, err := svc.ResolveShortCode(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		if err := svc.RecordClick(r.Context(), shortCode, clientIP(r)); err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
		}

		http.Redirect(w, r, longURL, http.StatusTemporaryRedirect)
	}
}

// handleGetURLAnalytics handles GET requests to retrieve click analytics for a shortened URL.
//
// The handler fetches the URL details and the running click total, returning the data
// or a 404 error if the URL doesn't exist.
func handleGetURLAnalytics(svc URLService) http.HandlerFunc {
	const op = "api.http.handleGetURLAnalytics"
	const successMsg = "The URL analytics retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		analytics, err := svc.GetURLAnalytics(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		data := analyticsResponse{
			ShortCode:   analytics.ShortCode,
			LongURL:     analytics.LongURL,
			CreatedAt:   analytics.CreatedAt,
			TotalClicks: analytics.TotalClicks,
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, data))
	}
}
