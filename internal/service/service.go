package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vadimbarashkov/shortly/internal/cache"
	"github.com/vadimbarashkov/shortly/internal/database"
	"github.com/vadimbarashkov/shortly/internal/models"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrMaxRetriesExceeded is returned when the maximum number of retries for generating a short code is exceeded.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")

// URLRepository defines the interface for working with the durable store
// at the business logic layer. The store is the source of truth: every
// write here must succeed before any cache write happens.
type URLRepository interface {
	// Create inserts a new shortened URL into the repository.
	// Returns database.ErrShortCodeExists when the short code is taken.
	Create(ctx context.Context, shortCode, longURL string) (*models.URL, error)

	// GetByShortCode retrieves a URL by its short code.
	// Returns database.ErrURLNotFound when the short code is unknown.
	GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// CreateClickEvent appends a click event for the URL record.
	// An empty ipAddress is stored as absent.
	CreateClickEvent(ctx context.Context, urlID int64, ipAddress string) error

	// CountClickEvents returns the number of persisted click events for the URL record.
	CountClickEvents(ctx context.Context, urlID int64) (int64, error)
}

// URLCache defines the interface for the cache layer. Cache failures are
// never fatal to the operations of URLService; every method here may fail
// and the service degrades to store-only operation.
type URLCache interface {
	// GetURL returns the cached long URL, or cache.ErrCacheMiss.
	GetURL(ctx context.Context, shortCode string) (string, error)

	// SetURL caches the short code mapping with the configured TTL.
	SetURL(ctx context.Context, shortCode, longURL string) error

	// IncrementClicks atomically increments the click counter,
	// creating it at 1 when absent.
	IncrementClicks(ctx context.Context, shortCode string) (int64, error)

	// GetClicks returns the cached click counter, or cache.ErrCacheMiss.
	GetClicks(ctx context.Context, shortCode string) (int64, error)

	// SetClicks stores the click counter without expiry.
	SetClicks(ctx context.Context, shortCode string, total int64) error
}

// generateFunc produces a URL-safe short code of the given length.
type generateFunc func(length int) (string, error)

// URLService provides methods to manage URL shortening operations.
// It orchestrates the durable store and the cache with a read-through,
// write-through discipline.
type URLService struct {
	repo            URLRepository
	cache           URLCache
	logger          *slog.Logger
	shortCodeLength int
	generate        generateFunc
}

// NewURLService creates a new instance of URLService with the provided
// repository, cache, logger and short code length.
func NewURLService(repo URLRepository, cache URLCache, logger *slog.Logger, shortCodeLength int) *URLService {
	return &URLService{
		repo:            repo,
		cache:           cache,
		logger:          logger,
		shortCodeLength: shortCodeLength,
		generate: func(length int) (string, error) {
			return gonanoid.New(length)
		},
	}
}

// ShortenURL generates a short code for the provided long URL and stores it in the repository.
// It attempts to generate a unique short code up to a maximum number of retries, then mirrors
// the mapping into the cache. A cache write failure is logged and does not fail the operation.
func (s *URLService) ShortenURL(ctx context.Context, longURL string) (*models.URL, error) {
	const op = "service.URLService.ShortenURL"
	const maxRetries = 5

	for i := 0; i < maxRetries; i++ {
		shortCode, err := s.generate(s.shortCodeLength)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		url, err := s.repo.Create(ctx, shortCode, longURL)
		if err != nil {
			if errors.Is(err, database.ErrShortCodeExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		if err := s.cache.SetURL(ctx, url.ShortCode, url.LongURL); err != nil {
			s.logger.Warn("failed to cache url mapping",
				slog.String("op", op),
				slog.String("short_code", url.ShortCode),
				slog.Any("err", err),
			)
		}

		return url, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// ResolveShortCode retrieves the long URL associated with the provided short code.
// The cache is consulted first; on a miss the durable store is queried and the
// mapping is repopulated. Any cache failure degrades to store-only resolution.
func (s *URLService) ResolveShortCode(ctx context.Context, shortCode string) (string, error) {
	const op = "service.URLService.ResolveShortCode"

	longURL, err := s.cache.GetURL(ctx, shortCode)
	if err == nil {
		return longURL, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("failed to read url mapping from cache",
			slog.String("op", op),
			slog.String("short_code", shortCode),
			slog.Any("err", err),
		)
	}

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return "", fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	if err := s.cache.SetURL(ctx, url.ShortCode, url.LongURL); err != nil {
		s.logger.Warn("failed to cache url mapping",
			slog.String("op", op),
			slog.String("short_code", url.ShortCode),
			slog.Any("err", err),
		)
	}

	return url.LongURL, nil
}

// RecordClick persists a click event for the short code and increments the
// cached click counter. A click for an unknown short code is logged and
// dropped rather than surfaced, so redirects never fail on bookkeeping.
// The counter increment happens strictly after the event is persisted.
func (s *URLService) RecordClick(ctx context.Context, shortCode, ipAddress string) error {
	const op = "service.URLService.RecordClick"

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, database.ErrURLNotFound) {
			s.logger.Warn("click recorded for unknown short code",
				slog.String("op", op),
				slog.String("short_code", shortCode),
			)

			return nil
		}

		return fmt.Errorf("%s: failed to look up short code: %w", op, err)
	}

	if err := s.repo.CreateClickEvent(ctx, url.ID, ipAddress); err != nil {
		return fmt.Errorf("%s: failed to record click: %w", op, err)
	}

	if _, err := s.cache.IncrementClicks(ctx, shortCode); err != nil {
		s.logger.Warn("failed to increment click counter",
			slog.String("op", op),
			slog.String("short_code", shortCode),
			slog.Any("err", err),
		)
	}

	return nil
}

// GetURLAnalytics retrieves the URL record and its running click total.
// The total is read from the cache counter; when the counter is absent it
// is rebuilt by counting persisted click events and written back, so
// counter eviction only costs a one-time recount.
func (s *URLService) GetURLAnalytics(ctx context.Context, shortCode string) (*models.URLAnalytics, error) {
	const op = "service.URLService.GetURLAnalytics"

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url analytics: %w", op, err)
	}

	totalClicks, err := s.cache.GetClicks(ctx, shortCode)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("failed to read click counter from cache",
				slog.String("op", op),
				slog.String("short_code", shortCode),
				slog.Any("err", err),
			)
		}

		totalClicks, err = s.repo.CountClickEvents(ctx, url.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to count clicks: %w", op, err)
		}

		if err := s.cache.SetClicks(ctx, shortCode, totalClicks); err != nil {
			s.logger.Warn("failed to cache click counter",
				slog.String("op", op),
				slog.String("short_code", shortCode),
				slog.Any("err", err),
			)
		}
	}

	return &models.URLAnalytics{
		ShortCode:   url.ShortCode,
		LongURL:     url.LongURL,
		CreatedAt:   url.CreatedAt,
		TotalClicks: totalClicks,
	}, nil
}
