package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortly/internal/database"
	"github.com/vadimbarashkov/shortly/internal/models"
)

type urlRecord struct {
	ID        int64     `db:"id"`
	ShortCode string    `db:"short_code"`
	LongURL   string    `db:"long_url"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *urlRecord) ToURL() *models.URL {
	return &models.URL{
		ID:        r.ID,
		ShortCode: r.ShortCode,
		LongURL:   r.LongURL,
		CreatedAt: r.CreatedAt,
	}
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{
		db: db,
	}
}

func (r *URLRepository) Create(ctx context.Context, shortCode, longURL string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.Create"

	rec := new(urlRecord)
	query := `INSERT INTO urls(short_code, long_url)
		VALUES ($1, $2)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, shortCode, longURL)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to create url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

func (r *URLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetByShortCode"

	rec := new(urlRecord)
	query := `SELECT * FROM urls
		WHERE short_code = $1`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

func (r *URLRepository) CreateClickEvent(ctx context.Context, urlID int64, ipAddress string) error {
	const op = "database.postgres.URLRepository.CreateClickEvent"

	query := `INSERT INTO click_events(url_id, ip_address)
		VALUES ($1, $2)`

	ip := sql.NullString{String: ipAddress, Valid: ipAddress != ""}

	if _, err := r.db.ExecContext(ctx, query, urlID, ip); err != nil {
		return fmt.Errorf("%s: failed to create click event: %w", op, err)
	}

	return nil
}

func (r *URLRepository) CountClickEvents(ctx context.Context, urlID int64) (int64, error) {
	const op = "database.postgres.URLRepository.CountClickEvents"

	var count int64
	query := `SELECT COUNT(*) FROM click_events
		WHERE url_id = $1`

	if err := r.db.GetContext(ctx, &count, query, urlID); err != nil {
		return 0, fmt.Errorf("%s: failed to count click events: %w", op, err)
	}

	return count, nil
}
