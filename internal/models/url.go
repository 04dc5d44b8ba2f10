package models

import "time"

// URL represents a shortened URL record.
type URL struct {
	// ID is the unique identifier for the shortened URL record.
	ID int64
	// ShortCode is the short code or key associated with the long URL.
	ShortCode string
	// LongURL is the original, full-length URL that the short code points to.
	LongURL string
	// CreatedAt is the timestamp indicating when the shortened URL was created.
	CreatedAt time.Time
}

// ClickEvent represents a single recorded visit to a shortened URL.
// Events are append-only; running totals are derived from them.
type ClickEvent struct {
	// ID is the unique identifier for the click event.
	ID int64
	// URLID references the URL record the click belongs to.
	URLID int64
	// IPAddress is the visitor's IP address, empty when unknown.
	IPAddress string
	// CreatedAt is the timestamp indicating when the click occurred.
	CreatedAt time.Time
}

// URLAnalytics aggregates a URL record with its running click total.
type URLAnalytics struct {
	ShortCode   string
	LongURL     string
	CreatedAt   time.Time
	TotalClicks int64
}
