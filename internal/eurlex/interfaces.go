package eurlex

import (
	"context"
	"time"
)

// Fetcher performs a single HTTP GET. Implementations return a
// *TransportError for network failures and non-success status codes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResult, error)
}

// Renderer fetches a page through a JavaScript-capable browser. Used as a
// promotion target when a plain fetch comes back as a script wall.
type Renderer interface {
	Render(ctx context.Context, url string) (FetchResult, error)
}

// Detector decides whether a fetched detail page needs a headless render.
type Detector interface {
	ShouldPromote(res FetchResult) bool
}

// Sink is the persistence contract the harvester writes to and seeds its
// dedup state from. Implementations must make concurrent UpsertAct calls
// safe; the harvester never deletes.
type Sink interface {
	// UpsertAct inserts or replaces the act keyed by its CELEX number and
	// returns the stored record's identifier.
	UpsertAct(ctx context.Context, act LegalAct) (string, error)
	// CountActs returns the number of stored acts.
	CountActs(ctx context.Context) (int, error)
	// ListCelexNumbers returns every stored CELEX number, for registry
	// seeding at run start.
	ListCelexNumbers(ctx context.Context) ([]string, error)
	// ListActs returns up to limit stored acts, newest first. A
	// non-positive limit returns everything.
	ListActs(ctx context.Context, limit int) ([]LegalAct, error)
	Close() error
}

// Archive stores raw page bodies for replay and audit. Failures are
// non-fatal to the harvest.
type Archive interface {
	Save(ctx context.Context, objectName string, data []byte) error
}

// Notifier publishes the CELEX number of each persisted act for downstream
// consumers such as the scoring layer.
type Notifier interface {
	Publish(ctx context.Context, celex string) error
}

// Limiter enforces the politeness delay before every outbound request.
type Limiter interface {
	Wait(ctx context.Context, url string) error
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator mints run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// Hasher digests content excerpts for change detection downstream.
type Hasher interface {
	Hash(data []byte) (string, error)
}
