// Package progress defines the event structures emitted during harvest runs.
package progress

import (
	"errors"
	"fmt"
	"time"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart      Stage = "RUN_START"
	StageRunDone       Stage = "RUN_DONE"
	StageStrategyStart Stage = "STRATEGY_START"
	StageStrategyDone  Stage = "STRATEGY_DONE"
	StagePageDone      Stage = "PAGE_DONE"
	StageActSaved      Stage = "ACT_SAVED"
	StageActFailed     Stage = "ACT_FAILED"
)

// Event captures a single milestone of harvest progress.
type Event struct {
	// RunID identifies the harvest run in canonical UUID string form.
	RunID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle or harvest milestone occurred.
	Stage Stage
	// Strategy scopes the event to one discovery axis.
	Strategy string
	// Query names the query within the strategy (type label, year, keyword).
	Query string
	// Celex identifies the act for save and failure events.
	Celex string
	// URL is the optional page URL; it should not contain credentials.
	URL string
	// Page is the 1-based listing page number for PAGE_DONE events.
	Page int
	// Count carries the stage-specific tally: stubs reserved on a page, acts
	// saved by a strategy or run.
	Count int
	// ErrorKind classifies ACT_FAILED events (transport, parse, persistence).
	ErrorKind string
	// Dur captures execution latency for detail tasks and whole runs.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == "" {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone:
	case StageStrategyStart, StageStrategyDone:
		if e.Strategy == "" {
			return errors.New("strategy events require a strategy")
		}
	case StagePageDone:
		if e.Strategy == "" {
			return errors.New("page events require a strategy")
		}
		if e.Page <= 0 {
			return errors.New("page events require a page number")
		}
	case StageActSaved:
		if e.Celex == "" {
			return errors.New("act events require a celex number")
		}
	case StageActFailed:
		if e.Celex == "" {
			return errors.New("act events require a celex number")
		}
		if e.ErrorKind == "" {
			return errors.New("act failures require an error kind")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
