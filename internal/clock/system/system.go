// Package system provides the real clock used outside tests.
package system

import "time"

// Clock implements eurlex.Clock using time.Now. Harvest runs take their
// year window, qid cache-busters, and stats timestamps from it.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
