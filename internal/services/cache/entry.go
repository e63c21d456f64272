// Package cache provides a two-tier (memory, flat file) cache with TTL
// freshness and stale fallback. Values are wrapped in a timestamped envelope
// so freshness survives process restarts.
package cache

import (
	"strconv"
	"time"
)

// EpochMillis is a timestamp serialized as milliseconds since the Unix
// epoch, matching the envelope format consumed by the browser UI.
type EpochMillis time.Time

func (e EpochMillis) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, time.Time(e).UnixMilli(), 10), nil
}

func (e *EpochMillis) UnmarshalJSON(data []byte) error {
	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	*e = EpochMillis(time.UnixMilli(ms))
	return nil
}

// Time returns the underlying time.
func (e EpochMillis) Time() time.Time {
	return time.Time(e)
}

// Entry is the persisted cache envelope.
type Entry[T any] struct {
	Timestamp EpochMillis `json:"timestamp"`
	Data      T           `json:"data"`
}

// Age returns how long ago the entry was written.
func (e Entry[T]) Age(now time.Time) time.Duration {
	return now.Sub(time.Time(e.Timestamp))
}

// Fresh reports whether the entry is within ttl of now.
func (e Entry[T]) Fresh(now time.Time, ttl time.Duration) bool {
	return e.Age(now) < ttl
}
