// Package lookupcache persists CNPJ lookup results as a whole-file JSON
// snapshot so repeated runs skip the remote service for fresh entries.
package lookupcache

import (
	"encoding/json"
	"os"
	"time"

	"github.com/labstack/gommon/log"
)

// timestamp layouts accepted when loading a snapshot. Snapshots written
// by this package use RFC3339; the zoneless variant keeps files produced
// by older tooling readable.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// Entry pairs a lookup payload with the moment it was recorded. The
// on-disk form is the 2-element array [payload, timestamp] keyed by the
// canonical identifier.
type Entry struct {
	Payload    map[string]any
	RecordedAt time.Time
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Payload, e.RecordedAt.UTC().Format(time.RFC3339Nano)})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &e.Payload); err != nil {
		return err
	}

	var stamp string
	if err := json.Unmarshal(pair[1], &stamp); err != nil {
		return err
	}

	var parseErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, stamp)
		if err == nil {
			e.RecordedAt = t
			return nil
		}
		parseErr = err
	}
	return parseErr
}

// Cache is a write-through lookup cache with an age-based freshness
// window. Entries older than the window are treated as absent but never
// deleted. The backing file is owned by a single running pipeline;
// concurrent processes racing on it are a documented limitation.
type Cache struct {
	path    string
	window  time.Duration
	entries map[string]Entry
	logger  *log.Logger
	now     func() time.Time
}

// New loads the snapshot at path. A missing or unparseable file is never
// fatal: the cache starts empty and the problem is only logged.
func New(path string, window time.Duration, logger *log.Logger) *Cache {
	c := &Cache{
		path:    path,
		window:  window,
		entries: make(map[string]Entry),
		logger:  logger,
		now:     time.Now,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("could not read cache file %s, starting fresh: %v", path, err)
		}
		return c
	}

	if err := json.Unmarshal(data, &c.entries); err != nil {
		logger.Warnf("cache file %s is corrupt, starting fresh: %v", path, err)
		c.entries = make(map[string]Entry)
	}
	return c
}

// Get returns the cached payload for the identifier when a fresh entry
// exists. Stale entries behave as misses and are left in place.
func (c *Cache) Get(cnpj string) (map[string]any, bool) {
	entry, ok := c.entries[cnpj]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.RecordedAt) >= c.window {
		return nil, false
	}
	return entry.Payload, true
}

// Set records the payload with the current time and synchronously
// persists the whole snapshot. A persistence failure propagates: losing
// the write silently would defeat the cache across runs.
func (c *Cache) Set(cnpj string, payload map[string]any) error {
	c.entries[cnpj] = Entry{Payload: payload, RecordedAt: c.now()}
	return c.persist()
}

func (c *Cache) persist() error {
	data, err := json.Marshal(c.entries)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}
