// Package resumecache keeps the extracted résumé text next to the settings
// record and drops it whenever the résumé object it was derived from changes.
package resumecache

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spigell/jobai/internal/settings"
	"go.uber.org/zap"
)

// MinPlausibleLength is the shortest text accepted as a real résumé transcription.
const MinPlausibleLength = 50

// Cache reads and writes the résumé text pair of the settings record.
type Cache struct {
	store  settings.Store
	logger *zap.Logger
	now    func() time.Time
}

// New creates a cache over the settings store.
func New(store settings.Store, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Cache{store: store, logger: logger, now: time.Now}
}

// Plausible reports whether text is long enough to be a résumé.
func Plausible(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= MinPlausibleLength
}

// Read returns the cached text when it is present and plausible.
func Read(rec *settings.Record) (string, bool) {
	if rec == nil || !Plausible(rec.CachedResumeText) {
		return "", false
	}

	return rec.CachedResumeText, true
}

// Write stores text with a fresh timestamp. Failures are logged and dropped:
// a missed cache write only costs a later re-extraction.
func (c *Cache) Write(ctx context.Context, text string) {
	at := c.now().UTC()

	if _, err := c.store.Upsert(ctx, settings.Update{
		ResumeText: &settings.CachedText{Text: text, At: &at},
	}); err != nil {
		c.logger.Warn("caching resume text failed", zap.Error(err))
		return
	}

	c.logger.Debug("resume text cached", zap.Int("length", utf8.RuneCountInString(text)))
}

// InvalidateOnReferenceChange adds a cache clear to update when the résumé
// reference changes, so both land in the same persisted write.
func InvalidateOnReferenceChange(oldRef, newRef string, update *settings.Update) bool {
	if update == nil || oldRef == newRef {
		return false
	}

	update.ResumeText = &settings.CachedText{}
	return true
}
