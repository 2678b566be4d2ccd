// Package settings describes the single persisted settings record and the
// store port used to read and update it.
package settings

import (
	"context"
	"time"
)

// DefaultUserID identifies the only record of a single-user installation.
const DefaultUserID = "default"

// Record is the persisted settings row. The SMTP password is stored only in
// its encrypted form; the cached résumé text is valid for ResumeObjectRef only.
type Record struct {
	UserID                 string
	SMTPHost               string
	SMTPPort               int
	SMTPUser               string
	SMTPPasswordCiphertext string
	FromEmail              string
	FromName               string
	ResumeObjectRef        string
	ResumeObjectID         string
	CachedResumeText       string
	CachedResumeTextAt     *time.Time
	UpdatedAt              time.Time
}

// HasResume reports whether a résumé object is referenced.
func (r *Record) HasResume() bool {
	return r != nil && r.ResumeObjectRef != ""
}

// CachedText is the résumé text cache pair. A zero value clears the cache.
type CachedText struct {
	Text string
	At   *time.Time
}

// Update is a partial update of the record. Nil fields are left untouched.
type Update struct {
	SMTPHost               *string
	SMTPPort               *int
	SMTPUser               *string
	SMTPPasswordCiphertext *string
	FromEmail              *string
	FromName               *string
	ResumeObjectRef        *string
	ResumeObjectID         *string
	ResumeText             *CachedText
}

// IsEmpty reports whether the update would change nothing.
func (u Update) IsEmpty() bool {
	return u.SMTPHost == nil && u.SMTPPort == nil && u.SMTPUser == nil &&
		u.SMTPPasswordCiphertext == nil && u.FromEmail == nil && u.FromName == nil &&
		u.ResumeObjectRef == nil && u.ResumeObjectID == nil && u.ResumeText == nil
}

// Store persists the settings record.
type Store interface {
	// Find returns the record, or nil when nothing has been saved yet.
	Find(ctx context.Context) (*Record, error)
	// Upsert applies the update atomically and returns the resulting record.
	Upsert(ctx context.Context, update Update) (*Record, error)
}

// Ptr returns a pointer to v. It keeps Update literals short.
func Ptr[T any](v T) *T {
	return &v
}
