package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/jobai/internal/settings"
)

var _ settings.Store = (*Store)(nil)

// Store is the SQLite implementation of settings.Store for one user.
type Store struct {
	db     *DB
	userID string
	now    func() time.Time
}

// NewStore creates a store bound to the default user.
func NewStore(db *DB) *Store {
	return &Store{db: db, userID: settings.DefaultUserID, now: time.Now}
}

const selectColumns = `user_id, smtp_host, smtp_port, smtp_user, smtp_password_ciphertext,
	from_email, from_name, resume_object_ref, resume_object_id,
	cached_resume_text, cached_resume_text_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Find returns the stored record or nil when the row does not exist yet.
func (s *Store) Find(ctx context.Context) (*settings.Record, error) {
	query := `SELECT ` + selectColumns + ` FROM user_settings WHERE user_id = ?`

	rec, err := scanRecord(s.db.Reader.QueryRowContext(ctx, query, s.userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find settings: %w", err)
	}

	return rec, nil
}

// Upsert creates the row when missing and applies every non-nil field of the
// update in one transaction.
func (s *Store) Upsert(ctx context.Context, update settings.Update) (*settings.Record, error) {
	tx, err := s.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin settings tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_settings (user_id) VALUES (?) ON CONFLICT(user_id) DO NOTHING`,
		s.userID,
	); err != nil {
		return nil, fmt.Errorf("insert settings row: %w", err)
	}

	sets, args := assignments(update)
	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(s.now().UTC()), s.userID)

	query := `UPDATE user_settings SET ` + strings.Join(sets, ", ") + ` WHERE user_id = ?`
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}

	rec, err := scanRecord(tx.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM user_settings WHERE user_id = ?`, s.userID,
	))
	if err != nil {
		return nil, fmt.Errorf("reload settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit settings: %w", err)
	}

	return rec, nil
}

func assignments(u settings.Update) ([]string, []any) {
	var (
		sets []string
		args []any
	)

	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if u.SMTPHost != nil {
		add("smtp_host", *u.SMTPHost)
	}
	if u.SMTPPort != nil {
		add("smtp_port", *u.SMTPPort)
	}
	if u.SMTPUser != nil {
		add("smtp_user", *u.SMTPUser)
	}
	if u.SMTPPasswordCiphertext != nil {
		add("smtp_password_ciphertext", *u.SMTPPasswordCiphertext)
	}
	if u.FromEmail != nil {
		add("from_email", *u.FromEmail)
	}
	if u.FromName != nil {
		add("from_name", *u.FromName)
	}
	if u.ResumeObjectRef != nil {
		add("resume_object_ref", *u.ResumeObjectRef)
	}
	if u.ResumeObjectID != nil {
		add("resume_object_id", *u.ResumeObjectID)
	}
	if u.ResumeText != nil {
		add("cached_resume_text", u.ResumeText.Text)
		var at any
		if u.ResumeText.At != nil {
			at = formatTime(u.ResumeText.At.UTC())
		}
		add("cached_resume_text_at", at)
	}

	return sets, args
}

func scanRecord(row rowScanner) (*settings.Record, error) {
	var (
		rec       settings.Record
		cachedAt  sql.NullString
		updatedAt string
	)

	if err := row.Scan(
		&rec.UserID,
		&rec.SMTPHost,
		&rec.SMTPPort,
		&rec.SMTPUser,
		&rec.SMTPPasswordCiphertext,
		&rec.FromEmail,
		&rec.FromName,
		&rec.ResumeObjectRef,
		&rec.ResumeObjectID,
		&rec.CachedResumeText,
		&cachedAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	if cachedAt.Valid && cachedAt.String != "" {
		t, err := parseTime(cachedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse cached_resume_text_at: %w", err)
		}
		rec.CachedResumeTextAt = &t
	}

	t, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	rec.UpdatedAt = t

	return &rec, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}
