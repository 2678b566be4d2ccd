package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/jobai/internal/settings"
)

func TestStore_FindMissing(t *testing.T) {
	store := NewStore(setupTestDB(t))

	rec, err := store.Find(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStore_UpsertCreatesRow(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	rec, err := store.Upsert(ctx, settings.Update{
		SMTPHost:  settings.Ptr("smtp.example.com"),
		SMTPPort:  settings.Ptr(465),
		FromEmail: settings.Ptr("me@example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultUserID, rec.UserID)
	assert.Equal(t, "smtp.example.com", rec.SMTPHost)
	assert.Equal(t, 465, rec.SMTPPort)
	assert.Equal(t, "me@example.com", rec.FromEmail)
	assert.Nil(t, rec.CachedResumeTextAt)

	found, err := store.Find(ctx)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, rec.SMTPHost, found.SMTPHost)
}

func TestStore_UpsertLeavesNilFieldsUntouched(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	_, err := store.Upsert(ctx, settings.Update{
		SMTPHost: settings.Ptr("smtp.example.com"),
		SMTPUser: settings.Ptr("user"),
	})
	require.NoError(t, err)

	rec, err := store.Upsert(ctx, settings.Update{SMTPUser: settings.Ptr("other")})
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com", rec.SMTPHost)
	assert.Equal(t, "other", rec.SMTPUser)
}

func TestStore_ResumeTextPairIsWrittenAndCleared(t *testing.T) {
	store := NewStore(setupTestDB(t))
	ctx := context.Background()

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rec, err := store.Upsert(ctx, settings.Update{
		ResumeObjectRef: settings.Ptr("minio://resumes/a.pdf"),
		ResumeText:      &settings.CachedText{Text: "cached text", At: &at},
	})
	require.NoError(t, err)
	assert.Equal(t, "cached text", rec.CachedResumeText)
	require.NotNil(t, rec.CachedResumeTextAt)
	assert.True(t, at.Equal(*rec.CachedResumeTextAt))

	rec, err = store.Upsert(ctx, settings.Update{
		ResumeObjectRef: settings.Ptr("minio://resumes/b.pdf"),
		ResumeText:      &settings.CachedText{},
	})
	require.NoError(t, err)
	assert.Equal(t, "minio://resumes/b.pdf", rec.ResumeObjectRef)
	assert.Empty(t, rec.CachedResumeText)
	assert.Nil(t, rec.CachedResumeTextAt)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, RunMigrations(db.Writer))
}
