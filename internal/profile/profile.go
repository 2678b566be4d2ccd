// Package profile loads and saves the applicant profile: SMTP credentials
// kept encrypted in the settings store and the uploaded résumé.
package profile

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobai/internal/apperr"
	"github.com/spigell/jobai/internal/mailer"
	"github.com/spigell/jobai/internal/resumecache"
	"github.com/spigell/jobai/internal/settings"
	"github.com/spigell/jobai/internal/storage/object"
	"github.com/spigell/jobai/internal/vault"
)

const (
	ResumeFolder      = "jobai-resumes"
	ResumeContentType = "application/pdf"
	defaultSMTPPort   = 587
)

// Profile is the decrypted view of the settings record.
type Profile struct {
	SMTPHost        string
	SMTPPort        int
	SMTPUser        string
	SMTPPassword    string
	FromEmail       string
	FromName        string
	ResumeObjectRef string
	ResumeObjectID  string

	// Record is the stored row the profile was built from. Nil before the first save.
	Record *settings.Record
}

// Credentials returns the transport credentials of the profile.
func (p *Profile) Credentials() mailer.Credentials {
	return mailer.Credentials{
		Host:      p.SMTPHost,
		Port:      p.SMTPPort,
		User:      p.SMTPUser,
		Password:  p.SMTPPassword,
		FromEmail: p.FromEmail,
		FromName:  p.FromName,
	}
}

// CanSend reports whether enough SMTP settings are present to send mail.
func (p *Profile) CanSend() error {
	if strings.TrimSpace(p.SMTPHost) == "" {
		return fmt.Errorf("smtp host is not set: %w", apperr.ErrConfiguration)
	}
	if p.SMTPPassword == "" {
		return fmt.Errorf("smtp password is not set or cannot be decrypted: %w", apperr.ErrConfiguration)
	}
	return nil
}

// HasResume reports whether a résumé was uploaded.
func (p *Profile) HasResume() bool {
	return p.ResumeObjectRef != ""
}

// Input is a profile change. Nil fields keep the stored value, and so does an
// empty SMTPPassword.
type Input struct {
	SMTPHost        *string
	SMTPPort        *int
	SMTPUser        *string
	SMTPPassword    *string
	FromEmail       *string
	FromName        *string
	ResumeObjectRef *string
	ResumeObjectID  *string
}

type Service struct {
	store   settings.Store
	vault   *vault.Vault
	objects object.Store
	logger  *zap.Logger
}

func New(store settings.Store, v *vault.Vault, objects object.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{store: store, vault: v, objects: objects, logger: logger}
}

// Load returns the current profile. An empty profile is returned when
// nothing was saved yet.
func (s *Service) Load(ctx context.Context) (*Profile, error) {
	rec, err := s.store.Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	return s.fromRecord(rec), nil
}

func (s *Service) fromRecord(rec *settings.Record) *Profile {
	if rec == nil {
		return &Profile{SMTPPort: defaultSMTPPort}
	}

	password := s.vault.Decrypt(rec.SMTPPasswordCiphertext)
	if password == "" && vault.IsEncrypted(rec.SMTPPasswordCiphertext) {
		s.logger.Warn("stored smtp password cannot be decrypted with the current key, set it again")
	}

	return &Profile{
		SMTPHost:        rec.SMTPHost,
		SMTPPort:        rec.SMTPPort,
		SMTPUser:        rec.SMTPUser,
		SMTPPassword:    password,
		FromEmail:       rec.FromEmail,
		FromName:        rec.FromName,
		ResumeObjectRef: rec.ResumeObjectRef,
		ResumeObjectID:  rec.ResumeObjectID,
		Record:          rec,
	}
}

// Save applies in to the stored settings. A new plaintext password is
// encrypted, an already encrypted value is stored as is. Changing the résumé
// reference drops the cached résumé text in the same write.
func (s *Service) Save(ctx context.Context, in Input) (*Profile, error) {
	current, err := s.store.Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if in.SMTPPort != nil && (*in.SMTPPort <= 0 || *in.SMTPPort > 65535) {
		return nil, fmt.Errorf("invalid smtp port %d: %w", *in.SMTPPort, apperr.ErrValidation)
	}

	update := settings.Update{
		SMTPHost:        trimmed(in.SMTPHost),
		SMTPPort:        in.SMTPPort,
		SMTPUser:        trimmed(in.SMTPUser),
		FromEmail:       trimmed(in.FromEmail),
		FromName:        trimmed(in.FromName),
		ResumeObjectRef: in.ResumeObjectRef,
		ResumeObjectID:  in.ResumeObjectID,
	}

	if current == nil && update.SMTPPort == nil {
		update.SMTPPort = settings.Ptr(defaultSMTPPort)
	}

	if in.SMTPPassword != nil && *in.SMTPPassword != "" {
		ciphertext := *in.SMTPPassword
		if !vault.IsEncrypted(ciphertext) {
			ciphertext, err = s.vault.Encrypt(ciphertext)
			if err != nil {
				return nil, err
			}
		}
		update.SMTPPasswordCiphertext = &ciphertext
	}

	if in.ResumeObjectRef != nil {
		oldRef := ""
		if current != nil {
			oldRef = current.ResumeObjectRef
		}
		if resumecache.InvalidateOnReferenceChange(oldRef, *in.ResumeObjectRef, &update) {
			s.logger.Info("resume reference changed, cached text dropped")
		}
	}

	if update.IsEmpty() && current != nil {
		return s.fromRecord(current), nil
	}

	rec, err := s.store.Upsert(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	return s.fromRecord(rec), nil
}

// ReplaceResume uploads a new résumé, removes the previous object and points
// the profile at the new one.
func (s *Service) ReplaceResume(ctx context.Context, data []byte, contentType string) (*Profile, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("resume file is empty: %w", apperr.ErrValidation)
	}
	if contentType != ResumeContentType {
		return nil, fmt.Errorf("only PDF files are allowed, got %q: %w", contentType, apperr.ErrValidation)
	}
	if s.objects == nil {
		return nil, fmt.Errorf("object storage is not configured: %w", apperr.ErrConfiguration)
	}

	obj, err := s.objects.Put(ctx, data, ResumeFolder, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload resume: %w", err)
	}
	s.logger.Info("resume uploaded", zap.String("resume_ref", obj.Ref))

	current, err := s.store.Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if current != nil && current.ResumeObjectID != "" && current.ResumeObjectID != obj.ID {
		if err := s.objects.Delete(ctx, current.ResumeObjectID); err != nil {
			s.logger.Warn("deleting previous resume failed", zap.String("object_id", current.ResumeObjectID), zap.Error(err))
		}
	}

	return s.Save(ctx, Input{
		ResumeObjectRef: settings.Ptr(obj.Ref),
		ResumeObjectID:  settings.Ptr(obj.ID),
	})
}

// FetchResume returns the bytes of the uploaded résumé.
func (s *Service) FetchResume(ctx context.Context, p *Profile) ([]byte, error) {
	if !p.HasResume() {
		return nil, fmt.Errorf("no resume uploaded: %w", apperr.ErrConfiguration)
	}
	if s.objects == nil {
		return nil, fmt.Errorf("object storage is not configured: %w", apperr.ErrConfiguration)
	}

	return s.objects.Fetch(ctx, p.ResumeObjectRef)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	return settings.Ptr(strings.TrimSpace(*v))
}
