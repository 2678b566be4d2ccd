package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobai/internal/ai"
	"github.com/spigell/jobai/internal/apperr"
	"github.com/spigell/jobai/internal/generation"
	"github.com/spigell/jobai/internal/leads"
	"github.com/spigell/jobai/internal/mailer"
	"github.com/spigell/jobai/internal/profile"
	"github.com/spigell/jobai/internal/settings"
)

type stubProfiles struct {
	profile  *profile.Profile
	fetchErr error
	fetches  int
}

func (s *stubProfiles) Load(context.Context) (*profile.Profile, error) {
	return s.profile, nil
}

func (s *stubProfiles) FetchResume(context.Context, *profile.Profile) ([]byte, error) {
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return []byte("%PDF"), nil
}

type stubResumes struct {
	text  string
	err   error
	calls int
}

func (s *stubResumes) ResumeText(context.Context, *settings.Record) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubGenerator struct {
	requests []generation.Request
	err      error
}

func (s *stubGenerator) GenerateCombined(_ context.Context, req generation.Request) (generation.Result, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return generation.Result{}, s.err
	}
	return generation.Result{CoverLetter: "Dear team,\nhello", Subject: "Application", Model: "stub"}, nil
}

type stubSender struct {
	messages []mailer.Message
	failFor  map[string]error
	onSend   func()
}

func (s *stubSender) Send(_ context.Context, _ mailer.Credentials, msg mailer.Message) error {
	s.messages = append(s.messages, msg)
	if s.onSend != nil {
		s.onSend()
	}
	return s.failFor[msg.To]
}

type stubScorer struct {
	calls    int
	err      error
	degraded int
	onScore  func()
}

func (s *stubScorer) Score(_ context.Context, resumeText, _ string) (ai.MatchVerdict, error) {
	s.calls++
	if s.onScore != nil {
		s.onScore()
	}
	if s.err != nil {
		return ai.MatchVerdict{}, s.err
	}
	if s.degraded > 0 {
		s.degraded--
		return ai.MatchVerdict{Score: 0, Reasoning: "Error", MissingSkills: []string{}, Degraded: true}, nil
	}
	return ai.MatchVerdict{Score: 60, Reasoning: resumeText}, nil
}

func readyProfile() *profile.Profile {
	return &profile.Profile{
		SMTPHost:        "smtp.example.com",
		SMTPPort:        587,
		SMTPPassword:    "pw",
		FromName:        "Jane",
		ResumeObjectRef: "file://resume.pdf",
	}
}

type fixture struct {
	profiles  *stubProfiles
	resumes   *stubResumes
	generator *stubGenerator
	sender    *stubSender
	scorer    *stubScorer
	waits     []time.Duration
}

func newController(f *fixture, logger *zap.Logger) *Controller {
	if f.profiles == nil {
		f.profiles = &stubProfiles{profile: readyProfile()}
	}
	if f.resumes == nil {
		f.resumes = &stubResumes{text: "resume text"}
	}
	if f.generator == nil {
		f.generator = &stubGenerator{}
	}
	if f.sender == nil {
		f.sender = &stubSender{}
	}
	if f.scorer == nil {
		f.scorer = &stubScorer{}
	}

	c := New(&Config{Delay: time.Second}, &Deps{
		Profiles:  f.profiles,
		Resumes:   f.resumes,
		Generator: f.generator,
		Scorer:    f.scorer,
		Sender:    f.sender,
		Logger:    logger,
	})
	c.wait = func(ctx context.Context, d time.Duration) error {
		f.waits = append(f.waits, d)
		return ctx.Err()
	}
	return c
}

func lead(id string, status leads.Status, email string) *leads.Lead {
	return &leads.Lead{ID: id, Title: "Go dev", Company: "Acme", Description: "Build things", Status: status, RecruiterEmail: email}
}

func TestRunBatchSendsReadyLeads(t *testing.T) {
	t.Parallel()

	f := &fixture{}
	c := newController(f, nil)

	items := []*leads.Lead{
		lead("1", leads.StatusReady, "a@acme.io"),
		lead("2", leads.StatusNoEmail, ""),
		lead("3", leads.StatusSent, "b@acme.io"),
		lead("4", leads.StatusReady, "c@acme.io"),
		lead("5", leads.StatusReady, ""),
	}

	summary, err := c.RunBatch(context.Background(), items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != (Summary{Sent: 2, Attempted: 2}) {
		t.Fatalf("unexpected summary %+v", summary)
	}

	if items[0].Status != leads.StatusSent || items[3].Status != leads.StatusSent {
		t.Fatalf("expected ready leads sent, got %s and %s", items[0].Status, items[3].Status)
	}
	if items[1].Status != leads.StatusNoEmail || items[2].Status != leads.StatusSent || items[4].Status != leads.StatusReady {
		t.Fatalf("expected other leads untouched")
	}

	if f.profiles.fetches != 1 || f.resumes.calls != 1 {
		t.Fatalf("expected attachment and text resolved once, got %d and %d", f.profiles.fetches, f.resumes.calls)
	}
	if len(f.waits) != 1 || f.waits[0] != time.Second {
		t.Fatalf("expected one wait between two sends, got %v", f.waits)
	}

	msg := f.sender.messages[0]
	if msg.To != "a@acme.io" || msg.Subject != "Application" || msg.HTMLBody != mailer.LetterToHTML("Dear team,\nhello") {
		t.Fatalf("unexpected message %+v", msg)
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].Filename != DefaultAttachmentName {
		t.Fatalf("unexpected attachments %+v", msg.Attachments)
	}

	req := f.generator.requests[0]
	if req.ResumeText != "resume text" || req.ApplicantName != "Jane" || req.JobDescription == "" {
		t.Fatalf("unexpected generation request %+v", req)
	}
}

func TestRunBatchPreconditions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		profile *profile.Profile
	}{
		{name: "missing host", profile: &profile.Profile{SMTPPassword: "pw", ResumeObjectRef: "r"}},
		{name: "undecryptable password", profile: &profile.Profile{SMTPHost: "h", ResumeObjectRef: "r"}},
		{name: "missing resume", profile: &profile.Profile{SMTPHost: "h", SMTPPassword: "pw"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := &fixture{profiles: &stubProfiles{profile: tt.profile}}
			c := newController(f, nil)
			items := []*leads.Lead{lead("1", leads.StatusReady, "a@acme.io")}

			summary, err := c.RunBatch(context.Background(), items)
			if !errors.Is(err, apperr.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			if summary != (Summary{}) || items[0].Status != leads.StatusReady {
				t.Fatalf("expected no transitions, got %+v and %s", summary, items[0].Status)
			}
			if len(f.sender.messages) != 0 || f.profiles.fetches != 0 {
				t.Fatalf("expected no side effects")
			}
		})
	}
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	t.Parallel()

	f := &fixture{sender: &stubSender{failFor: map[string]error{
		"bad@acme.io": errors.New("mailbox unavailable"),
	}}}
	c := newController(f, nil)

	items := []*leads.Lead{
		lead("1", leads.StatusReady, "bad@acme.io"),
		lead("2", leads.StatusReady, "good@acme.io"),
	}

	summary, err := c.RunBatch(context.Background(), items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != (Summary{Sent: 1, Attempted: 2, Failed: 1}) {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if items[0].Status != leads.StatusFailed || items[0].Error != "mailbox unavailable" {
		t.Fatalf("expected failed lead with reason, got %+v", items[0])
	}
	if items[1].Status != leads.StatusSent {
		t.Fatalf("expected second lead sent, got %s", items[1].Status)
	}
}

func TestRunBatchGenerationFailureMarksLeadFailed(t *testing.T) {
	t.Parallel()

	f := &fixture{generator: &stubGenerator{err: apperr.ErrValidation}}
	c := newController(f, nil)
	items := []*leads.Lead{lead("1", leads.StatusReady, "a@acme.io")}

	summary, err := c.RunBatch(context.Background(), items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Failed != 1 || items[0].Status != leads.StatusFailed || len(f.sender.messages) != 0 {
		t.Fatalf("expected failed lead without send, got %+v %s", summary, items[0].Status)
	}
}

func TestRunBatchReusesPreview(t *testing.T) {
	t.Parallel()

	f := &fixture{}
	c := newController(f, nil)

	l := lead("1", leads.StatusReady, "a@acme.io")
	l.CoverLetter = "precomputed"
	l.Subject = "Custom subject"

	if _, err := c.RunBatch(context.Background(), []*leads.Lead{l}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.generator.requests) != 0 {
		t.Fatalf("expected no generation for a previewed lead")
	}
	if f.sender.messages[0].Subject != "Custom subject" || f.sender.messages[0].HTMLBody != mailer.LetterToHTML("precomputed") {
		t.Fatalf("unexpected message %+v", f.sender.messages[0])
	}
}

func TestRunBatchWithoutResumeTextStillSends(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	f := &fixture{resumes: &stubResumes{err: apperr.ErrExtraction}}
	c := newController(f, zap.New(core))

	summary, err := c.RunBatch(context.Background(), []*leads.Lead{lead("1", leads.StatusReady, "a@acme.io")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Sent != 1 || f.generator.requests[0].ResumeText != "" {
		t.Fatalf("expected send with empty resume text, got %+v", summary)
	}
	if logs.FilterMessageSnippet("resume text is not available").Len() != 1 {
		t.Fatalf("expected warning about missing resume text")
	}
}

func TestRunBatchStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &fixture{sender: &stubSender{onSend: cancel}}
	c := newController(f, nil)

	items := []*leads.Lead{
		lead("1", leads.StatusReady, "a@acme.io"),
		lead("2", leads.StatusReady, "b@acme.io"),
	}

	summary, err := c.RunBatch(ctx, items)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if summary != (Summary{Sent: 1, Attempted: 1}) {
		t.Fatalf("unexpected partial summary %+v", summary)
	}
	if items[1].Status != leads.StatusReady {
		t.Fatalf("expected second lead untouched, got %s", items[1].Status)
	}
}

func TestNewClampsConcurrency(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	c := New(&Config{Concurrency: 4}, &Deps{Logger: zap.New(core)})

	if logs.FilterMessageSnippet("concurrency clamped").Len() != 1 {
		t.Fatalf("expected clamp warning")
	}
	if c.attachmentName != DefaultAttachmentName {
		t.Fatalf("expected default attachment name, got %q", c.attachmentName)
	}
}

func TestAnalyzeAll(t *testing.T) {
	t.Parallel()

	f := &fixture{}
	c := newController(f, nil)

	scored := lead("1", leads.StatusReady, "a@acme.io")
	scored.Match = &ai.MatchVerdict{Score: 90}
	items := []*leads.Lead{scored, lead("2", leads.StatusNoEmail, ""), lead("3", leads.StatusSent, "b@acme.io")}

	summary, err := c.AnalyzeAll(context.Background(), items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != (AnalysisSummary{Analyzed: 2, Skipped: 1}) {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if items[0].Match.Score != 90 || items[1].Match == nil || items[1].Match.Reasoning != "resume text" {
		t.Fatalf("unexpected verdicts")
	}

	again, err := c.AnalyzeAll(context.Background(), items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != (AnalysisSummary{Skipped: 3}) || f.scorer.calls != 2 {
		t.Fatalf("expected second pass to skip everything, got %+v after %d calls", again, f.scorer.calls)
	}
}

func TestAnalyzeAllIsolatesFailures(t *testing.T) {
	t.Parallel()

	f := &fixture{scorer: &stubScorer{err: apperr.ErrValidation}}
	c := newController(f, nil)
	items := []*leads.Lead{lead("1", leads.StatusReady, "a@acme.io"), lead("2", leads.StatusReady, "b@acme.io")}

	summary, err := c.AnalyzeAll(context.Background(), items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Analyzed != 0 || summary.Failed != 2 || f.scorer.calls != 2 || items[0].Match != nil {
		t.Fatalf("expected every lead attempted and left unscored, got %+v", summary)
	}
}

func TestAnalyzeAllRetriesDegradedVerdicts(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	f := &fixture{scorer: &stubScorer{degraded: 1}}
	c := newController(f, zap.New(core))
	items := []*leads.Lead{lead("1", leads.StatusReady, "a@acme.io")}

	first, err := c.AnalyzeAll(context.Background(), items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != (AnalysisSummary{Failed: 1}) || items[0].Match != nil {
		t.Fatalf("expected degraded verdict to be dropped, got %+v match %+v", first, items[0].Match)
	}
	if logs.FilterMessageSnippet("degraded").Len() != 1 {
		t.Fatalf("expected degraded warning, got %v", logs.All())
	}

	second, err := c.AnalyzeAll(context.Background(), items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != (AnalysisSummary{Analyzed: 1}) || f.scorer.calls != 2 {
		t.Fatalf("expected lead scored on the next pass, got %+v after %d calls", second, f.scorer.calls)
	}
	if items[0].Match == nil || items[0].Match.Score != 60 {
		t.Fatalf("unexpected verdict %+v", items[0].Match)
	}
}

func TestAnalyzeAllStopsWhenCancelledDuringScoring(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &fixture{scorer: &stubScorer{degraded: 2, onScore: cancel}}
	c := newController(f, nil)
	items := []*leads.Lead{lead("1", leads.StatusReady, "a@acme.io"), lead("2", leads.StatusReady, "b@acme.io")}

	summary, err := c.AnalyzeAll(ctx, items)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if summary.Analyzed != 0 || f.scorer.calls != 1 || items[0].Match != nil || items[1].Match != nil {
		t.Fatalf("expected nothing attached after cancel, got %+v after %d calls", summary, f.scorer.calls)
	}
}

func TestAnalyzeAllRequiresResume(t *testing.T) {
	t.Parallel()

	f := &fixture{profiles: &stubProfiles{profile: &profile.Profile{}}}
	c := newController(f, nil)

	if _, err := c.AnalyzeAll(context.Background(), []*leads.Lead{lead("1", leads.StatusReady, "")}); !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestJobText(t *testing.T) {
	t.Parallel()

	got := JobText(&leads.Lead{Title: "SRE", Company: "Acme", Description: "On-call"})
	if got != "Title: SRE\nCompany: Acme\n\nOn-call" {
		t.Fatalf("unexpected job text %q", got)
	}
	if JobText(&leads.Lead{Description: " only "}) != "only" {
		t.Fatalf("expected description only")
	}
}
