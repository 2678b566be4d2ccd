// Package leads holds the job leads that move through scoring, generation
// and dispatch, together with their on-disk snapshots.
package leads

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/jobai/internal/ai"
	"github.com/spigell/jobai/internal/utils"
)

// Status is the dispatch state of a lead.
type Status string

const (
	StatusNoEmail  Status = "no_email"
	StatusReady    Status = "ready"
	StatusApplying Status = "applying"
	StatusSent     Status = "sent"
	StatusFailed   Status = "failed"
)

const maxDescriptionRunes = 500

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

type Lead struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Company        string           `json:"company"`
	Description    string           `json:"description"`
	URL            string           `json:"url,omitempty"`
	RecruiterEmail string           `json:"recruiterEmail,omitempty"`
	Posted         string           `json:"posted,omitempty"`
	Status         Status           `json:"status"`
	Match          *ai.MatchVerdict `json:"match,omitempty"`
	CoverLetter    string           `json:"coverLetter,omitempty"`
	Subject        string           `json:"subject,omitempty"`
	Error          string           `json:"error,omitempty"`
	UpdatedAt      time.Time        `json:"updatedAt,omitempty"`
}

// Draft is the raw data a lead is built from.
type Draft struct {
	ID          string
	Title       string
	Company     string
	Description string
	URL         string
	Posted      string
}

// New builds a lead from a draft. The recruiter email is looked up in the
// description and decides the initial status.
func New(d Draft) *Lead {
	id := strings.TrimSpace(d.ID)
	if id == "" {
		id = uuid.NewString()
	}

	email := FindEmail(d.Description)
	status := StatusNoEmail
	if email != "" {
		status = StatusReady
	}

	return &Lead{
		ID:             id,
		Title:          strings.TrimSpace(d.Title),
		Company:        strings.TrimSpace(d.Company),
		Description:    utils.ClipRunes(strings.TrimSpace(d.Description), maxDescriptionRunes),
		URL:            d.URL,
		RecruiterEmail: email,
		Posted:         d.Posted,
		Status:         status,
		UpdatedAt:      time.Now().UTC(),
	}
}

// FindEmail returns the first email address in text.
func FindEmail(text string) string {
	return emailPattern.FindString(text)
}

// Dispatchable reports whether the lead may be sent by a batch.
func (l *Lead) Dispatchable() bool {
	return l.Status == StatusReady && l.RecruiterEmail != ""
}

// HasPreview reports whether a letter and subject were already generated.
func (l *Lead) HasPreview() bool {
	return strings.TrimSpace(l.CoverLetter) != "" && strings.TrimSpace(l.Subject) != ""
}

// SetStatus moves the lead to status and records the failure reason, if any.
func (l *Lead) SetStatus(status Status, reason string) {
	l.Status = status
	l.Error = reason
	l.UpdatedAt = time.Now().UTC()
}

type Leads struct {
	Items []*Lead `json:"items"`
}

func (l *Leads) Len() int {
	return len(l.Items)
}

func (l *Leads) FindByID(id string) *Lead {
	for _, lead := range l.Items {
		if lead.ID == id {
			return lead
		}
	}
	return nil
}

// Dispatchable returns the leads a batch would send, in order.
func (l *Leads) Dispatchable() []*Lead {
	var ready []*Lead
	for _, lead := range l.Items {
		if lead.Dispatchable() {
			ready = append(ready, lead)
		}
	}
	return ready
}

// CountByStatus returns how many leads are in each status.
func (l *Leads) CountByStatus() map[Status]int {
	counts := make(map[Status]int)
	for _, lead := range l.Items {
		counts[lead.Status]++
	}
	return counts
}

// Exclude removes leads with the given ids and returns the removed ids.
func (l *Leads) Exclude(ids []string) []string {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	var (
		kept     []*Lead
		excluded []string
	)
	for _, lead := range l.Items {
		if _, ok := drop[lead.ID]; ok {
			excluded = append(excluded, lead.ID)
			continue
		}
		kept = append(kept, lead)
	}
	l.Items = kept

	return excluded
}

// ReportByCompany groups leads by company for a quick overview.
func (l *Leads) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, lead := range l.Items {
		score := "-"
		if lead.Match != nil {
			score = fmt.Sprintf("%d", lead.Match.Score)
		}
		report[lead.Company] = append(report[lead.Company], map[string]string{
			"title":  lead.Title,
			"url":    lead.URL,
			"email":  lead.RecruiterEmail,
			"status": string(lead.Status),
			"score":  score,
		})
	}
	return report
}

// SortByScore orders leads by match score, best first. Unscored leads go last.
func (l *Leads) SortByScore() {
	sort.SliceStable(l.Items, func(i, j int) bool {
		return score(l.Items[i]) > score(l.Items[j])
	})
}

func score(l *Lead) int {
	if l.Match == nil {
		return -1
	}
	return l.Match.Score
}

// Load reads a leads snapshot. A missing or empty file yields no leads.
func Load(path string) (*Leads, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Leads{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return &Leads{}, nil
	}

	var leads Leads
	if err := json.Unmarshal(data, &leads); err != nil {
		return nil, fmt.Errorf("parse leads file %s: %w", path, err)
	}
	return &leads, nil
}

// Save writes the snapshot to path.
func (l *Leads) Save(path string) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DumpToTmpFile writes the snapshot to a temporary file and returns its name.
func (l *Leads) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "leads_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return "", err
	}
	return file.Name(), nil
}
