package ai

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/spigell/jobai/internal/apperr"
)

var notFoundPattern = regexp.MustCompile(`(?i)not found`)

// ProviderError is a failed call to a provider, normalised across clients.
type ProviderError struct {
	Provider   string
	Model      string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	if e.Model != "" {
		b.WriteString(" model ")
		b.WriteString(e.Model)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " status %d", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ExhaustedError lists the models tried before the orchestrator gave up.
type ExhaustedError struct {
	Capability Capability
	Attempted  []string
	Last       error
	// NoProvider is set when the capability has no provider at all.
	NoProvider bool
}

func (e *ExhaustedError) Error() string {
	if e.NoProvider {
		return fmt.Sprintf("%s: provider not configured", e.Capability)
	}
	if len(e.Attempted) == 0 {
		return fmt.Sprintf("%s: no candidate models configured", e.Capability)
	}
	return fmt.Sprintf("%s: no compatible model found (tried %s)", e.Capability, strings.Join(e.Attempted, ", "))
}

func (e *ExhaustedError) Unwrap() error {
	return apperr.ErrProviderExhausted
}

// IsModelNotFound reports whether err means the model id is unavailable,
// which makes it safe to try the next candidate.
func IsModelNotFound(err error) bool {
	if err == nil {
		return false
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		if perr.StatusCode == http.StatusNotFound {
			return true
		}
		if notFoundPattern.MatchString(perr.Message) {
			return true
		}
	}

	return notFoundPattern.MatchString(err.Error())
}
