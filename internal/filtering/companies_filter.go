package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobai/internal/leads"
)

type companiesFilter struct {
	companies []string
	disabled  bool
	reason    string
	logger    *zap.Logger
}

// NewExcludedCompanies creates a filter that removes leads of the configured companies.
// Names are compared case-insensitively.
func NewExcludedCompanies(companies []string, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &companiesFilter{companies: companies, logger: logger}
}

func (f *companiesFilter) Name() string { return "companies" }

func (f *companiesFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *companiesFilter) IsEnabled() bool { return !f.disabled }

func (f *companiesFilter) Validate() error { return nil }

func (f *companiesFilter) Apply(_ context.Context, l *leads.Leads) (*leads.Leads, Step, error) {
	initial := l.Len()
	if len(f.companies) == 0 {
		return l, Step{Initial: initial, Left: l.Len()}, nil
	}

	blocked := make(map[string]struct{}, len(f.companies))
	for _, c := range f.companies {
		blocked[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}

	excluded := excludeWhere(l, func(lead *leads.Lead) bool {
		_, ok := blocked[strings.ToLower(strings.TrimSpace(lead.Company))]
		return ok
	})
	if len(excluded) > 0 {
		f.logger.Info("excluding leads by companies",
			zap.Strings("excluded_companies", f.companies),
			zap.Strings("excluded_leads", excluded),
			zap.Int("leads_left", l.Len()),
		)
	}

	return l, Step{Initial: initial, Dropped: len(excluded), Left: l.Len()}, nil
}

func (f *companiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.companies) > 0 {
		details["companies"] = strings.Join(f.companies, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
