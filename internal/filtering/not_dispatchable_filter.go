package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/jobai/internal/leads"
)

type notDispatchableFilter struct {
	logger *zap.Logger
}

// NewNotDispatchable creates a filter that removes leads a batch would never send.
func NewNotDispatchable(logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &notDispatchableFilter{logger: logger}
}

func (f *notDispatchableFilter) Name() string { return "not_dispatchable" }

func (f *notDispatchableFilter) Disable(string) {}

func (f *notDispatchableFilter) IsEnabled() bool { return true }

func (f *notDispatchableFilter) Validate() error { return nil }

func (f *notDispatchableFilter) Apply(_ context.Context, l *leads.Leads) (*leads.Leads, Step, error) {
	initial := l.Len()
	excluded := excludeWhere(l, func(lead *leads.Lead) bool { return !lead.Dispatchable() })
	if len(excluded) > 0 {
		f.logger.Info("excluding leads without email or already processed. It is impossible to apply them",
			zap.Strings("excluded_leads", excluded),
			zap.Int("leads_left", l.Len()),
		)
	}

	return l, Step{Initial: initial, Dropped: len(excluded), Left: l.Len()}, nil
}
