package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/jobai/internal/leads"
)

type minScoreFilter struct {
	disabled bool
	reason   string
	minimum  int
	logger   *zap.Logger
}

// NewMinimumScore creates a filter that removes scored leads below minimum.
// Leads that were never analyzed pass through.
func NewMinimumScore(minimum int, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &minScoreFilter{minimum: minimum, logger: logger}
	if minimum <= 0 {
		f.Disable("minimum score is not set")
	}
	return f
}

func (f *minScoreFilter) Name() string { return "minimum_score" }

func (f *minScoreFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *minScoreFilter) IsEnabled() bool { return !f.disabled }

func (f *minScoreFilter) Validate() error {
	if f.minimum > 100 {
		return fmt.Errorf("minimum score %d is above 100", f.minimum)
	}
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, l *leads.Leads) (*leads.Leads, Step, error) {
	initial := l.Len()

	for _, lead := range l.Items {
		if lead.Match != nil && lead.Match.Score < f.minimum {
			f.logger.Info("lead rejected by match score",
				zap.String("lead_id", lead.ID),
				zap.Int("score", lead.Match.Score),
				zap.String("reason", lead.Match.Reasoning),
			)
		}
	}

	excluded := excludeWhere(l, func(lead *leads.Lead) bool {
		return lead.Match != nil && lead.Match.Score < f.minimum
	})

	return l, Step{Initial: initial, Dropped: len(excluded), Left: l.Len()}, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"minimum_score": strconv.Itoa(f.minimum)},
	}
}
