package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/jobai/internal/leads"
)

const forceFlagSetMsg = "force flag is set"

type historyFilter struct {
	path   string
	ignore bool
	logger *zap.Logger
}

type HistoryConfig struct {
	Path   string
	Ignore bool
}

// NewHistory creates a filter that removes leads already recorded in the sent history file.
func NewHistory(cfg *HistoryConfig, logger *zap.Logger) Filter {
	if cfg == nil {
		cfg = &HistoryConfig{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &historyFilter{path: cfg.Path, ignore: cfg.Ignore, logger: logger}
}

func (f *historyFilter) Name() string { return "sent_history" }

func (f *historyFilter) Disable(string) {}

func (f *historyFilter) IsEnabled() bool { return true }

func (f *historyFilter) Validate() error { return nil }

func (f *historyFilter) Apply(_ context.Context, l *leads.Leads) (*leads.Leads, Step, error) {
	initial := l.Len()
	if f.ignore {
		f.logger.Info("ignoring already sent leads", zap.String("reason", forceFlagSetMsg))
		return l, Step{Initial: initial, Left: l.Len()}, nil
	}
	if f.path == "" {
		return l, Step{Initial: initial, Left: l.Len()}, nil
	}

	history, err := leads.LoadHistory(f.path)
	if err != nil {
		return l, Step{}, fmt.Errorf("reading sent history: %w", err)
	}

	excluded := l.Exclude(history.IDs())
	if len(excluded) > 0 {
		f.logger.Info("excluding leads based on sent history",
			zap.String("path", f.path),
			zap.Strings("excluded_leads", excluded),
			zap.Int("leads_left", l.Len()),
		)
	}

	return l, Step{Initial: initial, Dropped: len(excluded), Left: l.Len()}, nil
}

func (f *historyFilter) Status() Status {
	details := map[string]string{
		"exclude_sent": strconv.FormatBool(!f.ignore),
	}
	if f.path != "" {
		details["path"] = f.path
	}
	reason := ""
	if f.ignore {
		reason = "skip requested via flag"
	}
	return Status{Name: f.Name(), Enabled: true, Reason: reason, Details: details}
}
