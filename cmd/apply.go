package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobai/internal/apperr"
	"github.com/spigell/jobai/internal/filtering"
	"github.com/spigell/jobai/internal/leads"
)

const (
	PromptYes               = "Yes"
	PromptNo                = "No"
	PromptReportByCompanies = "Report by companies"
	PromptLeadsToFile       = "Dump leads to file"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Send applications?",
	Items: []string{PromptYes, PromptNo, PromptReportByCompanies, PromptLeadsToFile},
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Send applications to every ready lead with a recruiter email",
	Run: func(cmd *cobra.Command, _ []string) {
		apply(cmd)
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().BoolP("resend", "f", false, "do not exclude leads from the sent history")
	applyCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation")
	applyCmd.Flags().Int("minimum-score", 0, "skip analyzed leads with a lower match score")
	applyCmd.Flags().StringSlice("skip-filter", nil, "disable filters by name (companies, minimum_score)")

	viper.BindPFlag("apply.minimum-score", applyCmd.Flags().Lookup("minimum-score"))
}

func apply(cmd *cobra.Command) {
	ctx, stop, logger, config := bootstrap()
	defer stop()

	a := mustApplication(ctx, config, logger)
	defer a.Close()

	all, err := leads.Load(config.LeadsFile)
	if err != nil {
		logger.Fatal("reading leads file", zap.Error(err))
	}

	// The working list shares lead pointers with the file snapshot so status
	// changes land in both.
	working := &leads.Leads{Items: append([]*leads.Lead(nil), all.Items...)}

	filters := prepareFilters(cmd, config, logger)
	working, err = filters.RunFilters(ctx, working)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if working.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no leads left after filters"))
		return
	}

	working.SortByScore()

	action := PromptYes
	for {
		if cmd.Flag("auto-approve").Value.String() == "false" {
			_, action, err = prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		logger.Info("current list of leads", zap.Int("count", working.Len()))

		err := handleAction(ctx, action, a, logger, config, all, working)
		if errors.Is(err, errExit) {
			return
		}
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(ctx context.Context, action string, a *application, logger *zap.Logger, config *Config, all, working *leads.Leads) error {
	switch action {
	case PromptYes:
		if err := send(ctx, a, logger, config, all, working); err != nil {
			return err
		}
		return errExit
	case PromptNo:
		logger.Info("exiting", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptReportByCompanies:
		logger.Info(prettyJSON(working.ReportByCompany()), zap.Int("leads count", working.Len()))
		return nil
	case PromptLeadsToFile:
		filename, err := working.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func send(ctx context.Context, a *application, logger *zap.Logger, config *Config, all, working *leads.Leads) error {
	summary, batchErr := a.controller.RunBatch(ctx, working.Items)

	if errors.Is(batchErr, apperr.ErrConfiguration) {
		logger.Error("settings are incomplete", zap.Error(batchErr),
			zap.String("hint", "run 'jobai settings set' and 'jobai settings resume <file.pdf>'"),
		)
		return errExit
	}

	if err := all.Save(config.LeadsFile); err != nil {
		return fmt.Errorf("saving leads file: %w", err)
	}

	if path := strings.TrimSpace(config.Apply.HistoryFile); path != "" {
		history, err := leads.LoadHistory(path)
		if err != nil {
			return fmt.Errorf("reading sent history: %w", err)
		}
		if added := history.Record(all.Items); added > 0 {
			if err := history.ToFile(path); err != nil {
				return fmt.Errorf("writing sent history: %w", err)
			}
			logger.Info("sent history updated", zap.String("filename", path), zap.Int("added", added))
		}
	}

	logger.Info("applications processed",
		zap.Int("attempted", summary.Attempted),
		zap.Int("sent", summary.Sent),
		zap.Int("failed", summary.Failed),
	)

	return batchErr
}

func prepareFilters(cmd *cobra.Command, config *Config, logger *zap.Logger) *filtering.Filtering {
	ignoreHistory := false
	if flag := cmd.Flag("resend"); flag != nil && strings.EqualFold(flag.Value.String(), "true") {
		ignoreHistory = true
	}

	var companies []string
	if config.Apply.Exclude != nil {
		companies = config.Apply.Exclude.Companies
	}

	steps := []filtering.Filter{
		filtering.NewNotDispatchable(logger),
		filtering.NewHistory(&filtering.HistoryConfig{Path: config.Apply.HistoryFile, Ignore: ignoreHistory}, logger),
		filtering.NewExcludedCompanies(companies, logger),
		filtering.NewMinimumScore(config.Apply.MinimumScore, logger),
	}

	f := filtering.New(steps, logger)

	skipped, _ := cmd.Flags().GetStringSlice("skip-filter")
	for _, name := range skipped {
		f.DisableByName(strings.TrimSpace(name), "disabled by --skip-filter")
	}

	for _, status := range f.Describe() {
		logger.Debug("filter configured",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	return f
}
