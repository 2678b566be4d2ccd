package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobai/internal/leads"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score every lead without a verdict against the stored resume",
	Run: func(_ *cobra.Command, _ []string) {
		analyze()
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func analyze() {
	ctx, stop, logger, config := bootstrap()
	defer stop()

	a := mustApplication(ctx, config, logger)
	defer a.Close()

	all, err := leads.Load(config.LeadsFile)
	if err != nil {
		logger.Fatal("reading leads file", zap.Error(err))
	}

	if all.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no leads found"), zap.String("hint", "run the search command first"))
		return
	}

	summary, err := a.controller.AnalyzeAll(ctx, all.Items)
	// Verdicts gathered before an interruption are kept.
	if saveErr := all.Save(config.LeadsFile); saveErr != nil {
		logger.Fatal("saving leads file", zap.Error(saveErr))
	}
	if err != nil {
		logger.Fatal("analyzing leads", zap.Error(err))
	}

	all.SortByScore()
	logger.Info(prettyJSON(all.ReportByCompany()),
		zap.Int("analyzed", summary.Analyzed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
}
