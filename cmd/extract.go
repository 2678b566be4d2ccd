package cmd

import (
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobai/internal/utils"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract the text of the stored resume and cache it",
	Run: func(cmd *cobra.Command, _ []string) {
		extractResume(cmd)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().Bool("force", false, "ignore the cached text and extract again")
	extractCmd.Flags().Bool("print", false, "print the whole text instead of a preview")
}

func extractResume(cmd *cobra.Command) {
	ctx, stop, logger, config := bootstrap()
	defer stop()

	a := mustApplication(ctx, config, logger)
	defer a.Close()

	p, err := a.profiles.Load(ctx)
	if err != nil {
		logger.Fatal("loading settings", zap.Error(err))
	}
	if !p.HasResume() {
		logger.Fatal("no resume uploaded", zap.String("hint", "run 'jobai settings resume <file.pdf>'"))
	}

	var text string
	if force, _ := cmd.Flags().GetBool("force"); force {
		text, err = a.extractor.ExtractResumeText(ctx, p.ResumeObjectRef)
	} else {
		text, err = a.resolver.ResumeText(ctx, p.Record)
	}
	if err != nil {
		logger.Fatal("extracting resume text", zap.Error(err))
	}

	if full, _ := cmd.Flags().GetBool("print"); full {
		fmt.Println(text)
		return
	}

	logger.Info("resume text ready",
		zap.Int("length", utf8.RuneCountInString(text)),
		zap.String("preview", utils.TruncateForLog(text, 300)),
	)
}
