package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobai/internal/batch"
	"github.com/spigell/jobai/internal/generation"
	"github.com/spigell/jobai/internal/leads"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Preview the cover letter and subject for a lead or a job description file",
	Run: func(cmd *cobra.Command, _ []string) {
		generate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().String("lead", "", "id of a lead from the leads file; the preview is stored on the lead")
	generateCmd.Flags().String("job-file", "", "file with a job description")
}

func generate(cmd *cobra.Command) {
	ctx, stop, logger, config := bootstrap()
	defer stop()

	leadID, _ := cmd.Flags().GetString("lead")
	jobFile, _ := cmd.Flags().GetString("job-file")
	if (leadID == "") == (jobFile == "") {
		logger.Fatal("exactly one of --lead or --job-file is required")
	}

	a := mustApplication(ctx, config, logger)
	defer a.Close()

	var (
		all  *leads.Leads
		lead *leads.Lead
		job  string
	)

	if leadID != "" {
		var err error
		all, err = leads.Load(config.LeadsFile)
		if err != nil {
			logger.Fatal("reading leads file", zap.Error(err))
		}
		lead = all.FindByID(leadID)
		if lead == nil {
			logger.Fatal("lead not found", zap.String("lead_id", leadID), zap.String("filename", config.LeadsFile))
		}
		job = batch.JobText(lead)
	} else {
		data, err := os.ReadFile(jobFile)
		if err != nil {
			logger.Fatal("reading job file", zap.Error(err))
		}
		job = strings.TrimSpace(string(data))
	}

	p, err := a.profiles.Load(ctx)
	if err != nil {
		logger.Fatal("loading settings", zap.Error(err))
	}

	resumeText := ""
	if p.HasResume() {
		resumeText, err = a.resolver.ResumeText(ctx, p.Record)
		if err != nil {
			logger.Warn("resume text is not available", zap.Error(err))
		}
	}

	result, err := a.pipeline.GenerateCombined(ctx, generation.Request{
		JobDescription: job,
		ResumeText:     resumeText,
		ApplicantName:  p.FromName,
	})
	if err != nil {
		logger.Fatal("generating letter", zap.Error(err))
	}

	printLetter(result.Subject, result.CoverLetter, result.Model)

	if lead != nil {
		lead.CoverLetter = result.CoverLetter
		lead.Subject = result.Subject
		if err := all.Save(config.LeadsFile); err != nil {
			logger.Fatal("saving leads file", zap.Error(err))
		}
		logger.Info("preview stored on lead", zap.String("lead_id", lead.ID))
	}
}
