package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobai/internal/jobsearch"
	"github.com/spigell/jobai/internal/leads"
	"github.com/spigell/jobai/internal/secrets"
)

var searchCmd = &cobra.Command{
	Use:   "search [keywords]",
	Short: "Search job leads and add them to the leads file",
	Run: func(_ *cobra.Command, args []string) {
		search(args)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringP("location", "l", "", "location of the jobs")

	viper.BindPFlag("search.location", searchCmd.Flags().Lookup("location"))
}

func search(args []string) {
	ctx, stop, logger, config := bootstrap()
	defer stop()

	keywords := strings.TrimSpace(strings.Join(args, " "))
	if keywords == "" {
		keywords = config.Search.Keywords
	}

	apiKey, err := secrets.LoadOptional(secrets.Source{
		Name:  "search api key",
		Value: config.Search.APIKey,
		File:  config.Search.APIKeyFile,
	})
	if err != nil {
		logger.Fatal("loading search api key", zap.Error(err),
			zap.String("hint", "set RAPIDAPI_KEY_FILE environment variable or the 'search.api-key-file' key"),
		)
	}

	client := jobsearch.New(logger, apiKey, config.Search.Host)

	found, err := client.Search(ctx, jobsearch.Params{Keywords: keywords, Location: config.Search.Location})
	if err != nil {
		logger.Fatal("searching jobs", zap.Error(err))
	}

	existing, err := leads.Load(config.LeadsFile)
	if err != nil {
		logger.Fatal("reading leads file", zap.Error(err))
	}

	added := 0
	for _, lead := range found.Items {
		if existing.FindByID(lead.ID) != nil {
			continue
		}
		existing.Items = append(existing.Items, lead)
		added++
	}

	if err := existing.Save(config.LeadsFile); err != nil {
		logger.Fatal("saving leads file", zap.Error(err))
	}

	logger.Info("leads saved",
		zap.String("filename", config.LeadsFile),
		zap.Int("found", found.Len()),
		zap.Int("added", added),
		zap.Int("with_email", found.CountByStatus()[leads.StatusReady]),
		zap.Bool("demo", client.Demo()),
	)
}
