package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/jobai/internal/batch"
	"github.com/spigell/jobai/internal/storage/object/minio"
)

const (
	app = "jobai"
)

type Config struct {
	Database          string         `mapstructure:"database"`
	LeadsFile         string         `mapstructure:"leads-file"`
	EncryptionKey     string         `mapstructure:"encryption-key"`
	EncryptionKeyFile string         `mapstructure:"encryption-key-file"`
	Storage           *StorageConfig `mapstructure:"storage"`
	AI                *AIConfig      `mapstructure:"ai"`
	Apply             *ApplyConfig   `mapstructure:"apply"`
	Search            *SearchConfig  `mapstructure:"search"`
}

type StorageConfig struct {
	Driver   string       `mapstructure:"driver"`
	LocalDir string       `mapstructure:"local-dir"`
	Minio    *MinioConfig `mapstructure:"minio"`
}

type MinioConfig struct {
	minio.Config  `mapstructure:",squash"`
	SecretKeyFile string `mapstructure:"secret-key-file"`
}

type AIConfig struct {
	Gemini *GeminiConfig `mapstructure:"gemini"`
	Groq   *GroqConfig   `mapstructure:"groq"`
}

type GeminiConfig struct {
	APIKey          string   `mapstructure:"api-key"`
	APIKeyFile      string   `mapstructure:"api-key-file"`
	TextModels      []string `mapstructure:"text-models"`
	VisionModels    []string `mapstructure:"vision-models"`
	EmbeddingModels []string `mapstructure:"embedding-models"`
	MaxRetries      int      `mapstructure:"max-retries"`
}

type GroqConfig struct {
	APIKey     string   `mapstructure:"api-key"`
	APIKeyFile string   `mapstructure:"api-key-file"`
	Models     []string `mapstructure:"models"`
	BaseURL    string   `mapstructure:"base-url"`
}

type ApplyConfig struct {
	batch.Config `mapstructure:",squash"`
	HistoryFile  string `mapstructure:"history-file"`
	MinimumScore int    `mapstructure:"minimum-score"`
	Exclude      *struct {
		Companies []string
	}
}

type SearchConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Host       string `mapstructure:"host"`
	Keywords   string `mapstructure:"keywords"`
	Location   string `mapstructure:"location"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobai finds job leads, scores them against your resume and sends applications by email",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

var envBindings = map[string]string{
	"encryption-key-file":    "JOBAI_ENCRYPTION_KEY_FILE",
	"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	"ai.groq.api-key-file":   "GROQ_API_KEY_FILE",
	"search.api-key-file":    "RAPIDAPI_KEY_FILE",
}

func init() {
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("database", app+".db")
	viper.SetDefault("leads-file", "leads.json")
	viper.SetDefault("storage.driver", "local")
	viper.SetDefault("storage.local-dir", "resumes")
	viper.SetDefault("apply.delay", batch.DefaultDelay)
	viper.SetDefault("apply.attachment-name", batch.DefaultAttachmentName)
	viper.SetDefault("apply.history-file", app+"-history.json")
	viper.SetDefault("apply.concurrency", 1)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobai.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("leads-file", "", "file with job leads (default is leads.json)")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("leads-file", rootCmd.PersistentFlags().Lookup("leads-file"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	// Running on defaults and environment is fine unless a file was given explicitly.
	if errors.As(err, &notFound) && cfgFile == "" {
		return
	}

	// We can't proceed if the config file parsed with error.
	if err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Storage == nil {
		config.Storage = &StorageConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.Apply == nil {
		config.Apply = &ApplyConfig{}
	}
	if config.Search == nil {
		config.Search = &SearchConfig{}
	}

	return config, nil
}
