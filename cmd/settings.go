package cmd

import (
	"net/http"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobai/internal/profile"
	"github.com/spigell/jobai/internal/vault"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage SMTP settings and the resume",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored settings without the password",
	Run: func(_ *cobra.Command, _ []string) {
		settingsShow()
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update SMTP settings. Only given flags are changed",
	Run: func(cmd *cobra.Command, _ []string) {
		settingsSet(cmd)
	},
}

var settingsResumeCmd = &cobra.Command{
	Use:   "resume <file.pdf>",
	Short: "Upload a new resume and replace the previous one",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		settingsResume(args[0])
	},
}

var settingsTestEmailCmd = &cobra.Command{
	Use:   "test-email <address>",
	Short: "Send a test email with the stored SMTP settings",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		settingsTestEmail(args[0])
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsResumeCmd, settingsTestEmailCmd)

	settingsSetCmd.Flags().String("smtp-host", "", "SMTP server host")
	settingsSetCmd.Flags().Int("smtp-port", 587, "SMTP server port, 465 uses implicit TLS")
	settingsSetCmd.Flags().String("smtp-user", "", "SMTP login")
	settingsSetCmd.Flags().String("from-email", "", "sender address")
	settingsSetCmd.Flags().String("from-name", "", "sender name, also used to sign letters")
	settingsSetCmd.Flags().BoolP("password", "p", false, "ask for the SMTP password")
}

func settingsShow() {
	ctx, stop, logger, config := bootstrap()
	defer stop()

	a := mustApplication(ctx, config, logger)
	defer a.Close()

	p, err := a.profiles.Load(ctx)
	if err != nil {
		logger.Fatal("loading settings", zap.Error(err))
	}

	logger.Info("settings",
		zap.String("smtp_host", p.SMTPHost),
		zap.Int("smtp_port", p.SMTPPort),
		zap.String("smtp_user", p.SMTPUser),
		zap.String("password", passwordState(p)),
		zap.String("from_email", p.FromEmail),
		zap.String("from_name", p.FromName),
		zap.String("resume_ref", p.ResumeObjectRef),
		zap.Bool("resume_text_cached", p.Record != nil && p.Record.CachedResumeTextAt != nil),
	)
}

func passwordState(p *profile.Profile) string {
	switch {
	case p.SMTPPassword != "":
		return "set"
	case p.Record != nil && vault.IsEncrypted(p.Record.SMTPPasswordCiphertext):
		return "cannot be decrypted"
	default:
		return "not set"
	}
}

func settingsSet(cmd *cobra.Command) {
	ctx, stop, logger, config := bootstrap()
	defer stop()

	a := mustApplication(ctx, config, logger)
	defer a.Close()

	flags := cmd.Flags()
	in := profile.Input{}

	stringFlag := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}

	in.SMTPHost = stringFlag("smtp-host")
	in.SMTPUser = stringFlag("smtp-user")
	in.FromEmail = stringFlag("from-email")
	in.FromName = stringFlag("from-name")

	if flags.Changed("smtp-port") {
		port, _ := flags.GetInt("smtp-port")
		in.SMTPPort = &port
	}

	if ask, _ := flags.GetBool("password"); ask {
		passwordPrompt := promptui.Prompt{
			Label: "SMTP password",
			Mask:  '*',
		}
		password, err := passwordPrompt.Run()
		if err != nil {
			logger.Fatal("reading password", zap.Error(err))
		}
		in.SMTPPassword = &password
	}

	p, err := a.profiles.Save(ctx, in)
	if err != nil {
		logger.Fatal("saving settings", zap.Error(err))
	}

	logger.Info("settings saved",
		zap.String("smtp_host", p.SMTPHost),
		zap.Int("smtp_port", p.SMTPPort),
		zap.String("password", passwordState(p)),
	)
}

func settingsResume(path string) {
	ctx, stop, logger, config := bootstrap()
	defer stop()

	a := mustApplication(ctx, config, logger)
	defer a.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("reading resume file", zap.Error(err))
	}

	p, err := a.profiles.ReplaceResume(ctx, data, http.DetectContentType(data))
	if err != nil {
		logger.Fatal("uploading resume", zap.Error(err))
	}

	logger.Info("resume uploaded", zap.String("resume_ref", p.ResumeObjectRef))
}

func settingsTestEmail(to string) {
	ctx, stop, logger, config := bootstrap()
	defer stop()

	a := mustApplication(ctx, config, logger)
	defer a.Close()

	p, err := a.profiles.Load(ctx)
	if err != nil {
		logger.Fatal("loading settings", zap.Error(err))
	}

	if err := profile.SendTestEmail(ctx, a.sender, p, to); err != nil {
		logger.Fatal("sending test email", zap.Error(err))
	}

	logger.Info("test email sent", zap.String("to", to))
}
