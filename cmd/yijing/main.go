package main

import (
	"fmt"
	"os"

	"yijing/internal/classify"
	"yijing/internal/config"
	"yijing/internal/divination"
	"yijing/internal/logging"
	"yijing/internal/resolver"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	configPath string
	verbose    bool
	baseURL    string

	// Loaded by PersistentPreRunE
	cfg *config.Config
)

// rootCmd starts the interactive client.
var rootCmd = &cobra.Command{
	Use:   "yijing",
	Short: "易經占卜陳老師 - interactive I Ching divination",
	Long: `yijing asks the resolver backend your questions.

Questions about 陳老師 (contact, background, fees) are answered
directly. Any other question is divinatory: you draw three numbers by
shaking the sticks, and the resolver casts and interprets the hexagram.

Run without arguments to start the interactive client. Run "yijing serve"
to start the resolver backend.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if baseURL != "" {
			c.Resolver.BaseURL = baseURL
		}
		if verbose {
			c.Logging.Level = "debug"
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}
		cfg = c

		// The interactive client owns the terminal, so only the file sinks
		// are used there.
		var opts logging.Options
		if cmd != rootCmd {
			opts.Console = zapcore.Lock(os.Stderr)
		}
		return logging.Initialize(cfg.Logging, opts)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Resolver base URL (overrides resolver.base_url)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newResolver(c *config.Config) *resolver.Client {
	return resolver.New(resolver.Config{
		BaseURL: c.Resolver.BaseURL,
		Timeout: c.GetResolverTimeout(),
		Logger:  logging.Get(logging.CategoryResolver),
	})
}

func newClassifier(c *config.Config) *classify.Classifier {
	return classify.New(c.Classifier.ExtraKeywords...)
}

func ritualTiming(c *config.Config) divination.Timing {
	return divination.Timing{
		Shake:  c.GetShakeDelay(),
		Reveal: c.GetRevealDelay(),
		Settle: c.GetSettleDelay(),
	}
}
