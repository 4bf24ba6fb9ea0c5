package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/claimtrust/internal/logger"
	"github.com/ppiankov/claimtrust/internal/metrics"
	"github.com/ppiankov/claimtrust/internal/model"
)

// Version is the released version of the binary
const Version = "0.1.0"

var (
	cfgFile     string
	verbose     bool
	metricsAddr string
	logFormat   string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "claimtrust",
	Short: "claimtrust - insurance claim document reconciliation and trust scoring",
	Long: `claimtrust reads insurance claim correspondence (statements of account
and treaty slips), extracts the financial facts they state, cross-references
them with a ledger of historical claims and writes one record per claim with
a trust score between 0 and 100.

The score describes how well the documents agree with each other and with
the ledger. It is an input to manual review, not a verdict.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of claimtrust and the record pipeline version.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("claimtrust v%s (%s)\n", Version, model.PipelineVersion)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.claimtrust/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address (e.g. :9090)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (console, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("metrics.addr", rootCmd.PersistentFlags().Lookup("metrics-addr"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and ENV variables
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error reading .env: %v\n", err)
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".claimtrust"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match CLAIMTRUST_*, e.g. CLAIMTRUST_LEDGER_PATH
	viper.SetEnvPrefix("CLAIMTRUST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindEnvKeys()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// bindEnvKeys registers the keys that are commonly set from the environment.
// AutomaticEnv alone does not reach Unmarshal for keys viper has not seen.
func bindEnvKeys() {
	for _, key := range []string{
		"ledger.path",
		"ledger.sheet",
		"ledger.header_row",
		"index.embedder",
		"index.model",
		"index.api_key",
		"llm.provider",
		"llm.model",
		"llm.api_key",
		"llm.base_url",
		"output.dir",
		"logging.level",
		"logging.format",
	} {
		_ = viper.BindEnv(key)
	}
}

// loadConfig layers the config file and environment over the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
		cfg.Output.Verbose = true
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

// session carries the services shared by every command
type session struct {
	cfg     *model.Config
	log     *zap.Logger
	metrics *metrics.Metrics
}

// setup loads the configuration, builds the logger and starts the metrics
// endpoint when one is configured. The endpoint stops with ctx.
func setup(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		addr := cfg.Metrics.Addr
		go func() {
			if err := m.Serve(ctx, addr); err != nil {
				log.Error("metrics endpoint failed", zap.String("addr", addr), zap.Error(err))
			}
		}()
		log.Info("serving metrics", zap.String("addr", addr+"/metrics"))
	}

	return &session{cfg: cfg, log: log, metrics: m}, nil
}
