package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/claimtrust/internal/classify"
	"github.com/ppiankov/claimtrust/internal/extract"
	"github.com/ppiankov/claimtrust/internal/index"
	"github.com/ppiankov/claimtrust/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage claimtrust configuration",
	Long: `Manage claimtrust configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (CLAIMTRUST_*, e.g. CLAIMTRUST_LEDGER_PATH)
3. Config file (~/.claimtrust/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Display the configuration after merging defaults, the config file and environment variables. API keys are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		maskSecrets(cfg)

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (defaults and environment only)\n\n")
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the effective configuration without running",
	Long: `Validate compiles the classifier patterns, builds the embedder and checks
that the ledger file exists. It exits non-zero on the first problem.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := validateConfig(cfg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long:  `Create ~/.claimtrust/config.yaml containing every option at its default value.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("find home directory: %w", err)
		}

		configPath := filepath.Join(home, ".claimtrust", "config.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'claimtrust config show' to view it, or delete it first to recreate", configPath)
		}

		if err := writeDefaultConfig(configPath); err != nil {
			return err
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nPoint it at your ledger before the first run:\n")
		fmt.Printf("  ledger:\n    path: /path/to/ledger.xlsx\n\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configInitCmd)
}

const configHeader = `# claimtrust configuration
#
# Configuration hierarchy (highest to lowest priority):
#   1. CLI flags
#   2. Environment variables (CLAIMTRUST_*, OPENAI_API_KEY, ANTHROPIC_API_KEY, OLLAMA_BASE_URL)
#   3. This config file
#   4. Built-in defaults
#
# API keys are better kept in the environment or a .env file than here.

`

// writeDefaultConfig writes the commented default configuration to path
func writeDefaultConfig(path string) (err error) {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close config file: %w", closeErr)
		}
	}()

	if _, err := f.WriteString(configHeader); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// validateConfig reports the first configuration problem that would abort a run
func validateConfig(cfg *model.Config) error {
	if _, err := classify.New(cfg.Classifier, extract.New(cfg.Extraction)); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	if _, err := index.NewEmbedder(cfg.Index, nil, 0, nil); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if cfg.Ledger.Path != "" {
		if _, err := os.Stat(cfg.Ledger.Path); err != nil {
			return fmt.Errorf("ledger: %w", err)
		}
	}
	if cfg.Ledger.HeaderRow < 1 {
		return fmt.Errorf("ledger: header_row must be at least 1, got %d", cfg.Ledger.HeaderRow)
	}
	if cfg.Output.Dir == "" {
		return fmt.Errorf("output: dir must be set")
	}
	switch cfg.Thresholds.ComparisonMode {
	case model.ModeGroundTruth, model.ModeTreaty:
	default:
		return fmt.Errorf("thresholds: unknown comparison_mode %q", cfg.Thresholds.ComparisonMode)
	}
	return nil
}

// maskSecrets hides API keys before the configuration is printed
func maskSecrets(cfg *model.Config) {
	if cfg.LLM.APIKey != "" {
		cfg.LLM.APIKey = "****"
	}
	if cfg.Index.APIKey != "" {
		cfg.Index.APIKey = "****"
	}
}
