package cmd

import (
	"errors"
	"log"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "magicfill"
)

type Config struct {
	DataDir      string       `mapstructure:"data-dir"`
	MappingsFile string       `mapstructure:"mappings-file"`
	Fill         *FillConfig  `mapstructure:"fill"`
	Serve        *ServeConfig `mapstructure:"serve"`
	AI           *AIConfig    `mapstructure:"ai"`
}

type FillConfig struct {
	SiteAnswers bool `mapstructure:"site-answers"`
}

type ServeConfig struct {
	Listen    string `mapstructure:"listen"`
	TokenFile string `mapstructure:"token-file"`
}

type AIConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Provider          string        `mapstructure:"provider"`
	MinimumConfidence float64       `mapstructure:"minimum-confidence"`
	Gemini            *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "magicfill resolves job-application form fields from a personal answer library",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("data-dir", "MAGICFILL_DATA_DIR"); err != nil {
		log.Fatalf("binding MAGICFILL_DATA_DIR environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is magicfill.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("data-dir", "", "directory holding the answer database")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("data-dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// A missing config file is fine; everything has flag or built-in defaults.
	// A present but unparseable one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}

	return config, nil
}

// dataDir resolves the database directory: flag/env, then config, then a
// per-user default.
func dataDir(config *Config) string {
	if dir := viper.GetString("data-dir"); dir != "" {
		return dir
	}
	if config != nil && config.DataDir != "" {
		return config.DataDir
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "." + app
	}
	return filepath.Join(base, app)
}
