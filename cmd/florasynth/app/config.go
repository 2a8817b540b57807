package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from config files,
// environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Pipeline configuration
	EnabledModules []string
	RulesDir       string
	CacheDir       string

	// Inference configuration
	GeminiAPIKey   string
	InferenceModel string

	// Sink configuration
	SinkType        string // stdout, csv, sheets
	OutputDir       string
	SheetTitle      string
	SheetFolder     string
	CredentialsFile string

	// Logging configuration
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (handled by cobra)
//  2. Environment variables
//  3. .env files
//  4. Config file (~/.florasynth.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	bindAPIKeys()

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".florasynth")
		}
	}

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),

		ConfigFile: viper.ConfigFileUsed(),

		EnabledModules: viper.GetStringSlice("modules"),
		RulesDir:       viper.GetString("rules_dir"),
		CacheDir:       viper.GetString("cache_dir"),

		GeminiAPIKey:   firstNonEmpty(viper.GetString("GEMINI_API_KEY"), viper.GetString("GOOGLE_API_KEY")),
		InferenceModel: viper.GetString("inference_model"),

		SinkType:        viper.GetString("sink"),
		OutputDir:       viper.GetString("output_dir"),
		SheetTitle:      viper.GetString("sheet_title"),
		SheetFolder:     viper.GetString("sheet_folder"),
		CredentialsFile: viper.GetString("credentials_file"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
	}

	// Defaults
	if config.SinkType == "" {
		config.SinkType = "stdout"
	}
	if config.OutputDir == "" {
		config.OutputDir = "output"
	}
	if config.SheetTitle == "" {
		config.SheetTitle = "Florasynth"
	}

	return config, nil
}

// UpdateFromFlags applies parsed command flags, which take precedence over
// config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel, sinkType string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if sinkType != "" {
		c.SinkType = sinkType
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	envFiles := []string{
		".env",
		".env.local",
	}
	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// bindAPIKeys explicitly binds the API key environment variables to Viper.
func bindAPIKeys() {
	apiKeys := []string{
		"GEMINI_API_KEY",
		"GOOGLE_API_KEY",
	}
	for _, key := range apiKeys {
		_ = viper.BindEnv(key)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
