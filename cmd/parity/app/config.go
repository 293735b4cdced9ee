package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/parity/pkg/constants"
	"github.com/agentstation/parity/pkg/errors"
)

// EnvPrefix prefixes every environment variable parity reads.
const EnvPrefix = "PARITY"

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Check inputs
	ExpectedDir      string
	OutputFile       string
	WaiversFile      string
	StreamsFile      string
	ExcludeStreams   []string
	FetchConcurrency int
	AllowMissing     bool

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied later by UpdateFromFlags)
//  2. PARITY_* environment variables
//  3. .env and .env.local
//  4. Config file (~/.parity.yaml or ./.parity.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom loads configuration like LoadConfig but reads the given
// config file, which must exist. An empty path searches the usual places.
func LoadConfigFrom(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("fetch_concurrency", constants.DefaultFetchConcurrency)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")

	explicit := path != ""
	if !explicit {
		path = v.GetString("config")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".parity")
	}

	if err := v.ReadInConfig(); err != nil && explicit {
		return nil, errors.WrapIO("read", path, err)
	}

	return &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		ExpectedDir:      v.GetString("expected_dir"),
		OutputFile:       v.GetString("output_file"),
		WaiversFile:      v.GetString("waivers_file"),
		StreamsFile:      v.GetString("streams_file"),
		ExcludeStreams:   splitList(v.GetStringSlice("exclude_streams")),
		FetchConcurrency: v.GetInt("fetch_concurrency"),
		AllowMissing:     v.GetBool("allow_missing"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}, nil
}

// UpdateFromFlags applies parsed global flags on top of the loaded config.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads .env then .env.local. Variables already set win.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
