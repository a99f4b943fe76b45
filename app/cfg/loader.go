package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Server configuration
	Host string `long:"host" env:"SERVER_HOST" default:"" description:"HTTP server bind address"`
	Port string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`

	// Upstream feed configuration
	SourceURL    string `long:"source-url" env:"RSS_SOURCE_URL" description:"URL of the upstream RSS feed (required)" required:"true"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Upstream fetch timeout in seconds"`
	UserAgent    string `long:"user-agent" env:"USER_AGENT" default:"RSS Converter/1.0" description:"User agent string for upstream requests"`

	// Conversion configuration
	RulesFile       string `long:"rules-file" env:"RULES_FILE" description:"Path to YAML file with title conversion rules (built-in rules when omitted)"`
	DefaultPriority int    `long:"default-priority" env:"CONVERSION_DEFAULT_PRIORITY" default:"100" description:"Priority assigned to rules that do not specify one"`

	// API configuration
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Host:            raw.Host,
		Port:            raw.Port,
		SourceURL:       raw.SourceURL,
		FetchTimeout:    raw.FetchTimeout,
		UserAgent:       raw.UserAgent,
		RulesFile:       raw.RulesFile,
		DefaultPriority: raw.DefaultPriority,
		APIAccessKey:    raw.APIAccessKey,
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
