package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sprint-mcp/internal/issue"
	"sprint-mcp/internal/jira"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Jira           jira.Config    `validate:"-"`
	DefaultProject string         `validate:"required"`
	Timezone       string         `validate:"required"`
	Location       *time.Location `validate:"-"`

	DataPath    string
	LogDir      string
	SnapshotDSN string `validate:"required"`

	Fields issue.Fields `validate:"-"`

	WorklogConcurrency  int    `validate:"min=1,max=32"`
	SyncCron            string
	HTTPAddr            string `validate:"required"`
	EnableMermaidCharts bool

	TeamFile string
	Team     *Team `validate:"-"`
}

var validate = validator.New()

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	cfg, err := FromEnv(afero.NewOsFs(), exeDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", cfg.LogDir).Msg("Failed to create log directory")
	}
	return cfg, nil
}

// FromEnv builds the configuration from the process environment.
// Relative paths are resolved against baseDir (the executable directory) when set.
func FromEnv(fs afero.Fs, baseDir string) (*AppConfig, error) {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if baseDir != "" {
			dataPath = baseDir
		} else {
			dataPath = "."
		}
	}

	tz := getEnv("TIMEZONE", "Asia/Bangkok")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn().Err(err).Str("timezone", tz).Msg("Unknown timezone, using UTC")
		loc = time.UTC
	}

	defaults := issue.DefaultFields()
	cfg := &AppConfig{
		Jira: jira.Config{
			BaseURL:      strings.TrimRight(getEnv("JIRA_URL", ""), "/"),
			Email:        getEnv("JIRA_EMAIL", ""),
			APIToken:     getEnv("JIRA_API_TOKEN", ""),
			Token:        getEnv("JIRA_TOKEN", ""),
			RequestDelay: time.Duration(getEnvInt("JIRA_REQUEST_DELAY_MS", 0)) * time.Millisecond,
			Timeout:      time.Duration(getEnvInt("JIRA_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		DefaultProject: getEnv("DEFAULT_PROJECT", "CLD"),
		Timezone:       tz,
		Location:       loc,
		DataPath:       dataPath,
		LogDir:         filepath.Join(dataPath, "logs"),
		SnapshotDSN:    getEnv("SNAPSHOT_DSN", "sqlite:"+filepath.Join(dataPath, "snapshots.db")),
		Fields: issue.Fields{
			ShowInDashboard: getEnv("CF_SHOW_IN_DASHBOARD", defaults.ShowInDashboard),
			Popup:           getEnv("CF_POPUP", defaults.Popup),
			SteveEstimate:   getEnv("CF_STEVE_ESTIMATE", defaults.SteveEstimate),
			Customer:        getEnv("CF_CUSTOMER", defaults.Customer),
			Feature:         getEnv("CF_FEATURE", defaults.Feature),
			Tester:          getEnv("CF_TESTER", defaults.Tester),
			StoryPoints:     getEnv("CF_STORY_POINTS", defaults.StoryPoints),
		},
		WorklogConcurrency:  getEnvInt("WORKLOG_CONCURRENCY", 4),
		SyncCron:            getEnv("SYNC_CRON", ""),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
		TeamFile:            getEnv("TEAM_FILE", filepath.Join(dataPath, "team.yaml")),
	}

	team, err := LoadTeam(fs, cfg.TeamFile)
	if err != nil {
		return nil, err
	}
	cfg.Team = team

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ValidateJira checks the settings needed to talk to Jira.
func (c *AppConfig) ValidateJira() error {
	if err := validate.Struct(c.Jira); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			var msgs []string
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed '%s'", e.Field(), e.Tag()))
			}
			return fmt.Errorf("jira configuration: %s (set JIRA_URL and JIRA_EMAIL + JIRA_API_TOKEN or JIRA_TOKEN)", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// IssueOptions returns the issue processor settings derived from the config.
func (c *AppConfig) IssueOptions() issue.Options {
	return issue.Options{
		BaseURL:   c.Jira.BaseURL,
		Fields:    c.Fields,
		Location:  c.Location,
		FullStack: c.Team.FullStack,
		Frontend:  c.Team.Frontend,
		Excluded:  c.Team.Excluded,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric setting")
	}
	return fallback
}
