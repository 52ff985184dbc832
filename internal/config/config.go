package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	SSLCert        string `yaml:"sslcert,omitempty"`
	SSLKey         string `yaml:"sslkey,omitempty"`
	SSLRootCert    string `yaml:"sslrootcert,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

type ObjectCacheConfig struct {
	RedisURL  string `yaml:"redis_url"`
	KeyPrefix string `yaml:"key_prefix"`
}

type ProjectConfig struct {
	Connection           ConnectionConfig  `yaml:"connection"`
	TablePrefix          string            `yaml:"table_prefix"`
	PreserveDomains      []string          `yaml:"preserve_domains"`
	ExcludedCommentTypes []string          `yaml:"excluded_comment_types"`
	BatchSize            int               `yaml:"batch_size"`
	ProgressEvery        int               `yaml:"progress_every"`
	PasswordCost         int               `yaml:"password_cost"`
	ObjectCache          ObjectCacheConfig `yaml:"object_cache"`
	Timeout              string            `yaml:"timeout"`
}

const ConfigFileName = "pgsanitize.yaml"

// DefaultExcludedCommentTypes are the comment types the content stage leaves alone.
var DefaultExcludedCommentTypes = []string{"pingback"}

// Load reads pgsanitize.yaml from dir.
func Load(dir string) (*ProjectConfig, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads a config file at an explicit path.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, sanitize.ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// EnvOverrides are the PGSANITIZE_* variables that override the file.
type EnvOverrides struct {
	TablePrefix     string   `env:"PGSANITIZE_TABLE_PREFIX"`
	PreserveDomains []string `env:"PGSANITIZE_PRESERVE_DOMAINS" envSeparator:","`
	BatchSize       int      `env:"PGSANITIZE_BATCH_SIZE"`
	RedisURL        string   `env:"PGSANITIZE_REDIS_URL"`
	RedisPrefix     string   `env:"PGSANITIZE_REDIS_PREFIX"`
}

// LoadEnvOverrides parses the overrides from environ, or from the process
// environment when environ is nil.
func LoadEnvOverrides(environ map[string]string) (EnvOverrides, error) {
	var o EnvOverrides
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&o, opts); err != nil {
		return EnvOverrides{}, fmt.Errorf("environment: %w: %w", sanitize.ErrInvalidConfig, err)
	}
	return o, nil
}

// FlagOverrides are the behaviour values given on the command line.
// Zero values mean the flag was not set.
type FlagOverrides struct {
	TablePrefix     string
	PreserveDomains []string
	BatchSize       int
}

// Settings is the resolved, defaulted behaviour configuration of a run.
type Settings struct {
	TablePrefix          string
	PreserveDomains      []string
	ExcludedCommentTypes []string
	BatchSize            int
	ProgressEvery        int
	PasswordCost         int
	RedisURL             string
	RedisKeyPrefix       string
	Timeout              time.Duration // zero means no deadline
}

// Resolve merges flag > environment > file > default. file may be nil.
func Resolve(file *ProjectConfig, envo EnvOverrides, flags FlagOverrides) (Settings, error) {
	if file == nil {
		file = &ProjectConfig{}
	}

	s := Settings{
		TablePrefix:          firstNonEmpty(flags.TablePrefix, envo.TablePrefix, file.TablePrefix, sanitize.DefaultTablePrefix),
		PreserveDomains:      normalizeDomains(firstNonEmptyList(flags.PreserveDomains, envo.PreserveDomains, file.PreserveDomains)),
		ExcludedCommentTypes: file.ExcludedCommentTypes,
		BatchSize:            firstPositive(flags.BatchSize, envo.BatchSize, file.BatchSize, sanitize.DefaultBatchSize),
		ProgressEvery:        firstPositive(file.ProgressEvery, sanitize.DefaultProgressEvery),
		PasswordCost:         file.PasswordCost,
		RedisURL:             firstNonEmpty(envo.RedisURL, file.ObjectCache.RedisURL),
		RedisKeyPrefix:       firstNonEmpty(envo.RedisPrefix, file.ObjectCache.KeyPrefix),
	}
	if s.ExcludedCommentTypes == nil {
		s.ExcludedCommentTypes = append([]string(nil), DefaultExcludedCommentTypes...)
	}

	var errs []error
	for _, n := range []struct {
		name  string
		value int
	}{
		{"batch_size", flags.BatchSize},
		{"PGSANITIZE_BATCH_SIZE", envo.BatchSize},
		{"batch_size in " + ConfigFileName, file.BatchSize},
		{"progress_every", file.ProgressEvery},
		{"password_cost", file.PasswordCost},
	} {
		if n.value < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d: %w", n.name, n.value, sanitize.ErrInvalidConfig))
		}
	}
	if file.Timeout != "" {
		d, err := time.ParseDuration(file.Timeout)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("invalid timeout %q: %w", file.Timeout, sanitize.ErrInvalidConfig))
		} else {
			s.Timeout = d
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmptyList(lists ...[]string) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

// normalizeDomains lowercases entries and strips a leading "@".
func normalizeDomains(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@"))
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}
