// Package config holds converter settings: defaults, presets, a YAML file
// and SIGMA2PADAS_* environment overrides, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/PhucNguyen204/sigma2padas/pkg/pdl"
)

const EnvPrefix = "SIGMA2PADAS_"

type Config struct {
	// Số worker compile song song
	Workers int `yaml:"workers"`

	// Bật compile song song; false => một worker
	EnableParallelProcessing bool `yaml:"parallel"`

	// "tokens" (mặc định) hoặc "literal"
	Substitution string `yaml:"substitution"`

	// File YAML ánh xạ field Sigma -> field PADAS (tuỳ chọn)
	FieldMapPath string `yaml:"field_map"`

	// Số khoảng trắng indent của JSON output
	Indent int `yaml:"indent"`

	LogLevel string `yaml:"log_level"`
	HTTPAddr string `yaml:"http_addr"`

	// Postgres DSN; rỗng => không ghi DB
	DSN string `yaml:"dsn"`

	// Thư mục *.sql chạy sau schema mặc định (tuỳ chọn)
	MigrationsDir string `yaml:"migrations_dir"`
}

func DefaultConfig() Config {
	return Config{
		Workers:                  runtime.NumCPU(),
		EnableParallelProcessing: true,
		Substitution:             pdl.SubstituteTokens.String(),
		Indent:                   4,
		LogLevel:                 "info",
		HTTPAddr:                 ":8080",
	}
}

// LegacyConfig reproduces the output of older converters byte for byte:
// literal substitution, one worker.
func LegacyConfig() Config {
	return DefaultConfig().
		WithSubstitution(pdl.SubstituteLiteral).
		WithParallelProcessing(false)
}

func (c Config) WithWorkers(n int) Config {
	c.Workers = n
	return c
}

func (c Config) WithParallelProcessing(enable bool) Config {
	c.EnableParallelProcessing = enable
	return c
}

func (c Config) WithSubstitution(m pdl.SubstitutionMode) Config {
	c.Substitution = m.String()
	return c
}

func (c Config) WithDSN(dsn string) Config {
	c.DSN = dsn
	return c
}

// EffectiveWorkers is 1 when parallel processing is off.
func (c Config) EffectiveWorkers() int {
	if !c.EnableParallelProcessing || c.Workers < 1 {
		return 1
	}
	return c.Workers
}

func (c Config) Mode() (pdl.SubstitutionMode, error) {
	return pdl.ParseSubstitutionMode(c.Substitution)
}

func (c Config) Validate() error {
	if _, err := c.Mode(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.Indent < 0 {
		return fmt.Errorf("indent must be >= 0, got %d", c.Indent)
	}
	return nil
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	c := DefaultConfig()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// ApplyEnv overrides fields from SIGMA2PADAS_* variables looked up with getenv.
func (c Config) ApplyEnv(getenv func(string) string) (Config, error) {
	if v := getenv(EnvPrefix + "WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("%sWORKERS: %w", EnvPrefix, err)
		}
		c.Workers = n
	}
	if v := getenv(EnvPrefix + "PARALLEL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c, fmt.Errorf("%sPARALLEL: %w", EnvPrefix, err)
		}
		c.EnableParallelProcessing = b
	}
	if v := getenv(EnvPrefix + "SUBSTITUTION"); v != "" {
		c.Substitution = v
	}
	if v := getenv(EnvPrefix + "FIELD_MAP"); v != "" {
		c.FieldMapPath = v
	}
	if v := getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvPrefix + "HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := getenv(EnvPrefix + "DB_DSN"); v != "" {
		c.DSN = v
	}
	if v := getenv(EnvPrefix + "MIGRATIONS_DIR"); v != "" {
		c.MigrationsDir = v
	}
	return c, nil
}
