package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vaultview/internal/vault"
)

// ErrVaultPathRequired is returned when no vault directory is configured.
var ErrVaultPathRequired = errors.New("vault: path is required")

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Vault  VaultConfig       `yaml:"vault"`
	Render RenderConfig      `yaml:"render"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	return c.Vault.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
	// ExposeErrorDetails adds the underlying cause to 500 responses.
	ExposeErrorDetails bool `yaml:"expose_error_details"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port              int           `yaml:"port"`
	CORSOrigins       []string      `yaml:"cors_origins"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.CORSOrigins, validation.Each(validation.Required)),
		validation.Field(&c.ReadHeaderTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.IdleTimeout, validation.Min(time.Duration(0))),
	)
}

// VaultConfig holds the vault directory and walk limits.
type VaultConfig struct {
	Path         string `yaml:"path"`
	MaxDepth     int    `yaml:"max_depth"`
	VerifyImages bool   `yaml:"verify_images"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	c.Path = strings.TrimSpace(c.Path)
	if c.Path == "" {
		return ErrVaultPathRequired
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.MaxDepth, validation.Min(0), validation.Max(4096)),
	); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	return nil
}

// RenderConfig controls note rendering.
type RenderConfig struct {
	// UnsafeHTML passes raw HTML in notes through to rendered output.
	UnsafeHTML bool `yaml:"unsafe_html"`
}

// NewDefaultConfig returns a new Config with sensible default values. The
// vault path has no default and must be configured.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port:              8080,
				CORSOrigins:       []string{"*"},
				ReadHeaderTimeout: 10 * time.Second,
				IdleTimeout:       120 * time.Second,
			},
		},
		Vault: VaultConfig{
			MaxDepth: vault.DefaultMaxDepth,
		},
	}
}
