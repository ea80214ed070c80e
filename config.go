package taskflow

import (
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// DefaultSigningKey is only good for local development. Deployments must
// override it through TASKFLOW_AUTH_SIGNING_KEY.
const DefaultSigningKey = "change-me-in-production-with-secure-random-key"

// AuthConfig implements the Config interface
type AuthConfig struct {
	SigningKey      string   `koanf:"signing_key" json:"signing_key"`
	SigningMethod   string   `koanf:"signing_method" json:"signing_method"`
	ContextKey      string   `koanf:"context_key" json:"context_key"`
	TokenExpiration int      `koanf:"token_expiration" json:"token_expiration"`
	TokenLookup     string   `koanf:"token_lookup" json:"token_lookup"`
	AuthScheme      string   `koanf:"auth_scheme" json:"auth_scheme"`
	Issuer          string   `koanf:"issuer" json:"issuer"`
	Audience        []string `koanf:"audience" json:"audience"`
}

var _ Config = AuthConfig{}

func (c AuthConfig) GetSigningKey() string    { return c.SigningKey }
func (c AuthConfig) GetSigningMethod() string { return c.SigningMethod }
func (c AuthConfig) GetContextKey() string    { return c.ContextKey }

// GetTokenExpiration is the token TTL in minutes
func (c AuthConfig) GetTokenExpiration() int { return c.TokenExpiration }
func (c AuthConfig) GetTokenLookup() string  { return c.TokenLookup }
func (c AuthConfig) GetAuthScheme() string   { return c.AuthScheme }
func (c AuthConfig) GetIssuer() string       { return c.Issuer }
func (c AuthConfig) GetAudience() []string   { return c.Audience }

// ServerConfig holds the HTTP listener options
type ServerConfig struct {
	Addr        string   `koanf:"addr" json:"addr"`
	CORSOrigins []string `koanf:"cors_origins" json:"cors_origins"`
}

func (c ServerConfig) GetAddr() string          { return c.Addr }
func (c ServerConfig) GetCORSOrigins() []string { return c.CORSOrigins }

// PersistenceConfig holds the database options
type PersistenceConfig struct {
	Debug                 bool   `koanf:"debug" json:"debug"`
	Driver                string `koanf:"driver" json:"driver"`
	Server                string `koanf:"server" json:"server"`
	Database              string `koanf:"database" json:"database"`
	DSN                   string `koanf:"dsn" json:"dsn"`
	OtelIdentifier        string `koanf:"otel_identifier" json:"otel_identifier"`
	PingTimeoutExpression string `koanf:"ping_timeout" json:"ping_timeout"`
}

func (c PersistenceConfig) GetDebug() bool            { return c.Debug }
func (c PersistenceConfig) GetDriver() string         { return c.Driver }
func (c PersistenceConfig) GetServer() string         { return c.Server }
func (c PersistenceConfig) GetDatabase() string       { return c.Database }
func (c PersistenceConfig) GetDSN() string            { return c.DSN }
func (c PersistenceConfig) GetOtelIdentifier() string { return c.OtelIdentifier }

func (c PersistenceConfig) GetPingTimeout() time.Duration {
	dur, err := time.ParseDuration(c.PingTimeoutExpression)
	if err != nil {
		return 5 * time.Second
	}
	return dur
}

// AppConfig is the application configuration root
type AppConfig struct {
	Name        string            `koanf:"name" json:"name"`
	Server      ServerConfig      `koanf:"server" json:"server"`
	Auth        AuthConfig        `koanf:"auth" json:"auth"`
	Persistence PersistenceConfig `koanf:"persistence" json:"persistence"`
}

func (c *AppConfig) GetName() string                   { return c.Name }
func (c *AppConfig) GetServer() ServerConfig           { return c.Server }
func (c *AppConfig) GetAuth() AuthConfig               { return c.Auth }
func (c *AppConfig) GetPersistence() PersistenceConfig { return c.Persistence }

func (c *AppConfig) Validate() error {
	if c.Auth.SigningKey == "" {
		return errors.New("auth signing key must not be empty", errors.CategoryValidation)
	}
	if c.Auth.TokenExpiration < 1 {
		return errors.New("auth token expiration must be at least one minute", errors.CategoryValidation)
	}
	return nil
}

func defaults() map[string]any {
	return map[string]any{
		"name":                     "taskflow",
		"server.addr":              ":8080",
		"server.cors_origins":      []string{"http://localhost:5173", "http://localhost:3000"},
		"auth.signing_key":         DefaultSigningKey,
		"auth.signing_method":      "HS256",
		"auth.context_key":         "user",
		"auth.token_expiration":    30,
		"auth.token_lookup":        "header:Authorization",
		"auth.auth_scheme":         "Bearer",
		"auth.issuer":              "taskflow",
		"auth.audience":            []string{},
		"persistence.driver":          "sqlite",
		"persistence.database":        "taskflow",
		"persistence.dsn":             "file:taskflow.db?cache=shared&_pragma=foreign_keys(1)",
		"persistence.otel_identifier": "taskflow-db",
		"persistence.ping_timeout":    "5s",
	}
}

// LoadConfig builds the application configuration from defaults overlaid
// with TASKFLOW_ environment variables, e.g. TASKFLOW_AUTH_SIGNING_KEY maps
// to auth.signing_key.
func LoadConfig() (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load default configuration")
	}

	err := k.Load(env.Provider("TASKFLOW_", ".", func(s string) string {
		return strings.Replace(
			strings.ToLower(strings.TrimPrefix(s, "TASKFLOW_")),
			"_", ".", 1,
		)
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load environment configuration")
	}

	cfg := &AppConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to unmarshal configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
