package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}
	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML content on top of the defaults and validates the result.
func Parse(content []byte) (*AppConfig, error) {
	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	raw := rawAppConfig{}
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse: %w", err)
	}

	applyRawAppConfig(&cfg, raw)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseRuntimeConfig{
			Driver:    defaultDBDriver,
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		Tracing: TracingConfig{
			ServiceName: defaultTracingService,
			SampleRatio: defaultTracingSampleRatio,
		},
		Generation: GenerationConfig{
			AttemptTimeout:  defaultAttemptTimeout,
			MaxSourceChars:  defaultMaxSourceChars,
			CacheTTL:        defaultCacheTTL,
			MaxOutputTokens: defaultMaxOutputTokens,
		},
	}
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	return cfg
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw)
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.NodeEnv); v != "" {
		cfg.Env = v
	}
	cfg.Env = normalizeEnv(cfg.Env)
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.LogDir = v
	}
	if v := strings.TrimSpace(raw.LogsDir); v != "" {
		cfg.LogDir = v
	}
	if len(raw.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	}
	if len(raw.CORSAllowedOrigins) > 0 {
		cfg.AllowedOrigins = normalizeOrigins(raw.CORSAllowedOrigins)
	}
	if v := strings.TrimSpace(raw.JWTSecret); v != "" {
		cfg.JWTSecret = v
	}

	cfg.Tracing = applyRawTracingConfig(cfg.Tracing, raw.Tracing)
	cfg.AI = applyRawAIConfig(raw.AI)
	cfg.Generation = applyRawGenerationConfig(cfg.Generation, raw.Generation)

	cfg.DSN = cfg.Database.DSNValue()
	if v := strings.TrimSpace(raw.DSN); v != "" {
		cfg.DSN = v
		cfg.Database.DSN = v
	}
	if v := strings.TrimSpace(raw.DatabaseURL); v != "" {
		cfg.DSN = v
		cfg.Database.URL = v
	}
	if raw.Database.Driver == "" && raw.DBDriver == "" {
		cfg.Database.Driver = DetectDriver(cfg.DSN, cfg.Database.Driver)
	}

	cfg.RedisURL = cfg.Redis.URLValue()
	if v := normalizeRedisRawURL(raw.RedisURL); v != "" {
		cfg.RedisURL = v
	}
}

func applyRawDatabaseConfig(current DatabaseRuntimeConfig, raw rawAppConfig) DatabaseRuntimeConfig {
	next := current
	db := raw.Database
	if v := strings.TrimSpace(raw.DBDriver); v != "" {
		next.Driver = v
	}
	if v := strings.TrimSpace(db.Driver); v != "" {
		next.Driver = v
	}
	if v := strings.TrimSpace(db.DSN); v != "" {
		next.DSN = v
	}
	if v := strings.TrimSpace(db.URL); v != "" {
		next.URL = v
	}
	if v := strings.TrimSpace(raw.DBHost); v != "" {
		next.Host = v
	}
	if v := strings.TrimSpace(db.Host); v != "" {
		next.Host = v
	}
	if raw.DBPort != 0 {
		next.Port = raw.DBPort
	}
	if db.Port != 0 {
		next.Port = db.Port
	}
	if v := strings.TrimSpace(raw.DBUser); v != "" {
		next.User = v
	}
	if v := strings.TrimSpace(db.User); v != "" {
		next.User = v
	}
	if v := strings.TrimSpace(db.Username); v != "" {
		next.User = v
	}
	if v := strings.TrimSpace(raw.DBPassword); v != "" {
		next.Password = v
	}
	if v := strings.TrimSpace(db.Password); v != "" {
		next.Password = v
	}
	if v := strings.TrimSpace(raw.DBName); v != "" {
		next.Name = v
	}
	if v := strings.TrimSpace(db.Name); v != "" {
		next.Name = v
	}
	if v := strings.TrimSpace(db.DBName); v != "" {
		next.Name = v
	}
	if v := strings.TrimSpace(db.Charset); v != "" {
		next.Charset = v
	}
	if db.ParseTime != nil {
		next.ParseTime = *db.ParseTime
	}
	if v := strings.TrimSpace(db.Loc); v != "" {
		next.Loc = v
	}
	if v := strings.TrimSpace(db.SSLMode); v != "" {
		next.SSLMode = v
	}
	if db.Params != nil {
		next.Params = copyStringMap(db.Params)
	}
	next.Driver = normalizeDriver(next.Driver)
	if next.Driver == DriverPostgres && db.Port == 0 && raw.DBPort == 0 {
		next.Port = defaultPGPort
	}
	return normalizeDatabaseConfig(next)
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawAppConfig) RedisRuntimeConfig {
	next := current
	r := raw.Redis
	if v := strings.TrimSpace(r.URL); v != "" {
		next.URL = v
	}
	if v := strings.TrimSpace(raw.RedisHost); v != "" {
		next.Host = v
	}
	if v := strings.TrimSpace(r.Host); v != "" {
		next.Host = v
	}
	if raw.RedisPort != 0 {
		next.Port = raw.RedisPort
	}
	if r.Port != 0 {
		next.Port = r.Port
	}
	if v := strings.TrimSpace(r.Username); v != "" {
		next.Username = v
	}
	if v := strings.TrimSpace(raw.RedisPassword); v != "" {
		next.Password = v
	}
	if v := strings.TrimSpace(r.Password); v != "" {
		next.Password = v
	}
	if raw.RedisDB != nil {
		next.DB = *raw.RedisDB
	}
	if r.DB != nil {
		next.DB = *r.DB
	}
	if r.TLS != nil {
		next.TLS = *r.TLS
	}
	if v := strings.TrimSpace(r.Scheme); v != "" {
		next.Scheme = v
	}
	if r.Params != nil {
		next.Params = copyStringMap(r.Params)
	}
	return normalizeRedisConfig(next)
}

func applyRawTracingConfig(current TracingConfig, raw rawTracingConfig) TracingConfig {
	next := current
	if raw.Enabled != nil {
		next.Enabled = *raw.Enabled
	}
	if v := strings.TrimSpace(raw.ServiceName); v != "" {
		next.ServiceName = v
	}
	if v := strings.TrimSpace(raw.Endpoint); v != "" {
		next.Endpoint = v
	}
	if raw.Insecure != nil {
		next.Insecure = *raw.Insecure
	}
	if raw.Headers != nil {
		next.Headers = copyStringMap(raw.Headers)
	}
	if raw.SampleRatio != nil {
		next.SampleRatio = *raw.SampleRatio
	}
	return next
}

func applyRawAIConfig(raw rawAIConfig) AIConfig {
	providers := make([]AIProvider, 0, len(raw.Providers))
	for i, item := range raw.Providers {
		p := AIProvider{
			ID:       strings.TrimSpace(item.ID),
			Name:     strings.TrimSpace(item.Name),
			Type:     strings.TrimSpace(item.Type),
			APIKey:   strings.TrimSpace(item.APIKey),
			Endpoint: strings.TrimSpace(item.Endpoint),
			Model:    strings.TrimSpace(item.Model),
			Enabled:  true,
			Priority: i,
			Timeout:  item.Timeout,
		}
		if p.Model == "" {
			p.Model = strings.TrimSpace(item.DefaultModel)
		}
		if item.Enabled != nil {
			p.Enabled = *item.Enabled
		}
		if item.Priority != nil {
			p.Priority = *item.Priority
		}
		if p.Name == "" {
			p.Name = p.ID
		}
		providers = append(providers, p)
	}
	return AIConfig{Providers: providers}
}

func applyRawGenerationConfig(current GenerationConfig, raw rawGenerationConfig) GenerationConfig {
	next := current
	if raw.AttemptTimeout != 0 {
		next.AttemptTimeout = raw.AttemptTimeout
	}
	if raw.MaxSourceChars != 0 {
		next.MaxSourceChars = raw.MaxSourceChars
	}
	if raw.CacheTTL != nil {
		next.CacheTTL = *raw.CacheTTL
	}
	if raw.MaxOutputTokens != 0 {
		next.MaxOutputTokens = raw.MaxOutputTokens
	}
	return next
}

func validate(cfg *AppConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", cfg.Port)
	}
	if cfg.Database.Driver != DriverSQLite && (cfg.Database.Port < 1 || cfg.Database.Port > 65535) {
		return fmt.Errorf("invalid database.port %d, expected 1-65535", cfg.Database.Port)
	}
	if cfg.Database.Driver == DriverMySQL {
		if _, err := mysqlDriver.ParseDSN(cfg.DSN); err != nil {
			return fmt.Errorf("invalid mysql dsn: %w", err)
		}
	}
	if cfg.Redis.Port < 1 || cfg.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", cfg.Redis.Port)
	}
	if cfg.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", cfg.Redis.DB)
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		return fmt.Errorf("invalid tracing.sample_ratio %v, expected 0-1", cfg.Tracing.SampleRatio)
	}
	if cfg.Generation.AttemptTimeout <= 0 {
		return fmt.Errorf("invalid generation.attempt_timeout %s, expected > 0", cfg.Generation.AttemptTimeout)
	}
	if cfg.Generation.MaxSourceChars < 0 {
		return fmt.Errorf("invalid generation.max_source_chars %d, expected >= 0", cfg.Generation.MaxSourceChars)
	}
	if cfg.Generation.CacheTTL < 0 {
		return fmt.Errorf("invalid generation.cache_ttl %s, expected >= 0", cfg.Generation.CacheTTL)
	}

	seen := make(map[string]struct{}, len(cfg.AI.Providers))
	for i, p := range cfg.AI.Providers {
		if p.ID == "" {
			return fmt.Errorf("ai.providers[%d]: id is required", i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("ai.providers[%d]: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = struct{}{}
		if !IsKnownProviderType(p.Type) {
			return fmt.Errorf("ai.providers[%d]: unsupported type %q", i, p.Type)
		}
		if p.Timeout < 0 {
			return fmt.Errorf("ai.providers[%d]: invalid timeout %s", i, p.Timeout)
		}
	}
	return nil
}

func (c *AppConfig) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// ResolvedLogDir resolves the log directory against the executable directory.
func (c *AppConfig) ResolvedLogDir() string {
	target := strings.TrimSpace(c.LogDir)
	if target == "" {
		return ""
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	exe, err := os.Executable()
	if err != nil {
		return filepath.Clean(target)
	}
	return filepath.Clean(filepath.Join(filepath.Dir(exe), target))
}

// AttemptTimeoutFor returns the timeout budget of one provider attempt.
func (c *AppConfig) AttemptTimeoutFor(p AIProvider) time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return c.Generation.AttemptTimeout
}
