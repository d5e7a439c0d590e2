package config

import "time"

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	DSN            string                `yaml:"dsn"`
	RedisURL       string                `yaml:"redis_url"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	Env            string                `yaml:"env"` // "development" | "production"
	LogDir         string                `yaml:"log_dir"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	JWTSecret      string                `yaml:"jwt_secret"`
	Tracing        TracingConfig         `yaml:"tracing"`
	AI             AIConfig              `yaml:"ai"`
	Generation     GenerationConfig      `yaml:"generation"`
}

type DatabaseRuntimeConfig struct {
	Driver    string            `yaml:"driver"` // mysql | postgres | sqlite
	DSN       string            `yaml:"dsn"`
	URL       string            `yaml:"url"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	DBName    string            `yaml:"db_name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	SSLMode   string            `yaml:"sslmode"`
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       int               `yaml:"db"`
	TLS      bool              `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
}

type TracingConfig struct {
	Enabled     bool              `yaml:"enabled"`
	ServiceName string            `yaml:"service_name"`
	Endpoint    string            `yaml:"endpoint"` // empty: stdout exporter
	Insecure    bool              `yaml:"insecure"`
	Headers     map[string]string `yaml:"headers"`
	SampleRatio float64           `yaml:"sample_ratio"`
}

// AIConfig lists the text-generation providers in preference order.
type AIConfig struct {
	Providers []AIProvider `yaml:"providers"`
}

type AIProvider struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Type     string        `yaml:"type"` // OpenAI | OpenAI-Compatible | Anthropic | OpenRouter
	APIKey   string        `yaml:"api_key"`
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	Enabled  bool          `yaml:"enabled"`
	Priority int           `yaml:"priority"`
	Timeout  time.Duration `yaml:"timeout"`
}

type GenerationConfig struct {
	AttemptTimeout  time.Duration `yaml:"attempt_timeout"`
	MaxSourceChars  int           `yaml:"max_source_chars"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
}

type rawAppConfig struct {
	Port               int                 `yaml:"port"`
	DSN                string              `yaml:"dsn"`
	DatabaseURL        string              `yaml:"database_url"`
	RedisURL           string              `yaml:"redis_url"`
	Database           rawDatabaseConfig   `yaml:"database"`
	Redis              rawRedisConfig      `yaml:"redis"`
	DBDriver           string              `yaml:"db_driver"`
	DBHost             string              `yaml:"db_host"`
	DBPort             int                 `yaml:"db_port"`
	DBUser             string              `yaml:"db_user"`
	DBPassword         string              `yaml:"db_password"`
	DBName             string              `yaml:"db_name"`
	RedisHost          string              `yaml:"redis_host"`
	RedisPort          int                 `yaml:"redis_port"`
	RedisPassword      string              `yaml:"redis_password"`
	RedisDB            *int                `yaml:"redis_db"`
	Env                string              `yaml:"env"`
	NodeEnv            string              `yaml:"node_env"`
	LogDir             string              `yaml:"log_dir"`
	LogsDir            string              `yaml:"logs_dir"`
	AllowedOrigins     []string            `yaml:"allowed_origins"`
	CORSAllowedOrigins []string            `yaml:"cors_allowed_origins"`
	JWTSecret          string              `yaml:"jwt_secret"`
	Tracing            rawTracingConfig    `yaml:"tracing"`
	AI                 rawAIConfig         `yaml:"ai"`
	Generation         rawGenerationConfig `yaml:"generation"`
}

type rawDatabaseConfig struct {
	Driver    string            `yaml:"driver"`
	DSN       string            `yaml:"dsn"`
	URL       string            `yaml:"url"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	DBName    string            `yaml:"db_name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	SSLMode   string            `yaml:"sslmode"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       *int              `yaml:"db"`
	TLS      *bool             `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
}

type rawTracingConfig struct {
	Enabled     *bool             `yaml:"enabled"`
	ServiceName string            `yaml:"service_name"`
	Endpoint    string            `yaml:"endpoint"`
	Insecure    *bool             `yaml:"insecure"`
	Headers     map[string]string `yaml:"headers"`
	SampleRatio *float64          `yaml:"sample_ratio"`
}

type rawAIConfig struct {
	Providers []rawAIProvider `yaml:"providers"`
}

type rawAIProvider struct {
	ID           string        `yaml:"id"`
	Name         string        `yaml:"name"`
	Type         string        `yaml:"type"`
	APIKey       string        `yaml:"api_key"`
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	DefaultModel string        `yaml:"default_model"`
	Enabled      *bool         `yaml:"enabled"`
	Priority     *int          `yaml:"priority"`
	Timeout      time.Duration `yaml:"timeout"`
}

type rawGenerationConfig struct {
	AttemptTimeout  time.Duration  `yaml:"attempt_timeout"`
	MaxSourceChars  int            `yaml:"max_source_chars"`
	CacheTTL        *time.Duration `yaml:"cache_ttl"`
	MaxOutputTokens int            `yaml:"max_output_tokens"`
}
