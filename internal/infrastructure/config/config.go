package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Notes    NotesConfig    `mapstructure:"notes"`
	Static   StaticConfig   `mapstructure:"static"`
	Page     PageConfig     `mapstructure:"page"`
	Markdown MarkdownConfig `mapstructure:"markdown"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Docs     DocsConfig     `mapstructure:"docs"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment" validate:"oneof=development staging production test"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"min=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" validate:"min=0"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

// NotesConfig describes where notes live and how they are addressed
type NotesConfig struct {
	Root         string `mapstructure:"root" validate:"required"`
	Extension    string `mapstructure:"extension" validate:"required,startswith=.,excludes=/"`
	RootAlias    string `mapstructure:"root_alias" validate:"required,excludes=/,ne=.,ne=.."`
	StrictStatus bool   `mapstructure:"strict_status"`
}

// StaticConfig holds the static asset directory
type StaticConfig struct {
	Dir    string `mapstructure:"dir" validate:"required"`
	Prefix string `mapstructure:"prefix" validate:"required,startswith=/,ne=/"`
}

// PageConfig holds the shared page chrome
type PageConfig struct {
	Title           string   `mapstructure:"title"`
	HomeURL         string   `mapstructure:"home_url" validate:"required"`
	LocalStylesheet string   `mapstructure:"local_stylesheet"`
	Stylesheets     []string `mapstructure:"stylesheets"`
	Scripts         []string `mapstructure:"scripts"`
	InlineScript    string   `mapstructure:"inline_script"`
	Footer          string   `mapstructure:"footer"`
}

// MarkdownConfig holds renderer options
type MarkdownConfig struct {
	Autolink   bool   `mapstructure:"autolink"`
	Tables     bool   `mapstructure:"tables"`
	UnsafeHTML bool   `mapstructure:"unsafe_html"`
	TableClass string `mapstructure:"table_class" validate:"excludes=\""`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level" validate:"oneof=debug info warn error dpanic panic fatal"`
	Format   string `mapstructure:"format" validate:"oneof=json console"`
	Output   string `mapstructure:"output" validate:"oneof=stdout stderr file"`
	Filename string `mapstructure:"filename" validate:"required_if=Output file"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests" validate:"min=0"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window" validate:"min=0"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"omitempty,startswith=/"`
}

// DocsConfig toggles the swagger UI
type DocsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from .env, an optional config file and the environment
func Load(configFile string) (*Config, error) {
	v, err := NewViper(configFile)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// NewViper prepares a viper instance with defaults, env bindings and the
// config file. Callers may bind command line flags before FromViper.
func NewViper(configFile string) (*viper.Viper, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnvVars(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("notesweb")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v, nil
}

// FromViper unmarshals and validates the configuration
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "notesweb")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Notes defaults
	v.SetDefault("notes.root", "./notes")
	v.SetDefault("notes.extension", ".md")
	v.SetDefault("notes.root_alias", "root-folder")
	v.SetDefault("notes.strict_status", false)

	// Static defaults
	v.SetDefault("static.dir", "./static")
	v.SetDefault("static.prefix", "/static")

	// Page defaults
	v.SetDefault("page.title", "Notes")
	v.SetDefault("page.home_url", "/")
	v.SetDefault("page.local_stylesheet", "/static/style.css")
	v.SetDefault("page.stylesheets", []string{
		"https://fonts.googleapis.com/css2?family=Nunito&display=swap",
		"https://unpkg.com/purecss@2.0.3/build/pure-min.css",
		"//cdnjs.cloudflare.com/ajax/libs/highlight.js/10.1.2/styles/github.min.css",
	})
	v.SetDefault("page.scripts", []string{
		"//cdnjs.cloudflare.com/ajax/libs/highlight.js/10.1.2/highlight.min.js",
	})
	v.SetDefault("page.inline_script", "hljs.initHighlightingOnLoad();")
	v.SetDefault("page.footer", "Personal notes")

	// Markdown defaults
	v.SetDefault("markdown.autolink", true)
	v.SetDefault("markdown.tables", true)
	v.SetDefault("markdown.unsafe_html", false)
	v.SetDefault("markdown.table_class", "pure-table pure-table-horizontal")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.filename", "")

	// Security defaults
	v.SetDefault("security.cors_allowed_origins", "*")
	v.SetDefault("security.rate_limit_requests", 100)
	v.SetDefault("security.rate_limit_window", "1m")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Docs defaults
	v.SetDefault("docs.enabled", true)
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "APP_NAME")
	v.BindEnv("app.version", "APP_VERSION")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("app.debug", "APP_DEBUG")

	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.host", "SERVER_HOST")
	v.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	v.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	v.BindEnv("server.idle_timeout", "SERVER_IDLE_TIMEOUT")
	v.BindEnv("server.request_timeout", "SERVER_REQUEST_TIMEOUT")
	v.BindEnv("server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT")

	// Notes
	v.BindEnv("notes.root", "NOTES_ROOT")
	v.BindEnv("notes.extension", "NOTES_EXTENSION")
	v.BindEnv("notes.root_alias", "NOTES_ROOT_ALIAS")
	v.BindEnv("notes.strict_status", "NOTES_STRICT_STATUS")

	// Static
	v.BindEnv("static.dir", "STATIC_DIR")
	v.BindEnv("static.prefix", "STATIC_PREFIX")

	// Page
	v.BindEnv("page.title", "PAGE_TITLE")
	v.BindEnv("page.home_url", "PAGE_HOME_URL")
	v.BindEnv("page.local_stylesheet", "PAGE_LOCAL_STYLESHEET")
	v.BindEnv("page.stylesheets", "PAGE_STYLESHEETS")
	v.BindEnv("page.scripts", "PAGE_SCRIPTS")
	v.BindEnv("page.inline_script", "PAGE_INLINE_SCRIPT")
	v.BindEnv("page.footer", "PAGE_FOOTER")

	// Markdown
	v.BindEnv("markdown.autolink", "MARKDOWN_AUTOLINK")
	v.BindEnv("markdown.tables", "MARKDOWN_TABLES")
	v.BindEnv("markdown.unsafe_html", "MARKDOWN_UNSAFE_HTML")
	v.BindEnv("markdown.table_class", "MARKDOWN_TABLE_CLASS")

	// Logger
	v.BindEnv("logger.level", "LOG_LEVEL")
	v.BindEnv("logger.format", "LOG_FORMAT")
	v.BindEnv("logger.output", "LOG_OUTPUT")
	v.BindEnv("logger.filename", "LOG_FILENAME")

	// Security
	v.BindEnv("security.cors_allowed_origins", "CORS_ALLOWED_ORIGINS")
	v.BindEnv("security.rate_limit_requests", "RATE_LIMIT_REQUESTS")
	v.BindEnv("security.rate_limit_window", "RATE_LIMIT_WINDOW")

	// Metrics
	v.BindEnv("metrics.enabled", "ENABLE_METRICS")
	v.BindEnv("metrics.path", "METRICS_PATH")

	// Docs
	v.BindEnv("docs.enabled", "ENABLE_DOCS")
}

var validate = validator.New()

func validateConfig(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.Notes.RootAlias == strings.Trim(cfg.Static.Prefix, "/") {
		return fmt.Errorf("notes root alias %q collides with the static prefix", cfg.Notes.RootAlias)
	}

	return nil
}

// Address returns the host:port the server listens on
func (cfg *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}

// IsProduction returns true if the environment is production
func (cfg *AppConfig) IsProduction() bool {
	return cfg.Environment == "production"
}

// CORSOrigins splits the comma separated origin list
func (cfg *SecurityConfig) CORSOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(cfg.CORSAllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
