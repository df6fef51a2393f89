package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort       = 2335
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "folio_core"
	defaultDBCharset  = "utf8mb4"
	defaultRedisURL   = "redis://localhost:6379/0"
)

// AppConfig holds runtime configuration loaded from YAML, overlaid by
// environment variables (see ApplyEnv).
type AppConfig struct {
	Port     int            `yaml:"port"`
	Env      string         `yaml:"env"` // "development" | "production"
	SiteName string         `yaml:"site_name"`  // shown in emails and HTML pages
	SiteURL  string         `yaml:"site_url"`   // public web front-end
	ServerURL string        `yaml:"server_url"` // this API, used for email links
	Database DatabaseConfig `yaml:"database"`
	RedisURL string         `yaml:"redis_url"`
	Mail     MailConfig     `yaml:"mail"`
	Admin    AdminConfig    `yaml:"admin"`
	CMS      CMSConfig      `yaml:"cms"`
	GitHub   GitHubConfig   `yaml:"github"`
	Uptime   UptimeConfig   `yaml:"uptime"`
	ResumeURL string        `yaml:"resume_url"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Limits   LimitsConfig   `yaml:"limits"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
}

type MailConfig struct {
	Enable    bool   `yaml:"enable"`
	From      string `yaml:"from"`
	ReplyTo   string `yaml:"reply_to"`
	OwnerName string `yaml:"owner_name"`
	// OwnerEmail receives contact form relays and test newsletters.
	OwnerEmail string     `yaml:"owner_email"`
	ResendKey  string     `yaml:"resend_key"`
	SMTP       SMTPConfig `yaml:"smtp"`
}

type SMTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

type AdminConfig struct {
	Username  string `yaml:"username"`
	Password  string `yaml:"password"` // bootstrap credential, hashed on first start
	JWTSecret string `yaml:"jwt_secret"`
}

type CMSConfig struct {
	ProjectID  string `yaml:"project_id"`
	Dataset    string `yaml:"dataset"`
	APIVersion string `yaml:"api_version"`
	Token      string `yaml:"token"`
}

type GitHubConfig struct {
	User  string `yaml:"user"`
	Token string `yaml:"token"`
}

type UptimeConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// LimitsConfig configures the named fixed-window rate limiters.
// Zero values fall back to the defaults in DefaultLimits.
type LimitsConfig struct {
	Newsletter LimitRule `yaml:"newsletter"`
	Confirm    LimitRule `yaml:"confirm"`
	Contact    LimitRule `yaml:"contact"`
	Resume     LimitRule `yaml:"resume"`
	GDPRByIP   LimitRule `yaml:"gdpr_ip"`
	GDPRByEmail LimitRule `yaml:"gdpr_email"`
}

type LimitRule struct {
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

func (r LimitRule) orDefault(d LimitRule) LimitRule {
	if r.Max <= 0 {
		r.Max = d.Max
	}
	if r.Window <= 0 {
		r.Window = d.Window
	}
	return r
}

// DefaultLimits are the per-endpoint quotas from the product defaults.
var DefaultLimits = LimitsConfig{
	Newsletter:  LimitRule{Max: 5, Window: time.Hour},
	Confirm:     LimitRule{Max: 10, Window: time.Hour},
	Contact:     LimitRule{Max: 3, Window: time.Hour},
	Resume:      LimitRule{Max: 10, Window: time.Hour},
	GDPRByIP:    LimitRule{Max: 3, Window: time.Hour},
	GDPRByEmail: LimitRule{Max: 2, Window: 24 * time.Hour},
}

// Load reads the YAML config file, fills in defaults, applies environment
// overrides and validates the result. A missing file is not an error: the
// service can run entirely from environment variables.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	case os.IsNotExist(err):
		// env-only deployment
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg.ApplyEnv()
	cfg.Limits = normalizeLimits(cfg.Limits)

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d, expected 1-65535", cfg.Port)
	}
	if cfg.Database.DSN != "" {
		if _, err := mysql.ParseDSN(cfg.Database.DSN); err != nil {
			return nil, fmt.Errorf("invalid database.dsn: %w", err)
		}
	} else if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
		return nil, fmt.Errorf("invalid database.port %d, expected 1-65535", cfg.Database.Port)
	}
	if cfg.Env != "development" && cfg.Env != "production" {
		return nil, fmt.Errorf("invalid env %q, expected development or production", cfg.Env)
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port:     defaultPort,
		Env:      defaultEnv,
		RedisURL: defaultRedisURL,
		Database: DatabaseConfig{
			Host:     defaultDBHost,
			Port:     defaultDBPort,
			User:     defaultDBUser,
			Password: defaultDBPassword,
			Name:     defaultDBName,
			Charset:  defaultDBCharset,
		},
		CMS:    CMSConfig{Dataset: "production", APIVersion: "2024-01-01"},
		Limits: DefaultLimits,
	}
}

// ApplyEnv overlays environment variables on top of the loaded file.
// Variable names match the original deployment's .env contract.
func (c *AppConfig) ApplyEnv() {
	setString(&c.Env, "APP_ENV")
	setInt(&c.Port, "PORT")
	setString(&c.SiteName, "SITE_NAME")
	setString(&c.SiteURL, "SITE_URL")
	setString(&c.ServerURL, "SERVER_URL")
	setString(&c.Database.DSN, "DATABASE_DSN")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.Mail.ResendKey, "RESEND_API_KEY")
	setString(&c.Mail.From, "MAIL_FROM")
	setString(&c.Mail.OwnerEmail, "OWNER_EMAIL")
	setString(&c.Admin.Username, "ADMIN_USERNAME")
	setString(&c.Admin.Password, "ADMIN_PASSWORD")
	setString(&c.Admin.JWTSecret, "JWT_SECRET")
	setString(&c.CMS.ProjectID, "CMS_PROJECT_ID")
	setString(&c.CMS.Dataset, "CMS_DATASET")
	setString(&c.CMS.Token, "CMS_TOKEN")
	setString(&c.GitHub.User, "GITHUB_USER")
	setString(&c.GitHub.Token, "GITHUB_TOKEN")
	setString(&c.Uptime.APIKey, "UPTIME_API_KEY")
	setString(&c.ResumeURL, "RESUME_URL")

	if c.Mail.ResendKey != "" || c.Mail.SMTP.Host != "" {
		c.Mail.Enable = true
	}
}

func normalizeLimits(l LimitsConfig) LimitsConfig {
	return LimitsConfig{
		Newsletter:  l.Newsletter.orDefault(DefaultLimits.Newsletter),
		Confirm:     l.Confirm.orDefault(DefaultLimits.Confirm),
		Contact:     l.Contact.orDefault(DefaultLimits.Contact),
		Resume:      l.Resume.orDefault(DefaultLimits.Resume),
		GDPRByIP:    l.GDPRByIP.orDefault(DefaultLimits.GDPRByIP),
		GDPRByEmail: l.GDPRByEmail.orDefault(DefaultLimits.GDPRByEmail),
	}
}

// DSN builds the MySQL DSN from the database block unless an explicit
// dsn was given.
func (c *AppConfig) DSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port,
		c.Database.Name, c.Database.Charset)
}

// PublicURL returns the base URL used in outgoing email links.
func (c *AppConfig) PublicURL() string {
	if u := strings.TrimSpace(c.ServerURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	return strings.TrimRight(strings.TrimSpace(c.SiteURL), "/")
}

func (c *AppConfig) IsDev() bool  { return c.Env != "production" }
func (c *AppConfig) IsProd() bool { return c.Env == "production" }

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
