package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// EnvDSN names the environment variable that supplies the default DSN when
// none is given on the command line.
const EnvDSN = "DBSCHEMA_DSN"

// AppFs is the filesystem .env files are looked up on.
var AppFs = afero.NewOsFs()

// Config holds all application configuration.
type Config struct {
	Theme       string            `yaml:"theme"`
	Export      ExportConfig      `yaml:"export"`
	Log         LogConfig         `yaml:"log"`
	Audit       AuditConfig       `yaml:"audit"`
	History     HistoryConfig     `yaml:"history"`
	Server      ServerConfig      `yaml:"server"`
	Connections []SavedConnection `yaml:"connections"`
}

// ExportConfig holds defaults for `dbschema export`.
type ExportConfig struct {
	Format  string `yaml:"format"` // "sql", "json" or "yaml"
	Pretty  bool   `yaml:"pretty"`
	Indexes bool   `yaml:"indexes"`
	Output  string `yaml:"output"`
	Color   string `yaml:"color"` // "auto", "always" or "never"
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// AuditConfig controls the JSONL export audit log.
type AuditConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	MaxSizeMB int    `yaml:"max_size_mb"`
}

// HistoryConfig controls the export history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ServerConfig holds settings for `dbschema serve`.
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// SavedConnection holds parameters for a saved database connection.
type SavedConnection struct {
	Name     string `yaml:"name"`
	Adapter  string `yaml:"adapter"`
	DSN      string `yaml:"dsn,omitempty"`
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database,omitempty"`
	File     string `yaml:"file,omitempty"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Theme: "default",
		Export: ExportConfig{
			Format:  "sql",
			Indexes: true,
			Output:  "-",
			Color:   "auto",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Audit: AuditConfig{
			Enabled:   true,
			MaxSizeMB: 10,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}

// ConfigDir returns the dbschema configuration directory path.
// It uses os.UserConfigDir to locate the base config directory and
// appends "dbschema" to it, typically resulting in ~/.config/dbschema/.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config dir: %w", err)
	}
	return filepath.Join(base, "dbschema"), nil
}

// DefaultPath returns ConfigDir()/config.yaml.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads a Config from the YAML file at path. If the file does not exist,
// it returns DefaultConfig without error. Paths inside the file are
// "~"-expanded.
func Load(path string) (*Config, error) {
	path, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads configuration from DefaultPath.
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Save writes the Config to the YAML file at path, creating any necessary
// parent directories.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// Saved connections may carry passwords.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SaveDefault writes the Config to DefaultPath.
func (c *Config) SaveDefault() error {
	path, err := DefaultPath()
	if err != nil {
		return err
	}
	return c.Save(path)
}

// Find returns the saved connection called name, matched case-insensitively.
func (c *Config) Find(name string) (SavedConnection, bool) {
	for _, sc := range c.Connections {
		if strings.EqualFold(sc.Name, name) {
			return sc, true
		}
	}
	return SavedConnection{}, false
}

// AuditPath returns the audit log location, defaulting to
// ConfigDir()/audit.jsonl.
func (c *Config) AuditPath() (string, error) {
	return c.pathOr(c.Audit.Path, "audit.jsonl")
}

// HistoryPath returns the history database location, defaulting to
// ConfigDir()/history.db.
func (c *Config) HistoryPath() (string, error) {
	return c.pathOr(c.History.Path, "history.db")
}

func (c *Config) pathOr(path, name string) (string, error) {
	if path != "" {
		return ExpandPath(path)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (c *Config) expandPaths() error {
	var err error
	for _, p := range []*string{&c.Export.Output, &c.Audit.Path, &c.History.Path} {
		if *p, err = ExpandPath(*p); err != nil {
			return err
		}
	}
	for i := range c.Connections {
		sc := &c.Connections[i]
		if sc.File, err = ExpandPath(sc.File); err != nil {
			return err
		}
	}
	return nil
}

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", path, err)
	}
	return expanded, nil
}

// LoadEnv loads .env and then .env.local from the working directory when
// they exist. Variables already set in the environment win over .env, while
// .env.local overrides both.
func LoadEnv() error {
	if _, err := AppFs.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		if err := godotenv.Overload(".env.local"); err != nil {
			return fmt.Errorf("load .env.local: %w", err)
		}
	}
	return nil
}

// DefaultDSN returns the DSN from the DBSCHEMA_DSN environment variable.
func DefaultDSN() string {
	return strings.TrimSpace(os.Getenv(EnvDSN))
}

// BuildDSN constructs a connection string from the individual fields of a
// SavedConnection. If DSN is already set, it is returned as-is. For
// file-based adapters (sqlite, duckdb) it returns the File field. Postgres
// gets a postgres:// URL and MySQL the go-sql-driver form
// "user:password@tcp(host:port)/database".
func (sc *SavedConnection) BuildDSN() string {
	if sc.DSN != "" {
		return sc.DSN
	}

	adapter := strings.ToLower(sc.Adapter)
	if adapter == "sqlite" || adapter == "duckdb" {
		return sc.File
	}

	host := sc.Host
	if host == "" {
		host = "localhost"
	}
	if sc.Port > 0 {
		host = fmt.Sprintf("%s:%d", host, sc.Port)
	}

	if adapter == "mysql" {
		var b strings.Builder
		if sc.User != "" {
			b.WriteString(sc.User)
			if sc.Password != "" {
				b.WriteByte(':')
				b.WriteString(sc.Password)
			}
			b.WriteByte('@')
		}
		fmt.Fprintf(&b, "tcp(%s)/%s", host, sc.Database)
		return b.String()
	}

	u := url.URL{Scheme: "postgres", Host: host}
	if sc.User != "" {
		if sc.Password != "" {
			u.User = url.UserPassword(sc.User, sc.Password)
		} else {
			u.User = url.User(sc.User)
		}
	}
	if sc.Database != "" {
		u.Path = "/" + sc.Database
	}
	return u.String()
}

// DisplayString returns a human-readable representation of the connection,
// formatted as "adapter://host:port/database" for network adapters or
// "adapter://file" for file-based adapters. Credentials are never included.
func (sc *SavedConnection) DisplayString() string {
	adapter := strings.ToLower(sc.Adapter)
	if adapter == "sqlite" || adapter == "duckdb" {
		file := sc.File
		if file == "" {
			file = sc.DSN
		}
		return fmt.Sprintf("%s://%s", sc.Adapter, file)
	}

	host := sc.Host
	if host == "" {
		host = "localhost"
	}

	var location string
	if sc.Port > 0 {
		location = fmt.Sprintf("%s:%d", host, sc.Port)
	} else {
		location = host
	}

	db := sc.Database
	if db != "" {
		return fmt.Sprintf("%s://%s/%s", sc.Adapter, location, db)
	}
	return fmt.Sprintf("%s://%s", sc.Adapter, location)
}
