package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultTokenEnv is the environment variable holding the API token.
const DefaultTokenEnv = "SI_TOKEN"

// DefaultProfile names the cache document when none is configured.
const DefaultProfile = "default"

// Config represents the main configuration for si.
type Config struct {
	Profile    string           `toml:"profile"`
	BaseURL    string           `toml:"base_url,omitempty"` // overrides the cached tenant URL
	TokenEnv   string           `toml:"token_env"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Cache      CacheConfig      `toml:"cache"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// CacheConfig selects where the cache document lives.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type CacheConfig struct {
	Type string `toml:"type"` // "file" (default), "memory", "sqlite" or "s3"

	// File-specific fields (only used when Type == "file")
	Path string `toml:"path,omitempty"`

	// SQLite-specific fields (only used when Type == "sqlite")
	DataDir string `toml:"data_dir,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
}

// EncryptionConfig controls at-rest encryption of the file cache.
type EncryptionConfig struct {
	Type          string `toml:"type"` // "none" (default), "age" or "test"
	IdentityPath  string `toml:"identity_path,omitempty"`
	RecipientPath string `toml:"recipient_path,omitempty"`
}

// NewConfig creates a new Config with default values rooted at baseDir.
// cachePath is the durable cache file location.
func NewConfig(baseDir, cachePath string) *Config {
	return &Config{
		Profile:  DefaultProfile,
		TokenEnv: DefaultTokenEnv,
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		Cache: CacheConfig{
			Type:    "file",
			Path:    cachePath,
			DataDir: filepath.Join(baseDir, "db"),
		},
		Encryption: EncryptionConfig{
			Type:          "none",
			IdentityPath:  filepath.Join(baseDir, "keys", "si.key"),
			RecipientPath: filepath.Join(baseDir, "keys", "si.pub"),
		},
	}
}

// applyDefaults fills fields left empty in a hand-written config file.
func (c *Config) applyDefaults(defaults *Config) {
	if c.Profile == "" {
		c.Profile = defaults.Profile
	}
	if c.TokenEnv == "" {
		c.TokenEnv = defaults.TokenEnv
	}
	if c.BaseDir == "" {
		c.BaseDir = defaults.BaseDir
	}
	if c.LogDir == "" {
		c.LogDir = defaults.LogDir
	}
	if c.Cache.Type == "" {
		c.Cache.Type = defaults.Cache.Type
	}
	if c.Cache.Path == "" {
		c.Cache.Path = defaults.Cache.Path
	}
	if c.Cache.DataDir == "" {
		c.Cache.DataDir = defaults.Cache.DataDir
	}
	if c.Encryption.Type == "" {
		c.Encryption.Type = defaults.Encryption.Type
	}
	if c.Encryption.IdentityPath == "" {
		c.Encryption.IdentityPath = defaults.Encryption.IdentityPath
	}
	if c.Encryption.RecipientPath == "" {
		c.Encryption.RecipientPath = defaults.Encryption.RecipientPath
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load reads the config at path and fills unset fields from defaults.
// A missing file is not an error: the defaults are returned as is.
func Load(path string, defaults *Config) (*Config, error) {
	cfg, err := ReadFromFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			copied := *defaults
			return &copied, nil
		}
		return nil, err
	}
	cfg.applyDefaults(defaults)
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
