package shared

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

//go:embed config.example.json
var exampleConf []byte

// MaskedSecret replaces a non-empty client secret whenever the config leaves the process.
const MaskedSecret = "••••••••"

const (
	DefaultConfigPath     = "config.json"
	DefaultTokenCachePath = ".spotify_cache"
)

// Config is the persisted server record: Spotify app credentials and the listen address.
type Config struct {
	ClientID     string `json:"client_id" toml:"client_id"`
	ClientSecret string `json:"client_secret" toml:"client_secret"`
	RedirectURI  string `json:"redirect_uri" toml:"redirect_uri"`
	Host         string `json:"host" toml:"host"`
	Port         int    `json:"port" toml:"port"`
}

// ConfigPatch is a partial update. Empty strings, a zero port and [MaskedSecret] are ignored.
type ConfigPatch struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
}

// DefaultConfig returns a Config with defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := json.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// HasCredentials reports whether both halves of the client credentials are set.
func (c Config) HasCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Masked returns a copy that is safe to hand to clients.
func (c Config) Masked() Config {
	if c.ClientSecret != "" {
		c.ClientSecret = MaskedSecret
	}
	return c
}

// Addr is the host:port the server listens on.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Apply merges the non-empty fields of p into c.
func (c *Config) Apply(p ConfigPatch) error {
	if p.Port < 0 || p.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, p.Port)
	}
	if p.ClientID != "" {
		c.ClientID = p.ClientID
	}
	if p.ClientSecret != "" && p.ClientSecret != MaskedSecret {
		c.ClientSecret = p.ClientSecret
	}
	if p.RedirectURI != "" {
		c.RedirectURI = p.RedirectURI
	}
	if p.Host != "" {
		c.Host = p.Host
	}
	if p.Port != 0 {
		c.Port = p.Port
	}
	return nil
}

// LoadConfig reads and parses a configuration file, layering it over [DefaultConfig].
//
// Files ending in .toml are decoded with [toml], everything else as JSON.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if isTOML(path) {
		err = toml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidConfig, path, err)
	}

	return config, nil
}

// SaveConfig atomically replaces the file at path with the encoded config.
func SaveConfig(path string, config *Config) error {
	data, err := encodeConfig(path, config)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, 0600)
}

// CreateConfigFile creates a config file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	return SaveConfig(path, DefaultConfig())
}

// WriteFileAtomic writes data to a temporary file next to path and renames it into place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func encodeConfig(path string, config *Config) ([]byte, error) {
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(config); err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
		return buf.Bytes(), nil
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return append(data, '\n'), nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// ConfigStore serializes access to the config file shared by every request handler.
type ConfigStore struct {
	mu     sync.Mutex
	path   string
	logger *log.Logger
}

// NewConfigStore creates a store for the file at path. A nil logger discards warnings.
func NewConfigStore(path string, logger *log.Logger) *ConfigStore {
	if path == "" {
		path = DefaultConfigPath
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ConfigStore{path: path, logger: logger}
}

// Path returns the location of the backing file.
func (s *ConfigStore) Path() string {
	return s.path
}

// Load returns the persisted config merged over the defaults. It never fails: a missing or
// unreadable file yields the defaults.
func (s *ConfigStore) Load() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save atomically overwrites the persisted record.
func (s *ConfigStore) Save(c Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SaveConfig(s.path, &c)
}

// Update runs a read-modify-write cycle while holding the store lock.
//
// fn receives the current config; the result is only written when fn returns nil.
func (s *ConfigStore) Update(fn func(*Config) error) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.load()
	if err := fn(&c); err != nil {
		return c, err
	}
	if err := SaveConfig(s.path, &c); err != nil {
		return c, err
	}
	return c, nil
}

func (s *ConfigStore) load() Config {
	config, err := LoadConfig(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to load config, using defaults", "path", s.path, "error", err)
		}
		return *DefaultConfig()
	}
	return *config
}
