// Package routing renders and persists cloudflared routing configs. The file
// layout is a compatibility contract with the cloudflared runtime: tunnel id,
// credentials file, and an ordered ingress list ending in a catch-all rule.
package routing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/silkstream/tunnelctl/internal/logging"
	"github.com/silkstream/tunnelctl/internal/tunnel"
)

// ErrExists is returned when the target config file already exists and
// overwriting was not requested.
var ErrExists = fmt.Errorf("config file already exists")

// Ingress is a single routing rule. The final rule of every config has only
// Service set and acts as the catch-all.
type Ingress struct {
	Hostname string `yaml:"hostname,omitempty"`
	Service  string `yaml:"service"`
}

// Config is the on-disk document consumed by the tunnel runtime.
type Config struct {
	Tunnel          string    `yaml:"tunnel"`
	CredentialsFile string    `yaml:"credentials-file"`
	Ingress         []Ingress `yaml:"ingress"`
}

// Writer persists routing configs into Dir, one file per config name.
type Writer struct {
	// Dir is the directory holding config files.
	Dir string

	// Overwrite permits replacing an existing config of the same name.
	// When false, Write fails with ErrExists instead.
	Overwrite bool

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Path returns the config file path for a config name.
func (w *Writer) Path(configName string) string {
	return filepath.Join(w.Dir, configName+".yml")
}

// pathLock serializes writers targeting the same config name. Different
// names proceed independently.
func (w *Writer) pathLock(configName string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.locks == nil {
		w.locks = make(map[string]*sync.Mutex)
	}
	l, ok := w.locks[configName]
	if !ok {
		l = &sync.Mutex{}
		w.locks[configName] = l
	}
	return l
}

// Write renders the routing config binding hostname to 127.0.0.1:port through
// the given tunnel and persists it atomically. It returns the absolute final
// path on success.
func (w *Writer) Write(configName string, identity tunnel.Identity, hostname string, port int) (string, error) {
	lock := w.pathLock(configName)
	lock.Lock()
	defer lock.Unlock()

	cfg := Config{
		Tunnel:          identity.UUID,
		CredentialsFile: identity.CredentialsPath,
		Ingress: []Ingress{
			{Hostname: hostname, Service: fmt.Sprintf("http://127.0.0.1:%d", port)},
			{Service: "http_status:404"},
		},
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}

	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	path := w.Path(configName)
	if !w.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%w: %s", ErrExists, path)
		}
	}

	if err := writeFileAtomic(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	logging.Debug("routing config written", "path", abs, "tunnel", identity.UUID, "hostname", hostname)
	return abs, nil
}

// writeFileAtomic writes via a temp file in the same directory and renames it
// into place, so a crash mid-write never leaves a partial config readable by
// the tunnel runtime.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// Load reads a previously written config by name.
func (w *Writer) Load(configName string) (*Config, error) {
	data, err := os.ReadFile(w.Path(configName))
	if err != nil {
		return nil, fmt.Errorf("config not found: %s", configName)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", configName, err)
	}
	return &cfg, nil
}

// Entry pairs a config name with its parsed contents, for listings.
type Entry struct {
	Name   string
	Config *Config
}

// List returns every parseable config in Dir, sorted by directory order.
func (w *Writer) List() ([]Entry, error) {
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var out []Entry
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yml") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".yml")
		cfg, err := w.Load(name)
		if err != nil {
			logging.Debug("skipping unparseable config", "name", name, "error", err)
			continue
		}
		out = append(out, Entry{Name: name, Config: cfg})
	}
	return out, nil
}

// Delete removes a config file by name. The remote tunnel it referenced is
// untouched.
func (w *Writer) Delete(configName string) error {
	lock := w.pathLock(configName)
	lock.Lock()
	defer lock.Unlock()
	return os.Remove(w.Path(configName))
}

// PrimaryHostname returns the hostname of the first ingress rule, or "" for
// a config holding only the catch-all.
func (c *Config) PrimaryHostname() string {
	for _, ing := range c.Ingress {
		if ing.Hostname != "" {
			return ing.Hostname
		}
	}
	return ""
}
