package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultPort is assumed when a server config does not specify one.
const DefaultPort = 3306

// AppConfig holds process-level settings for the API server and the
// document location.
type AppConfig struct {
	APIHost   string `env:"API_HOST" envDefault:"0.0.0.0"`
	APIPort   int    `env:"API_PORT" envDefault:"8000"`
	OutputDir string `env:"OUTPUT_DIR" envDefault:"output"`
}

// LoadAppConfig parses AppConfig from the environment.
func LoadAppConfig() (AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("failed to parse application config: %w", err)
	}
	return cfg, nil
}

// DocumentPath is the default location of the persisted ontology document.
func (c AppConfig) DocumentPath() string {
	return filepath.Join(c.OutputDir, "ontology.json")
}

// ServerConfig identifies one MySQL/MariaDB schema to extract. ID is the
// ordinal from the DB_{N}_* variable family or the position in the config
// file.
type ServerConfig struct {
	ID       int
	Host     string
	Port     int
	Name     string
	User     string
	Password string
}

// DisplayName renders the config for logs and CLI output, without
// credentials.
func (c ServerConfig) DisplayName() string {
	return fmt.Sprintf("%s (%s:%d)", c.Name, c.Host, c.Port)
}

// ConfigurationError reports a server config entry that cannot be used.
// The entry is skipped; loading continues with the remaining ones.
type ConfigurationError struct {
	Ordinal int
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("server config %d: %s", e.Ordinal, e.Reason)
}

var serverVarPattern = regexp.MustCompile(`^DB_(\d+)_(.+)$`)

var requiredServerFields = []string{"HOST", "NAME", "USER", "PASSWORD"}

// LoadServersFromEnv scans the environment for DB_{N}_{FIELD} variables and
// assembles one ServerConfig per ordinal, ordered by ordinal. Entries with
// missing required fields or a malformed port are returned as skipped
// errors, one per ordinal.
func LoadServersFromEnv() ([]ServerConfig, []error) {
	grouped := make(map[int]map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		m := serverVarPattern.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		ordinal, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if grouped[ordinal] == nil {
			grouped[ordinal] = make(map[string]string)
		}
		grouped[ordinal][m[2]] = value
	}

	ordinals := make([]int, 0, len(grouped))
	for n := range grouped {
		ordinals = append(ordinals, n)
	}
	sort.Ints(ordinals)

	configs := make([]ServerConfig, 0, len(ordinals))
	var skipped []error
	for _, n := range ordinals {
		cfg, err := buildServerConfig(n, grouped[n])
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		configs = append(configs, cfg)
	}
	return configs, skipped
}

func buildServerConfig(ordinal int, fields map[string]string) (ServerConfig, error) {
	var missing []string
	for _, f := range requiredServerFields {
		if fields[f] == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return ServerConfig{}, &ConfigurationError{
			Ordinal: ordinal,
			Reason:  fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")),
		}
	}

	port := DefaultPort
	if raw := fields["PORT"]; raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return ServerConfig{}, &ConfigurationError{
				Ordinal: ordinal,
				Reason:  fmt.Sprintf("PORT must be an integer, got %q", raw),
			}
		}
		port = p
	}

	return ServerConfig{
		ID:       ordinal,
		Host:     fields["HOST"],
		Port:     port,
		Name:     fields["NAME"],
		User:     fields["USER"],
		Password: fields["PASSWORD"],
	}, nil
}

type serverFileEntry struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type serverFile struct {
	Servers []serverFileEntry `yaml:"servers"`
}

// LoadServersFromFile reads server definitions from a YAML file as an
// alternative to the environment. Validation matches LoadServersFromEnv;
// ordinals are 1-based list positions. The error return covers file-level
// failures (unreadable, unparseable), not per-entry ones.
func LoadServersFromFile(path string) ([]ServerConfig, []error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read server config file: %w", err)
	}

	var file serverFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse server config file: %w", err)
	}

	configs := make([]ServerConfig, 0, len(file.Servers))
	var skipped []error
	for i, entry := range file.Servers {
		fields := map[string]string{
			"HOST":     entry.Host,
			"NAME":     entry.Name,
			"USER":     entry.User,
			"PASSWORD": entry.Password,
		}
		if entry.Port != 0 {
			fields["PORT"] = strconv.Itoa(entry.Port)
		}
		cfg, err := buildServerConfig(i+1, fields)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		configs = append(configs, cfg)
	}
	return configs, skipped, nil
}

// DuplicateNames returns database names configured on more than one server,
// each once, in config order. Name-only lookups on the finished ontology
// resolve such names to the first configured server.
func DuplicateNames(configs []ServerConfig) []string {
	counts := make(map[string]int, len(configs))
	for _, cfg := range configs {
		counts[cfg.Name]++
	}

	var dups []string
	reported := make(map[string]bool)
	for _, cfg := range configs {
		if counts[cfg.Name] > 1 && !reported[cfg.Name] {
			dups = append(dups, cfg.Name)
			reported[cfg.Name] = true
		}
	}
	return dups
}
