package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dairui1/vibetunnel/errors"
	"github.com/dairui1/vibetunnel/pkg/paths"
	"github.com/dairui1/vibetunnel/util/pathutil"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configNames lists the file names searched in the config directory, in order.
var configNames = []string{
	"vibetunnel.yml",
	"vibetunnel.yaml",
	"vibetunnel.toml",
}

// Load reads and parses a configuration file. The format is chosen by extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	var cfg *Config
	if strings.HasSuffix(path, ".toml") {
		cfg, err = LoadFromTOMLBytes(data)
	} else {
		cfg, err = LoadFromBytes(data)
	}
	if err != nil {
		if vtErr, ok := errors.As(err); ok {
			vtErr.WithDetail("path", path)
		}
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads the config file from the config directory. A missing
// file is not an error: the returned config carries defaults only.
func LoadDefault() (*Config, error) {
	path, err := FindConfigFile()
	if err != nil {
		if errors.Is(err, errors.ErrCodeConfigNotFound) {
			cfg := &Config{}
			cfg.SetDefaults()
			return cfg, nil
		}
		return nil, err
	}
	return Load(path)
}

// LoadFromBytes parses YAML configuration from a byte array
func LoadFromBytes(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := []byte(expandEnvVars(string(data)))

	var config Config
	if err := yaml.Unmarshal(expanded, &config); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}

	// The schema is checked against the generic document so unknown keys in
	// nested sections are reported with their YAML names.
	var doc interface{}
	if err := yaml.Unmarshal(expanded, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}
	if doc != nil {
		validator, err := NewSchemaValidator()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to create validator")
		}
		if err := validator.Validate(doc); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "schema validation failed")
		}
	}

	config.SetDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFromTOMLBytes parses TOML configuration. The document is normalized to
// YAML so both formats share one validation path.
func LoadFromTOMLBytes(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var raw map[string]interface{}
	if err := toml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
	}

	normalized, err := yaml.Marshal(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to normalize TOML configuration")
	}

	return LoadFromBytes(normalized)
}

// FindConfigFile returns the first config file present in the config directory.
func FindConfigFile() (string, error) {
	dir := paths.ConfigDir()
	if dir == "" {
		return "", errors.ConfigNotFound("")
	}

	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	return "", errors.ConfigNotFound(dir).WithDetail("searchPath", dir)
}

// ResolveControlDir picks the control root with the precedence
// flag > VIBETUNNEL_CONTROL_DIR > control_dir in config > built-in default,
// and returns it as an absolute path.
func ResolveControlDir(flagValue string, cfg *Config) (string, error) {
	dir := flagValue
	if dir == "" {
		dir = os.Getenv(paths.EnvControlDir)
	}
	if dir == "" && cfg != nil {
		dir = cfg.ControlDir
	}
	if dir == "" {
		dir = paths.DefaultControlDir()
	}
	if dir == "" {
		return "", errors.ConfigInvalid("could not determine the control directory; set --control-dir or " + paths.EnvControlDir)
	}

	expanded, err := pathutil.Expand(dir)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to expand control directory").
			WithDetail("path", dir)
	}
	return expanded, nil
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}
