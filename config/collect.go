package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/fatih/color"
	"github.com/muhammadmuzzammil1998/jsonc"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file used when none is passed with -c.
const DefaultFile = "config.yaml"

// CollectInfo parses the command line and loads the configuration from the file passed with -c, or from
// DefaultFile. If no file exists, the defaults are used and written back to DefaultFile. The remaining
// command line arguments are returned.
func CollectInfo() (*Config, []string, error) {
	flag.Parse()
	args := flag.Args()

	path := *argConfigFile
	if path == "" {
		path = DefaultFile
		if _, err := os.Lstat(path); os.IsNotExist(err) {
			color.Blue("Config: No config provided, will create %v automatically", path)
			c := Default()
			c.writeBackPath = path
			if err := env.ParseWithOptions(&c, env.Options{Prefix: "CNB_"}); err != nil {
				return nil, nil, fmt.Errorf("parse env: %w", err)
			}
			if err := c.Validate(); err != nil {
				return nil, nil, err
			}
			if err := WriteBackConfig(&c); err != nil {
				return nil, nil, err
			}
			return &c, args, nil
		}
	}
	c, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	return c, args, nil
}

// Load reads the configuration from the file passed and applies environment overrides on top. Files ending
// in .json or .jsonc are read as JSON with comments, all others as YAML.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %v: %w", path, err)
	}
	c := Default()
	c.writeBackPath = path
	if err := decode(path, b, &c); err != nil {
		return nil, fmt.Errorf("decode config %v: %w", path, err)
	}
	if err := env.ParseWithOptions(&c, env.Options{Prefix: "CNB_"}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func decode(path string, b []byte, c *Config) error {
	if isJSON(path) {
		return json.Unmarshal(jsonc.ToJSON(b), c)
	}
	return yaml.Unmarshal(b, c)
}

func isJSON(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".json" || ext == ".jsonc"
}

// WriteBackConfig writes the configuration to the file it was read from.
func WriteBackConfig(c *Config) error {
	fp, err := os.Create(c.writeBackPath)
	if err != nil {
		return fmt.Errorf("create config %v: %w", c.writeBackPath, err)
	}
	defer fp.Close()
	if isJSON(c.writeBackPath) {
		encoder := json.NewEncoder(fp)
		encoder.SetEscapeHTML(false)
		encoder.SetIndent("", "\t")
		err = encoder.Encode(c)
	} else {
		encoder := yaml.NewEncoder(fp)
		encoder.SetIndent(2)
		err = encoder.Encode(c)
		if cerr := encoder.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("encode config %v: %w", c.writeBackPath, err)
	}
	return nil
}
