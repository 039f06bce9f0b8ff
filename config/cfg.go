package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	validator "github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TOCConfig struct {
		TableFile       string `yaml:"table_file" validate:"required"`
		RootPath        string `yaml:"root_path" sanitize:"path_clean" validate:"required"`
		ExcludeRoot     bool   `yaml:"exclude_root"`
		FileExtension   string `yaml:"file_extension" validate:"required"`
		PrimaryFileName string `yaml:"primary_file_name" validate:"required"`
		StartMarker     string `yaml:"start_marker" validate:"required"`
		EndMarker       string `yaml:"end_marker" validate:"required,nefield=StartMarker"`
		IgnoreFileName  string `yaml:"ignore_file_name"`
		TagCacheSize    int    `yaml:"tag_cache_size" validate:"gt=0"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		TOC       TOCConfig      `yaml:"toc"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// checkTableFile makes sure target document stays inside of the scanned
// tree, otherwise it could never be found.
func checkTableFile(sl validator.StructLevel) {
	cfg, ok := sl.Current().Interface().(Config)
	if !ok {
		return
	}
	name := filepath.ToSlash(cfg.TOC.TableFile)
	if len(name) == 0 {
		return
	}
	if path.IsAbs(name) || filepath.IsAbs(cfg.TOC.TableFile) || path.Clean(name) == ".." || strings.HasPrefix(path.Clean(name), "../") {
		sl.ReportError(cfg.TOC.TableFile, "TOC.TableFile", "TableFile", "relative_to_root", "")
	}
}

// Normalize brings values to the form expected by the rest of the program.
func (c *Config) Normalize() {
	if ext := strings.TrimSpace(c.TOC.FileExtension); len(ext) > 0 && !strings.HasPrefix(ext, ".") {
		c.TOC.FileExtension = "." + ext
	} else {
		c.TOC.FileExtension = ext
	}
}

// Validate checks configuration after values were changed (for example from
// command line).
func (c *Config) Validate() error {
	c.Normalize()
	if err := gencfg.Validate(c, gencfg.WithAdditionalChecks(checkTableFile)); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
