package utils

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Excel struct {
		FilePath  string `yaml:"file_path" validate:"required"`
		SheetName string `yaml:"sheet_name" validate:"required"`
	} `yaml:"excel"`
	Output struct {
		Verbose bool   `yaml:"verbose"`
		Summary bool   `yaml:"summary"`
		LogDir  string `yaml:"log_dir"`
	} `yaml:"output"`
	Provider struct {
		Name     string `yaml:"name" validate:"oneof=yahoo yahoo-summary browser polygon"`
		Timeout  int    `yaml:"timeout" validate:"gt=0"`
		APIKey   string `yaml:"api_key"`
		Headless bool   `yaml:"headless"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"provider"`
}

// DefaultConfig returns the settings used for keys missing from the file.
func DefaultConfig() *Config {
	config := &Config{}
	config.Output.Verbose = true
	config.Output.LogDir = "logs"
	config.Provider.Name = "yahoo"
	config.Provider.Timeout = 30
	config.Provider.Headless = true
	return config
}

// LoadConfig reads the YAML file at path on top of DefaultConfig and
// validates it. A .env file next to the working directory is loaded first so
// secrets such as POLYGON_API_KEY can stay out of the YAML.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("configuration file %q: %w", path, err)
	}

	err = yaml.Unmarshal(file, config)
	if err != nil {
		return nil, fmt.Errorf("configuration file %q: %w", path, err)
	}

	if config.Provider.APIKey == "" {
		config.Provider.APIKey = os.Getenv("POLYGON_API_KEY")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports every missing or invalid option at once.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		if c.Provider.Name == "polygon" && c.Provider.APIKey == "" {
			return fmt.Errorf("config validation failed:\n  provider.api_key is required for polygon (or set POLYGON_API_KEY)")
		}
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var msgs []string
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("config validation failed:\n  %s", strings.Join(msgs, "\n  "))
}

var optionNames = map[string]string{
	"Config.Excel.FilePath":   "excel.file_path",
	"Config.Excel.SheetName":  "excel.sheet_name",
	"Config.Provider.Name":    "provider.name",
	"Config.Provider.Timeout": "provider.timeout",
}

func describe(fe validator.FieldError) string {
	name, ok := optionNames[fe.Namespace()]
	if !ok {
		name = fe.Namespace()
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("required option %q not found", name)
	case "oneof":
		return fmt.Sprintf("option %q must be one of [%s], got %q", name, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("option %q is invalid (%s)", name, fe.Tag())
	}
}
