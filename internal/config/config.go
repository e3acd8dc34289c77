// Package config loads the optional .devsetup project file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Default values for runner configuration.
const (
	DefaultTimeout   = 0       // installers block until completion
	DefaultMaxOutput = 1 << 20 // 1 MB
)

// Default project layout.
const (
	DefaultMarker       = "README.md"
	DefaultMinPython    = "3.8.0"
	DefaultVenvDir      = "venv"
	DefaultRequirements = "requirements.txt"
	DefaultBackendDir   = "backend"
	DefaultManifest     = "package.json"
	DefaultEnvFile      = ".env"
	DefaultEnvTemplate  = ".env.example"
	DefaultAppURL       = "http://localhost:3000"
)

// CurrentVersion is the newest project file format this build reads.
const CurrentVersion = 1

// FileNames lists the project file names Load looks for, in order.
var FileNames = []string{".devsetup.yaml", ".devsetup.yml", ".devsetup.toml"}

// Config holds the parsed project file.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version      int            `yaml:"version" toml:"version"`       // 0 or CurrentVersion
	Name         string         `yaml:"name" toml:"name"`             // shown in the header
	Marker       string         `yaml:"marker" toml:"marker"`         // file that marks the project root
	RawTimeout   string         `yaml:"timeout" toml:"timeout"`       // e.g. "10m"; empty means none
	RawMaxOutput int            `yaml:"max_output" toml:"max_output"` // bytes
	Steps        []string       `yaml:"steps" toml:"steps"`           // default: [backend, python, frontend, env]
	Tools        []string       `yaml:"tools" toml:"tools"`           // default: [node, npm]
	Python       PythonConfig   `yaml:"python" toml:"python"`
	Backend      BackendConfig  `yaml:"backend" toml:"backend"`
	Frontend     FrontendConfig `yaml:"frontend" toml:"frontend"`
	Env          EnvConfig      `yaml:"env" toml:"env"`
	NextSteps    []string       `yaml:"next_steps" toml:"next_steps"`
	AppURL       string         `yaml:"app_url" toml:"app_url"`
}

// PythonConfig controls the interpreter check and the virtual environment.
type PythonConfig struct {
	Interpreter  string `yaml:"interpreter" toml:"interpreter"`   // default: python3 (python on Windows)
	MinVersion   string `yaml:"min_version" toml:"min_version"`   // default: 3.8.0
	VenvDir      string `yaml:"venv" toml:"venv"`                 // default: venv
	Requirements string `yaml:"requirements" toml:"requirements"` // default: requirements.txt
}

// BackendConfig controls the backend install step.
type BackendConfig struct {
	Dir     string   `yaml:"dir" toml:"dir"`         // default: backend
	Install []string `yaml:"install" toml:"install"` // default: [npm, install]
}

// FrontendConfig controls the top-level install step.
type FrontendConfig struct {
	Manifest string   `yaml:"manifest" toml:"manifest"` // default: package.json
	Install  []string `yaml:"install" toml:"install"`   // default: [npm, install]
}

// EnvConfig names the environment file and its template.
type EnvConfig struct {
	File     string `yaml:"file" toml:"file"`         // default: .env
	Template string `yaml:"template" toml:"template"` // default: .env.example
}

// DefaultSteps are used when no steps are configured.
var DefaultSteps = []string{"backend", "python", "frontend", "env"}

// DefaultTools are the external tools probed with --version.
var DefaultTools = []string{"node", "npm"}

// DefaultInstall is the package manager install command.
var DefaultInstall = []string{"npm", "install"}

// Timeout returns the configured timeout, or zero for none.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

// MaxOutputBytes returns the configured max output size or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// ProjectName returns the configured name or the workspace directory name.
func (c *Config) ProjectName(workspace string) string {
	if c.Name != "" {
		return c.Name
	}
	return filepath.Base(workspace)
}

// MarkerFile returns the project root marker.
func (c *Config) MarkerFile() string {
	return orDefault(c.Marker, DefaultMarker)
}

// SetupSteps returns the configured steps, falling back to defaults.
func (c *Config) SetupSteps() []string {
	if len(c.Steps) > 0 {
		return c.Steps
	}
	return DefaultSteps
}

// RequiredTools returns the configured tools, falling back to defaults.
func (c *Config) RequiredTools() []string {
	if len(c.Tools) > 0 {
		return c.Tools
	}
	return DefaultTools
}

// PythonInterpreter returns the interpreter to probe and to create the
// virtual environment with.
func (c *Config) PythonInterpreter(goos string) string {
	if c.Python.Interpreter != "" {
		return c.Python.Interpreter
	}
	if goos == "windows" {
		return "python"
	}
	return "python3"
}

// MinPythonVersion returns the minimum interpreter version.
func (c *Config) MinPythonVersion() string {
	return orDefault(c.Python.MinVersion, DefaultMinPython)
}

// VenvDir returns the virtual environment directory.
func (c *Config) VenvDir() string {
	return orDefault(c.Python.VenvDir, DefaultVenvDir)
}

// RequirementsFile returns the pip requirements file.
func (c *Config) RequirementsFile() string {
	return orDefault(c.Python.Requirements, DefaultRequirements)
}

// BackendDir returns the backend subdirectory.
func (c *Config) BackendDir() string {
	return orDefault(c.Backend.Dir, DefaultBackendDir)
}

// BackendInstall returns the backend install argv.
func (c *Config) BackendInstall() []string {
	if len(c.Backend.Install) > 0 {
		return c.Backend.Install
	}
	return DefaultInstall
}

// FrontendManifest returns the manifest whose presence enables the frontend step.
func (c *Config) FrontendManifest() string {
	return orDefault(c.Frontend.Manifest, DefaultManifest)
}

// FrontendInstall returns the frontend install argv.
func (c *Config) FrontendInstall() []string {
	if len(c.Frontend.Install) > 0 {
		return c.Frontend.Install
	}
	return DefaultInstall
}

// EnvFile returns the environment file name.
func (c *Config) EnvFile() string {
	return orDefault(c.Env.File, DefaultEnvFile)
}

// EnvTemplate returns the environment template file name.
func (c *Config) EnvTemplate() string {
	return orDefault(c.Env.Template, DefaultEnvTemplate)
}

// NextStepLines returns the guidance printed after a successful run.
func (c *Config) NextStepLines() []string {
	if len(c.NextSteps) > 0 {
		return c.NextSteps
	}
	install := c.BackendInstall()
	return []string{
		fmt.Sprintf("Update %s file with your API keys", c.EnvFile()),
		fmt.Sprintf("Start backend: cd %s && %s start", c.BackendDir(), install[0]),
		fmt.Sprintf("Start frontend: %s start", c.FrontendInstall()[0]),
		fmt.Sprintf("Open %s in your browser", orDefault(c.AppURL, DefaultAppURL)),
	}
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

// LoadResult holds the parsed config and where it came from.
type LoadResult struct {
	Config *Config
	Path   string // empty when no project file exists
}

// Load reads the first project file found in workspace. The format is
// chosen by extension. If no project file exists, a default Config is
// returned.
func Load(workspace string) (*LoadResult, error) {
	for _, name := range FileNames {
		path := filepath.Join(workspace, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}

		cfg := &Config{}
		if filepath.Ext(name) == ".toml" {
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", name, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		if cfg.Version > CurrentVersion {
			return nil, fmt.Errorf("%s: unsupported version %d (this devsetup reads up to %d)", name, cfg.Version, CurrentVersion)
		}
		return &LoadResult{Config: cfg, Path: path}, nil
	}
	return &LoadResult{Config: &Config{}}, nil
}
