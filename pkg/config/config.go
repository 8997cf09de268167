// Package config loads named connection profiles from YAML and resolves
// them into live connections. Environment variables override file values
// so CI and local runs can share one profile file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cypherbridge/pkg/client"
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ErrProfileNotFound indicates the requested profile name is absent from
// the loaded configuration.
var ErrProfileNotFound = errors.New("connection profile not found")

// Profile describes one named database endpoint. Token wins over
// username/password when both are present; with neither, the connection
// is unauthenticated.
type Profile struct {
	URI      string `yaml:"uri" validate:"required,uri"`
	Database string `yaml:"database" validate:"omitempty,max=63"`
	Username string `yaml:"username" validate:"omitempty,min=1"`
	Password string `yaml:"password" validate:"omitempty"`
	Token    string `yaml:"token" validate:"omitempty"`
}

// Config is the root of a profile file.
type Config struct {
	DefaultProfile string             `yaml:"default_profile" validate:"omitempty,min=1"`
	Profiles       map[string]Profile `yaml:"profiles" validate:"required,min=1,dive"`
}

// Load reads a YAML profile file, applies environment overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes, applies environment overrides, and validates
// the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overlays CYPHERBRIDGE_* variables onto the default profile.
// Only set variables override; empty values in the environment are
// ignored.
func (c *Config) applyEnv() {
	if v := os.Getenv("CYPHERBRIDGE_DEFAULT_PROFILE"); v != "" {
		c.DefaultProfile = v
	}

	name := c.DefaultProfile
	if name == "" {
		return
	}
	p, ok := c.Profiles[name]
	if !ok {
		return
	}
	if v := os.Getenv("CYPHERBRIDGE_URI"); v != "" {
		p.URI = v
	}
	if v := os.Getenv("CYPHERBRIDGE_DATABASE"); v != "" {
		p.Database = v
	}
	if v := os.Getenv("CYPHERBRIDGE_USERNAME"); v != "" {
		p.Username = v
	}
	if v := os.Getenv("CYPHERBRIDGE_PASSWORD"); v != "" {
		p.Password = v
	}
	if v := os.Getenv("CYPHERBRIDGE_TOKEN"); v != "" {
		p.Token = v
	}
	c.Profiles[name] = p
}

// Validate checks structural constraints and that the default profile,
// when named, actually exists.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if c.DefaultProfile != "" {
		if _, ok := c.Profiles[c.DefaultProfile]; !ok {
			return fmt.Errorf("%w: default profile %q", ErrProfileNotFound, c.DefaultProfile)
		}
	}
	return nil
}

// Profile returns the named profile, or the default profile when name is
// empty.
func (c *Config) Profile(name string) (Profile, error) {
	if name == "" {
		name = c.DefaultProfile
	}
	if name == "" {
		return Profile{}, fmt.Errorf("%w: no profile named and no default set", ErrProfileNotFound)
	}
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	return p, nil
}

// Connect resolves the named profile into a Connection, picking the
// credential scheme from the profile's fields.
func (c *Config) Connect(name string, opts ...client.Option) (*client.Connection, error) {
	p, err := c.Profile(name)
	if err != nil {
		return nil, err
	}
	if p.Database != "" {
		opts = append(opts, client.WithDatabase(p.Database))
	}
	switch {
	case p.Token != "":
		return client.ConnectWithToken(p.URI, p.Token, opts...)
	case p.Username != "":
		return client.ConnectWithAuth(p.URI, p.Username, p.Password, opts...)
	default:
		return client.Connect(p.URI, opts...)
	}
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "uri":
			return fmt.Errorf("%s: must be a valid URI", field)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
