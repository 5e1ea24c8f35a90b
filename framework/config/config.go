package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override: KERNEL_APP_NAME, ...
const EnvPrefix = "KERNEL"

// Settings is the kernel's typed configuration.
type Settings struct {
	App    AppConfig           `mapstructure:"app"`
	Log    LogConfig           `mapstructure:"log"`
	View   ViewConfig          `mapstructure:"view"`
	Scopes map[string][]string `mapstructure:"scopes"`
}

type AppConfig struct {
	Name  string `mapstructure:"name" validate:"required"`
	Env   string `mapstructure:"env" validate:"oneof=local production testing"` // local | production | testing
	Debug bool   `mapstructure:"debug"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

type ViewConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
	Ext string `mapstructure:"ext" validate:"required"`
}

// IsLocal reports APP_ENV == local.
func (s *Settings) IsLocal() bool { return s.App.Env == "local" }

// IsProduction reports APP_ENV == production.
func (s *Settings) IsProduction() bool { return s.App.Env == "production" }

// Load reads <base>/.env (if present), then <base>/config/kernel.{yaml,json,toml}
// (if present), then KERNEL_* environment overrides, and validates the result.
//
//	settings, err := config.Load("/srv/app")
func Load(base string) (*Settings, error) {
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(filepath.Join(base, ".env"))

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("kernel")
	v.AddConfigPath(filepath.Join(base, "config"))
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "config: reading kernel settings under %s", base)
		}
	}

	var s Settings
	if err := decode(v, &s); err != nil {
		return nil, err
	}
	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Defaults returns the settings Load produces with no files and no overrides.
func Defaults() *Settings {
	v := viper.New()
	setDefaults(v)
	var s Settings
	_ = decode(v, &s)
	return &s
}

// Validate checks the struct tags of s.
func Validate(s *Settings) error {
	if err := validator.New().Struct(s); err != nil {
		return errors.Wrap(err, "config: invalid kernel settings")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Kernel")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.debug", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("view.dir", "views")
	v.SetDefault("view.ext", ".html")
	v.SetDefault("scopes", map[string][]string{
		"application": {"/app"},
		"kli":         {"/kli"},
	})
}

// decode resolves every known key through viper, so env overrides apply to
// nested fields, and maps the result onto out.
func decode(v *viper.Viper, out *Settings) error {
	raw := map[string]any{
		"app": map[string]any{
			"name":  v.GetString("app.name"),
			"env":   v.GetString("app.env"),
			"debug": v.GetBool("app.debug"),
		},
		"log":    map[string]any{"level": v.GetString("log.level")},
		"view":   map[string]any{"dir": v.GetString("view.dir"), "ext": v.GetString("view.ext")},
		"scopes": v.Get("scopes"),
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return errors.Wrap(err, "config: building decoder")
	}
	if err := dec.Decode(raw); err != nil {
		return errors.Wrap(err, "config: decoding kernel settings")
	}
	return nil
}
