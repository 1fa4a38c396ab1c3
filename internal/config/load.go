package config

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/notify"
	"github.com/KirkDiggler/rpg-sheet/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-sheet/internal/repositories/snapshot"
)

// EnvPrefix is prepended to every environment override, e.g. SHEET_STORE_DRIVER
const EnvPrefix = "SHEET"

var defaults = map[string]any{
	"app.name":                "SW5e Character Sheet",
	"app.instance":            "",
	"store.driver":            StoreMemory,
	"store.key":               snapshot.DefaultKey,
	"store.redis_addr":        "localhost:6379",
	"store.redis_db":          0,
	"store.redis_tls":         false,
	"store.sqlite_path":       "sheet.db",
	"store.dir":               "",
	"notify.driver":           NotifyNone,
	"notify.channel":          notify.DefaultChannel,
	"notify.dir":              "",
	"notify.retention":        notify.DefaultRetention,
	"log.level":               "info",
	"log.format":              "text",
	"log.file":                "",
	"log.max_size_mb":         10,
	"log.max_backups":         3,
	"log.max_age_days":        28,
	"rules.saving_throws":     "ability",
	"rules.external_catalog":  false,
	"rules.external_base_url": "",
}

// Load reads configuration. path may be empty, in which case only defaults
// and the environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path).
				WithMeta("path", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeInvalidArgument, "failed to decode config")
	}

	if cfg.App.Instance == "" {
		cfg.App.Instance = idgen.InstanceID()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field and reports all violations at once, keyed
// by their config names
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if err := newValidator().Struct(c); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return errors.Wrap(err, "config validation could not run")
		}
		for _, fe := range fieldErrs {
			vb.Field(fieldKey(fe), describe(fe))
		}
	}

	if c.Notify.Driver == NotifyRedis && c.Store.RedisAddr == "" {
		vb.Field("store.redis_addr", "is required by the redis notify driver")
	}

	return vb.Build()
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// fieldKey turns "Config.store.redis_addr" into "store.redis_addr"
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
