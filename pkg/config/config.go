// Package config loads the optional familygrid configuration file.
//
// The file lives at $XDG_CONFIG_HOME/familygrid/config.toml and every
// setting has a default, so a missing file is not an error:
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//
//	[render]
//	format = "svg"
//
// FAMILYGRID_MONGO_URI and FAMILYGRID_REDIS_ADDR override the file. Command
// line flags override both and are applied by the caller.
package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/familygrid/pkg/errors"
)

// Config is the complete configuration.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
	Render RenderConfig `toml:"render"`
}

// StoreConfig selects where trees are persisted.
type StoreConfig struct {
	Backend       string `toml:"backend" validate:"oneof=file mongo"`
	Dir           string `toml:"dir"`
	MongoURI      string `toml:"mongo_uri" validate:"required_if=Backend mongo"`
	MongoDatabase string `toml:"mongo_database"`
}

// CacheConfig selects where layout results are cached.
type CacheConfig struct {
	Backend       string `toml:"backend" validate:"oneof=file redis none"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db" validate:"min=0,max=15"`
}

// ServerConfig configures `familygrid serve`.
type ServerConfig struct {
	Addr        string   `toml:"addr" validate:"required,hostname_port"`
	CORSOrigins []string `toml:"cors_origins" validate:"dive,required"`
}

// RenderConfig holds rendering defaults.
type RenderConfig struct {
	Format    string  `toml:"format" validate:"oneof=json text svg dot png pdf"`
	CellWidth int     `toml:"cell_width" validate:"min=3,max=80"`
	CellSize  float64 `toml:"cell_size" validate:"gt=0"`
	Theme     string  `toml:"theme" validate:"oneof=light dark"`
}

// Environment variables read by [Load].
const (
	EnvMongoURI  = "FAMILYGRID_MONGO_URI"
	EnvRedisAddr = "FAMILYGRID_REDIS_ADDR"
)

var validate = validator.New()

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Store:  StoreConfig{Backend: "file", MongoDatabase: "familygrid"},
		Cache:  CacheConfig{Backend: "file"},
		Server: ServerConfig{Addr: ":8080"},
		Render: RenderConfig{Format: "text", CellWidth: 12, CellSize: 80, Theme: "light"},
	}
}

// Load reads the file at path on top of [Default]. An empty path means
// [Path]. A missing file yields the defaults; unknown keys and invalid
// values fail with CONFIGURATION_ERROR.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, errors.Wrap(errors.ErrCodeConfiguration, err, "locate config file")
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, errors.Wrap(errors.ErrCodeConfiguration, err, "parse %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return cfg, errors.New(errors.ErrCodeConfiguration,
				"%s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	} else if !os.IsNotExist(err) {
		return cfg, errors.Wrap(errors.ErrCodeConfiguration, err, "stat %s", path)
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if uri := os.Getenv(EnvMongoURI); uri != "" {
		c.Store.MongoURI = uri
	}
	if addr := os.Getenv(EnvRedisAddr); addr != "" {
		c.Cache.RedisAddr = addr
	}
}

// Validate checks every field constraint.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(errors.ErrCodeConfiguration, err, "invalid configuration")
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fieldMessage(fe)
	}
	return errors.New(errors.ErrCodeConfiguration, "invalid configuration: %s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "required", "required_if":
		return field + " is required"
	case "hostname_port":
		return field + " must be host:port"
	default:
		return field + " failed " + fe.Tag() + " " + fe.Param()
	}
}
