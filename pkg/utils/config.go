package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"platehub/pkg/models"
)

const envPrefix = "PLATEHUB"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Collection CollectionConfig `mapstructure:"collection"`
	Images     ImageConfig      `mapstructure:"images"`
	Logging    LogConfig        `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	SyncAddr       string   `mapstructure:"sync_addr"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer"`
	JWTDuration time.Duration `mapstructure:"jwt_duration"`
}

// CatalogConfig lists where the plate catalog comes from. Path is a local CSV;
// MirrorURL, when set, is fetched as a second source.
type CatalogConfig struct {
	Path      string        `mapstructure:"path"`
	MirrorURL string        `mapstructure:"mirror_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type CollectionConfig struct {
	DataDir     string `mapstructure:"data_dir"`
	MaxGames    int    `mapstructure:"max_games"`
	RegionGoal  int    `mapstructure:"region_goal"`
	DefaultMode string `mapstructure:"default_mode"`
}

type ImageConfig struct {
	Dir             string        `mapstructure:"dir"`
	CacheSize       int           `mapstructure:"cache_size"`
	MissTTL         time.Duration `mapstructure:"miss_ttl"`
	PressurePercent float64       `mapstructure:"pressure_percent"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DataHome is ~/.platehub, or ./.platehub when no home directory is known.
func DataHome() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".platehub")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
}

func setDefaults(v *viper.Viper) {
	base := DataHome()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.sync_addr", ":7070")
	v.SetDefault("server.trusted_proxies", []string{"127.0.0.1"})

	v.SetDefault("database.path", filepath.Join(base, "data.db"))

	// dev default (change for production)
	v.SetDefault("auth.jwt_secret", "dev-secret-change-me")
	v.SetDefault("auth.jwt_issuer", "platehub")
	v.SetDefault("auth.jwt_duration", 24*time.Hour)

	v.SetDefault("catalog.path", filepath.Join("data", "plates.csv"))
	v.SetDefault("catalog.mirror_url", "")
	v.SetDefault("catalog.timeout", 10*time.Second)

	v.SetDefault("collection.data_dir", filepath.Join(base, "collection"))
	v.SetDefault("collection.max_games", 5)
	v.SetDefault("collection.region_goal", 51)
	v.SetDefault("collection.default_mode", "one_per_region")

	v.SetDefault("images.dir", filepath.Join("data", "images"))
	v.SetDefault("images.cache_size", 256)
	v.SetDefault("images.miss_ttl", 5*time.Minute)
	v.SetDefault("images.pressure_percent", 90.0)
	v.SetDefault("images.poll_interval", 30*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// LoadConfig reads defaults, then an optional YAML file, then PLATEHUB_*
// environment variables (PLATEHUB_COLLECTION_MAX_GAMES and so on).
// An empty path searches ./platehub.yaml and ~/.platehub/platehub.yaml.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("platehub")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DataHome())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Database.Path = ExpandHome(cfg.Database.Path)
	cfg.Catalog.Path = ExpandHome(cfg.Catalog.Path)
	cfg.Collection.DataDir = ExpandHome(cfg.Collection.DataDir)
	cfg.Images.Dir = ExpandHome(cfg.Images.Dir)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Collection.MaxGames <= 0 {
		return fmt.Errorf("collection.max_games must be > 0, got %d", c.Collection.MaxGames)
	}
	if c.Collection.RegionGoal <= 0 {
		return fmt.Errorf("collection.region_goal must be > 0, got %d", c.Collection.RegionGoal)
	}
	if models.ParseGameMode(c.Collection.DefaultMode) == "" {
		return fmt.Errorf("collection.default_mode must be one_per_region or unlimited, got %q", c.Collection.DefaultMode)
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret must not be empty")
	}
	if c.Images.CacheSize <= 0 {
		return fmt.Errorf("images.cache_size must be > 0, got %d", c.Images.CacheSize)
	}
	if c.Images.MissTTL <= 0 {
		return fmt.Errorf("images.miss_ttl must be > 0, got %s", c.Images.MissTTL)
	}
	return nil
}
