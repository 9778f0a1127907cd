package config

import (
	"errors"
	"reflect"
	"strings"

	"asset-exporter/core/database"
	"asset-exporter/core/logger"
	"asset-exporter/core/provision"
	"asset-exporter/core/storage"
	"asset-exporter/core/tracing"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Storage holds configuration for the object storage (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Database holds configuration for the run ledger.
	Database database.Config `mapstructure:"database"`
	// Tracing holds OpenTelemetry settings.
	Tracing tracing.Config `mapstructure:"tracing"`
	// Game selects and configures the asset source.
	Game GameConfig `mapstructure:"game"`
	// Provision configures key and mapping acquisition.
	Provision provision.Config `mapstructure:"provision"`
	// Performance bounds per-unit parallelism.
	Performance PerformanceConfig `mapstructure:"performance"`
	// Scope restricts what a run exports.
	Scope ScopeConfig `mapstructure:"scope"`
	// Images configures the image refinement unit.
	Images ImagesConfig `mapstructure:"images"`
	// Output configures where artifacts go.
	Output OutputConfig `mapstructure:"output"`
}

// GameConfig selects the asset source.
type GameConfig struct {
	// Driver is dir, archive or bucket.
	Driver string `mapstructure:"driver" default:"dir"`
	// Dir is the root of a directory source.
	Dir string `mapstructure:"dir" default:"./game"`
	// Archive is the bundle read by the archive source.
	Archive string `mapstructure:"archive" default:"./game.json.zst"`
	// Prefix is the object prefix of a bucket source.
	Prefix string `mapstructure:"prefix" default:""`
	// CacheSize is the number of packages kept in memory; 0 disables it.
	CacheSize int `mapstructure:"cache_size" default:"256"`
}

// PerformanceConfig bounds work inside each unit.
type PerformanceConfig struct {
	// MaxParallelism is the worker count per extraction unit.
	MaxParallelism int `mapstructure:"max_parallelism" default:"1"`
}

// ScopeConfig restricts a run.
type ScopeConfig struct {
	// Only is a comma-separated, case-insensitive list of unit names.
	Only string `mapstructure:"only" default:""`
	// Limit caps the paths each unit processes; 0 means no cap.
	Limit int `mapstructure:"limit" default:"0"`
	// Merge is the default merge policy of every artifact.
	Merge bool `mapstructure:"merge" default:"false"`
}

// ImagesConfig configures image export.
type ImagesConfig struct {
	// Enabled turns the image refinement unit on.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Types is a comma-separated list of image kinds to export.
	Types string `mapstructure:"types" default:"SmallPreview,LargePreview,Icon"`
	// Directory is relative to the output sink.
	Directory string `mapstructure:"directory" default:"ExportedImages"`
}

// OutputConfig configures artifact locations.
type OutputConfig struct {
	// Driver is file or bucket.
	Driver string `mapstructure:"driver" default:"file"`
	// Dir is the root of a file sink.
	Dir string `mapstructure:"dir" default:"./output"`
	// Prefix is the object prefix of a bucket sink.
	Prefix string `mapstructure:"prefix" default:""`
	// Assets is the name of the main artifact.
	Assets string `mapstructure:"assets" default:"assets.json"`
	// AssetsMerge is inherit, merge or replace.
	AssetsMerge string `mapstructure:"assets_merge" default:"inherit"`
	// Schematics is the name of the schematic recipes artifact.
	Schematics string `mapstructure:"schematics" default:"schematics.json"`
	// SchematicsMerge is inherit, merge or replace.
	SchematicsMerge string `mapstructure:"schematics_merge" default:"inherit"`
	// Split writes one NamedItems/<Type>.json file per item type.
	Split bool `mapstructure:"split" default:"false"`
	// SplitDir is the directory of split files.
	SplitDir string `mapstructure:"split_dir" default:"NamedItems"`
}

// MergePolicy resolves an artifact policy against the run default.
func MergePolicy(policy string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "merge":
		return true
	case "replace":
		return false
	default:
		return fallback
	}
}

// LoadConfig loads configuration from environment variables, a .env file
// and an optional config.yaml in path.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. CI)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// Map environment variables to nested keys (e.g. SCOPE_LIMIT -> scope.limit)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
