package contract

import (
	"fmt"
	"math"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/tdacrash/schema"
)

// Default values for configuration.
const (
	DefaultKind         = schema.LandscapeKind
	DefaultDimensions   = "0,1"
	DefaultNLayers      = 1
	DefaultNBins        = 100
	DefaultP            = "2"
	DefaultOrder        = "2"
	DefaultPower        = 1.0
	DefaultPrecision    = 4
	DefaultThreshold    = 0.75
	DefaultEmbedDim     = 3
	DefaultTimeDelay    = 1
	DefaultStride       = 1
	DefaultWindowSize   = 30
	DefaultWindowStride = 5
	DefaultServeAddr    = ":8080"
	MaxPrecision        = 12
)

// DiagramCacheTTL bounds how long a cached diagram is trusted, in case the oracle binary changes.
const DiagramCacheTTL = 7 * 24 * time.Hour

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a derivative run.
// This struct remains the "final, validated" config.
type Config struct {
	InputPath  string
	Workers    int
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	Kind        schema.Kind
	Dimensions  []int
	NLayers     int
	NBins       int
	P           float64
	Order       *float64
	Power       float64
	LayerPolicy schema.LayerPolicy

	Column     string
	Embed      schema.EmbedParams
	Threshold  float64
	RipserPath string
	MaxEdge    float64

	ServeAddr string

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Workers           int    `mapstructure:"workers"`
	Precision         int    `mapstructure:"precision"`
	Output            string `mapstructure:"output"`
	OutputFile        string `mapstructure:"output-file"`
	Width             int    `mapstructure:"width"`
	Color             string `mapstructure:"color"`
	CacheBackend      string `mapstructure:"cache-backend"`
	CacheDBConnect    string `mapstructure:"cache-db-connect"`
	AnalysisBackend   string `mapstructure:"analysis-backend"`
	AnalysisDBConnect string `mapstructure:"analysis-db-connect"`

	// --- Featurization flags shared by derivative, distance and pipeline ---
	Kind        string  `mapstructure:"kind"`
	Dimensions  string  `mapstructure:"dims"`
	NLayers     int     `mapstructure:"n-layers"`
	NBins       int     `mapstructure:"n-bins"`
	P           string  `mapstructure:"p"`
	Order       string  `mapstructure:"order"`
	Power       float64 `mapstructure:"power"`
	LayerPolicy string  `mapstructure:"layer-policy"`

	// --- Fields from pipelineCmd.Flags() ---
	Column       string  `mapstructure:"column"`
	EmbedDim     int     `mapstructure:"embed-dim"`
	TimeDelay    int     `mapstructure:"time-delay"`
	Stride       int     `mapstructure:"stride"`
	WindowSize   int     `mapstructure:"window-size"`
	WindowStride int     `mapstructure:"window-stride"`
	Threshold    float64 `mapstructure:"threshold"`
	Ripser       string  `mapstructure:"ripser"`
	MaxEdge      float64 `mapstructure:"max-edge"`

	// --- Fields from serveCmd.Flags() ---
	Addr string `mapstructure:"addr"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Dimensions = slices.Clone(c.Dimensions)
	if c.Order != nil {
		order := *c.Order
		clone.Order = &order
	}
	return &clone
}

// FeaturizationParams returns the engine params described by the config.
// Samplings are left empty and resolved from the data by the caller.
func (c *Config) FeaturizationParams() schema.FeaturizationParams {
	params := schema.FeaturizationParams{
		HomologyDimensions: slices.Clone(c.Dimensions),
		Kind:               c.Kind,
		NLayers:            c.NLayers,
		P:                  c.P,
		Power:              c.Power,
		LayerPolicy:        c.LayerPolicy,
		Workers:            c.Workers,
	}
	if c.Order != nil {
		order := *c.Order
		params.Order = &order
	}
	return params
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processFeaturization(cfg, input); err != nil {
		return err
	}
	if err := processPipeline(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates cache and analysis backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Analysis Backend Validation ---
	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.AnalysisBackend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
	}
	cfg.AnalysisDBConnect = input.AnalysisDBConnect
	if err := ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return err
	}

	// For SQLite, resolve to actual file paths to catch default path conflicts
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.AnalysisBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		analysisDBPath := cfg.AnalysisDBConnect
		if analysisDBPath == "" {
			analysisDBPath = GetAnalysisDBFilePath()
		}
		if cacheDBPath == analysisDBPath {
			return fmt.Errorf("cache and analysis storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the output and storage fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.InputPath = strings.TrimSpace(input.InputPathStr)
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.ServeAddr = input.Addr
	if cfg.ServeAddr == "" {
		cfg.ServeAddr = DefaultServeAddr
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	return validateBackendConfigs(cfg, input)
}

// processFeaturization parses the engine flags.
func processFeaturization(cfg *Config, input *ConfigRawInput) error {
	cfg.Kind = schema.Kind(strings.ToLower(strings.TrimSpace(input.Kind)))
	if _, ok := schema.ValidKinds[cfg.Kind]; !ok {
		return fmt.Errorf("invalid kind '%s'. must be landscape, betti, silhouette, bottleneck, wasserstein", input.Kind)
	}

	dims, err := ParseDimensions(input.Dimensions)
	if err != nil {
		return err
	}
	cfg.Dimensions = schema.NormalizeDimensions(dims)

	if cfg.Kind == schema.LandscapeKind && input.NLayers < 1 {
		return fmt.Errorf("n-layers must be at least 1 (received %d)", input.NLayers)
	}
	cfg.NLayers = input.NLayers

	if cfg.Kind.IsClosedForm() && input.NBins < 2 {
		return fmt.Errorf("n-bins must be at least 2 (received %d)", input.NBins)
	}
	cfg.NBins = input.NBins

	cfg.P = math.Inf(1)
	if cfg.Kind != schema.BottleneckKind {
		if cfg.P, err = ParseExponent(input.P); err != nil {
			return fmt.Errorf("invalid p: %w", err)
		}
	}

	if cfg.Order, err = ParseOrder(input.Order); err != nil {
		return err
	}

	if math.IsNaN(input.Power) || input.Power < 0 {
		return fmt.Errorf("power must be >= 0 (received %v)", input.Power)
	}
	cfg.Power = input.Power

	cfg.LayerPolicy = schema.LayerPolicy(strings.ToLower(input.LayerPolicy))
	if cfg.LayerPolicy == "" {
		cfg.LayerPolicy = schema.PadLayers
	}
	if _, ok := schema.ValidLayerPolicies[cfg.LayerPolicy]; !ok {
		return fmt.Errorf("invalid layer policy '%s'. must be pad, shared-min", input.LayerPolicy)
	}
	return nil
}

// processPipeline handles the embedding, window and oracle parameters.
func processPipeline(cfg *Config, input *ConfigRawInput) error {
	cfg.Column = strings.TrimSpace(input.Column)
	cfg.RipserPath = strings.TrimSpace(input.Ripser)
	cfg.Embed = schema.EmbedParams{
		Dimension:    input.EmbedDim,
		TimeDelay:    input.TimeDelay,
		Stride:       input.Stride,
		WindowSize:   input.WindowSize,
		WindowStride: input.WindowStride,
	}

	checks := []struct {
		name  string
		value int
	}{
		{"embed-dim", input.EmbedDim},
		{"time-delay", input.TimeDelay},
		{"stride", input.Stride},
		{"window-size", input.WindowSize},
		{"window-stride", input.WindowStride},
	}
	for _, c := range checks {
		if c.value < 1 {
			return fmt.Errorf("--%s must be at least 1 (received %d)", c.name, c.value)
		}
	}

	if input.Threshold < 0 || input.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0 (received %.2f)", input.Threshold)
	}
	cfg.Threshold = input.Threshold

	if input.MaxEdge < 0 {
		return fmt.Errorf("max-edge must be >= 0 (received %v)", input.MaxEdge)
	}
	cfg.MaxEdge = input.MaxEdge
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
