package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DataPaths holds data directory and file path configuration.
// Paths can be overridden via environment variables.
type DataPaths struct {
	// DataDir is the base data directory (SENTINEL_DATA_DIR, default: ./data)
	DataDir string `mapstructure:"data_dir"`
	// SQLitePath is the SQLite database file path (SENTINEL_SQLITE_PATH, default: ${DataDir}/sentinel.db)
	SQLitePath string `mapstructure:"sqlite_path"`
	// AlertsPath is the accepted-alert JSONL output file (SENTINEL_ALERTS_PATH, default: ${DataDir}/alerts.jsonl)
	AlertsPath string `mapstructure:"alerts_path"`
	// SummaryPath is the periodic summary export file (default: ${DataDir}/summary.json)
	SummaryPath string `mapstructure:"summary_path"`
}

// FeedConfig configures the sensor stream connection.
type FeedConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"min=0,max=65535"`
	// ReadTimeout bounds a single line read; a stalled feed reconnects.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// Reconnect backoff: Initial doubled per attempt up to Max, give up
	// after MaxRetries consecutive failures.
	ReconnectInitial time.Duration `mapstructure:"reconnect_initial"`
	ReconnectMax     time.Duration `mapstructure:"reconnect_max"`
	MaxRetries       int           `mapstructure:"max_retries" validate:"min=1"`
}

// CatalogConfig points at the static reference tables.
type CatalogConfig struct {
	ProductsFile  string `mapstructure:"products_file"`
	CustomersFile string `mapstructure:"customers_file"`
}

// EngineConfig tunes the detection cycle and buffers.
type EngineConfig struct {
	// CyclePeriod is the interval between detection cycles.
	CyclePeriod time.Duration `mapstructure:"cycle_period"`
	// BufferCapacity caps each per-source ingestion buffer.
	BufferCapacity int `mapstructure:"buffer_capacity" validate:"min=1"`
	// SnapshotSize is how many recent records each detector sees.
	SnapshotSize int `mapstructure:"snapshot_size" validate:"min=1"`
	// JoinWindow bounds cross-stream temporal joins.
	JoinWindow time.Duration `mapstructure:"join_window"`
}

// DetectorThresholds holds every detector tunable. Zero values are filled
// from the selected preset during LoadConfig.
type DetectorThresholds struct {
	// Preset selects a named baseline: "standard" or "strict". Individual
	// keys set in config or env still override the preset values.
	Preset string `mapstructure:"preset" validate:"omitempty,oneof=standard strict"`

	ScanAvoidanceConfidence float64 `mapstructure:"scan_avoidance_confidence" validate:"min=0,max=1"`
	ProductValueNorm        float64 `mapstructure:"product_value_norm"`

	PriceGapAbs    float64 `mapstructure:"price_gap_abs"`
	PriceGapRatio  float64 `mapstructure:"price_gap_ratio"`
	CategoryGapAbs float64 `mapstructure:"category_gap_abs"`

	WeightTolerance         float64 `mapstructure:"weight_tolerance" validate:"min=0,max=1"`
	WeightToleranceVariable float64 `mapstructure:"weight_tolerance_variable" validate:"min=0,max=1"`
	WeightTolerancePackaged float64 `mapstructure:"weight_tolerance_packaged" validate:"min=0,max=1"`

	OutageTimeout       time.Duration `mapstructure:"outage_timeout"`
	ErrorRateThreshold  float64       `mapstructure:"error_rate_threshold" validate:"min=0,max=1"`
	AvgTransactionValue float64       `mapstructure:"avg_transaction_value"`

	QueueLengthAlert     int           `mapstructure:"queue_length_alert" validate:"min=1"`
	PeakMargin           int           `mapstructure:"peak_margin"`
	GlobalQueueThreshold int           `mapstructure:"global_queue_threshold"`

	// StaffingQueueLength and WaitTimeAlert gate the acute staffing
	// trigger; a station past both raises a staffing need. The wait alert
	// escalates to critical priority at 1.5x.
	StaffingQueueLength int           `mapstructure:"staffing_queue_length" validate:"min=1"`
	WaitTimeAlert       time.Duration `mapstructure:"wait_time_alert"`

	TheftRiskThreshold float64 `mapstructure:"theft_risk_threshold" validate:"min=0,max=1"`
	OverallRiskCutoff  float64 `mapstructure:"overall_risk_cutoff" validate:"min=0,max=1"`

	InventoryMargin int `mapstructure:"inventory_margin" validate:"min=0"`

	CoordinationWindow    time.Duration `mapstructure:"coordination_window"`
	CoordinationStations  int           `mapstructure:"coordination_stations" validate:"min=2"`
	CoordinationThreshold float64       `mapstructure:"coordination_threshold"`

	EfficiencyFloor        float64 `mapstructure:"efficiency_floor" validate:"min=0,max=100"`
	QueuePressureThreshold float64 `mapstructure:"queue_pressure_threshold"`

	IdleThreshold    time.Duration `mapstructure:"idle_threshold"`
	StationPowerKW   float64       `mapstructure:"station_power_kw"`
	EnergyCostPerKWH float64       `mapstructure:"energy_cost_per_kwh"`
}

// SuppressionConfig tunes the deduplicator.
type SuppressionConfig struct {
	// DuplicateWindow drops repeat (kind, station, customer) identities.
	DuplicateWindow time.Duration `mapstructure:"duplicate_window"`
	// Per-severity minimum re-alert intervals. Critical always bypasses.
	HighWindow   time.Duration `mapstructure:"high_window"`
	MediumWindow time.Duration `mapstructure:"medium_window"`
	LowWindow    time.Duration `mapstructure:"low_window"`
}

// SinkConfig tunes alert output.
type SinkConfig struct {
	// RecentLimit is how many recent alerts Export returns.
	RecentLimit int `mapstructure:"recent_limit" validate:"min=1"`
	// SummaryInterval is the period between summary exports; 0 disables.
	SummaryInterval time.Duration `mapstructure:"summary_interval"`
}

// NotifyConfig configures the webhook notifier for high-severity alerts.
type NotifyConfig struct {
	Enabled     bool              `mapstructure:"enabled"`
	WebhookURL  string            `mapstructure:"webhook_url"`
	Headers     map[string]string `mapstructure:"headers"`
	MinSeverity string            `mapstructure:"min_severity" validate:"omitempty,oneof=low medium high critical"`
	Timeout     time.Duration     `mapstructure:"timeout"`
}

// APIConfig configures the HTTP API server.
type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"min=0,max=65535"`
	RateLimit struct {
		RequestsPerSecond int `mapstructure:"requests_per_second" validate:"min=1"`
		Burst             int `mapstructure:"burst" validate:"min=1"`
	} `mapstructure:"rate_limit"`
}

// Config holds all configuration for the Sentinel service.
type Config struct {
	DataPaths   DataPaths          `mapstructure:"data_paths"`
	Feed        FeedConfig         `mapstructure:"feed"`
	Catalog     CatalogConfig      `mapstructure:"catalog"`
	Engine      EngineConfig       `mapstructure:"engine"`
	Detectors   DetectorThresholds `mapstructure:"detectors"`
	Suppression SuppressionConfig  `mapstructure:"suppression"`
	Sink        SinkConfig         `mapstructure:"sink"`
	Notify      NotifyConfig       `mapstructure:"notify"`
	API         APIConfig          `mapstructure:"api"`
	Storage     struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"storage"`
}

// LoadConfig reads sentinel.yaml (optional), applies SENTINEL_ environment
// overrides and defaults, resolves the threshold preset and validates.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("sentinel")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()
	loadFromEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, defaults and env vars apply
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	config.Detectors.applyPreset()
	config.ResolveDataPaths()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks field-level constraints.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Engine.CyclePeriod <= 0 {
		return fmt.Errorf("engine.cycle_period must be positive, got %s", c.Engine.CyclePeriod)
	}
	if c.Engine.JoinWindow <= 0 {
		return fmt.Errorf("engine.join_window must be positive, got %s", c.Engine.JoinWindow)
	}
	if c.Suppression.DuplicateWindow <= 0 {
		return fmt.Errorf("suppression.duplicate_window must be positive, got %s", c.Suppression.DuplicateWindow)
	}
	return nil
}

// ResolveDataPaths derives file paths from DataDir when not explicitly set.
func (c *Config) ResolveDataPaths() {
	dataDir := c.DataPaths.DataDir
	if dataDir == "" {
		dataDir = "./data"
	}

	if c.DataPaths.SQLitePath == "" {
		c.DataPaths.SQLitePath = filepath.Join(dataDir, "sentinel.db")
	} else if !filepath.IsAbs(c.DataPaths.SQLitePath) {
		c.DataPaths.SQLitePath = filepath.Clean(c.DataPaths.SQLitePath)
	}

	if c.DataPaths.AlertsPath == "" {
		c.DataPaths.AlertsPath = filepath.Join(dataDir, "alerts.jsonl")
	} else if !filepath.IsAbs(c.DataPaths.AlertsPath) {
		c.DataPaths.AlertsPath = filepath.Clean(c.DataPaths.AlertsPath)
	}

	if c.DataPaths.SummaryPath == "" {
		c.DataPaths.SummaryPath = filepath.Join(dataDir, "summary.json")
	} else if !filepath.IsAbs(c.DataPaths.SummaryPath) {
		c.DataPaths.SummaryPath = filepath.Clean(c.DataPaths.SummaryPath)
	}

	c.DataPaths.DataDir = dataDir
}

func setDefaults() {
	viper.SetDefault("data_paths.data_dir", "./data")
	viper.SetDefault("data_paths.sqlite_path", "")  // Empty = derive from data_dir
	viper.SetDefault("data_paths.alerts_path", "")  // Empty = derive from data_dir
	viper.SetDefault("data_paths.summary_path", "") // Empty = derive from data_dir

	viper.SetDefault("feed.host", "127.0.0.1")
	viper.SetDefault("feed.port", 8765)
	viper.SetDefault("feed.read_timeout", "30s")
	viper.SetDefault("feed.reconnect_initial", "1s")
	viper.SetDefault("feed.reconnect_max", "30s")
	viper.SetDefault("feed.max_retries", 10)

	viper.SetDefault("catalog.products_file", "./data/input/products_list.csv")
	viper.SetDefault("catalog.customers_file", "./data/input/customer_data.csv")

	viper.SetDefault("engine.cycle_period", "10s")
	viper.SetDefault("engine.buffer_capacity", 200)
	viper.SetDefault("engine.snapshot_size", 100)
	viper.SetDefault("engine.join_window", "45s")

	viper.SetDefault("detectors.preset", "standard")

	viper.SetDefault("suppression.duplicate_window", "5m")
	viper.SetDefault("suppression.high_window", "10m")
	viper.SetDefault("suppression.medium_window", "15m")
	viper.SetDefault("suppression.low_window", "30m")

	viper.SetDefault("sink.recent_limit", 50)
	viper.SetDefault("sink.summary_interval", "60s")

	viper.SetDefault("notify.enabled", false)
	viper.SetDefault("notify.min_severity", "high")
	viper.SetDefault("notify.timeout", "10s")

	viper.SetDefault("api.host", "0.0.0.0")
	viper.SetDefault("api.port", 3001)
	viper.SetDefault("api.rate_limit.requests_per_second", 50)
	viper.SetDefault("api.rate_limit.burst", 100)

	viper.SetDefault("storage.enabled", true)
}

// loadFromEnv sets up environment variable loading
func loadFromEnv() {
	viper.SetEnvPrefix("SENTINEL")
	viper.AutomaticEnv()

	// Explicit bindings for shorter, cleaner env var names
	_ = viper.BindEnv("data_paths.data_dir", "SENTINEL_DATA_DIR")
	_ = viper.BindEnv("data_paths.sqlite_path", "SENTINEL_SQLITE_PATH")
	_ = viper.BindEnv("data_paths.alerts_path", "SENTINEL_ALERTS_PATH")
	_ = viper.BindEnv("feed.host", "SENTINEL_FEED_HOST")
	_ = viper.BindEnv("feed.port", "SENTINEL_FEED_PORT")
	_ = viper.BindEnv("api.port", "SENTINEL_API_PORT")
	_ = viper.BindEnv("detectors.preset", "SENTINEL_DETECTOR_PRESET")
}
