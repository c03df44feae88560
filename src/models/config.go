package models

import "time"

// MConfig Structure
type MConfig struct {
	Name        string             `yaml:"name" default:"series-explorer"`
	LogLevel    string             `yaml:"log_level" default:"info"`
	LogFormat   string             `yaml:"log_format" default:"text"`
	Explorer    MExplorerConfig    `yaml:"explorer"`
	Network     MNetworkConfig     `yaml:"network"`
	DataService MDataServiceConfig `yaml:"data_service"`
}

type MExplorerConfig struct {
	Host           string        `yaml:"host" default:"127.0.0.1"`
	Port           int           `yaml:"port" default:"8090"`
	APIBaseURL     string        `yaml:"api_base_url" default:"http://127.0.0.1:5000"`
	Debounce       time.Duration `yaml:"debounce" default:"300ms"`
	StaticDir      string        `yaml:"static_dir"`
	MetricsHistory int           `yaml:"metrics_history" default:"100"`
}

type MNetworkConfig struct {
	RequestTimeout     time.Duration `yaml:"timeout" default:"15s"`
	MaxRetries         int           `yaml:"retries" default:"2"`
	RetryDelay         time.Duration `yaml:"retry_delay" default:"250ms"`
	ConcurrentRequests int           `yaml:"concurrent_requests" default:"8"`
	RateLimitRPS       float64       `yaml:"rate_limit_rps" default:"20"`
	RateLimitBurst     int           `yaml:"rate_limit_burst" default:"10"`
	UserAgent          string        `yaml:"user_agent" default:"series-explorer/1.0"`
	BreakerMaxFailures uint32        `yaml:"breaker_max_failures" default:"5"`
	BreakerTimeout     time.Duration `yaml:"breaker_timeout" default:"30s"`
}

type MDataServiceConfig struct {
	Host           string         `yaml:"host" default:"127.0.0.1"`
	Port           int            `yaml:"port" default:"5000"`
	GrpcPort       int            `yaml:"grpc_port" default:"50051"`
	CSVDir         string         `yaml:"csv_dir" default:"./data/public_datasets"`
	LegacyValueKey bool           `yaml:"legacy_value_key"`
	Storage        MStorageConfig `yaml:"storage"`
	FRED           MFREDConfig    `yaml:"fred"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type" default:"sqlite"`
	DBPath             string `yaml:"db_path" default:":memory:"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MFREDConfig struct {
	Enabled    bool     `yaml:"enabled"`
	APIKey     string   `yaml:"api_key"`
	BaseURL    string   `yaml:"base_url" default:"https://api.stlouisfed.org/fred/"`
	CategoryID int      `yaml:"category_id" default:"329"`
	Limit      int      `yaml:"limit" default:"100"`
	Series     []string `yaml:"series"`
}
