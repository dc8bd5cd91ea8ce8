package config

import (
	"fmt"
	"time"
)

type Config struct {
	TargetURL        string              `yaml:"target_url"`
	BaseURL          string              `yaml:"base_url"`
	Search           SearchConfig        `yaml:"search"`
	Selectors        SelectorsConfig     `yaml:"selectors"`
	SelectorsFile    string              `yaml:"selectors_file"`
	HTTP             HttpConfig          `yaml:"http"`
	RateLimit        RateLimitConfig     `yaml:"rate_limit"`
	Rod              RodConfig           `yaml:"rod"`
	Storage          StorageConfig       `yaml:"storage"`
	Observability    ObservabilityConfig `yaml:"observability"`
	ShutdownTimeoutS int                 `yaml:"shutdown_timeout_s"`
}

type SearchConfig struct {
	FormID   string       `yaml:"form_id"`
	Query    string       `yaml:"query"`
	MinPrice float64      `yaml:"min_price"`
	MaxPrice float64      `yaml:"max_price"`
	Fields   FieldsConfig `yaml:"fields"`
}

// FieldsConfig names the form controls the search parameters are written to.
type FieldsConfig struct {
	Query    string `yaml:"query"`
	MinPrice string `yaml:"min_price"`
	MaxPrice string `yaml:"max_price"`
}

type SelectorsConfig struct {
	Row                string `yaml:"row"`
	Link               string `yaml:"link"`
	LinkIndex          int    `yaml:"link_index"`
	Price              string `yaml:"price"`
	Location           string `yaml:"location"`
	LocationTrimPrefix int    `yaml:"location_trim_prefix"`
	LocationTrimSuffix int    `yaml:"location_trim_suffix"`
}

type HttpConfig struct {
	UserAgent                 string `yaml:"user_agent"`
	AcceptLanguage            string `yaml:"accept_language"`
	TotalTimeoutMS            int    `yaml:"total_timeout_ms"`
	MaxIdleConnections        int    `yaml:"max_idle_connections"`
	MaxIdleConnectionsPerHost int    `yaml:"max_idle_connections_per_host"`
	IdleConnectionTimeoutS    int    `yaml:"idle_connection_timeout_s"`
}

type RateLimitConfig struct {
	RequestDelayMS int `yaml:"request_delay_ms"`
}

type RodConfig struct {
	Enabled          bool   `yaml:"enabled"`
	ChromePath       string `yaml:"chrome_path"`
	Headless         bool   `yaml:"headless"`
	PageTimeoutS     int    `yaml:"page_timeout_s"`
	WaitLoadTimeoutS int    `yaml:"wait_load_timeout_s"`
}

type StorageConfig struct {
	Driver           string `yaml:"driver"`
	OutputPath       string `yaml:"output_path"`
	DSN              string `yaml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
}

type ObservabilityConfig struct {
	LogPath       string `yaml:"log_path"`
	LogLevel      string `yaml:"log_level"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`
	Console       bool   `yaml:"console"`
}

// Default returns the sfbay apartments search the scraper was first written for.
func Default() *Config {
	return &Config{
		TargetURL: "http://sfbay.craigslist.org/search/sfc/apa",
		BaseURL:   "http://sfbay.craigslist.org",
		Search: SearchConfig{
			FormID:   "searchform",
			Query:    "Garden",
			MinPrice: 250,
			MaxPrice: 1500,
			Fields: FieldsConfig{
				Query:    "query",
				MinPrice: "minAsk",
				MaxPrice: "maxAsk",
			},
		},
		Selectors: SelectorsConfig{
			Row:                "p.row",
			Link:               "a",
			LinkIndex:          1,
			Price:              "span.price",
			Location:           "span.pnr",
			LocationTrimPrefix: 3,
			LocationTrimSuffix: 12,
		},
		HTTP: HttpConfig{
			UserAgent:                 "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			AcceptLanguage:            "en-US,en;q=0.9",
			TotalTimeoutMS:            30000,
			MaxIdleConnections:        10,
			MaxIdleConnectionsPerHost: 2,
			IdleConnectionTimeoutS:    90,
		},
		RateLimit: RateLimitConfig{
			RequestDelayMS: 500,
		},
		Rod: RodConfig{
			Headless:         true,
			PageTimeoutS:     60,
			WaitLoadTimeoutS: 30,
		},
		Storage: StorageConfig{
			Driver:           "csv",
			OutputPath:       "filename.csv",
			CommandTimeoutMS: 10000,
		},
		Observability: ObservabilityConfig{
			LogPath:       "logs/classifieds-scraper.log",
			LogLevel:      "info",
			LogMaxSizeMB:  10,
			LogMaxBackups: 3,
			LogMaxAgeDays: 28,
			Console:       true,
		},
		ShutdownTimeoutS: 300,
	}
}

// Validation
func (c *Config) Validate() error {
	if c.TargetURL == "" {
		return fmt.Errorf("target_url is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.Search.FormID == "" {
		return fmt.Errorf("search.form_id is required")
	}
	if c.Search.Fields.Query == "" || c.Search.Fields.MinPrice == "" || c.Search.Fields.MaxPrice == "" {
		return fmt.Errorf("search.fields.query, min_price and max_price are required")
	}
	if c.Search.MinPrice > c.Search.MaxPrice {
		return fmt.Errorf("search.min_price must be <= search.max_price")
	}
	if c.Selectors.Row == "" {
		return fmt.Errorf("selectors.row is required")
	}
	if c.Selectors.Link == "" {
		return fmt.Errorf("selectors.link is required")
	}
	if c.Selectors.LinkIndex < 0 {
		return fmt.Errorf("selectors.link_index must be >= 0")
	}
	if c.Selectors.LocationTrimPrefix < 0 || c.Selectors.LocationTrimSuffix < 0 {
		return fmt.Errorf("selectors.location_trim_prefix and location_trim_suffix must be >= 0")
	}
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.TotalTimeoutMS <= 0 {
		return fmt.Errorf("http.total_timeout_ms must be > 0")
	}
	if c.RateLimit.RequestDelayMS < 0 {
		return fmt.Errorf("rate_limit.request_delay_ms must be >= 0")
	}
	switch c.Storage.Driver {
	case "csv":
		if c.Storage.OutputPath == "" {
			return fmt.Errorf("storage.output_path is required when storage.driver is 'csv'")
		}
	case "mssql", "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required when storage.driver is '%s'", c.Storage.Driver)
		}
		if c.Storage.CommandTimeoutMS <= 0 {
			return fmt.Errorf("storage.command_timeout_ms must be > 0")
		}
	default:
		return fmt.Errorf("storage.driver must be 'csv', 'mssql' or 'postgres'")
	}
	if c.Rod.Enabled {
		if c.Rod.PageTimeoutS <= 0 {
			return fmt.Errorf("rod.page_timeout_s must be > 0")
		}
		if c.Rod.WaitLoadTimeoutS <= 0 {
			return fmt.Errorf("rod.wait_load_timeout_s must be > 0")
		}
	}
	if c.ShutdownTimeoutS <= 0 {
		return fmt.Errorf("shutdown_timeout_s must be > 0")
	}
	return nil
}

// Getters
func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetIdleConnectionTimeout() time.Duration {
	return time.Duration(c.HTTP.IdleConnectionTimeoutS) * time.Second
}

func (c *Config) GetRequestDelay() time.Duration {
	return time.Duration(c.RateLimit.RequestDelayMS) * time.Millisecond
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}

func (c *Config) GetRodPageTimeout() time.Duration {
	return time.Duration(c.Rod.PageTimeoutS) * time.Second
}

func (c *Config) GetRodWaitLoadTimeout() time.Duration {
	return time.Duration(c.Rod.WaitLoadTimeoutS) * time.Second
}

func (c *Config) GetShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutS) * time.Second
}
