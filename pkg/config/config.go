package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Feed     FeedConfig     `yaml:"feed"`
	BBox     BBoxConfig     `yaml:"bbox"`
	Geofence GeofenceConfig `yaml:"geofence"`
	Trails   TrailsConfig   `yaml:"trails"`
	Email    EmailConfig    `yaml:"email"`
	Export   ExportConfig   `yaml:"export"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Bus      BusConfig      `yaml:"bus"`
	API      APIConfig      `yaml:"api"`
}

type FeedConfig struct {
	LocationsURL      string        `yaml:"locations_url"`
	VesselsURL        string        `yaml:"vessels_url"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	UserAgent         string        `yaml:"user_agent"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	FreshnessMaxAge   time.Duration `yaml:"freshness_max_age"`
}

type BBoxConfig struct {
	LatMin float64 `yaml:"lat_min"`
	LatMax float64 `yaml:"lat_max"`
	LonMin float64 `yaml:"lon_min"`
	LonMax float64 `yaml:"lon_max"`
}

type GeofenceConfig struct {
	Path          string  `yaml:"path"`
	MinSpeedKnots float64 `yaml:"min_speed_knots"`
}

type TrailsConfig struct {
	DBPath    string        `yaml:"db_path"`
	Retention time.Duration `yaml:"retention"`
}

type EmailConfig struct {
	SMTPHost  string        `yaml:"smtp_host"`
	SMTPPort  int           `yaml:"smtp_port"`
	Sender    string        `yaml:"sender"`
	Recipient string        `yaml:"recipient"`
	Password  string        `yaml:"-"` // only from AIS_EMAIL_PASSWORD
	Cooldown  time.Duration `yaml:"cooldown"`
}

type ExportConfig struct {
	Directory       string           `yaml:"directory"`
	ReferencePoints []ReferencePoint `yaml:"reference_points"`
}

type ReferencePoint struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

type MonitorConfig struct {
	Interval     time.Duration `yaml:"interval"`
	ErrorBackoff time.Duration `yaml:"error_backoff"`
}

type BusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	DataDir string `yaml:"data_dir"`
}

type APIConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// Load reads configuration from an optional YAML file, then applies
// environment overrides and validates the result.
func Load(configPath string) (*Config, error) {
	config := &Config{}

	config.setDefaults()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.loadFromEnv()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func (c *Config) setDefaults() {
	c.Feed.LocationsURL = "https://meri.digitraffic.fi/api/ais/v1/locations"
	c.Feed.VesselsURL = "https://meri.digitraffic.fi/api/ais/v1/vessels"
	c.Feed.RequestTimeout = 30 * time.Second
	c.Feed.UserAgent = "keri-ais-monitor/1.0"
	c.Feed.RequestsPerMinute = 30
	c.Feed.FreshnessMaxAge = 10 * time.Minute

	// Gulf of Finland
	c.BBox.LatMin = 59.0
	c.BBox.LatMax = 60.5
	c.BBox.LonMin = 24.0
	c.BBox.LonMax = 27.0

	c.Geofence.Path = "restricted_area.geojson"
	c.Geofence.MinSpeedKnots = 0.5

	c.Trails.DBPath = "./db/ais_trails.db"
	c.Trails.Retention = 3 * time.Hour

	c.Email.SMTPHost = "smtp.office365.com"
	c.Email.SMTPPort = 587
	c.Email.Cooldown = 1 * time.Hour

	c.Export.Directory = "out"

	c.Monitor.Interval = 5 * time.Minute
	c.Monitor.ErrorBackoff = 1 * time.Minute

	c.Bus.Enabled = true
	c.Bus.Port = 4222
	c.Bus.DataDir = "./data/nats"

	c.API.Enabled = true
	c.API.ListenAddr = ":8080"
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("AIS_LOCATIONS_URL"); v != "" {
		c.Feed.LocationsURL = v
	}

	if v := os.Getenv("AIS_VESSELS_URL"); v != "" {
		c.Feed.VesselsURL = v
	}

	if v := os.Getenv("AIS_GEOFENCE_PATH"); v != "" {
		c.Geofence.Path = v
	}

	if v := os.Getenv("AIS_DB_PATH"); v != "" {
		c.Trails.DBPath = v
	}

	if v := os.Getenv("AIS_EXPORT_DIR"); v != "" {
		c.Export.Directory = v
	}

	if v := os.Getenv("AIS_EMAIL_SENDER"); v != "" {
		c.Email.Sender = v
	}

	if v := os.Getenv("AIS_EMAIL_RECIPIENT"); v != "" {
		c.Email.Recipient = v
	}

	// The SMTP password never comes from the config file.
	c.Email.Password = os.Getenv("AIS_EMAIL_PASSWORD")

	if v := os.Getenv("AIS_CHECK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Monitor.Interval = d
		}
	}

	if v := os.Getenv("AIS_MIN_SPEED_KNOTS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Geofence.MinSpeedKnots = f
		}
	}

	if v := os.Getenv("AIS_API_LISTEN_ADDR"); v != "" {
		c.API.ListenAddr = v
	}

	if v := os.Getenv("AIS_BUS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Bus.Port = p
		}
	}
}

func (c *Config) validate() error {
	if c.Feed.LocationsURL == "" {
		return fmt.Errorf("feed locations URL cannot be empty")
	}

	if c.Feed.VesselsURL == "" {
		return fmt.Errorf("feed vessels URL cannot be empty")
	}

	if c.Feed.RequestsPerMinute < 1 {
		return fmt.Errorf("requests per minute must be at least 1")
	}

	if c.BBox.LatMin >= c.BBox.LatMax {
		return fmt.Errorf("bbox lat_min must be below lat_max")
	}

	if c.BBox.LonMin >= c.BBox.LonMax {
		return fmt.Errorf("bbox lon_min must be below lon_max")
	}

	if c.Geofence.Path == "" {
		return fmt.Errorf("geofence path cannot be empty")
	}

	if c.Geofence.MinSpeedKnots < 0 {
		return fmt.Errorf("minimum speed threshold cannot be negative")
	}

	if c.Trails.Retention <= 0 {
		return fmt.Errorf("trail retention must be positive")
	}

	if c.Email.Cooldown <= 0 {
		return fmt.Errorf("alert cooldown must be positive")
	}

	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor interval must be positive")
	}

	if c.Monitor.ErrorBackoff <= 0 {
		return fmt.Errorf("monitor error backoff must be positive")
	}

	return nil
}
