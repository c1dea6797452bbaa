package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// WeatherArea names one BMKG forecast location by its adm4 (kelurahan) code.
type WeatherArea struct {
	Name string
	Adm4 string
}

// defaultWeatherAreas covers one kelurahan per Jabodetabek city.
const defaultWeatherAreas = "Jakarta Pusat=31.71.01.1001,Jakarta Utara=31.72.01.1001," +
	"Jakarta Barat=31.73.01.1001,Jakarta Selatan=31.74.01.1001,Jakarta Timur=31.75.01.1001," +
	"Bogor=32.71.01.1001,Depok=32.76.01.1001,Tangerang=36.71.01.1001,Bekasi=32.75.01.1001"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Bearer token settings.
	JWTSecret string
	TokenTTL  time.Duration

	// Prediction service client.
	MLServiceURL  string
	MLTimeout     time.Duration
	MLMaxRetries  int
	MLBackoffStep time.Duration

	// Persistence.
	DBDriver string
	DBDSN    string

	// Prediction event stream.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// BMKG weather proxy.
	BMKGBaseURL     string
	WeatherTimeout  time.Duration
	WeatherInterval time.Duration
	WeatherCacheTTL time.Duration
	WeatherAreas    []WeatherArea
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	tokenTTL, err := parseDuration("TOKEN_TTL", "1h", false)
	if err != nil {
		return nil, err
	}
	mlTimeout, err := parseDuration("ML_TIMEOUT", "30s", false)
	if err != nil {
		return nil, err
	}
	mlBackoffStep, err := parseDuration("ML_BACKOFF_STEP", "2s", true)
	if err != nil {
		return nil, err
	}
	mlMaxRetries, err := parseMaxRetries()
	if err != nil {
		return nil, err
	}
	weatherTimeout, err := parseDuration("WEATHER_TIMEOUT", "5s", false)
	if err != nil {
		return nil, err
	}
	weatherInterval, err := parseDuration("WEATHER_INTERVAL", "1s", true)
	if err != nil {
		return nil, err
	}
	weatherCacheTTL, err := parseDuration("WEATHER_CACHE_TTL", "10m", true)
	if err != nil {
		return nil, err
	}
	weatherAreas, err := parseWeatherAreas(sharedcfg.EnvOrDefault("WEATHER_AREAS", defaultWeatherAreas))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":3000"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  tokenTTL,

		MLServiceURL:  strings.TrimRight(sharedcfg.EnvOrDefault("ML_SERVICE_URL", "http://localhost:5000"), "/"),
		MLTimeout:     mlTimeout,
		MLMaxRetries:  mlMaxRetries,
		MLBackoffStep: mlBackoffStep,

		DBDriver: sharedcfg.EnvOrDefault("DB_DRIVER", "sqlite"),
		DBDSN:    sharedcfg.EnvOrDefault("DB_DSN", "floodcast.db"),

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "prediction-events"),

		BMKGBaseURL:     strings.TrimRight(sharedcfg.EnvOrDefault("BMKG_BASE_URL", "https://api.bmkg.go.id"), "/"),
		WeatherTimeout:  weatherTimeout,
		WeatherInterval: weatherInterval,
		WeatherCacheTTL: weatherCacheTTL,
		WeatherAreas:    weatherAreas,
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "mysql" {
		return nil, fmt.Errorf("DB_DRIVER must be sqlite or mysql, got %q", cfg.DBDriver)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseMaxRetries() (int, error) {
	s := sharedcfg.EnvOrDefault("ML_MAX_RETRIES", "3")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 10 {
		return 0, errors.New("invalid ML_MAX_RETRIES: must be between 0 and 10")
	}
	return n, nil
}

// parseWeatherAreas reads "name=adm4" pairs separated by commas.
func parseWeatherAreas(s string) ([]WeatherArea, error) {
	var areas []WeatherArea
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, code, ok := strings.Cut(pair, "=")
		name, code = strings.TrimSpace(name), strings.TrimSpace(code)
		if !ok || name == "" || code == "" {
			return nil, fmt.Errorf("invalid WEATHER_AREAS entry %q", pair)
		}
		areas = append(areas, WeatherArea{Name: name, Adm4: code})
	}
	if len(areas) == 0 {
		return nil, errors.New("WEATHER_AREAS is empty")
	}
	return areas, nil
}
