package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var once sync.Once
var logger *zap.SugaredLogger
var loggerOnce sync.Once

// isTestRun returns true if the current process is a Go test binary.
func isTestRun() bool {
	return flag.Lookup("test.v") != nil || filepath.Ext(os.Args[0]) == ".test"
}

func initConfig() {
	once.Do(func() {
		setDefaults()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		root, err := getProjectRoot()
		if err != nil {
			GetLogger().Warnw("Project root not found, using defaults", "error", err)
			return
		}
		viper.SetConfigType("yaml")

		viper.SetConfigName("config")
		viper.AddConfigPath(root)
		if err = viper.ReadInConfig(); err != nil {
			GetLogger().Errorw("Error reading config file", "error", err)
		}

		if isTestRun() {
			viper.SetConfigName("config_test")
			if err = viper.MergeInConfig(); err != nil {
				GetLogger().Errorw("Error merging test config file", "error", err)
			}
		}
	})
}

func setDefaults() {
	viper.SetDefault("openweathermap.api_url", "https://api.openweathermap.org/data/2.5")
	viper.SetDefault("openweathermap.units", "metric")
	viper.SetDefault("openweathermap.timeout", "0s")
	viper.SetDefault("widget.default_city", "Colombo")
	viper.SetDefault("storage.driver", "redis")
	viper.SetDefault("storage.last_city_key", "weather:last_city")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("geolocation.driver", "ip")
	viper.SetDefault("geolocation.api_url", "http://ip-api.com/json")
	viper.SetDefault("server.port", "8080")
}

func getProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

// GetOpenWeatherApiUrl returns the base URL both weather endpoints hang off.
func GetOpenWeatherApiUrl() string {
	initConfig()
	return strings.TrimRight(viper.GetString("openweathermap.api_url"), "/")
}

func GetOpenWeatherMapAPIKey() string {
	_ = godotenv.Load()
	return os.Getenv("OPENWEATHERMAP_API_KEY")
}

// GetUnits returns the unit system sent to the weather API (metric, imperial or standard).
func GetUnits() string {
	initConfig()
	units := viper.GetString("openweathermap.units")
	if units == "" {
		return "metric"
	}
	return units
}

// GetHTTPClientTimeout returns the timeout for weather API requests. Zero leaves the
// transport defaults in charge.
func GetHTTPClientTimeout() time.Duration {
	initConfig()
	dur, err := time.ParseDuration(viper.GetString("openweathermap.timeout"))
	if err != nil || dur < 0 {
		return 0
	}
	return dur
}

func GetDefaultCity() string {
	initConfig()
	city := viper.GetString("widget.default_city")
	if city == "" {
		return "Colombo"
	}
	return city
}

func GetStorageDriver() string {
	initConfig()
	return viper.GetString("storage.driver")
}

func GetLastCityKey() string {
	initConfig()
	return viper.GetString("storage.last_city_key")
}

func GetRedisAddr() string {
	initConfig()
	return viper.GetString("redis.addr")
}

func GetGeolocationDriver() string {
	initConfig()
	return viper.GetString("geolocation.driver")
}

func GetGeolocationApiUrl() string {
	initConfig()
	return viper.GetString("geolocation.api_url")
}

// GetGeolocationCoordinates returns the coordinates used by the static driver.
func GetGeolocationCoordinates() (lat, lon float64) {
	initConfig()
	return viper.GetFloat64("geolocation.latitude"), viper.GetFloat64("geolocation.longitude")
}

func GetServerPort() string {
	initConfig()
	serverPort := viper.GetString("server.port")
	return serverPort
}

func GetServerTimeout(key string) string {
	initConfig()
	return viper.GetString("server." + key)
}

// GetServerTimeoutDuration parses a server timeout, falling back to def when unset or invalid.
func GetServerTimeoutDuration(key string, def time.Duration) time.Duration {
	dur, err := time.ParseDuration(GetServerTimeout(key))
	if err != nil {
		return def
	}
	return dur
}

func GetTestRedisMockPort() string {
	initConfig()
	return viper.GetString("test.redis_mock_port")
}

func GetTestServerPort() string {
	initConfig()
	return viper.GetString("test.server_port")
}

// ReloadConfigForTest resets the config singleton and reloads Viper config. Use only in tests.
func ReloadConfigForTest() {
	once = sync.Once{}
	initConfig()
}

func GetLogger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		logger = l.Sugar()
	})
	return logger
}

// SetLoggerForTest swaps the process logger. Use only in tests.
func SetLoggerForTest(l *zap.SugaredLogger) {
	loggerOnce.Do(func() {})
	logger = l
}

// GetRateLimiterCleanupTimeout returns the rate limiter cleanup timeout as a time.Duration.
// Defaults to 3m if not set or invalid.
func GetRateLimiterCleanupTimeout() time.Duration {
	initConfig()
	durStr := viper.GetString("rate_limiter.cleanup_timeout")
	if durStr == "" {
		durStr = "3m"
	}
	dur, err := time.ParseDuration(durStr)
	if err != nil {
		return 3 * time.Minute
	}
	return dur
}

// GetGlobalRateLimiterConfig returns the per-minute rate and burst for the per-client limiter.
func GetGlobalRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.global.rate")
	if rate == 0 {
		rate = 30
	}
	burst = viper.GetInt("rate_limiter.global.burst")
	if burst == 0 {
		burst = 10
	}
	return
}

// GetParamRateLimiterConfig returns the per-minute rate and burst for the per-query limiter.
func GetParamRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.param.rate")
	if rate == 0 {
		rate = 6
	}
	burst = viper.GetInt("rate_limiter.param.burst")
	if burst == 0 {
		burst = 3
	}
	return
}
