package core

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSheets   = "sheets"
)

type (
	ServerConfig struct {
		Host                      string
		DebugHost                 string
		DisableReqLogs            bool
		ShutdownTimeout           time.Duration
		RequestTimeout            time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	StorageConfig struct {
		Backend   string
		OpTimeout time.Duration
		Seed      bool // load fixtures on start (memory backend)
	}

	SheetsConfig struct {
		SpreadsheetID   string
		CredentialsFile string
	}

	PinsConfig struct {
		MaxUsage int
		Validity time.Duration
	}

	GeminiConfig struct {
		APIKey string
		Model  string
	}

	Config struct {
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		AppName      string
		SecretKey    string
		RollbarToken string
		WorkDir      string

		Server   ServerConfig
		Database DatabaseConfig
		Storage  StorageConfig
		Sheets   SheetsConfig
		Pins     PinsConfig
		Gemini   GeminiConfig

		RedisURL           string
		PinChecksPerMinute int
	}
)

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, strconv.Itoa(dc.Port))
}

// NewConfig loads the configuration of the current environment (ENV: DEV (default), TEST, QA, PROD).
// Values are read from the environment, prefixed with the environment name, eg. PROD_DATABASE_HOST.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
		v.SetDefault("storage.backend", BackendMemory)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		WorkDir:      wd,
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			DebugHost:                 v.GetString("server.debugHost"),
			DisableReqLogs:            v.GetBool("server.disableReqLogs"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			RequestTimeout:            v.GetDuration("server.requestTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Storage: StorageConfig{
			Backend:   strings.ToLower(v.GetString("storage.backend")),
			OpTimeout: v.GetDuration("storage.opTimeout"),
			Seed:      v.GetBool("storage.seed"),
		},
		Sheets: SheetsConfig{
			SpreadsheetID:   v.GetString("sheets.spreadsheetID"),
			CredentialsFile: v.GetString("sheets.credentialsFile"),
		},
		Pins: PinsConfig{
			MaxUsage: v.GetInt("pins.maxUsage"),
			Validity: v.GetDuration("pins.validity"),
		},
		Gemini: GeminiConfig{
			APIKey: v.GetString("gemini.apiKey"),
			Model:  v.GetString("gemini.model"),
		},
		RedisURL:           v.GetString("redis.url"),
		PinChecksPerMinute: v.GetInt("rateLimit.pinChecksPerMinute"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "ERS")
	v.SetDefault("secretKey", "8d!c0e#r1s-lq9x_3m@u7v$5+pe2zb4&k(w6)hy0ajf")

	v.SetDefault("server.host", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.requestTimeout", 15*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 8*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 7*24*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "ers")
	v.SetDefault("database.user", "ers")
	v.SetDefault("database.password", "ers")

	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("storage.opTimeout", 10*time.Second)
	v.SetDefault("storage.seed", true)

	v.SetDefault("pins.maxUsage", 5)
	v.SetDefault("pins.validity", 90*24*time.Hour)

	v.SetDefault("rateLimit.pinChecksPerMinute", 20)

	v.SetDefault("gemini.model", "gemini-1.5-flash")
}

// NewTestConfig returns the configuration used by tests; it never reads the environment.
func NewTestConfig() *Config {
	v := viper.New()
	setDefaults(v)
	return &Config{
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		AppName:   v.GetString("appName"),
		SecretKey: v.GetString("secretKey"),
		Server: ServerConfig{
			DisableReqLogs:            true,
			RequestTimeout:            v.GetDuration("server.requestTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Storage: StorageConfig{
			Backend:   BackendMemory,
			OpTimeout: v.GetDuration("storage.opTimeout"),
		},
		Pins: PinsConfig{
			MaxUsage: v.GetInt("pins.maxUsage"),
			Validity: v.GetDuration("pins.validity"),
		},
		PinChecksPerMinute: 1000,
	}
}

// String hides secrets; safe to log.
func (c *Config) String() string {
	return fmt.Sprintf("env=%s build=%s debug=%t storage=%s host=%s", c.Env, c.Build, c.Debug, c.Storage.Backend, c.Server.Host)
}
