// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configPath = pflag.String("config", ".", "Directory holding config.toml")

	validLogLevels  = []string{"debug", "info", "warn", "error", "fatal"}
	validDrivers    = []string{"sqlite", "postgres"}
	validLockStores = []string{"redis", "database"}
	validPayModes   = []string{"test", "live"}
)

type Host struct {
	Port     int
	Domain   string
	SSL      bool
	CertPath string
	KeyPath  string
	CORS     []string
}

type Security struct {
	JWTSecret        string
	RateLimit        int
	RateBurst        int
	TurnstileEnabled bool
	TurnstileSecret  string
}

type Database struct {
	Driver string
	DSN    string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Locks struct {
	Store           string
	TTL             time.Duration
	CleanupInterval time.Duration
}

type Network struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PresignTTL      time.Duration
}

type Gateway struct {
	URL  string
	User string
	Pass string
}

type Payments struct {
	Mode string
	// Key is the Stripe key of Mode, picked once at load time
	Key string
}

type Mail struct {
	Host      string
	Port      int
	Sender    string
	Password  string
	JoinURL   string
	Workers   int
	QueueSize int
}

// Config is the validated application configuration
type Config struct {
	LogLevel     string
	Host         Host
	Security     Security
	VaultKey     string
	Database     Database
	Redis        Redis
	Locks        Locks
	Network      Network
	Gateway      Gateway
	Payments     Payments
	Mail         Mail
	BridgeDomain string
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() (*Config, error) {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configPath)

	v.AutomaticEnv()

	bindEnvs()
	setDefaults()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return nil, errors.New("config.toml file is missing")
		}

		return nil, fmt.Errorf("failed to read config file, %w", err)
	}

	return Load()
}

func bindEnvs() {
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")
	v.BindEnv("host.cors", "host_cors")

	v.BindEnv("host.ssl.enabled", "host_ssl_enabled")
	v.BindEnv("host.ssl.certificate_path", "host_ssl_certificate_path")
	v.BindEnv("host.ssl.certificate_key_path", "host_ssl_certificate_key_path")

	v.BindEnv("security.jwt_secret", "security_jwt_secret")
	v.BindEnv("security.rate_limit", "security_rate_limit")
	v.BindEnv("security.rate_burst", "security_rate_burst")
	v.BindEnv("security.turnstile.enabled", "security_turnstile_enabled")
	v.BindEnv("security.turnstile.secret_token", "security_turnstile_secret_token")

	v.BindEnv("vault.key", "vault_key")

	v.BindEnv("database.driver", "database_driver")
	v.BindEnv("database.dsn", "database_dsn")

	v.BindEnv("redis.addr", "redis_addr")
	v.BindEnv("redis.password", "redis_password")
	v.BindEnv("redis.db", "redis_db")

	v.BindEnv("locks.store", "locks_store")
	v.BindEnv("locks.ttl", "locks_ttl")
	v.BindEnv("locks.cleanup_interval", "locks_cleanup_interval")

	v.BindEnv("network.bucket", "network_bucket")
	v.BindEnv("network.region", "network_region")
	v.BindEnv("network.endpoint", "network_endpoint")
	v.BindEnv("network.access_key_id", "network_access_key_id")
	v.BindEnv("network.secret_access_key", "network_secret_access_key")
	v.BindEnv("network.presign_ttl", "network_presign_ttl")

	v.BindEnv("gateway.url", "gateway_url")
	v.BindEnv("gateway.user", "gateway_user")
	v.BindEnv("gateway.pass", "gateway_pass")

	v.BindEnv("payments.mode", "payments_mode")
	v.BindEnv("payments.stripe_test_key", "payments_stripe_test_key")
	v.BindEnv("payments.stripe_live_key", "payments_stripe_live_key")

	v.BindEnv("mail.host", "mail_host")
	v.BindEnv("mail.port", "mail_port")
	v.BindEnv("mail.sender", "mail_sender")
	v.BindEnv("mail.password", "mail_password")
	v.BindEnv("mail.join_url", "mail_join_url")
	v.BindEnv("mail.workers", "mail_workers")
	v.BindEnv("mail.queue_size", "mail_queue_size")

	v.BindEnv("teams.bridge_domain", "teams_bridge_domain")
}

func setDefaults() {
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.ssl.enabled", false)
	v.SetDefault("host.cors", []string{"http://localhost:3000"})

	v.SetDefault("security.rate_limit", 5)
	v.SetDefault("security.rate_burst", 10)
	v.SetDefault("security.turnstile.enabled", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "drive.db")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("locks.store", "redis")
	v.SetDefault("locks.ttl", "30s")
	v.SetDefault("locks.cleanup_interval", "1m")

	v.SetDefault("network.region", "auto")
	v.SetDefault("network.presign_ttl", "15m")

	v.SetDefault("payments.mode", "test")

	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.workers", 2)
	v.SetDefault("mail.queue_size", 256)

	v.SetDefault("teams.bridge_domain", "inxt.com")
}

// Load builds and validates a Config from the values currently held by viper
func Load() (*Config, error) {
	c := &Config{
		LogLevel: v.GetString("app.log_level"),
		Host: Host{
			Port:     v.GetInt("host.port"),
			Domain:   v.GetString("host.domain"),
			SSL:      v.GetBool("host.ssl.enabled"),
			CertPath: v.GetString("host.ssl.certificate_path"),
			KeyPath:  v.GetString("host.ssl.certificate_key_path"),
			CORS:     v.GetStringSlice("host.cors"),
		},
		Security: Security{
			JWTSecret:        v.GetString("security.jwt_secret"),
			RateLimit:        v.GetInt("security.rate_limit"),
			RateBurst:        v.GetInt("security.rate_burst"),
			TurnstileEnabled: v.GetBool("security.turnstile.enabled"),
			TurnstileSecret:  v.GetString("security.turnstile.secret_token"),
		},
		VaultKey: v.GetString("vault.key"),
		Database: Database{
			Driver: v.GetString("database.driver"),
			DSN:    v.GetString("database.dsn"),
		},
		Redis: Redis{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Locks: Locks{
			Store:           v.GetString("locks.store"),
			TTL:             v.GetDuration("locks.ttl"),
			CleanupInterval: v.GetDuration("locks.cleanup_interval"),
		},
		Network: Network{
			Bucket:          v.GetString("network.bucket"),
			Region:          v.GetString("network.region"),
			Endpoint:        v.GetString("network.endpoint"),
			AccessKeyID:     v.GetString("network.access_key_id"),
			SecretAccessKey: v.GetString("network.secret_access_key"),
			PresignTTL:      v.GetDuration("network.presign_ttl"),
		},
		Gateway: Gateway{
			URL:  v.GetString("gateway.url"),
			User: v.GetString("gateway.user"),
			Pass: v.GetString("gateway.pass"),
		},
		Payments: Payments{
			Mode: v.GetString("payments.mode"),
		},
		Mail: Mail{
			Host:      v.GetString("mail.host"),
			Port:      v.GetInt("mail.port"),
			Sender:    v.GetString("mail.sender"),
			Password:  v.GetString("mail.password"),
			JoinURL:   v.GetString("mail.join_url"),
			Workers:   v.GetInt("mail.workers"),
			QueueSize: v.GetInt("mail.queue_size"),
		},
		BridgeDomain: v.GetString("teams.bridge_domain"),
	}

	if c.Payments.Mode == "live" {
		c.Payments.Key = v.GetString("payments.stripe_live_key")
	} else {
		c.Payments.Key = v.GetString("payments.stripe_test_key")
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return errors.New("invalid log level provided")
	}

	if c.Host.Port <= 0 {
		return errors.New("invalid port provided")
	}

	if c.Host.SSL {
		if c.Host.CertPath == "" {
			return errors.New("no ssl certificate path provided")
		}

		if c.Host.KeyPath == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret is missing, you can use this randomly generated one: %s", genSecret())
	}

	if c.Security.RateLimit <= 0 || c.Security.RateBurst <= 0 {
		return errors.New("security.rate_limit and security.rate_burst must be bigger than 0")
	}

	if c.Security.TurnstileEnabled && c.Security.TurnstileSecret == "" {
		return errors.New("turnstile secret token is missing")
	}

	if !slices.Contains(validDrivers, c.Database.Driver) {
		return errors.New("invalid database driver provided")
	}

	if c.Database.DSN == "" {
		return errors.New("database dsn can't be empty")
	}

	if !slices.Contains(validLockStores, c.Locks.Store) {
		return errors.New("invalid lock store provided")
	}

	if c.Locks.TTL <= 0 {
		return errors.New("locks.ttl must be bigger than 0")
	}

	if c.Locks.Store == "redis" && c.Redis.Addr == "" {
		return errors.New("redis address can't be empty when locks are stored in redis")
	}

	if c.Network.Bucket == "" {
		return errors.New("network bucket can't be empty")
	}

	if c.Network.AccessKeyID == "" || c.Network.SecretAccessKey == "" {
		return errors.New("network access keys can't be empty")
	}

	if c.Gateway.URL == "" {
		return errors.New("gateway url can't be empty")
	}

	if !slices.Contains(validPayModes, c.Payments.Mode) {
		return errors.New("invalid payments mode provided")
	}

	if c.Payments.Key == "" {
		return fmt.Errorf("stripe key for %s mode is missing", c.Payments.Mode)
	}

	if c.Mail.Host == "" || c.Mail.Sender == "" {
		return errors.New("mail host and sender can't be empty")
	}

	if c.BridgeDomain == "" {
		return errors.New("teams bridge domain can't be empty")
	}

	return nil
}
