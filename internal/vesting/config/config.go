// Package config loads the service configuration from YAML, overlays
// environment variables and fills defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gartstein/vestledger/internal/vesting/controller"
	"github.com/gartstein/vestledger/internal/vesting/db"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config mirrors config/config.yaml. Keys double as environment variable
// names, see Overrides.
type Config struct {
	GRPCPort int `yaml:"GRPC_PORT"`
	HTTPPort int `yaml:"HTTP_PORT"`

	DBDriver   string `yaml:"DB_DRIVER"`
	DBHost     string `yaml:"DB_HOST"`
	DBPort     int    `yaml:"DB_PORT"`
	DBUser     string `yaml:"DB_USER"`
	DBPassword string `yaml:"DB_PASSWORD"`
	DBName     string `yaml:"DB_NAME"`
	DBSSLMode  string `yaml:"DB_SSLMODE"`
	SQLitePath string `yaml:"SQLITE_PATH"`

	KafkaBrokers []string `yaml:"KAFKA_BROKERS"`
	Topic        string   `yaml:"TOPIC"`

	JWTSecret  string `yaml:"JWT_SECRET"`
	LedgerPath string `yaml:"LEDGER_PATH"`

	MaxEmployeesPerOrg uint64 `yaml:"MAX_EMPLOYEES_PER_ORG"`
	MinVestingDuration int64  `yaml:"MIN_VESTING_DURATION"`

	RateLimitRPS     float64 `yaml:"RATE_LIMIT_RPS"`
	RateLimitBurst   int     `yaml:"RATE_LIMIT_BURST"`
	ProfileCacheSize int     `yaml:"PROFILE_CACHE_SIZE"`
}

// Load reads and parses the YAML file at path.
func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Overrides replace YAML values key by key. The CLI binds every field to a
// flag and to the environment variable named after its YAML key; fields
// that were not supplied stay nil.
type Overrides struct {
	GRPCPort *int `name:"grpc-port" env:"GRPC_PORT" help:"gRPC listen port."`
	HTTPPort *int `name:"http-port" env:"HTTP_PORT" help:"HTTP gateway listen port."`

	DBDriver   *string `name:"db-driver" env:"DB_DRIVER" help:"Database driver (postgres or sqlite)."`
	DBHost     *string `name:"db-host" env:"DB_HOST" help:"Postgres host."`
	DBPort     *int    `name:"db-port" env:"DB_PORT" help:"Postgres port."`
	DBUser     *string `name:"db-user" env:"DB_USER" help:"Postgres user."`
	DBPassword *string `name:"db-password" env:"DB_PASSWORD" help:"Postgres password."`
	DBName     *string `name:"db-name" env:"DB_NAME" help:"Postgres database."`
	DBSSLMode  *string `name:"db-sslmode" env:"DB_SSLMODE" help:"Postgres sslmode."`
	SQLitePath *string `name:"sqlite-path" env:"SQLITE_PATH" help:"sqlite database file."`

	KafkaBrokers []string `name:"kafka-brokers" env:"KAFKA_BROKERS" sep:"," help:"Kafka brokers, comma separated."`
	Topic        *string  `name:"topic" env:"TOPIC" help:"Kafka topic for ledger events."`

	JWTSecret  *string `name:"jwt-secret" env:"JWT_SECRET" help:"HS256 secret for caller tokens."`
	LedgerPath *string `name:"ledger-path" env:"LEDGER_PATH" help:"Custody ledger file."`

	MaxEmployeesPerOrg *uint64 `name:"max-employees-per-org" env:"MAX_EMPLOYEES_PER_ORG" help:"Employee cap per organization."`
	MinVestingDuration *int64  `name:"min-vesting-duration" env:"MIN_VESTING_DURATION" help:"Minimum vesting duration in seconds."`

	RateLimitRPS     *float64 `name:"rate-limit-rps" env:"RATE_LIMIT_RPS" help:"Requests per second, 0 disables limiting."`
	RateLimitBurst   *int     `name:"rate-limit-burst" env:"RATE_LIMIT_BURST" help:"Rate limiter burst."`
	ProfileCacheSize *int     `name:"profile-cache-size" env:"PROFILE_CACHE_SIZE" help:"Employee profile cache entries, 0 disables."`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Apply lays the supplied overrides over c.
func (c *Config) Apply(o Overrides) {
	set(&c.GRPCPort, o.GRPCPort)
	set(&c.HTTPPort, o.HTTPPort)

	set(&c.DBDriver, o.DBDriver)
	set(&c.DBHost, o.DBHost)
	set(&c.DBPort, o.DBPort)
	set(&c.DBUser, o.DBUser)
	set(&c.DBPassword, o.DBPassword)
	set(&c.DBName, o.DBName)
	set(&c.DBSSLMode, o.DBSSLMode)
	set(&c.SQLitePath, o.SQLitePath)

	if o.KafkaBrokers != nil {
		c.KafkaBrokers = nil
		for _, broker := range o.KafkaBrokers {
			if broker = strings.TrimSpace(broker); broker != "" {
				c.KafkaBrokers = append(c.KafkaBrokers, broker)
			}
		}
	}
	set(&c.Topic, o.Topic)

	set(&c.JWTSecret, o.JWTSecret)
	set(&c.LedgerPath, o.LedgerPath)

	set(&c.MaxEmployeesPerOrg, o.MaxEmployeesPerOrg)
	set(&c.MinVestingDuration, o.MinVestingDuration)

	set(&c.RateLimitRPS, o.RateLimitRPS)
	set(&c.RateLimitBurst, o.RateLimitBurst)
	set(&c.ProfileCacheSize, o.ProfileCacheSize)
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.GRPCPort == 0 {
		c.GRPCPort = 50051
	}
	if c.HTTPPort == 0 {
		c.HTTPPort = 8080
	}
	if c.DBDriver == "" {
		c.DBDriver = DriverPostgres
	}
	if c.DBPort == 0 {
		c.DBPort = 5432
	}
	if c.DBSSLMode == "" {
		c.DBSSLMode = "disable"
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "vestledger.db"
	}
	if c.Topic == "" {
		c.Topic = "vesting.events"
	}
	if c.LedgerPath == "" {
		c.LedgerPath = "ledger.db"
	}
	if c.MaxEmployeesPerOrg == 0 {
		c.MaxEmployeesPerOrg = controller.DefaultLimits.MaxEmployeesPerOrg
	}
	if c.MinVestingDuration == 0 {
		c.MinVestingDuration = controller.DefaultLimits.MinVestingDuration
	}
	if c.RateLimitBurst == 0 && c.RateLimitRPS > 0 {
		c.RateLimitBurst = int(c.RateLimitRPS) + 1
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.DBDriver {
	case DriverPostgres:
		if c.DBHost == "" || c.DBName == "" {
			errs = append(errs, errors.New("DB_HOST and DB_NAME are required for postgres"))
		}
	case DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}
	if c.MinVestingDuration < 0 {
		errs = append(errs, errors.New("MIN_VESTING_DURATION must not be negative"))
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) Database() *db.Config {
	return &db.Config{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		DBName:   c.DBName,
		SSLMode:  c.DBSSLMode,
	}
}

func (c *Config) Limits() controller.Limits {
	return controller.Limits{
		MaxEmployeesPerOrg: c.MaxEmployeesPerOrg,
		MinVestingDuration: c.MinVestingDuration,
	}
}
