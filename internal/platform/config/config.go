package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the complete node configuration.
type Config struct {
	Server   Server
	PDP      PDP
	Kafka    Kafka
	Database Database
	Redis    RedisConfig
	PIP      PIP
	Log      Log
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	// BasicAuthUser and BasicAuthHash (bcrypt) are used when no signing key is set.
	BasicAuthUser string
	BasicAuthHash string
}

// PDP holds the node identity and lifecycle settings.
type PDP struct {
	Name              string
	Type              string
	Group             string
	HeartbeatInterval time.Duration
	StoragePath       string
	// Applications restricts the built-in applications loaded; empty means all.
	Applications   []string
	PolicyTypesDir string
	WatchTypes     bool
}

// Kafka configures the control-message bus.
type Kafka struct {
	Brokers     string
	Topic       string
	GroupID     string
	ClientID    string
	CreateTopic bool
	Partitions  int32
	Replication int16
}

// Database configures the operations history store. An empty URL disables it.
type Database struct {
	URL          string
	QueryTimeout time.Duration
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig configures the attribute cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PIP configures attribute providers.
type PIP struct {
	CacheTTL         time.Duration
	FailureThreshold int
	SuccessThreshold int
	Cooldown         time.Duration
}

type Log struct {
	Level  string
	Format string
}

// FromEnv builds the config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          getEnv("PDP_ADDR", ":6969"),
			JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
			BasicAuthUser: os.Getenv("PDP_BASIC_AUTH_USER"),
			BasicAuthHash: os.Getenv("PDP_BASIC_AUTH_HASH"),
		},
		PDP: PDP{
			Name:              os.Getenv("PDP_NAME"),
			Type:              getEnv("PDP_TYPE", "xacml"),
			Group:             getEnv("PDP_GROUP", "defaultGroup"),
			HeartbeatInterval: getDuration("PDP_HEARTBEAT_INTERVAL", 60*time.Second),
			StoragePath:       getEnv("PDP_STORAGE_PATH", "/tmp/pdpnode"),
			Applications:      getList("PDP_APPLICATIONS"),
			PolicyTypesDir:    getEnv("PDP_POLICY_TYPES_DIR", "config/policytypes"),
			WatchTypes:        getBool("PDP_WATCH_POLICY_TYPES", true),
		},
		Kafka: Kafka{
			Brokers:     getEnv("KAFKA_BROKERS", "localhost:9092"),
			Topic:       getEnv("KAFKA_TOPIC", "policy-pdp-pap"),
			GroupID:     os.Getenv("KAFKA_GROUP_ID"),
			ClientID:    getEnv("KAFKA_CLIENT_ID", "pdpnode"),
			CreateTopic: getBool("KAFKA_CREATE_TOPIC", false),
			Partitions:  int32(getInt("KAFKA_PARTITIONS", 1)),
			Replication: int16(getInt("KAFKA_REPLICATION", 1)),
		},
		Database: Database{
			URL:          os.Getenv("DATABASE_URL"),
			QueryTimeout: getDuration("DATABASE_QUERY_TIMEOUT", 2*time.Second),
			MaxOpenConns: getInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		PIP: PIP{
			CacheTTL:         getDuration("PIP_CACHE_TTL", 5*time.Second),
			FailureThreshold: getInt("PIP_BREAKER_FAILURES", 5),
			SuccessThreshold: getInt("PIP_BREAKER_SUCCESSES", 2),
			Cooldown:         getDuration("PIP_BREAKER_COOLDOWN", 10*time.Second),
		},
		Log: Log{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Validate rejects values the node cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	if c.Server.BasicAuthUser != "" && c.Server.BasicAuthHash == "" {
		errs = append(errs, errors.New("basic auth user set without a password hash"))
	}
	if c.PDP.Type == "" {
		errs = append(errs, errors.New("pdp type is required"))
	}
	if c.PDP.Group == "" {
		errs = append(errs, errors.New("pdp group is required"))
	}
	if c.PDP.HeartbeatInterval <= 0 {
		errs = append(errs, fmt.Errorf("heartbeat interval must be positive, got %s", c.PDP.HeartbeatInterval))
	}
	if c.PDP.StoragePath == "" {
		errs = append(errs, errors.New("storage path is required"))
	}
	if c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka topic is required"))
	}
	if c.Kafka.CreateTopic && (c.Kafka.Partitions < 1 || c.Kafka.Replication < 1) {
		errs = append(errs, errors.New("topic creation needs positive partitions and replication"))
	}
	if c.Database.URL != "" && c.Database.QueryTimeout <= 0 {
		errs = append(errs, errors.New("database query timeout must be positive"))
	}
	if c.PIP.CacheTTL < 0 {
		errs = append(errs, errors.New("pip cache ttl must not be negative"))
	}
	if c.PIP.FailureThreshold < 1 || c.PIP.SuccessThreshold < 1 {
		errs = append(errs, errors.New("breaker thresholds must be at least 1"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
