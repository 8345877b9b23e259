package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/travigo/cta-train-analytics/pkg/util"

	_ "time/tzdata"
)

var ErrMissingConfiguration = errors.New("missing configuration")

type MissingConfigError struct {
	Name string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("environment variable %s not set", e.Name)
}

func (e *MissingConfigError) Unwrap() error {
	return ErrMissingConfiguration
}

const (
	APIKeyVariable         = "CTA_API_KEY"
	DeliveryStreamVariable = "CTA_DELIVERY_STREAM"
	MinioEndpointVariable  = "CTA_MINIO_ENDPOINT"
	MinioBucketVariable    = "CTA_MINIO_BUCKET"
)

const (
	SinkElasticsearch = "elasticsearch"
	SinkMongoDB       = "mongodb"
	SinkRedis         = "redis"
	SinkMinio         = "minio"
)

type RedisConfig struct {
	Address  string
	Password string
	Database int
}

type ElasticsearchConfig struct {
	Address  string
	Username string
	Password string
}

type MongoDBConfig struct {
	Connection string
	Database   string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
}

// Config is read once at startup and handed to every component that needs it
type Config struct {
	APIKey         string
	DeliveryStream string
	Sink           string

	QueueName           string
	LinesFile           string
	MaxDeliveryAttempts int
	InvocationTimeout   time.Duration
	Consumers           int
	Timezone            *time.Location

	Redis         RedisConfig
	Elasticsearch ElasticsearchConfig
	MongoDB       MongoDBConfig
	Minio         MinioConfig

	ArchiveDestination string
	ArchivePartition   string

	LogFormat   string
	Debug       bool
	StatsListen string

	env map[string]string
}

func Load() (*Config, error) {
	return FromEnvironment(util.GetEnvironmentVariables())
}

func FromEnvironment(env map[string]string) (*Config, error) {
	config := &Config{
		APIKey:         env[APIKeyVariable],
		DeliveryStream: env[DeliveryStreamVariable],
		Sink:           strings.ToLower(util.EnvironmentValue(env, "CTA_SINK", SinkElasticsearch)),

		QueueName: util.EnvironmentValue(env, "CTA_QUEUE_NAME", "train-lines"),
		LinesFile: env["CTA_LINES_FILE"],

		Redis: RedisConfig{
			Address:  util.EnvironmentValue(env, "CTA_REDIS_ADDRESS", "localhost:6379"),
			Password: env["CTA_REDIS_PASSWORD"],
		},
		Elasticsearch: ElasticsearchConfig{
			Address:  env["CTA_ELASTICSEARCH_ADDRESS"],
			Username: env["CTA_ELASTICSEARCH_USERNAME"],
			Password: env["CTA_ELASTICSEARCH_PASSWORD"],
		},
		MongoDB: MongoDBConfig{
			Connection: util.EnvironmentValue(env, "CTA_MONGODB_CONNECTION", "mongodb://localhost:27017/"),
			Database:   util.EnvironmentValue(env, "CTA_MONGODB_DATABASE", "cta"),
		},
		Minio: MinioConfig{
			Endpoint:  env[MinioEndpointVariable],
			AccessKey: env["CTA_MINIO_ACCESS_KEY"],
			SecretKey: env["CTA_MINIO_SECRET_KEY"],
			Bucket:    env[MinioBucketVariable],
			Region:    env["CTA_MINIO_REGION"],
		},

		ArchiveDestination: util.EnvironmentValue(env, "CTA_ARCHIVE_DESTINATION", "parquet"),
		ArchivePartition:   util.EnvironmentValue(env, "CTA_ARCHIVE_PARTITION", "service_date"),

		LogFormat:   env["CTA_LOG_FORMAT"],
		Debug:       env["CTA_DEBUG"] == "YES",
		StatsListen: util.EnvironmentValue(env, "CTA_STATS_LISTEN", ":3333"),

		env: env,
	}

	var err error

	if config.MaxDeliveryAttempts, err = intValue(env, "CTA_MAX_DELIVERY_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if config.Consumers, err = intValue(env, "CTA_CONSUMERS", 4); err != nil {
		return nil, err
	}
	if config.Redis.Database, err = intValue(env, "CTA_REDIS_DATABASE", 0); err != nil {
		return nil, err
	}

	timeout := util.EnvironmentValue(env, "CTA_INVOCATION_TIMEOUT", "60s")
	if config.InvocationTimeout, err = time.ParseDuration(timeout); err != nil {
		return nil, fmt.Errorf("parse CTA_INVOCATION_TIMEOUT: %w", err)
	}

	timezone := util.EnvironmentValue(env, "CTA_TIMEZONE", "America/Chicago")
	if config.Timezone, err = time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("load CTA_TIMEZONE: %w", err)
	}

	switch config.Sink {
	case SinkElasticsearch, SinkMongoDB, SinkRedis, SinkMinio:
	default:
		return nil, fmt.Errorf("unsupported CTA_SINK %q", config.Sink)
	}

	return config, nil
}

// Require fails on the first named variable that is absent from the environment
func (c *Config) Require(names ...string) error {
	for _, name := range names {
		if strings.TrimSpace(c.env[name]) == "" {
			return &MissingConfigError{Name: name}
		}
	}

	return nil
}

func intValue(env map[string]string, name string, fallback int) (int, error) {
	value := util.EnvironmentValue(env, name, "")
	if value == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}

	return n, nil
}
