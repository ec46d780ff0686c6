package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "telemetry_server"

const (
	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"
)

var ErrInvalidConfig = errors.New("invalid config")

var loadConfigOnce sync.Once
var configInstance AppConfig

// LoadConfig reads the process configuration once. Flags registered with
// RegisterFlags take precedence over environment variables, which take
// precedence over config/server.yaml.
func LoadConfig() AppConfig {
	loadConfigOnce.Do(func() {
		cfg, err := Load(viper.GetViper())
		if err != nil {
			panic(fmt.Errorf("fatal error config: %w", err))
		}
		configInstance = cfg
	})

	return configInstance
}

// Load builds an AppConfig from v. A missing config file is not an error.
func Load(v *viper.Viper) (AppConfig, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("server")
	v.AddConfigPath("config")
	v.AddConfigPath("/config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := AppConfig{
		General: GeneralConfig{
			LogLevel: v.GetString("general.log_level"),
		},
		HTTP: HTTPConfig{
			Address: v.GetString("http.address"),
		},
		Store: StoreConfig{
			Backend:  strings.ToLower(v.GetString("store.backend")),
			RedisKey: v.GetString("store.redis_key"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		MQTTClient: MQTTClientConfig{
			Enabled:     v.GetBool("mqtt_client.enabled"),
			Broker:      v.GetString("mqtt_client.broker"),
			ClientID:    v.GetString("mqtt_client.client_id"),
			Username:    v.GetString("mqtt_client.username"),
			Password:    v.GetString("mqtt_client.password"),
			RelayTopic:  v.GetString("mqtt_client.relay_topic"),
			IngestTopic: v.GetString("mqtt_client.ingest_topic"),
			Encoding:    strings.ToLower(v.GetString("mqtt_client.encoding")),
		},
		OTel: OTelConfig{
			Enabled:  v.GetBool("otel.enabled"),
			Endpoint: v.GetString("otel.endpoint"),
		},
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("http.address", ":5000")
	v.SetDefault("store.backend", StoreBackendMemory)
	v.SetDefault("store.redis_key", "telemetry:readings")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("mqtt_client.enabled", false)
	v.SetDefault("mqtt_client.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt_client.client_id", "telemetry-server")
	v.SetDefault("mqtt_client.relay_topic", "telemetry/readings")
	v.SetDefault("mqtt_client.ingest_topic", "")
	v.SetDefault("mqtt_client.encoding", "json")
	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.endpoint", "localhost:4317")
}

// RegisterFlags adds the command line overrides to fs and binds them to the
// global viper instance used by LoadConfig.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("address", ":5000", "HTTP listen address")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.String("store", StoreBackendMemory, "reading store backend: memory or redis")

	viper.BindPFlag("http.address", fs.Lookup("address"))
	viper.BindPFlag("general.log_level", fs.Lookup("log-level"))
	viper.BindPFlag("store.backend", fs.Lookup("store"))
}

func (c AppConfig) validate() error {
	switch c.Store.Backend {
	case StoreBackendMemory, StoreBackendRedis:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}

	if c.Store.Backend == StoreBackendRedis && c.Redis.Addr == "" {
		return fmt.Errorf("%w: redis.addr is required for the redis store", ErrInvalidConfig)
	}

	if c.MQTTClient.Enabled && c.MQTTClient.Broker == "" {
		return fmt.Errorf("%w: mqtt_client.broker is required when mqtt is enabled", ErrInvalidConfig)
	}

	return nil
}

type AppConfig struct {
	General    GeneralConfig
	HTTP       HTTPConfig
	Store      StoreConfig
	Redis      RedisConfig
	MQTTClient MQTTClientConfig
	OTel       OTelConfig
}

type GeneralConfig struct {
	LogLevel string
}

type HTTPConfig struct {
	Address string
}

type StoreConfig struct {
	Backend  string
	RedisKey string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MQTTClientConfig struct {
	Enabled     bool
	Broker      string
	ClientID    string
	Username    string
	Password    string
	RelayTopic  string
	IngestTopic string
	Encoding    string
}

type OTelConfig struct {
	Enabled  bool
	Endpoint string
}
