package tracker_config

import (
	"time"

	"github.com/NordCoder/ordotrack/internal/obs"
	pg "github.com/NordCoder/ordotrack/internal/repository/postgres"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (c *Config) LoggerConfig(stderr bool) obs.LogConfig {
	return obs.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
		App:    c.App.Name,
		Env:    c.App.Env,
		Ver:    c.App.Version,
		Stderr: stderr,
	}
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (c *Config) OTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:         c.OTEL.Enable,
		Endpoint:       c.OTEL.OTLPEndpoint,
		ServiceName:    c.OTEL.ServiceName,
		ServiceVersion: c.App.Version,
		SampleRatio:    c.OTEL.SampleRatio,
	}
}

const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Store struct {
	Backend   string `mapstructure:"backend"`
	Dir       string `mapstructure:"dir"`
	Namespace string `mapstructure:"namespace"`
}

type Notifier struct {
	Interval time.Duration `mapstructure:"interval"`
	// Permission pre-answers the alert permission prompt: granted, denied or unset (ask).
	Permission string `mapstructure:"permission"`
}

type SMTP struct {
	Enable     bool          `mapstructure:"enable"`
	Addr       string        `mapstructure:"addr"`
	From       string        `mapstructure:"from"`
	To         string        `mapstructure:"to"`
	User       string        `mapstructure:"user"`
	Password   string        `mapstructure:"password"`
	UseTLS     bool          `mapstructure:"use_tls"`
	Timeout    time.Duration `mapstructure:"timeout"`
	SubjPrefix string        `mapstructure:"subj_prefix"`
}

type Kafka struct {
	Enable  bool     `mapstructure:"enable"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type Config struct {
	App      App       `mapstructure:"app"`
	Log      Log       `mapstructure:"log"`
	OTEL     OTEL      `mapstructure:"otel"`
	Store    Store     `mapstructure:"store"`
	DB       pg.Config `mapstructure:"db"`
	Notifier Notifier  `mapstructure:"notifier"`
	SMTP     SMTP      `mapstructure:"smtp"`
	Kafka    Kafka     `mapstructure:"kafka"`
	Server   Server    `mapstructure:"server"`
}
