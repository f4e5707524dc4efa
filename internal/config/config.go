package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	GeneralParams    GeneralParams
	HttpServerParams HttpServerParams
	RoomParams       RoomParams
	WebsocketParams  WebsocketParams
	ArchiveParams    ArchiveParams
}

type GeneralParams struct {
	Env      string
	LogLevel string
}

type HttpServerParams struct {
	Address      string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RoomParams struct {
	CommandBuffer  int
	EmptyGrace     time.Duration
	IdleTTL        time.Duration
	SweepInterval  time.Duration
	CommandTimeout time.Duration
}

type WebsocketParams struct {
	SendBuffer     int
	AllowedOrigins []string
	IdleHubTimeout time.Duration
}

type ArchiveParams struct {
	Enabled   bool
	QueueSize int
	Timeout   time.Duration
	DB        DBParams
	S3        S3Params
}

type DBParams struct {
	Username string
	Password string
	Name     string
	Port     int
	Host     string
	Timeout  int
}

type S3Params struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
}

type ConfigManager struct {
	v      *viper.Viper
	config *Config
}

// NewConfigManager creates new config manager that handles
// all viper config options and loads a config from yaml
func NewConfigManager(configPath string) (*ConfigManager, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cm := &ConfigManager{v: v}

	if err := cm.loadConfig(); err != nil {
		return nil, err
	}

	return cm, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general_params.env", "dev")
	v.SetDefault("general_params.log_level", "")

	v.SetDefault("http_server_params.address", "0.0.0.0")
	v.SetDefault("http_server_params.port", "8080")
	v.SetDefault("http_server_params.read_timeout", 15*time.Second)
	v.SetDefault("http_server_params.write_timeout", 15*time.Second)
	v.SetDefault("http_server_params.idle_timeout", 60*time.Second)

	v.SetDefault("room_params.command_buffer", 64)
	v.SetDefault("room_params.empty_grace", 30*time.Second)
	v.SetDefault("room_params.idle_ttl", 6*time.Hour)
	v.SetDefault("room_params.sweep_interval", time.Minute)
	v.SetDefault("room_params.command_timeout", 5*time.Second)

	v.SetDefault("websocket_params.send_buffer", 16)
	v.SetDefault("websocket_params.allowed_origins", []string{})
	v.SetDefault("websocket_params.idle_hub_timeout", time.Minute)

	v.SetDefault("archive_params.enabled", false)
	v.SetDefault("archive_params.queue_size", 128)
	v.SetDefault("archive_params.timeout", 5*time.Second)
	v.SetDefault("archive_params.db.port", 5432)
	v.SetDefault("archive_params.db.timeout", 5)
	v.SetDefault("archive_params.s3.bucket_name", "decisions")
}

// Extracting data from yaml file and loading into Config
func (cm *ConfigManager) loadConfig() error {
	cm.config = &Config{
		GeneralParams: GeneralParams{
			Env:      cm.v.GetString("general_params.env"),
			LogLevel: cm.v.GetString("general_params.log_level"),
		},
		HttpServerParams: HttpServerParams{
			Address:      cm.v.GetString("http_server_params.address"),
			Port:         cm.v.GetString("http_server_params.port"),
			ReadTimeout:  cm.v.GetDuration("http_server_params.read_timeout"),
			WriteTimeout: cm.v.GetDuration("http_server_params.write_timeout"),
			IdleTimeout:  cm.v.GetDuration("http_server_params.idle_timeout"),
		},
		RoomParams: RoomParams{
			CommandBuffer:  cm.v.GetInt("room_params.command_buffer"),
			EmptyGrace:     cm.v.GetDuration("room_params.empty_grace"),
			IdleTTL:        cm.v.GetDuration("room_params.idle_ttl"),
			SweepInterval:  cm.v.GetDuration("room_params.sweep_interval"),
			CommandTimeout: cm.v.GetDuration("room_params.command_timeout"),
		},
		WebsocketParams: WebsocketParams{
			SendBuffer:     cm.v.GetInt("websocket_params.send_buffer"),
			AllowedOrigins: cm.v.GetStringSlice("websocket_params.allowed_origins"),
			IdleHubTimeout: cm.v.GetDuration("websocket_params.idle_hub_timeout"),
		},
		ArchiveParams: ArchiveParams{
			Enabled:   cm.v.GetBool("archive_params.enabled"),
			QueueSize: cm.v.GetInt("archive_params.queue_size"),
			Timeout:   cm.v.GetDuration("archive_params.timeout"),
			DB: DBParams{
				Username: cm.v.GetString("archive_params.db.username"),
				Password: cm.v.GetString("archive_params.db.password"),
				Name:     cm.v.GetString("archive_params.db.name"),
				Port:     cm.v.GetInt("archive_params.db.port"),
				Host:     cm.v.GetString("archive_params.db.host"),
				Timeout:  cm.v.GetInt("archive_params.db.timeout"),
			},
			S3: S3Params{
				Endpoint:        cm.v.GetString("archive_params.s3.endpoint"),
				AccessKeyID:     cm.v.GetString("archive_params.s3.access_key_id"),
				SecretAccessKey: cm.v.GetString("archive_params.s3.secret_access_key"),
				UseSSL:          cm.v.GetBool("archive_params.s3.use_ssl"),
				BucketName:      cm.v.GetString("archive_params.s3.bucket_name"),
			},
		},
	}
	return nil
}

// Geting config instance
func (cm *ConfigManager) GetConfig() *Config {
	return cm.config
}

// Compiling a string to connect to the archive database
func (db *DBParams) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=%d&sslmode=disable",
		db.Username,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		db.Timeout,
	)
}

func (h *HttpServerParams) GetAddress() string {
	return fmt.Sprintf(
		"%s:%s",
		h.Address,
		h.Port,
	)
}

func (c *Config) Validate() error {
	// Checking out enviroment variable
	switch c.GeneralParams.Env {
	case "dev", "prod", "test":
	default:
		return fmt.Errorf("env parameter is invalid: %s. try dev/prod/test instead", c.GeneralParams.Env)
	}

	switch strings.ToLower(c.GeneralParams.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level parameter is invalid: %s", c.GeneralParams.LogLevel)
	}

	// Checking http server parameters
	if c.HttpServerParams.Address == "" {
		return fmt.Errorf("http server address is required")
	}
	if c.HttpServerParams.Port == "" {
		return fmt.Errorf("http server port is required")
	}

	// Checking room engine parameters
	if c.RoomParams.CommandBuffer <= 0 {
		return fmt.Errorf("room command_buffer must be positive")
	}
	if c.RoomParams.EmptyGrace < 0 || c.RoomParams.IdleTTL < 0 {
		return fmt.Errorf("room empty_grace and idle_ttl must not be negative")
	}
	if c.RoomParams.IdleTTL > 0 && c.RoomParams.SweepInterval <= 0 {
		return fmt.Errorf("room sweep_interval must be positive when idle_ttl is set")
	}
	if c.RoomParams.CommandTimeout <= 0 {
		return fmt.Errorf("room command_timeout must be positive")
	}

	if c.WebsocketParams.SendBuffer <= 0 {
		return fmt.Errorf("websocket send_buffer must be positive")
	}

	if !c.ArchiveParams.Enabled {
		return nil
	}
	if c.ArchiveParams.QueueSize <= 0 {
		return fmt.Errorf("archive queue_size must be positive")
	}

	// Checking archive database params
	db := c.ArchiveParams.DB
	if db.Host == "" {
		return fmt.Errorf("archive db: host is required")
	}
	if db.Username == "" {
		return fmt.Errorf("archive db: username is required")
	}
	if db.Password == "" {
		return fmt.Errorf("archive db: password is requred")
	}
	if db.Name == "" {
		return fmt.Errorf("archive db: name is required")
	}
	if db.Port <= 0 || db.Port > 65535 {
		return fmt.Errorf("archive db: port is invalid")
	}

	// Checking S3 params
	s3 := c.ArchiveParams.S3
	if s3.Endpoint == "" {
		return fmt.Errorf("S3 endpoint is required")
	}
	if s3.AccessKeyID == "" {
		return fmt.Errorf("S3 access_key id is required")
	}
	if s3.SecretAccessKey == "" {
		return fmt.Errorf("S3 secret_access_key is required")
	}
	if s3.BucketName == "" {
		return fmt.Errorf("S3 bucket name is required")
	}

	return nil
}
