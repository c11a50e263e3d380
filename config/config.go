package config

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config ...
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	MySQL   MySQLConfig   `mapstructure:"mysql"`
	Log     LogConfig     `mapstructure:"log"`
	Jaeger  JaegerConfig  `mapstructure:"jaeger"`
	Outbox  OutboxConfig  `mapstructure:"outbox"`
	Summary SummaryConfig `mapstructure:"summary"`

	AdminIDs []int64 `mapstructure:"admin_ids"`
}

// ServerConfig ...
type ServerConfig struct {
	HTTP Listen `mapstructure:"http"`
}

// Listen ...
type Listen struct {
	Host string `mapstructure:"host"`
	Port uint16 `mapstructure:"port"`
}

// ListenString for net.Listen
func (l Listen) ListenString() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

// String ...
func (l Listen) String() string {
	host := l.Host
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("%s:%d", host, l.Port)
}

// JaegerConfig ...
type JaegerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// OutboxConfig ...
type OutboxConfig struct {
	DrainInterval time.Duration `mapstructure:"drain_interval"`
	BatchSize     int           `mapstructure:"batch_size"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
}

// SummaryConfig ...
type SummaryConfig struct {
	Hour   int `mapstructure:"hour"`
	Minute int `mapstructure:"minute"`
}

// Load reads config.yml from the working directory, with environment
// overrides (e.g. MYSQL_PASSWORD overrides mysql.password).
func Load() Config {
	vip := viper.New()
	vip.SetConfigName("config")
	vip.SetConfigType("yml")
	vip.AddConfigPath(".")

	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vip.AutomaticEnv()

	err := vip.ReadInConfig()
	if err != nil {
		panic(err)
	}

	var conf Config
	err = vip.Unmarshal(&conf)
	if err != nil {
		panic(err)
	}
	return conf
}

// LoadTestConfig reads config_test.yml from the repository root.
func LoadTestConfig(rootDir string) Config {
	vip := viper.New()
	vip.SetConfigFile(path.Join(rootDir, "config_test.yml"))

	err := vip.ReadInConfig()
	if err != nil {
		panic(err)
	}

	var conf Config
	err = vip.Unmarshal(&conf)
	if err != nil {
		panic(err)
	}
	return conf
}
