package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port           string        `mapstructure:"port" yaml:"port"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	AllowedOrigins []string      `mapstructure:"allowedOrigins" yaml:"allowedOrigins"`
}

// DatabaseConfig 的 Type 决定使用哪个存储后端: "mongo" 或 "memory"。
type DatabaseConfig struct {
	Type           string        `mapstructure:"type" yaml:"type"`
	URI            string        `mapstructure:"uri" yaml:"uri"`
	Name           string        `mapstructure:"name" yaml:"name"`
	ConnectTimeout time.Duration `mapstructure:"connectTimeout" yaml:"connectTimeout"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type UploadConfig struct {
	MaxBytes    int64 `mapstructure:"maxBytes" yaml:"maxBytes"`
	ThumbWidth  int   `mapstructure:"thumbWidth" yaml:"thumbWidth"`
	ThumbHeight int   `mapstructure:"thumbHeight" yaml:"thumbHeight"`
}

// ImportConfig 控制 album-cli import 的并发度，0 表示使用 CPU 核数。
type ImportConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Upload   UploadConfig   `mapstructure:"upload" yaml:"upload"`
	Session  SessionConfig  `mapstructure:"session" yaml:"session"`
	Import   ImportConfig   `mapstructure:"import" yaml:"import"`
}

var C *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8000")
	v.SetDefault("server.timeout", 15*time.Second)
	v.SetDefault("server.allowedOrigins", []string{"http://localhost:5173"})
	v.SetDefault("database.type", "mongo")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "photo_album")
	v.SetDefault("database.connectTimeout", 10*time.Second)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("upload.maxBytes", 10<<20)
	v.SetDefault("upload.thumbWidth", 320)
	v.SetDefault("upload.thumbHeight", 240)
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("import.workers", 0)
}

// LoadConfig 从 path 目录读取 config.yaml 并写入全局的 C。
// 形如 ALBUM_DATABASE_URI 的环境变量会覆盖文件中的值。
// allowMissing 为 true 时，找不到配置文件只使用默认值。
func LoadConfig(path string, allowMissing bool) (err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ALBUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !allowMissing || !errors.As(err, &notFound) {
			return
		}
	}

	var cfg Config
	if err = v.Unmarshal(&cfg); err != nil {
		return
	}
	C = &cfg
	return nil
}
