package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env       string        `yaml:"env" env-default:"local"`
	DSN       string        `yaml:"dsn" env-required:"true"`
	Token     string        `yaml:"token" env-required:"true"`
	TokenTTL  time.Duration `yaml:"token_ttl" env-default:"1h"`
	HTTP      HTTPConfig    `yaml:"http"`
	Redis     RedisConf     `yaml:"redis"`
	Blogs     BlogsConfig   `yaml:"blogs"`
	Wordpress WPConfig      `yaml:"wordpress"`
}

type HTTPConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port" env-default:"8080"`
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

type BlogsConfig struct {
	// Root paths scoping descendant queries per logical store.
	BlogsRoot    string        `yaml:"blogs_root" env-default:"/"`
	ContactsRoot string        `yaml:"contacts_root" env-default:"/"`
	PageSize     int           `yaml:"page_size" env-default:"10"`
	CloudTTL     time.Duration `yaml:"cloud_ttl" env-default:"5m"`
}

type WPConfig struct {
	// Marker segment a URL path must contain before its image is imported.
	MediaMarker string        `yaml:"media_marker" env-default:"wp-content"`
	HTTPTimeout time.Duration `yaml:"http_timeout" env-default:"30s"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
