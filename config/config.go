package config

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"TCAGo/global"
)

// Config carries all environment-driven settings of the adapter process.
type Config struct {
	HTTPPort     int    `env:"http_port" envDefault:"8080"`
	BindAddr     string `env:"bind_addr" envDefault:"127.0.0.1"`
	MailboxDepth int    `env:"mailbox_depth" envDefault:"64"`
	CallLogDir   string `env:"calllog_dir" envDefault:"."`
	CallLogOff   bool   `env:"calllog_off" envDefault:"false"`
	SimDemo      bool   `env:"sim_demo" envDefault:"false"`
}

// New loads configuration from environment variables into any given struct type.
// It uses generics to work with different config structs.
func New[T any]() (*T, error) {
	cfg := new(T)
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv loads content of ENV_FILE (e.g .env.{host}) into environment variables
func LoadEnv() error {
	envfile := os.Getenv("ENV_FILE")

	if envfile == "" {
		return godotenv.Load()
	}

	return godotenv.Load(envfile)
}

func Load() (*Config, error) {
	_ = LoadEnv() // a missing .env file is fine
	cfg, err := New[Config]()
	if err != nil {
		return nil, global.NewError(global.ECConfiguration, "invalid environment configuration: "+err.Error())
	}
	return cfg, nil
}
