package main

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// CHATCTL_SERVER is the base URL of the relay, without trailing slash
	Server string `envconfig:"CHATCTL_SERVER" default:"http://localhost:5000"`
	// CHATCTL_TOKEN is sent as bearer token, the login command prints one
	Token string `envconfig:"CHATCTL_TOKEN"`
	// CHATCTL_COLOURS enables colorized output
	Colours bool `envconfig:"CHATCTL_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
