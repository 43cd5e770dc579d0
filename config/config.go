// Package config provides configuration management for the Paygate
// payment service. Configuration is loaded from a YAML file and can be
// overridden by environment variables.
package config

import (
	"fmt"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the Paygate payment service.
// Environment variables take precedence over YAML values.
type Config struct {
	IsDebug bool `yaml:"is_debug" env:"DEBUG" env-default:"false"`
	Listen  struct {
		BindIP   string `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
		Port     string `yaml:"port" env:"PORT" env-default:"5200"`
		TLS      bool   `yaml:"tls_enabled" env:"TLS_ENABLED" env-default:"false"`
		CertFile string `yaml:"cert_file" env:"TLS_CERT_FILE" env-default:""`
		KeyFile  string `yaml:"key_file" env:"TLS_KEY_FILE" env-default:""`
	} `yaml:"listen"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env:"MONGO_ENABLED" env-default:"false"`
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:"admin"`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:"pass"`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:""`
	} `yaml:"mongo"`
	Merchant struct {
		AppId      string `yaml:"app_id" env:"MERCHANT_APP_ID" env-default:""`
		PrivateKey string `yaml:"private_key" env:"MERCHANT_PRIVATE_KEY" env-default:""`
		PublicKey  string `yaml:"public_key" env:"MERCHANT_PUBLIC_KEY" env-default:""`
		SignType   string `yaml:"sign_type" env:"MERCHANT_SIGN_TYPE" env-default:"RSA2"`
		GatewayUrl string `yaml:"gateway_url" env:"MERCHANT_GATEWAY_URL" env-default:"https://openapi.alipay.com/gateway.do"`
		NotifyUrl  string `yaml:"notify_url" env:"MERCHANT_NOTIFY_URL" env-default:""`
		ReturnUrl  string `yaml:"return_url" env:"MERCHANT_RETURN_URL" env-default:""`
	} `yaml:"merchant"`
	Poll struct {
		Attempts int `yaml:"attempts" env:"POLL_ATTEMPTS" env-default:"5"`
		Interval int `yaml:"interval_seconds" env:"POLL_INTERVAL" env-default:"5"`
	} `yaml:"poll"`
}

var instance *Config
var once sync.Once

// GetConfig loads configuration from the specified YAML file path using
// a singleton pattern; the config is read only once.
func GetConfig(path string) (*Config, error) {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("load config: %w; %s", err, desc)
			instance = nil
		}
	})
	return instance, err
}
