// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек сервиса.
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitConnection        `yaml:"rabbit_connection"`
	HTTPServer              `yaml:"http_server"`
	SMTP                    `yaml:"smtp"`
	Membership              `yaml:"membership"`
	JWTToken                `yaml:"jwttoken"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// RabbitConnection структура для настройки подключения к RabbitMQ.
type RabbitConnection struct {
	AddressRabbit string        `yaml:"addressrabbit"`
	Retries       int           `yaml:"retries" env-default:"5"`
	RetryDelay    time.Duration `yaml:"retry_delay" env-default:"3s"`
}

// SMTP структура с настройками SMTP-сервера для исходящих писем.
type SMTP struct {
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort string `yaml:"smtp_port" env-default:"587"`
	SMTPUser string `yaml:"smtp_user"`
	SMTPPass string `yaml:"smtp_pass"`
}

// Membership структура с политикой членства дисконт-клуба.
//
// DefaultPartnerID — партнёр, к которому привязываются аккаунты,
// созданные без явной атрибуции (раньше был зашит в код).
// ActivationBaseURL — адрес страницы активации, в письмо подставляется
// ссылка вида <ActivationBaseURL>?token=<token>.
type Membership struct {
	DefaultPartnerID   string        `yaml:"default_partner_id"`
	ActivationBaseURL  string        `yaml:"activation_base_url"`
	ActivationTokenTTL time.Duration `yaml:"activation_token_ttl" env-default:"24h"`
	MembershipTTL      time.Duration `yaml:"membership_ttl" env-default:"8760h"`
	ProviderTokenName  string        `yaml:"provider_token_name" env-default:"X-Provider-Token"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"1h"`
}

// MustLoad функция для загрузки конфига, путь берётся из переменной окружения CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
