package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Challenge ChallengeConfig
	Catalog   CatalogConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Retry     RetryConfig
	LLM       LLMConfig
	Logger    LoggerConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type ChallengeConfig struct {
	BaseURL   string `yaml:"base_url"`
	AuthToken string `yaml:"auth_token"`
	// RejectZeroAnswer short-circuits a zero-valued submission locally
	// instead of sending it to the service.
	RejectZeroAnswer bool `yaml:"reject_zero_answer"`
}

type CatalogConfig struct {
	SwapiBaseURL   string        `yaml:"swapi_base_url"`
	PokeBaseURL    string        `yaml:"poke_base_url"`
	CreatureLimit  int           `yaml:"creature_limit"`
	PageDelay      time.Duration `yaml:"page_delay"`
	DetailBatch    int           `yaml:"detail_batch"`
	MinInterval    time.Duration `yaml:"min_interval"`
	StrictRecords  bool          `yaml:"strict_records"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CacheConfig struct {
	TTL              time.Duration `yaml:"ttl"`
	MaxBytes         int           `yaml:"max_bytes"`
	CreatureMaxBytes int           `yaml:"creature_max_bytes"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Delay       time.Duration `yaml:"delay"`
	Backoff     string        `yaml:"backoff"` // fixed, linear or exponential
	MaxDelay    time.Duration `yaml:"max_delay"`
}

type LLMConfig struct {
	// Backend selects the completion adapter: "relay" posts to the
	// proxied chat_completion endpoint, "openai" talks to an
	// OpenAI-compatible API directly.
	Backend     string `yaml:"backend"`
	Model       string `yaml:"model"`
	RelayURL    string `yaml:"relay_url"`
	UpstreamURL string `yaml:"upstream_url"`
	APIKey      string `yaml:"api_key"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Add config paths based on environment
	if os.Getenv("ENV") == "test" {
		viper.AddConfigPath("../../config")
		viper.AddConfigPath("../../")
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:         viper.GetInt("server.port"),
			ReadTimeout:  viper.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: viper.GetDuration("server.write_timeout") * time.Second,
		},
		Challenge: ChallengeConfig{
			BaseURL:          viper.GetString("challenge.base_url"),
			AuthToken:        viper.GetString("challenge.auth_token"),
			RejectZeroAnswer: viper.GetBool("challenge.reject_zero_answer"),
		},
		Catalog: CatalogConfig{
			SwapiBaseURL:   viper.GetString("catalog.swapi_base_url"),
			PokeBaseURL:    viper.GetString("catalog.poke_base_url"),
			CreatureLimit:  viper.GetInt("catalog.creature_limit"),
			PageDelay:      viper.GetDuration("catalog.page_delay"),
			DetailBatch:    viper.GetInt("catalog.detail_batch"),
			MinInterval:    viper.GetDuration("catalog.min_interval"),
			StrictRecords:  viper.GetBool("catalog.strict_records"),
			RequestTimeout: viper.GetDuration("catalog.request_timeout"),
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Cache: CacheConfig{
			TTL:              viper.GetDuration("cache.ttl"),
			MaxBytes:         viper.GetInt("cache.max_bytes"),
			CreatureMaxBytes: viper.GetInt("cache.creature_max_bytes"),
		},
		Retry: RetryConfig{
			MaxAttempts: viper.GetInt("retry.max_attempts"),
			Delay:       viper.GetDuration("retry.delay"),
			Backoff:     viper.GetString("retry.backoff"),
			MaxDelay:    viper.GetDuration("retry.max_delay"),
		},
		LLM: LLMConfig{
			Backend:     viper.GetString("llm.backend"),
			Model:       viper.GetString("llm.model"),
			RelayURL:    viper.GetString("llm.relay_url"),
			UpstreamURL: viper.GetString("llm.upstream_url"),
			APIKey:      viper.GetString("llm.api_key"),
		},
		Logger: LoggerConfig{
			Level: viper.GetString("logger.level"),
			Env:   viper.GetString("logger.env"),
		},
	}

	// Override with environment variables if set
	if port := os.Getenv("PORT"); port != "" {
		viper.Set("server.port", port)
		config.Server.Port = viper.GetInt("server.port")
	}
	if baseURL := os.Getenv("CHALLENGE_BASE_URL"); baseURL != "" {
		config.Challenge.BaseURL = baseURL
	}
	if token := os.Getenv("CHALLENGE_AUTH_TOKEN"); token != "" {
		config.Challenge.AuthToken = token
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if upstream := os.Getenv("LLM_UPSTREAM_URL"); upstream != "" {
		config.LLM.UpstreamURL = upstream
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("catalog.creature_limit", 1302)
	viper.SetDefault("catalog.page_delay", 500*time.Millisecond)
	viper.SetDefault("catalog.detail_batch", 5)
	viper.SetDefault("catalog.min_interval", 200*time.Millisecond)
	viper.SetDefault("catalog.request_timeout", 30*time.Second)
	viper.SetDefault("cache.ttl", 24*time.Hour)
	viper.SetDefault("cache.max_bytes", 1024*1024)
	viper.SetDefault("cache.creature_max_bytes", 2*1024*1024)
	viper.SetDefault("retry.max_attempts", 3)
	viper.SetDefault("retry.delay", time.Second)
	viper.SetDefault("retry.backoff", "linear")
	viper.SetDefault("retry.max_delay", 20*time.Second)
	viper.SetDefault("llm.backend", "relay")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.env", "development")
}
