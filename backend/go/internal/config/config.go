package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported LLM providers.
const (
	ProviderGemini      = "gemini"
	ProviderOpenAI      = "openai"
	ProviderHuggingFace = "huggingface"
	ProviderOllama      = "ollama"
)

// Environment variables consulted when a provider's API key is left empty in YAML.
var apiKeyEnv = map[string]string{
	ProviderGemini:      "GEMINI_API_KEY",
	ProviderOpenAI:      "OPENAI_API_KEY",
	ProviderHuggingFace: "HF_API_TOKEN",
}

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// ServerConfig 定义了 HTTP 服务的监听地址与超时。
type ServerConfig struct {
	Host            string `yaml:"host"`            // 监听主机
	Port            int    `yaml:"port"`            // 监听端口
	ReadTimeout     string `yaml:"readTimeout"`     // 例如: "10s"
	WriteTimeout    string `yaml:"writeTimeout"`    // 需大于最慢的生成策略超时
	ShutdownTimeout string `yaml:"shutdownTimeout"` // 优雅关闭等待时间
}

// Address returns host:port.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level  string `yaml:"level"`  // 日志级别 (例如: "info", "debug", "warn", "error")
	Format string `yaml:"format"` // "json" 或 "text"
}

// ProviderConfig 描述了生成策略链中的一个模型后端。
type ProviderConfig struct {
	Name     string `yaml:"name"`     // 对外展示的名称，为空时使用 provider/model
	Provider string `yaml:"provider"` // gemini | openai | huggingface | ollama
	Model    string `yaml:"model"`    // 模型名称
	APIKey   string `yaml:"apiKey"`   // API 密钥，为空时从环境变量读取
	BaseURL  string `yaml:"baseURL"`  // 自定义端点，例如本地 LM Studio
	Timeout  string `yaml:"timeout"`  // 单次调用超时
	Local    bool   `yaml:"local"`    // 是否为本地推理端点
	Enabled  *bool  `yaml:"enabled"`  // 为空时默认启用
}

// IsEnabled reports whether the provider should be part of the chain.
func (p ProviderConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// IsLocal reports whether the provider is a local inference endpoint.
// Ollama is always local.
func (p ProviderConfig) IsLocal() bool {
	return p.Local || p.Provider == ProviderOllama
}

// Label is the source label shown to callers.
func (p ProviderConfig) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Provider, p.Model)
}

// TimeoutDuration parses Timeout. Call after Validate.
func (p ProviderConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(p.Timeout)
	return d
}

// LLMConfig 包含了生成参数和按优先级排列的模型后端。
type LLMConfig struct {
	Temperature     float32          `yaml:"temperature"`     // 采样温度
	MaxOutputTokens int              `yaml:"maxOutputTokens"` // 最大输出 token 数
	Providers       []ProviderConfig `yaml:"providers"`       // 按尝试顺序排列
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// DatabaseConfigs 包含所有数据库的配置。
type DatabaseConfigs struct {
	Redis RedisConfig `yaml:"redis"`
}

// CORSConfig 定义了跨域设置。
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowedOrigins"` // 为空时允许所有来源
}

// RateLimiterConfig 定义了限流器的配置。
type RateLimiterConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Store      string  `yaml:"store"`      // "memory"（按客户端令牌桶）或 "redis"（固定窗口）
	Rate       float64 `yaml:"rate"`       // memory: 每秒生成的令牌数
	Capacity   int     `yaml:"capacity"`   // memory: 桶容量
	MaxClients int     `yaml:"maxClients"` // memory: 最多跟踪的客户端数量
	Limit      int     `yaml:"limit"`      // redis: 每个窗口允许的请求数
	Window     string  `yaml:"window"`     // redis: 窗口长度，例如 "1m"
}

// CircuitBreakerConfig 定义了每个模型后端熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	CORS           CORSConfig           `yaml:"cors"`
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Logger     LoggerConfig     `yaml:"logger"`
	LLM        LLMConfig        `yaml:"llm"`
	Databases  DatabaseConfigs  `yaml:"databases"`
	Middleware MiddlewareConfig `yaml:"middleware"`
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件，
// 然后叠加 .env 与环境变量，填充默认值并校验。
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	return Parse(yamlFile)
}

// Parse decodes raw YAML and applies the environment overlay, defaults and validation.
func Parse(raw []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// .env 缺失不是错误。
	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) applyEnv() {
	for i := range c.LLM.Providers {
		p := &c.LLM.Providers[i]
		if p.APIKey != "" {
			continue
		}
		if env, ok := apiKeyEnv[p.Provider]; ok {
			p.APIKey = os.Getenv(env)
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			c.Server.Port = n
		}
	}
}

func (c *AppConfig) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "facts_service"
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "120s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "json"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.8
	}
	if c.LLM.MaxOutputTokens == 0 {
		c.LLM.MaxOutputTokens = 300
	}
	for i := range c.LLM.Providers {
		p := &c.LLM.Providers[i]
		if p.Timeout != "" {
			continue
		}
		if p.IsLocal() {
			p.Timeout = "20s"
		} else {
			p.Timeout = "30s"
		}
	}

	rl := &c.Middleware.RateLimiter
	if rl.Store == "" {
		rl.Store = "memory"
	}
	if rl.Rate == 0 {
		rl.Rate = 1
	}
	if rl.Capacity == 0 {
		rl.Capacity = 10
	}
	if rl.MaxClients == 0 {
		rl.MaxClients = 10000
	}
	if rl.Limit == 0 {
		rl.Limit = 60
	}
	if rl.Window == "" {
		rl.Window = "1m"
	}

	cb := &c.Middleware.CircuitBreaker
	if cb.FailureThreshold == 0 {
		cb.FailureThreshold = 3
	}
	if cb.SuccessThreshold == 0 {
		cb.SuccessThreshold = 1
	}
	if cb.Timeout == "" {
		cb.Timeout = "30s"
	}
}

// Validate checks provider names and every duration string.
func (c *AppConfig) Validate() error {
	durations := map[string]string{
		"server.readTimeout":                c.Server.ReadTimeout,
		"server.writeTimeout":               c.Server.WriteTimeout,
		"server.shutdownTimeout":            c.Server.ShutdownTimeout,
		"middleware.rateLimiter.window":     c.Middleware.RateLimiter.Window,
		"middleware.circuitBreaker.timeout": c.Middleware.CircuitBreaker.Timeout,
	}
	for key, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", key, err)
		}
	}

	for i, p := range c.LLM.Providers {
		switch p.Provider {
		case ProviderGemini, ProviderOpenAI, ProviderHuggingFace, ProviderOllama:
		default:
			return fmt.Errorf("llm.providers[%d]: unsupported provider %q", i, p.Provider)
		}
		if p.Model == "" {
			return fmt.Errorf("llm.providers[%d]: model is required", i)
		}
		d, err := time.ParseDuration(p.Timeout)
		if err != nil {
			return fmt.Errorf("llm.providers[%d]: invalid timeout: %w", i, err)
		}
		// Every model call must be bounded.
		if d <= 0 {
			return fmt.Errorf("llm.providers[%d]: timeout must be positive, got %s", i, p.Timeout)
		}
	}

	switch c.Middleware.RateLimiter.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown rate limiter store: %s", c.Middleware.RateLimiter.Store)
	}
	return nil
}

// MustDuration parses a duration that has already passed Validate.
func MustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		panic(fmt.Sprintf("config: unvalidated duration %q", value))
	}
	return d
}
