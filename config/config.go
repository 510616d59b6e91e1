package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Auth    AuthConfig    `yaml:"auth"`
	DB      DBConfig      `yaml:"db"`
	AI      AIConfig      `yaml:"ai"`
	Wathq   WathqConfig   `yaml:"wathq"`
	Nafath  NafathConfig  `yaml:"nafath"`
	Archive ArchiveConfig `yaml:"archive"`
	Users   []SeedUser    `yaml:"users"`
}

type ServerConfig struct {
	Port      int `yaml:"port"`
	RateLimit int `yaml:"rate_limit"` // requests per minute per IP
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

// AIConfig holds the generation provider chain configuration. Credentials
// come from the environment so they never land in the config file; a provider
// without a credential is skipped by the chain, not treated as an error.
type AIConfig struct {
	MinPlausibleChars int            `yaml:"min_plausible_chars"`
	Groq              ProviderConfig `yaml:"groq"`
	HuggingFace       ProviderConfig `yaml:"huggingface"`
	Kimi              ProviderConfig `yaml:"kimi"`
}

type ProviderConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"-"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxTokens      int    `yaml:"max_tokens"`
}

func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

type WathqConfig struct {
	APIKey  string `yaml:"-"`
	Sandbox bool   `yaml:"sandbox"`
	BaseURL string `yaml:"base_url"` // override for tests, empty = official API
}

type NafathConfig struct {
	ClientID     string `yaml:"-"`
	ClientSecret string `yaml:"-"`
	RedirectURL  string `yaml:"redirect_url"`
}

type ArchiveConfig struct {
	Endpoint  string `yaml:"endpoint"` // empty = archive disabled
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type SeedUser struct {
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	CompanyName   string `yaml:"company_name"`
	CompanyNameEn string `yaml:"company_name_en"`
	CRNumber      string `yaml:"cr_number"`
	VATNumber     string `yaml:"vat_number"`
	UnifiedNumber string `yaml:"unified_number"`
	City          string `yaml:"city"`
}

func Load(path string) (*Config, error) {
	// .env is optional; real deployments set the variables directly
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = 100
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}
	if cfg.DB.Path == "" {
		cfg.DB.Path = "contracts.db"
	}
	if cfg.AI.MinPlausibleChars == 0 {
		cfg.AI.MinPlausibleChars = 100
	}
	applyProviderDefaults(&cfg.AI.Groq, "https://api.groq.com/openai", "allam-2-7b", 45, 1000)
	applyProviderDefaults(&cfg.AI.HuggingFace, "https://api-inference.huggingface.co", "sdaia/allam-1-7b-instruct", 60, 2000)
	applyProviderDefaults(&cfg.AI.Kimi, "https://api.moonshot.cn", "moonshot-v1-8k", 30, 2000)

	// Secrets come from the environment only
	cfg.AI.Groq.APIKey = getenv("GROQ_API_KEY")
	cfg.AI.HuggingFace.APIKey = getenv("HUGGINGFACE_API_KEY")
	cfg.AI.Kimi.APIKey = getenv("KIMI_API_KEY")
	cfg.Wathq.APIKey = getenv("WATHQ_API_KEY")
	cfg.Nafath.ClientID = getenv("NAFATH_CLIENT_ID")
	cfg.Nafath.ClientSecret = getenv("NAFATH_CLIENT_SECRET")
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = getenv("JWT_SECRET")
	}

	return &cfg, nil
}

func applyProviderDefaults(p *ProviderConfig, endpoint, model string, timeoutSec, maxTokens int) {
	if p.Endpoint == "" {
		p.Endpoint = endpoint
	}
	if p.Model == "" {
		p.Model = model
	}
	if p.TimeoutSeconds == 0 {
		p.TimeoutSeconds = timeoutSec
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = maxTokens
	}
}

// getenv returns the trimmed value of an environment variable; empty and
// whitespace-only values count as unset.
func getenv(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

// FindSeedUser finds a seed user by username
func (c *Config) FindSeedUser(username string) *SeedUser {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
