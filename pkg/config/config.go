package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/betbot/golemon/pkg/secretstore"
)

// 交易空间
const (
	ModePaper = "paper"
	ModeMoney = "money"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultLogLevel = "info"
)

// Credential 单个交易空间的 API 凭证
type Credential struct {
	Key    string `yaml:"key" json:"key"`
	Secret string `yaml:"secret" json:"secret"`
}

// Complete 凭证是否完整
func (c Credential) Complete() bool {
	return c.Key != "" && c.Secret != ""
}

// RateLimitConfig 令牌桶配置（PerSecond 为 0 表示不限速）
type RateLimitConfig struct {
	Burst     int     `yaml:"burst" json:"burst" validate:"gte=0"`
	PerSecond float64 `yaml:"per_second" json:"per_second" validate:"gte=0"`
}

// HTTPConfig HTTP 相关配置
type HTTPConfig struct {
	Timeout     string          `yaml:"timeout" json:"timeout"`           // 例如 "30s"，作用于每次 HTTP 调用
	RefreshLead string          `yaml:"refresh_lead" json:"refresh_lead"` // token 过期前提前刷新的时长
	AuthURL     string          `yaml:"auth_url" json:"auth_url" validate:"omitempty,url"`
	PaperURL    string          `yaml:"paper_url" json:"paper_url" validate:"omitempty,url"`
	MoneyURL    string          `yaml:"money_url" json:"money_url" validate:"omitempty,url"`
	DataURL     string          `yaml:"data_url" json:"data_url" validate:"omitempty,url"`
	RateLimit   RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	// RateLimits 按资源（paper / money / data）覆盖 RateLimit
	RateLimits map[string]RateLimitConfig `yaml:"rate_limits" json:"rate_limits" validate:"dive,keys,oneof=paper money data,endkeys"`
}

// SecretStoreConfig badger 凭证库（可选凭证来源）
type SecretStoreConfig struct {
	Path          string `yaml:"path" json:"path"`
	EncryptionKey string `yaml:"encryption_key" json:"encryption_key"` // hex 或 base64，32 字节
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups" validate:"gte=0"`
	MaxAge     int    `yaml:"max_age" json:"max_age" validate:"gte=0"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// Config 应用配置（同时也是配置文件结构）
type Config struct {
	Mode        string                `yaml:"mode" json:"mode" validate:"required,oneof=paper money"`
	Credentials map[string]Credential `yaml:"credentials" json:"credentials"`
	SecretStore SecretStoreConfig     `yaml:"secret_store" json:"secret_store"`
	HTTP        HTTPConfig            `yaml:"http" json:"http"`
	Log         LogConfig             `yaml:"log" json:"log"`
}

var validate = validator.New()

// Default 默认配置
func Default() *Config {
	return &Config{
		Mode:        ModePaper,
		Credentials: map[string]Credential{},
		HTTP:        HTTPConfig{Timeout: defaultTimeout.String()},
		Log:         LogConfig{Level: defaultLogLevel},
	}
}

// LoadFromFile 加载配置
// 优先级：环境变量 > 配置文件 > 默认值；凭证依次来自配置文件、LEMON_CREDENTIALS 文件、环境变量、badger 凭证库
// filePath 为空时只使用默认值和环境变量
func LoadFromFile(filePath string) (*Config, error) {
	cfg := Default()
	if filePath != "" {
		if err := decodeFile(filePath, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", filePath, err)
		}
		if cfg.Credentials == nil {
			cfg.Credentials = map[string]Credential{}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.loadStoredCredential(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// decodeFile 按扩展名解析 YAML 或 JSON
func decodeFile(filePath string, out any) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse json: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q (want .yaml, .yml or .json)", ext)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Mode = strings.ToLower(getEnv("LEMON_MODE", c.Mode))
	c.HTTP.Timeout = getEnv("LEMON_TIMEOUT", c.HTTP.Timeout)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
	c.SecretStore.Path = getEnv("LEMON_SECRETSTORE_PATH", c.SecretStore.Path)
	c.SecretStore.EncryptionKey = getEnv("LEMON_SECRETSTORE_KEY", c.SecretStore.EncryptionKey)
	c.HTTP.RateLimit.PerSecond = parseFloatEnv("LEMON_RATE_LIMIT", c.HTTP.RateLimit.PerSecond)

	// LEMON_CREDENTIALS 指向独立的凭证文件：{paper: {key, secret}, money: {...}}
	if path := getEnv("LEMON_CREDENTIALS", ""); path != "" {
		creds := map[string]Credential{}
		if err := decodeFile(path, &creds); err != nil {
			return fmt.Errorf("load credentials %s: %w", path, err)
		}
		for space, cred := range creds {
			c.Credentials[strings.ToLower(space)] = cred
		}
	}

	// 环境变量中的 key/secret 作用于当前交易空间
	cred := c.Credentials[c.Mode]
	cred.Key = getEnv("LEMON_API_KEY", cred.Key)
	cred.Secret = getEnv("LEMON_API_SECRET", cred.Secret)
	if cred.Key != "" || cred.Secret != "" {
		c.Credentials[c.Mode] = cred
	}
	return nil
}

// loadStoredCredential 当前交易空间没有完整凭证时尝试从 badger 凭证库读取
func (c *Config) loadStoredCredential() error {
	if c.SecretStore.Path == "" || c.Credentials[c.Mode].Complete() {
		return nil
	}
	key, err := secretstore.ParseKey(c.SecretStore.EncryptionKey)
	if err != nil {
		return fmt.Errorf("secret store key: %w", err)
	}
	store, err := secretstore.Open(secretstore.OpenOptions{Path: c.SecretStore.Path, EncryptionKey: key, ReadOnly: true})
	if err != nil {
		return err
	}
	defer store.Close()

	k, s, found, err := store.Credential(c.Mode)
	if err != nil {
		return err
	}
	if found {
		c.Credentials[c.Mode] = Credential{Key: k, Secret: s}
	}
	return nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := parseDuration(c.HTTP.Timeout); err != nil {
		return fmt.Errorf("http.timeout: %w", err)
	}
	if _, err := parseDuration(c.HTTP.RefreshLead); err != nil {
		return fmt.Errorf("http.refresh_lead: %w", err)
	}
	if !c.Credentials[c.Mode].Complete() {
		return fmt.Errorf("credentials for %s mode are not configured (key and secret required)", c.Mode)
	}
	return nil
}

// Credential 当前交易空间的凭证
func (c *Config) Credential() Credential {
	return c.Credentials[c.Mode]
}

// Timeout 每次 HTTP 调用的超时时间
func (c *Config) Timeout() time.Duration {
	d, err := parseDuration(c.HTTP.Timeout)
	if err != nil || d <= 0 {
		return defaultTimeout
	}
	return d
}

// RefreshLead token 提前刷新时长
func (c *Config) RefreshLead() time.Duration {
	d, _ := parseDuration(c.HTTP.RefreshLead)
	return d
}

// parseDuration 支持 "30s" 这类时长，纯数字按秒处理
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	var d time.Duration
	if secs, err := strconv.Atoi(s); err == nil {
		d = time.Duration(secs) * time.Second
	} else if d, err = time.ParseDuration(s); err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// parseFloatEnv 解析浮点数环境变量
func parseFloatEnv(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}
