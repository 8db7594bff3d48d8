// 包 config 负责加载与校验应用配置（settings.yaml），
// 对外提供结构体 Config 及默认值/合法性校验；API 密钥只从配置或环境变量注入。
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvAPIKey 为覆盖 API.key 的环境变量名。
const EnvAPIKey = "ROVER_API_KEY"

const (
	DefaultBaseURL           = "https://api.nasa.gov/mars-photos/api/v1/rovers/curiosity/photos"
	DefaultManifest          = "dates.txt"
	DefaultStorageDir        = "./LocalImageStorage"
	DefaultIndexDSN          = "./index.db"
	DefaultMaxImagesPerRover = 10
)

type Config struct {
	API               API         `yaml:"API"`
	Manifest          string      `yaml:"MANIFEST"`
	Storage           Storage     `yaml:"STORAGE"`
	Index             Index       `yaml:"INDEX"`
	MaxImagesPerRover int         `yaml:"MAX_IMAGES_PER_ROVER"`
	Concurrency       Concurrency `yaml:"CONCURRENCY"`
	HTTP              HTTP        `yaml:"HTTP"`
	Proxy             Proxy       `yaml:"PROXY"`
	Listen            string      `yaml:"LISTEN"`
	LogLevel          string      `yaml:"LOG_LEVEL"`
	LogFormat         string      `yaml:"LOG_FORMAT"` // text|json|pretty
	LogLocale         string      `yaml:"LOG_LOCALE"` // zh-CN|en
	LogColor          string      `yaml:"LOG_COLOR"`  // auto|always|never
}

type API struct {
	BaseURL   string `yaml:"base_url"`
	Key       string `yaml:"key"`
	DateParam string `yaml:"date_param"`
	KeyParam  string `yaml:"key_param"`
}

type Storage struct {
	// URL 非空时优先：gocloud bucket 地址（file:// mem:// s3:// gs://）
	Dir string `yaml:"dir"`
	URL string `yaml:"url"`
}

type Index struct {
	DSN string `yaml:"dsn"`
}

// Concurrency 控制两级扇出的在途请求上限。
type Concurrency struct {
	Dates     int `yaml:"dates"`
	Downloads int `yaml:"downloads"`
	Retry     int `yaml:"retry"`
}

type HTTP struct {
	// Timeout 为空或 0 表示不设截止时间（慢请求会一直阻塞汇合点）。
	Timeout string `yaml:"timeout"`

	timeout time.Duration
}

// RequestTimeout 返回解析后的请求超时，0 表示不限制。
func (h HTTP) RequestTimeout() time.Duration { return h.timeout }

type Proxy struct {
	HTTP  string `yaml:"http"`
	HTTPS string `yaml:"https"`
}

// Load 从文件读取 YAML 并反序列化为 Config，叠加环境变量后校验并填充默认值。
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Default 返回不依赖配置文件的默认配置；密钥只能来自环境变量。
func Default() (*Config, error) {
	var c Config
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		c.API.Key = v
	}
}

// RequireAPIKey 在需要访问远端接口的路径上调用；只读索引的命令不需要密钥。
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.API.Key) == "" {
		return fmt.Errorf("API.key is empty; set it in settings.yaml or %s", EnvAPIKey)
	}
	return nil
}

// Validate 负责合法性检查与默认值设置，避免在业务层分散判空逻辑。
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.DateParam == "" {
		c.API.DateParam = "earth_date"
	}
	if c.API.KeyParam == "" {
		c.API.KeyParam = "api_key"
	}
	if c.Manifest == "" {
		c.Manifest = DefaultManifest
	}
	if c.Storage.Dir == "" && c.Storage.URL == "" {
		c.Storage.Dir = DefaultStorageDir
	}
	if c.Index.DSN == "" {
		c.Index.DSN = DefaultIndexDSN
	}
	if c.MaxImagesPerRover < 0 {
		return errors.New("MAX_IMAGES_PER_ROVER must be >= 0")
	}
	if c.MaxImagesPerRover == 0 {
		c.MaxImagesPerRover = DefaultMaxImagesPerRover
	}
	if c.Concurrency.Dates <= 0 {
		c.Concurrency.Dates = 4
	}
	if c.Concurrency.Downloads <= 0 {
		c.Concurrency.Downloads = 8
	}
	if c.Concurrency.Retry < 0 {
		c.Concurrency.Retry = 0
	}
	if t := strings.TrimSpace(c.HTTP.Timeout); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return fmt.Errorf("HTTP.timeout %q: %w", t, err)
		}
		if d < 0 {
			return errors.New("HTTP.timeout must be >= 0")
		}
		c.HTTP.timeout = d
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.LogFormat == "" {
		c.LogFormat = "pretty"
	}
	if c.LogLocale == "" {
		c.LogLocale = "zh-CN"
	}
	if c.LogColor == "" {
		c.LogColor = "auto"
	}
	return nil
}
