package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Uploads struct {
		Dir          string   `yaml:"dir"`
		AnnotatedDir string   `yaml:"annotatedDir"`
		MaxMB        int      `yaml:"maxMB"`
		AllowedExts  []string `yaml:"allowedExts"`
	} `yaml:"uploads"`

	Detector struct {
		Backend    string  `yaml:"backend"` // "http" or "onnx"
		URL        string  `yaml:"url"`
		Confidence float64 `yaml:"confidence"`
		IOU        float64 `yaml:"iou"`
		MaxDet     int     `yaml:"maxDet"`
		ModelPath  string  `yaml:"modelPath"`
		NamesPath  string  `yaml:"namesPath"`
		Profile    string  `yaml:"profile"` // "dota", "military" or "coco"
	} `yaml:"detector"`

	EventLog struct {
		Backend string `yaml:"backend"` // "csv", "mysql" or "postgres"
		Path    string `yaml:"path"`
	} `yaml:"eventLog"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Sitrep struct {
		StorePath string `yaml:"storePath"`
		Retain    int    `yaml:"retain"`
	} `yaml:"sitrep"`

	LLM struct {
		APIKeyEnv   string  `yaml:"apiKeyEnv"`
		BaseURL     string  `yaml:"baseURL"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"maxTokens"`
		Temperature float32 `yaml:"temperature"`
	} `yaml:"llm"`

	Geo struct {
		Enabled bool   `yaml:"enabled"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"geo"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
}

// Load reads the YAML config file, fills defaults and applies
// environment overrides for deployment-specific values.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "data/uploads"
	}
	if c.Uploads.AnnotatedDir == "" {
		c.Uploads.AnnotatedDir = "data/annotated"
	}
	if c.Uploads.MaxMB == 0 {
		c.Uploads.MaxMB = 16
	}
	if len(c.Uploads.AllowedExts) == 0 {
		c.Uploads.AllowedExts = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp", ".tiff"}
	}
	if c.Detector.Backend == "" {
		c.Detector.Backend = "http"
	}
	if c.Detector.URL == "" {
		c.Detector.URL = "http://localhost:9090"
	}
	if c.Detector.Confidence == 0 {
		c.Detector.Confidence = 0.25
	}
	if c.Detector.IOU == 0 {
		c.Detector.IOU = 0.45
	}
	if c.Detector.MaxDet == 0 {
		c.Detector.MaxDet = 100
	}
	if c.Detector.Profile == "" {
		c.Detector.Profile = "coco"
	}
	if c.EventLog.Backend == "" {
		c.EventLog.Backend = "csv"
	}
	if c.EventLog.Path == "" {
		c.EventLog.Path = "data/detection_log.csv"
	}
	if c.Sitrep.StorePath == "" {
		c.Sitrep.StorePath = "data/sitrep_store.json"
	}
	if c.Sitrep.Retain == 0 {
		c.Sitrep.Retain = 100
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = "LLM_API_KEY"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 2048
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("DETECTOR_URL"); v != "" {
		c.Detector.URL = v
	}
	if v := os.Getenv("DETECTOR_PROFILE"); v != "" {
		c.Detector.Profile = v
	}
	if v := os.Getenv("EVENTLOG_BACKEND"); v != "" {
		c.EventLog.Backend = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// LLMAPIKey resolves the API key from the configured environment
// variable. Empty means the analyst is disabled.
func (c *Config) LLMAPIKey() string {
	return os.Getenv(c.LLM.APIKeyEnv)
}

// MySQLDSN builds the MySQL connection string.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		sslMode,
	)
}
