package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port           string        `yaml:"port" env:"SERVER_PORT"`
		Mode           string        `yaml:"mode" env:"SERVER_MODE"`
		StoragePath    string        `yaml:"storage_path" env:"SERVER_STORAGE_PATH"`
		PublicBaseURL  string        `yaml:"public_base_url" env:"PUBLIC_BASE_URL"`
		RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT"`
		MaxUploadBytes int64         `yaml:"max_upload_bytes" env:"SERVER_MAX_UPLOAD_BYTES"`
	} `yaml:"server"`

	Notion struct {
		Token                string        `yaml:"token" env:"NOTION_TOKEN"`
		BaseURL              string        `yaml:"base_url" env:"NOTION_BASE_URL"`
		Version              string        `yaml:"version" env:"NOTION_VERSION"`
		Timeout              time.Duration `yaml:"timeout" env:"NOTION_TIMEOUT"`
		MaxRetries           int           `yaml:"max_retries" env:"NOTION_MAX_RETRIES"`
		RetryInitialInterval time.Duration `yaml:"retry_initial_interval" env:"NOTION_RETRY_INITIAL_INTERVAL"`
		MembersDBID          string        `yaml:"members_db_id" env:"NOTION_STUDENTS_DB_ID"`
		SubmissionsDBID      string        `yaml:"submissions_db_id" env:"NOTION_CHECKINS_DB_ID"`
		PageSize             int           `yaml:"page_size" env:"NOTION_PAGE_SIZE"`
		MaxRows              int           `yaml:"max_rows" env:"NOTION_MAX_ROWS"`
	} `yaml:"notion"`

	Schema SchemaConfig `yaml:"schema"`

	Media struct {
		CacheTTL    time.Duration `yaml:"cache_ttl" env:"MEDIA_CACHE_TTL"`
		CacheSize   int           `yaml:"cache_size" env:"MEDIA_CACHE_SIZE"`
		MaxDepth    int           `yaml:"max_depth" env:"MEDIA_MAX_DEPTH"`
		MaxItems    int           `yaml:"max_items" env:"MEDIA_MAX_ITEMS"`
		Concurrency int           `yaml:"concurrency" env:"MEDIA_CONCURRENCY"`
		WalkTimeout time.Duration `yaml:"walk_timeout" env:"MEDIA_WALK_TIMEOUT"`
	} `yaml:"media"`

	Association struct {
		OrphanSweep bool `yaml:"orphan_sweep" env:"ASSOCIATION_ORPHAN_SWEEP"`
	} `yaml:"association"`

	Session struct {
		Secret     string        `yaml:"secret" env:"SESSION_SECRET"`
		Expiration time.Duration `yaml:"expiration" env:"SESSION_EXPIRATION"`
		CookieName string        `yaml:"cookie_name" env:"SESSION_COOKIE_NAME"`
		Issuer     string        `yaml:"issuer" env:"SESSION_ISSUER"`
	} `yaml:"session"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// SchemaConfig lists, per logical field, the provider property names tried in order.
// The first entry is the localized name, later entries are fallbacks.
type SchemaConfig struct {
	RelationName string `yaml:"relation_name" env:"SCHEMA_RELATION_NAME"`

	MemberTitle      []string `yaml:"member_title" env:"SCHEMA_MEMBER_TITLE"`
	MemberLevel      []string `yaml:"member_level" env:"SCHEMA_MEMBER_LEVEL"`
	MemberRecentGoal []string `yaml:"member_recent_goal" env:"SCHEMA_MEMBER_RECENT_GOAL"`
	MemberSecret     []string `yaml:"member_secret" env:"SCHEMA_MEMBER_SECRET"`
	MemberDefault    string   `yaml:"member_default_name" env:"SCHEMA_MEMBER_DEFAULT_NAME"`

	SubmissionTitle    []string `yaml:"submission_title" env:"SCHEMA_SUBMISSION_TITLE"`
	SubmissionMedia    []string `yaml:"submission_media" env:"SCHEMA_SUBMISSION_MEDIA"`
	SubmissionDate     []string `yaml:"submission_date" env:"SCHEMA_SUBMISSION_DATE"`
	SubmissionComment  []string `yaml:"submission_comment" env:"SCHEMA_SUBMISSION_COMMENT"`
	SubmissionCategory []string `yaml:"submission_category" env:"SCHEMA_SUBMISSION_CATEGORY"`
	SubmissionDefault  string   `yaml:"submission_default_name" env:"SCHEMA_SUBMISSION_DEFAULT_NAME"`

	PracticeCategory string `yaml:"practice_category" env:"SCHEMA_PRACTICE_CATEGORY"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			file, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}

			if err := yaml.Unmarshal(file, config); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "3001"
	config.Server.Mode = "development"
	config.Server.StoragePath = "public/uploads"
	config.Server.PublicBaseURL = "http://localhost:3001"
	config.Server.RequestTimeout = 30 * time.Second
	config.Server.MaxUploadBytes = 50 << 20

	config.Notion.BaseURL = "https://api.notion.com"
	config.Notion.Version = "2022-06-28"
	config.Notion.Timeout = 20 * time.Second
	config.Notion.MaxRetries = 3
	config.Notion.RetryInitialInterval = 500 * time.Millisecond
	config.Notion.PageSize = 100
	config.Notion.MaxRows = 100

	config.Schema = DefaultSchema()

	config.Media.CacheTTL = 3 * time.Minute
	config.Media.CacheSize = 2048
	config.Media.MaxDepth = 2
	config.Media.MaxItems = 20
	config.Media.Concurrency = 16
	config.Media.WalkTimeout = 30 * time.Second

	config.Association.OrphanSweep = true

	config.Session.Expiration = 7 * 24 * time.Hour
	config.Session.CookieName = "student_session"
	config.Session.Issuer = "practicelog"

	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// DefaultSchema returns the property names of the reference deployment
func DefaultSchema() SchemaConfig {
	return SchemaConfig{
		RelationName: "学员",

		MemberTitle:      []string{"Name"},
		MemberLevel:      []string{"Level"},
		MemberRecentGoal: []string{"近期目标"},
		MemberSecret:     []string{"Password", "密码"},
		MemberDefault:    "未命名学员",

		SubmissionTitle:    []string{"StudentName"},
		SubmissionMedia:    []string{"视频/图片"},
		SubmissionDate:     []string{"Date"},
		SubmissionComment:  []string{"老师评语"},
		SubmissionCategory: []string{"类型", "Type"},
		SubmissionDefault:  "未知学员",

		PracticeCategory: "打卡练习",
	}
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid.
// Provider credentials and collection ids are deliberately optional here:
// their absence degrades reads and fails writes at call time.
func validateConfig(config *Config) error {
	if config.Notion.BaseURL == "" {
		return fmt.Errorf("notion base url is required")
	}
	if config.Notion.PageSize <= 0 || config.Notion.PageSize > 100 {
		return fmt.Errorf("notion page size must be between 1 and 100, got %d", config.Notion.PageSize)
	}
	if config.Notion.MaxRetries < 0 {
		return fmt.Errorf("notion max retries must not be negative")
	}
	if config.Media.CacheTTL <= 0 {
		return fmt.Errorf("media cache ttl must be positive")
	}
	if config.Media.MaxDepth < 0 || config.Media.MaxItems <= 0 {
		return fmt.Errorf("media max depth must be >= 0 and max items > 0")
	}
	if config.Media.Concurrency <= 0 {
		return fmt.Errorf("media concurrency must be positive")
	}
	if config.Media.WalkTimeout <= 0 {
		return fmt.Errorf("media walk timeout must be positive")
	}
	if config.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server max upload bytes must be positive")
	}
	if len(config.Schema.SubmissionTitle) == 0 || len(config.Schema.MemberTitle) == 0 {
		return fmt.Errorf("title property aliases are required")
	}
	return nil
}

// RequireSession validates the settings the HTTP server needs on top of the base config
func (c *Config) RequireSession() error {
	if c.Session.Secret == "" {
		return fmt.Errorf("session secret is required")
	}
	if c.Session.Expiration <= 0 {
		return fmt.Errorf("session expiration must be positive")
	}
	return nil
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
