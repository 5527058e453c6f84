package config

// RuntimeConfig holds runtime key sets for use by other packages.
type RuntimeConfig struct {
	BackendKeys map[string]struct{}
	SigningKeys map[string]struct{}
}

// Config is the main configuration struct.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Content      ContentConfig      `yaml:"content"`
	Chat         ChatConfig         `yaml:"chat"`
	Security     SecurityConfig     `yaml:"security"`
	Logging      LoggingConfig      `yaml:"logging"`
	Housekeeping HousekeepingConfig `yaml:"housekeeping"`
	Mentors      []MentorConfig     `yaml:"mentors"`
}

// MentorConfig is one gated mentor profile.
type MentorConfig struct {
	Slug      string `yaml:"slug"`
	Name      string `yaml:"name"`
	Expertise string `yaml:"expertise"`
	Bio       string `yaml:"bio"`
}

// ServerConfig holds http, storage and tls settings.
type ServerConfig struct {
	Address string    `yaml:"address"`
	Port    int       `yaml:"port"`
	DBPath  string    `yaml:"db_path"`
	TLS     TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// ContentConfig locates the article files and uploaded assets.
type ContentConfig struct {
	Dir          string `yaml:"dir"`
	UploadsDir   string `yaml:"uploads_dir"`
	DefaultImage string `yaml:"default_image"`
}

// ChatConfig configures the streaming relay and its upstream provider.
type ChatConfig struct {
	SystemPromptFile string `yaml:"system_prompt_file"`
	Upstream         struct {
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		Model     string `yaml:"model"`
		MaxTokens int    `yaml:"max_tokens"`
	} `yaml:"upstream"`
}

// SecurityConfig holds security related settings.
type SecurityConfig struct {
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	IPWhitelist []string `yaml:"ip_whitelist"`
	APIKeys     struct {
		Backend  []string `yaml:"backend"`
		Frontend []string `yaml:"frontend"`
		Admin    []string `yaml:"admin"`
	} `yaml:"api_keys"`
	// AuthorizedUIDs is the operator allow-list for the free-access grant
	// endpoint. Empty means grants are disabled.
	AuthorizedUIDs []string `yaml:"authorized_uids"`
	// SigningKeys sign session tokens. Multiple keys allow rotation:
	// tokens verify against any of them.
	SigningKeys []string `yaml:"signing_keys"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// HousekeepingConfig controls the scheduled orphaned-upload sweep.
type HousekeepingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
	DryRun  bool   `yaml:"dry_run"`
}
