package config

import (
	"flag"
	"net"
	"os"
	"strconv"
	"strings"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr    string
	DB      string
	Content string
	Config  string
	Set     map[string]bool
}

// EffectiveConfigResult is the merged configuration the server runs with,
// plus the dominant source ("flags", "env" or "config") for the banner.
type EffectiveConfigResult struct {
	Config     *Config
	Addr       string
	DBPath     string
	ContentDir string
	Source     string
}

// ParseConfigFlags parses command-line flags and returns them as a Flags struct.
func ParseConfigFlags() Flags {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.database", "identity/claims store path")
	contentPtr := flag.String("content", "./content/blog", "article content directory")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return Flags{Addr: *addrPtr, DB: *dbPtr, Content: *contentPtr, Config: *cfgPtr, Set: setFlags}
}

// LoadEnvOverrides applies MENTORHUB_* environment overrides onto cfg and
// reports whether any env vars were used.
func LoadEnvOverrides(cfg *Config) bool {
	envUsed := false
	parseList := func(v string) []string {
		if v == "" {
			return nil
		}
		parts := []string{}
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}

	if v := os.Getenv("MENTORHUB_ADDR"); v != "" {
		envUsed = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("MENTORHUB_DB_PATH"); v != "" {
		envUsed = true
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("MENTORHUB_CONTENT_DIR"); v != "" {
		envUsed = true
		cfg.Content.Dir = v
	}
	if v := os.Getenv("MENTORHUB_UPLOADS_DIR"); v != "" {
		envUsed = true
		cfg.Content.UploadsDir = v
	}
	if v := os.Getenv("MENTORHUB_OPENAI_API_KEY"); v != "" {
		envUsed = true
		cfg.Chat.Upstream.APIKey = v
	}
	if v := os.Getenv("MENTORHUB_OPENAI_BASE_URL"); v != "" {
		envUsed = true
		cfg.Chat.Upstream.BaseURL = v
	}
	if v := os.Getenv("MENTORHUB_OPENAI_MODEL"); v != "" {
		envUsed = true
		cfg.Chat.Upstream.Model = v
	}
	if v := os.Getenv("MENTORHUB_AUTHORIZED_UIDS"); v != "" {
		envUsed = true
		cfg.Security.AuthorizedUIDs = parseList(v)
	}
	if v := os.Getenv("MENTORHUB_CORS_ORIGINS"); v != "" {
		envUsed = true
		cfg.Security.CORS.AllowedOrigins = parseList(v)
	}
	if v := os.Getenv("MENTORHUB_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			cfg.Security.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("MENTORHUB_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Security.RateLimit.Burst = n
		}
	}
	if v := os.Getenv("MENTORHUB_IP_WHITELIST"); v != "" {
		envUsed = true
		cfg.Security.IPWhitelist = parseList(v)
	}
	if v := os.Getenv("MENTORHUB_API_BACKEND_KEYS"); v != "" {
		envUsed = true
		cfg.Security.APIKeys.Backend = parseList(v)
	}
	if v := os.Getenv("MENTORHUB_API_FRONTEND_KEYS"); v != "" {
		envUsed = true
		cfg.Security.APIKeys.Frontend = parseList(v)
	}
	if v := os.Getenv("MENTORHUB_API_ADMIN_KEYS"); v != "" {
		envUsed = true
		cfg.Security.APIKeys.Admin = parseList(v)
	}
	if v := os.Getenv("MENTORHUB_SIGNING_KEYS"); v != "" {
		envUsed = true
		cfg.Security.SigningKeys = parseList(v)
	}
	if c := os.Getenv("MENTORHUB_TLS_CERT"); c != "" {
		envUsed = true
		cfg.Server.TLS.CertFile = c
	}
	if k := os.Getenv("MENTORHUB_TLS_KEY"); k != "" {
		envUsed = true
		cfg.Server.TLS.KeyFile = k
	}
	return envUsed
}

// LoadEffective loads config from the given path and applies flag and env
// overrides. Flags explicitly set by the user win over env, which wins over
// the file.
func LoadEffective(flags Flags) (EffectiveConfigResult, error) {
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := Load(cfgPath)
	source := "config"
	if err != nil {
		cfg = &Config{}
		source = "defaults"
	}
	if LoadEnvOverrides(cfg) {
		source = "env"
	}

	eff := EffectiveConfigResult{Config: cfg, Source: source}

	eff.Addr = cfg.Addr()
	if flags.Set["addr"] {
		eff.Addr = flags.Addr
		source = "flags"
	}
	eff.DBPath = cfg.Server.DBPath
	if eff.DBPath == "" || flags.Set["db"] {
		eff.DBPath = flags.DB
	}
	eff.ContentDir = cfg.Content.Dir
	if eff.ContentDir == "" || flags.Set["content"] {
		eff.ContentDir = flags.Content
	}
	if flags.Set["addr"] || flags.Set["db"] || flags.Set["content"] {
		source = "flags"
	}
	eff.Source = source
	return eff, nil
}
