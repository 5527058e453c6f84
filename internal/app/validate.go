package app

import (
	"fmt"
	"os"

	"mentorhub/pkg/config"
)

// validateConfig performs quick, fail-fast validation of the effective
// configuration before starting long-running services. Keep checks light
// and focused so callers can surface user-friendly errors.
func validateConfig(eff config.EffectiveConfigResult) error {
	if eff.DBPath == "" {
		return fmt.Errorf("claims store path is empty: set --db flag, MENTORHUB_DB_PATH env, or server.db_path in config")
	}
	if eff.ContentDir == "" {
		return fmt.Errorf("content directory is empty: set --content flag, MENTORHUB_CONTENT_DIR env, or content.dir in config")
	}

	cert := eff.Config.Server.TLS.CertFile
	key := eff.Config.Server.TLS.KeyFile
	if (cert != "" && key == "") || (cert == "" && key != "") {
		return fmt.Errorf("incomplete TLS configuration: both server.tls.cert_file and server.tls.key_file must be set")
	}
	if cert != "" {
		if _, err := os.Stat(cert); err != nil {
			return fmt.Errorf("tls cert file not accessible: %w", err)
		}
		if _, err := os.Stat(key); err != nil {
			return fmt.Errorf("tls key file not accessible: %w", err)
		}
	}

	// entitlement-gated routes need at least one signing key, either
	// dedicated or reused from the backend set
	if len(eff.Config.Security.SigningKeys) == 0 && len(eff.Config.Security.APIKeys.Backend) == 0 {
		return fmt.Errorf("no signing keys configured: set security.signing_keys or security.api_keys.backend")
	}

	if f := eff.Config.Chat.SystemPromptFile; f != "" {
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("system prompt file not accessible: %w", err)
		}
	}
	return nil
}
