package app

import (
	"net/http"

	"mentorhub/pkg/api"
	"mentorhub/pkg/auth"
	"mentorhub/pkg/banner"
	"mentorhub/pkg/config"
	"mentorhub/pkg/telemetry"
)

// printBanner prints the startup banner and build info.
func (a *App) printBanner() {
	verStr := a.version
	if a.commit != "none" && a.commit != "" {
		verStr += " (" + a.commit + ")"
	}
	if a.buildDate != "unknown" && a.buildDate != "" {
		verStr += " @ " + a.buildDate
	}
	banner.PrintWithEff(a.eff, verStr)
}

// startHTTP builds the handler chain, starts the HTTP server in a goroutine
// and returns a channel carrying any fatal server error.
func (a *App) startHTTP() <-chan error {
	router := api.BuildRouter(a.deps)

	cfg := a.eff.Config
	secCfg := auth.SecConfig{
		AllowedOrigins: append([]string{}, cfg.Security.CORS.AllowedOrigins...),
		RPS:            cfg.Security.RateLimit.RPS,
		Burst:          cfg.Security.RateLimit.Burst,
		IPWhitelist:    append([]string{}, cfg.Security.IPWhitelist...),
		BackendKeys:    config.GetBackendKeys(),
		FrontendKeys:   map[string]struct{}{},
		AdminKeys:      map[string]struct{}{},
	}
	for _, k := range cfg.Security.APIKeys.Frontend {
		secCfg.FrontendKeys[k] = struct{}{}
	}
	for _, k := range cfg.Security.APIKeys.Admin {
		secCfg.AdminKeys[k] = struct{}{}
	}

	wrapped := auth.AuthenticateRequestMiddleware(secCfg)(router)
	wrapped = telemetry.Middleware(wrapped)

	a.srv = &http.Server{Addr: a.eff.Addr, Handler: wrapped}

	errCh := make(chan error, 1)
	go func() {
		cert := cfg.Server.TLS.CertFile
		key := cfg.Server.TLS.KeyFile
		if cert != "" && key != "" {
			errCh <- a.srv.ListenAndServeTLS(cert, key)
		} else {
			errCh <- a.srv.ListenAndServe()
		}
	}()
	return errCh
}
