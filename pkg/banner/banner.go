package banner

import (
	"fmt"

	"mentorhub/pkg/config"
)

const banner = `
███╗   ███╗███████╗███╗   ██╗████████╗ ██████╗ ██████╗ ██╗  ██╗██╗   ██╗██████╗
████╗ ████║██╔════╝████╗  ██║╚══██╔══╝██╔═══██╗██╔══██╗██║  ██║██║   ██║██╔══██╗
██╔████╔██║█████╗  ██╔██╗ ██║   ██║   ██║   ██║██████╔╝███████║██║   ██║██████╔╝
██║╚██╔╝██║██╔══╝  ██║╚██╗██║   ██║   ██║   ██║██╔══██╗██╔══██║██║   ██║██╔══██╗
██║ ╚═╝ ██║███████╗██║ ╚████║   ██║   ╚██████╔╝██║  ██║██║  ██║╚██████╔╝██████╔╝
╚═╝     ╚═╝╚══════╝╚═╝  ╚═══╝   ╚═╝    ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝ ╚═════╝
`

// PrintWithEff prints the startup banner with the effective configuration.
func PrintWithEff(eff config.EffectiveConfigResult, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:      %s\n", eff.Addr)
	fmt.Printf("Claims DB:   %s\n", eff.DBPath)
	fmt.Printf("Content:     %s\n", eff.ContentDir)
	if version != "" {
		fmt.Printf("Version:     %s\n", version)
	}
	if eff.Source != "" {
		fmt.Printf("Config from: %s\n", eff.Source)
	}
	if eff.Config != nil && eff.Config.Chat.Upstream.Model != "" {
		fmt.Printf("Model:       %s\n", eff.Config.Chat.Upstream.Model)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/chat/stream         - Stream a mentor reply (SSE, gated)")
	fmt.Println("GET  /v1/articles            - List articles (?q=, ?category=, ?featured=true)")
	fmt.Println("GET  /v1/articles/{slug}     - Fetch one article with rendered HTML")
	fmt.Println("POST /v1/articles            - Publish an article (multipart)")
	fmt.Println("GET  /v1/mentors/{slug}      - Mentor profile (gated)")
	fmt.Println("POST /v1/access/grant        - Grant free access (backend key)")
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl 'http://localhost%s/v1/articles?q=ai+strategy' -H 'X-API-Key: <frontend>'\n", portSuffix(eff.Addr))
	fmt.Printf("curl -N -X POST 'http://localhost%s/v1/chat/stream' -H 'X-API-Key: <frontend>' -H 'X-Session-Token: <token>' -d '{\"messages\":[{\"role\":\"user\",\"content\":\"hello\"}]}'\n", portSuffix(eff.Addr))
	fmt.Println()
}

func portSuffix(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[i:]
		}
	}
	return addr
}
