// probe is a tiny liveness checker for deployment scripts: it polls the
// server's health endpoints with fasthttp and exits non-zero when either
// check fails, so it can gate rollouts and restarts.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/valyala/fasthttp"
)

func main() {
	base := flag.String("server", "http://localhost:8080", "server base URL")
	timeout := flag.Duration("timeout", 3*time.Second, "per-request timeout")
	retries := flag.Int("retries", 3, "attempts per endpoint before failing")
	wait := flag.Duration("wait", time.Second, "delay between attempts")
	flag.Parse()

	client := &fasthttp.Client{
		Name:         "mentorhub-probe",
		ReadTimeout:  *timeout,
		WriteTimeout: *timeout,
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		if err := check(client, *base+path, *retries, *wait, *timeout); err != nil {
			fmt.Fprintf(os.Stderr, "probe failed: %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("%s ok\n", path)
	}
}

func check(client *fasthttp.Client, url string, retries int, wait, timeout time.Duration) error {
	var lastErr error
	for i := 0; i < retries; i++ {
		if i > 0 {
			time.Sleep(wait)
		}
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		req.SetRequestURI(url)
		req.Header.SetMethod(fasthttp.MethodGet)
		err := client.DoTimeout(req, resp, timeout)
		status := resp.StatusCode()
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
		if err != nil {
			lastErr = err
			continue
		}
		if status != fasthttp.StatusOK {
			lastErr = fmt.Errorf("status %d", status)
			continue
		}
		return nil
	}
	return lastErr
}
