// Package main implements the container health probe. It hits the ops
// server's /healthz endpoint and exits non-zero when the bot is unhealthy,
// so the container runtime can restart it.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

const (
	// defaultOpsPort mirrors the ops server's default PORT.
	defaultOpsPort = "10000"

	probeTimeout = 8 * time.Second
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultOpsPort
	}

	client := &http.Client{Timeout: probeTimeout}

	resp, err := client.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
