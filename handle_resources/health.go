package handle_resources

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/KincaidYang/nicwhois/config"
	"github.com/KincaidYang/nicwhois/whois_tools"
)

var (
	// startTime records the server start time for uptime calculation
	startTime = time.Now()
	// inFlight counts the whois queries being served
	inFlight atomic.Int64
	// draining is set once shutdown has begun
	draining atomic.Bool
)

// SetDraining marks the server as shutting down, /ready reports unavailable
// from then on.
func SetDraining(on bool) {
	draining.Store(on)
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Uptime    string           `json:"uptime,omitempty"`
	Checks    map[string]Check `json:"checks"`
}

// Check represents a single health check result
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// getServersCheck reports the server the client falls back to
func getServersCheck(client *whois_tools.Client) (Check, bool) {
	if client == nil {
		return Check{Status: "fail", Message: "not initialized"}, false
	}
	d := client.Directory()
	if d.Default == "" {
		return Check{Status: "fail", Message: "no default server"}, false
	}
	mode := "referral"
	if client.Authoritative() {
		mode = "authoritative"
	}
	return Check{Status: "ok", Message: fmt.Sprintf("%s (%s)", d.Default, mode)}, true
}

// getLoadCheck returns the number of queries in progress
func getLoadCheck() Check {
	return Check{Status: "ok", Message: fmt.Sprintf("%d in flight", inFlight.Load())}
}

// HandleHealth returns the handler for the /health endpoint.
// It always answers 200 while the process is running.
func HandleHealth(client *whois_tools.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serversCheck, _ := getServersCheck(client)

		status := HealthStatus{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			Checks: map[string]Check{
				"servers": serversCheck,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(status)
	}
}

// HandleReady returns the handler for the /ready endpoint.
// Returns 503 when no client is configured or shutdown has begun.
func HandleReady(client *whois_tools.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpStatus := http.StatusOK
		overallStatus := "ok"

		serversCheck, ok := getServersCheck(client)
		if !ok {
			overallStatus = "unavailable"
			httpStatus = http.StatusServiceUnavailable
		}

		checks := map[string]Check{
			"servers": serversCheck,
			"load":    getLoadCheck(),
		}
		if draining.Load() {
			overallStatus = "unavailable"
			httpStatus = http.StatusServiceUnavailable
			checks["shutdown"] = Check{Status: "fail", Message: "draining"}
		}

		status := HealthStatus{
			Status:    overallStatus,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			Checks:    checks,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(httpStatus)
		json.NewEncoder(w).Encode(status)
	}
}

// RuntimeInfo represents runtime information
type RuntimeInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"buildTime,omitempty"`
	GitCommit    string `json:"gitCommit,omitempty"`
	GoVersion    string `json:"goVersion"`
	Uptime       string `json:"uptime"`
	NumGoroutine int    `json:"numGoroutine"`
	NumCPU       int    `json:"numCPU"`
}

// HandleInfo handles the /info endpoint (optional, for debugging)
func HandleInfo(w http.ResponseWriter, r *http.Request) {
	info := RuntimeInfo{
		Version:      config.Version,
		GoVersion:    runtime.Version(),
		Uptime:       time.Since(startTime).Round(time.Second).String(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
	}

	// Only include build info if available
	if config.BuildTime != "unknown" {
		info.BuildTime = config.BuildTime
	}
	if config.GitCommit != "unknown" {
		info.GitCommit = config.GitCommit
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}
