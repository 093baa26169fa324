package handlers

import (
	"html/template"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"

	"studybuddy/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves probes. Status reads the snapshot kept by utils.StartHealthMonitor.
type HealthHandler struct {
	Status func() utils.HealthStatus
	Env    string
}

func NewHealthHandler(env string) *HealthHandler {
	return &HealthHandler{Status: utils.GetHealthStatus, Env: env}
}

func (h *HealthHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm StudyBuddy"})
}

func (h *HealthHandler) LivenessHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive", "uptime": utils.Uptime().String()})
}

// ReadinessHandler answers 503 while MongoDB is unreachable. Redis state is reported
// but does not gate readiness.
func (h *HealthHandler) ReadinessHandler(c *gin.Context) {
	status := h.Status()
	code := http.StatusOK
	state := "ready"
	if !status.Ready() {
		code = http.StatusServiceUnavailable
		state = "unavailable"
	}
	c.JSON(code, gin.H{"status": state, "checks": status})
}

// StatusTemplate renders the human-facing status page under the name "status".
var StatusTemplate = template.Must(template.New("status").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1"/>
<title>StudyBuddy Status</title>
<style>
body{margin:40px;font-family:system-ui,sans-serif;background:#f2f7ff;color:#0b1220}
.badge{display:inline-block;padding:4px 10px;border-radius:999px;font-weight:600;border:1px solid {{.Color}};color:{{.Color}}}
table{border-collapse:collapse}td{padding:6px 10px;border-bottom:1px dashed #dbe7ff}
.muted{color:#6b7280;font-size:12px}
</style>
</head>
<body>
<h1>StudyBuddy Status <span class="badge">{{.State}}</span></h1>
<p class="muted">{{.Timestamp}} · Request ID: {{if .RequestID}}{{.RequestID}}{{else}}n/a{{end}}</p>
<h3>Application</h3>
<table>
<tr><td>Runtime</td><td>{{.GoVersion}} on {{.Platform}}</td></tr>
<tr><td>PID</td><td>{{.PID}}</td></tr>
<tr><td>Uptime</td><td>{{.Uptime}}</td></tr>
<tr><td>Env</td><td>{{.Env}}</td></tr>
<tr><td>Goroutines</td><td>{{.Goroutines}}</td></tr>
<tr><td>Heap in use</td><td>{{.HeapMB}}</td></tr>
</table>
<h3>Dependencies</h3>
<table>
<tr><td>MongoDB</td><td>{{if .Checks.Mongo}}connected{{else}}disconnected{{end}}</td></tr>
{{range $i, $ok := .Checks.Redis}}<tr><td>Redis #{{$i}}</td><td>{{if $ok}}connected{{else}}disconnected{{end}}</td></tr>
{{end}}</table>
<p class="muted">JSON probes at <a href="/healthz">/healthz</a> and <a href="/readyz">/readyz</a>, metrics at <a href="/metrics">/metrics</a>.</p>
</body>
</html>`))

type statusPage struct {
	State      string
	Color      string
	Timestamp  string
	RequestID  string
	GoVersion  string
	Platform   string
	PID        int
	Uptime     string
	Env        string
	Goroutines int
	HeapMB     string
	Checks     utils.HealthStatus
}

// StatusPageHandler renders StatusTemplate. Mongo down is reported as DOWN, a Redis
// failure alone as DEGRADED.
func (h *HealthHandler) StatusPageHandler(c *gin.Context) {
	status := h.Status()
	page := statusPage{
		State:      "OK",
		Color:      "#16a34a",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		RequestID:  c.Writer.Header().Get("X-Request-ID"),
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + " " + runtime.GOARCH,
		PID:        os.Getpid(),
		Uptime:     utils.Uptime().Truncate(time.Second).String(),
		Env:        h.Env,
		Goroutines: runtime.NumGoroutine(),
		Checks:     status,
	}
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	page.HeapMB = formatMB(mem.HeapInuse)

	switch {
	case !status.Mongo:
		page.State, page.Color = "DOWN", "#dc2626"
	case !allUp(status.Redis):
		page.State, page.Color = "DEGRADED", "#d97706"
	}
	c.HTML(http.StatusOK, "status", page)
}

func allUp(checks []bool) bool {
	for _, ok := range checks {
		if !ok {
			return false
		}
	}
	return true
}

func formatMB(n uint64) string {
	return strconv.FormatFloat(float64(n)/1024/1024, 'f', 1, 64) + " MB"
}
