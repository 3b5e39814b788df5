// Package proxycfg renders the nginx configuration for the externally-facing
// reverse proxy: bearer-token gating plus buffering-free handling for the
// supervisor's SSE endpoints.
package proxycfg

import (
	"fmt"
	"os"
	"strings"
	"text/template"
)

// Spec describes one proxy instance. An empty BearerToken renders a proxy
// with no authentication check at all.
type Spec struct {
	ListenPort        int
	UpstreamPort      int
	BearerToken       string
	WorkerConnections int
}

const defaultWorkerConnections = 32

// The SSE location matches llama-swap's long-lived stream endpoints; those
// connections must never be buffered or timed out at the proxy.
const confTemplate = `events {
    worker_connections {{.WorkerConnections}};
}

http {
    # Long-lived upstream connections: model swaps can take minutes.
    proxy_read_timeout 24h;
    proxy_send_timeout 24h;

    server {
        listen {{.ListenPort}};
        server_name 0.0.0.0;

        location / {
{{- if .BearerToken}}
            if ($http_authorization != "Bearer {{.BearerToken}}") {
                return 403;
            }
{{- end}}
            proxy_pass http://localhost:{{.UpstreamPort}};
            proxy_set_header Host $host;
            proxy_set_header X-Real-IP $remote_addr;
        }

        location ~* (/logs/streamSSE/|/api/modelsSSE) {
{{- if .BearerToken}}
            if ($http_authorization != "Bearer {{.BearerToken}}") {
                return 403;
            }
{{- end}}
            proxy_pass http://localhost:{{.UpstreamPort}};
            proxy_set_header Host $host;
            proxy_set_header X-Real-IP $remote_addr;

            proxy_buffering off;
            proxy_cache off;

            proxy_read_timeout 24h;
            proxy_send_timeout 24h;
        }
    }
}
`

var tpl = template.Must(template.New("nginx").Parse(confTemplate))

// Render produces the nginx document. Pure: same spec, same output.
func (s Spec) Render() (string, error) {
	if s.ListenPort < 1 || s.ListenPort > 65535 {
		return "", fmt.Errorf("proxy listen port out of range: %d", s.ListenPort)
	}
	if s.UpstreamPort < 1 || s.UpstreamPort > 65535 {
		return "", fmt.Errorf("proxy upstream port out of range: %d", s.UpstreamPort)
	}
	if strings.ContainsAny(s.BearerToken, "\"\n") {
		return "", fmt.Errorf("bearer token contains characters invalid in an nginx string")
	}
	filled := s
	if filled.WorkerConnections <= 0 {
		filled.WorkerConnections = defaultWorkerConnections
	}
	var b strings.Builder
	if err := tpl.Execute(&b, filled); err != nil {
		return "", fmt.Errorf("render nginx config: %w", err)
	}
	return b.String(), nil
}

// WriteTemp renders the config into a fresh temp file and returns its path.
func (s Spec) WriteTemp() (string, error) {
	doc, err := s.Render()
	if err != nil {
		return "", err
	}
	f, err := os.CreateTemp("", "llamadeck-nginx-*.conf")
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(doc); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return f.Name(), nil
}
