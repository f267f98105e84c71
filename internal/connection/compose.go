package connection

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	xglog "github.com/ManuGH/gotenberg-client/internal/log"
	"github.com/ManuGH/gotenberg-client/internal/procgroup"
)

// Gotenberg image and the container port it serves HTTP on.
const (
	GotenbergImage = "gotenberg/gotenberg"
	GotenbergPort  = 3000
)

// ComposeService is one entry of `docker compose ps --format json`.
type ComposeService struct {
	ID         string      `json:"ID"`
	Name       string      `json:"Name"`
	Service    string      `json:"Service"`
	Image      string      `json:"Image"`
	State      string      `json:"State"`
	Publishers []Publisher `json:"Publishers"`
}

// Publisher is a published port of a compose service.
type Publisher struct {
	URL           string `json:"URL"`
	TargetPort    int    `json:"TargetPort"`
	PublishedPort int    `json:"PublishedPort"`
	Protocol      string `json:"Protocol"`
}

// ParseComposePS decodes `docker compose ps --format json`. Compose v2.21+
// prints one object per line; older releases print a single array.
func ParseComposePS(data []byte) ([]ComposeService, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '[' {
		var services []ComposeService
		if err := json.Unmarshal(data, &services); err != nil {
			return nil, fmt.Errorf("decode compose ps array: %w", err)
		}
		return services, nil
	}

	var services []ComposeService
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64<<10), 4<<20)
	for line := 1; sc.Scan(); line++ {
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var svc ComposeService
		if err := json.Unmarshal(raw, &svc); err != nil {
			return nil, fmt.Errorf("decode compose ps line %d: %w", line, err)
		}
		services = append(services, svc)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read compose ps output: %w", err)
	}
	return services, nil
}

// FindGotenberg picks the first running Gotenberg service that publishes
// port 3000 over TCP.
func FindGotenberg(services []ComposeService) (ComposeDetails, error) {
	for _, svc := range services {
		if !matchesImage(svc.Image) || !strings.EqualFold(svc.State, "running") {
			continue
		}
		for _, p := range svc.Publishers {
			if p.TargetPort != GotenbergPort || p.PublishedPort == 0 {
				continue
			}
			if p.Protocol != "" && !strings.EqualFold(p.Protocol, "tcp") {
				continue
			}
			return ComposeDetails{Service: svc.Service, Host: publishedHost(p.URL), Port: p.PublishedPort}, nil
		}
	}
	return ComposeDetails{}, ErrNoService
}

// matchesImage compares an image reference with GotenbergImage, ignoring
// registry, tag and digest.
func matchesImage(ref string) bool {
	if i := strings.IndexByte(ref, '@'); i >= 0 {
		ref = ref[:i]
	}
	if i := strings.LastIndexByte(ref, ':'); i > strings.LastIndexByte(ref, '/') {
		ref = ref[:i]
	}
	parts := strings.Split(ref, "/")
	if len(parts) > 2 {
		first := parts[0]
		if strings.ContainsAny(first, ".:") || first == "localhost" {
			parts = parts[1:]
		}
	}
	return strings.Join(parts, "/") == GotenbergImage
}

// publishedHost maps wildcard bind addresses to localhost.
func publishedHost(addr string) string {
	switch strings.Trim(addr, "[]") {
	case "", "0.0.0.0", "::":
		return "localhost"
	default:
		return strings.Trim(addr, "[]")
	}
}

// ComposeRunner lists the services of a compose project.
type ComposeRunner interface {
	PS(ctx context.Context) ([]byte, error)
}

// ExecComposeRunner shells out to `docker compose`.
type ExecComposeRunner struct {
	Binary  string // defaults to "docker"
	File    string
	Project string
}

// Args returns the command line after the binary.
func (r ExecComposeRunner) Args() []string {
	args := []string{"compose"}
	if r.File != "" {
		args = append(args, "-f", r.File)
	}
	if r.Project != "" {
		args = append(args, "-p", r.Project)
	}
	return append(args, "ps", "--format", "json")
}

// PS implements ComposeRunner.
func (r ExecComposeRunner) PS(ctx context.Context) ([]byte, error) {
	bin := r.Binary
	if bin == "" {
		bin = "docker"
	}
	// #nosec G204 -- binary and arguments come from configuration
	cmd := exec.CommandContext(ctx, bin, r.Args()...)
	procgroup.Bind(cmd, 2*time.Second)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s %s: %w: %s", bin, strings.Join(r.Args(), " "), err, msg)
		}
		return nil, fmt.Errorf("%s %s: %w", bin, strings.Join(r.Args(), " "), err)
	}
	return out, nil
}

// DiscoverCompose asks runner for the project's services and returns the
// Gotenberg one.
func DiscoverCompose(ctx context.Context, runner ComposeRunner) (ComposeDetails, error) {
	logger := xglog.WithComponent("connection")
	out, err := runner.PS(ctx)
	if err != nil {
		return ComposeDetails{}, fmt.Errorf("docker compose ps: %w", err)
	}
	services, err := ParseComposePS(out)
	if err != nil {
		return ComposeDetails{}, err
	}
	details, err := FindGotenberg(services)
	if err != nil {
		logger.Debug().Int("services", len(services)).Msg("no gotenberg service in compose project")
		return ComposeDetails{}, err
	}
	logger.Info().
		Str("service", details.Service).
		Str(xglog.FieldBaseURL, details.BaseURL()).
		Msg("using gotenberg from docker compose")
	return details, nil
}
