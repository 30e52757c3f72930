package health

import (
	"context"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/linkmark/internal/ratelimit"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDisabled  = "disabled"
)

const pingTimeout = 2 * time.Second

// Check pings one dependency.
type Check func(ctx context.Context) error

// Dependency is a named backing service. A nil Check means the process
// runs without it.
type Dependency struct {
	Name  string
	Check Check
}

func Redis(client *redis.Client) Dependency {
	d := Dependency{Name: "redis"}
	if client != nil {
		d.Check = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	return d
}

func Postgres(pool *pgxpool.Pool) Dependency {
	d := Dependency{Name: "postgres"}
	if pool != nil {
		d.Check = pool.Ping
	}

	return d
}

type Handler struct {
	deps []Dependency
}

func NewHandler(deps ...Dependency) *Handler {
	return &Handler{deps: deps}
}

type Response struct {
	Body struct {
		Status       string            `json:"status" enum:"ok,degraded"`
		Dependencies map[string]string `json:"dependencies"`
	}
}

// Check pings every dependency concurrently. One unhealthy dependency
// degrades the service; a disabled one does not.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	statuses := make([]string, len(h.deps))

	var wg sync.WaitGroup

	for i, dep := range h.deps {
		wg.Add(1)

		go func() {
			defer wg.Done()

			statuses[i] = probe(ctx, dep.Check)
		}()
	}

	wg.Wait()

	resp := &Response{}
	resp.Body.Status = "ok"
	resp.Body.Dependencies = make(map[string]string, len(h.deps))

	for i, dep := range h.deps {
		resp.Body.Dependencies[dep.Name] = statuses[i]

		if statuses[i] == StatusUnhealthy {
			resp.Body.Status = "degraded"
		}
	}

	return resp, nil
}

func probe(ctx context.Context, check Check) string {
	if check == nil {
		return StatusDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := check(ctx); err != nil {
		return StatusUnhealthy
	}

	return StatusHealthy
}

func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      "GET",
		Path:        "/health",
		Summary:     "Report dependency health",
		Tags:        []string{"Ops"},
		Metadata:    ratelimit.EndpointConfig{Disabled: true}.Metadata(),
	}, h.Check)
}
