package rest

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/AzielCF/az-agent/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const healthTimeout = 3 * time.Second

// Checker tests one dependency. A nil error means healthy.
type Checker func(ctx context.Context) error

type CheckResult struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

type HealthReport struct {
	Status           string                 `json:"status"`
	Checks           map[string]CheckResult `json:"checks"`
	WebsocketClients int                    `json:"websocketClients"`
}

type Health struct {
	checks  map[string]Checker
	clients func() int
}

func NewHealth(clients func() int) *Health {
	return &Health{checks: make(map[string]Checker), clients: clients}
}

// With registers a named check. Optional dependencies that are disabled are
// simply not registered.
func (h *Health) With(name string, check Checker) *Health {
	h.checks[name] = check
	return h
}

func (h *Health) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.GetStatus)
}

// Run executes every check in parallel under a shared deadline.
func (h *Health) Run(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(h.checks))
	)
	g, gctx := errgroup.WithContext(ctx)
	for name, check := range h.checks {
		g.Go(func() error {
			start := time.Now()
			err := check(gctx)
			res := CheckResult{Status: "up", LatencyMs: time.Since(start).Milliseconds()}
			if err != nil {
				res.Status = "down"
				res.Error = err.Error()
				logrus.WithError(err).WithField("check", name).Warn("[REST] Health check failed")
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report := HealthReport{Status: "ok", Checks: results}
	for _, r := range results {
		if r.Status != "up" {
			report.Status = "degraded"
			break
		}
	}
	if h.clients != nil {
		report.WebsocketClients = h.clients()
	}
	return report
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	report := h.Run(c.UserContext())
	status := http.StatusOK
	code := "SUCCESS"
	if report.Status != "ok" {
		status = http.StatusServiceUnavailable
		code = "DEGRADED"
	}
	return c.Status(status).JSON(utils.ResponseData{
		Status:  status,
		Code:    code,
		Message: "Health status retrieved",
		Results: report,
	})
}
