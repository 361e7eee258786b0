// Package health aggregates component checks for the dev server's /health.
package health

import (
	"context"
	"sync"
	"time"
)

// DefaultTimeout bounds a single component check.
const DefaultTimeout = 2 * time.Second

// Status is the overall verdict.
type Status string

// Overall verdicts: every component up, some down, all down.
const (
	Healthy   Status = "ok"
	Degraded  Status = "degraded"
	Unhealthy Status = "error"
)

// Check is the outcome of one component.
type Check struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Report is the JSON body of /health.
type Report struct {
	Status Status           `json:"status"`
	Checks map[string]Check `json:"checks,omitempty"`
}

// Service runs named checkers.
type Service struct {
	checkers map[string]Checker
	timeout  time.Duration
}

// New creates a Service over named components.
func New(checkers map[string]Checker) *Service {
	return &Service{checkers: checkers, timeout: DefaultTimeout}
}

// Check pings every component in parallel, each under the service timeout.
// A nil Service or one without checkers is healthy.
func (s *Service) Check(ctx context.Context) Report {
	if s == nil || len(s.checkers) == 0 {
		return Report{Status: Healthy}
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]Check, len(s.checkers))
		failed int
	)
	for name, c := range s.checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			res := Check{OK: true}
			if err := c.Ping(cctx); err != nil {
				res = Check{Error: err.Error()}
			}
			mu.Lock()
			checks[name] = res
			if !res.OK {
				failed++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	status := Healthy
	switch {
	case failed == len(checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}
