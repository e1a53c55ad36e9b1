package usecase

import (
	"context"
	"time"
)

// Pinger is a dependency the health check can probe.
type Pinger func(ctx context.Context) error

type HealthUsecase interface {
	Check(ctx context.Context) (map[string]string, bool)
}

type healthUsecase struct {
	checks  map[string]Pinger
	timeout time.Duration
}

func NewHealthUsecase(checks map[string]Pinger) HealthUsecase {
	return &healthUsecase{checks: checks, timeout: 2 * time.Second}
}

// Check probes every dependency and reports "ok" or "down" per name. The
// bool is false when any dependency is down.
func (u *healthUsecase) Check(ctx context.Context) (map[string]string, bool) {
	result := map[string]string{"status": "ok"}
	healthy := true
	for name, ping := range u.checks {
		pctx, cancel := context.WithTimeout(ctx, u.timeout)
		err := ping(pctx)
		cancel()
		if err != nil {
			result[name] = "down"
			healthy = false
			continue
		}
		result[name] = "ok"
	}
	if !healthy {
		result["status"] = "degraded"
	}
	return result, healthy
}
