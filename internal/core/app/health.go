package app

import (
	"context"
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	cfg, _, st := s.app.snapshot()

	// Check declaration store
	switch {
	case st != nil:
		n, err := st.Count(ctx, cfg.CodeBase.Project)
		if err != nil {
			status.Status = "degraded"
			status.Components["store"] = "error: " + err.Error()
		} else {
			status.Components["store"] = fmt.Sprintf("ok (%d declarations)", n)
		}
	case cfg.CodeBase.Persist:
		status.Status = "degraded"
		status.Components["store"] = "missing but enabled in config"
	default:
		status.Components["store"] = "disabled"
	}

	// Check last run
	if rep := s.app.LastReport(); rep != nil {
		status.Components["last_run"] = fmt.Sprintf("ok (%s, %d files, %d diagnostics)", rep.RunID, len(rep.Files), rep.Stats.Diagnostics)
	} else {
		status.Components["last_run"] = "pending"
	}

	return status
}
