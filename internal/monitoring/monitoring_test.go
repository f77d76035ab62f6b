package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEvaluateReadinessAggregatesWorstStatus(t *testing.T) {
	manager := NewHealthManager()
	manager.RegisterReadiness(NewCheck("up", func(context.Context) ProbeResult {
		return ProbeResult{Status: StatusUp}
	}))
	manager.RegisterReadiness(NewCheck("slow", func(context.Context) ProbeResult {
		return ProbeResult{Status: StatusDegraded, Details: "timeout"}
	}))

	report := manager.EvaluateReadiness(context.Background())
	require.False(t, report.Success)
	require.Equal(t, StatusDegraded, report.Status)
	require.Len(t, report.Checks, 2)
	require.Equal(t, "slow", report.Checks[1].Component)

	manager.RegisterReadiness(NewCheck("broken", func(context.Context) ProbeResult {
		return ProbeResult{Status: StatusDown}
	}))
	report = manager.EvaluateReadiness(context.Background())
	require.Equal(t, StatusDown, report.Status)
}

func TestRunCheckRecoversFromPanic(t *testing.T) {
	manager := NewHealthManager()
	manager.RegisterLiveness(NewCheck("panicky", func(context.Context) ProbeResult {
		panic("probe exploded")
	}))

	report := manager.EvaluateLiveness(context.Background())
	require.False(t, report.Success)
	require.Equal(t, StatusDown, report.Checks[0].Status)
	require.Equal(t, "probe exploded", report.Checks[0].Details)
	require.Equal(t, "panicky", report.Checks[0].Component)
}

func TestResultFromErrorClassifiesTimeouts(t *testing.T) {
	result := ResultFromError("database", context.DeadlineExceeded, time.Second)
	require.Equal(t, StatusDegraded, result.Status)

	result = ResultFromError("database", errors.New("connection refused"), 0)
	require.Equal(t, StatusDown, result.Status)

	result = ResultFromError("database", nil, 0)
	require.Equal(t, StatusUp, result.Status)
}

func TestMergeReports(t *testing.T) {
	live := HealthReport{Success: true, Status: StatusUp, Checks: []ProbeResult{{Component: "process", Status: StatusUp}}}
	ready := HealthReport{Success: false, Status: StatusDown, Checks: []ProbeResult{{Component: "database", Status: StatusDown}}}

	merged := MergeReports(live, ready)
	require.False(t, merged.Success)
	require.Equal(t, StatusDown, merged.Status)
	require.Len(t, merged.Checks, 2)
}

func TestEmptyManagerIsHealthy(t *testing.T) {
	report := NewHealthManager().EvaluateReadiness(context.Background())
	require.True(t, report.Success)
	require.Equal(t, StatusUp, report.Status)
}
