package monitoring

import (
	"testing"
)

func TestHealthChecker_Basic(t *testing.T) {
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("ok", func() CheckResult { return CheckResult{Status: StatusHealthy} })
	status := hc.CheckHealth()
	if status.Status != StatusHealthy {
		t.Fatalf("expected healthy")
	}
}

func TestHealthChecker_DegradedWins(t *testing.T) {
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("ok", func() CheckResult { return CheckResult{Status: StatusHealthy} })
	hc.AddCheck("meh", func() CheckResult { return CheckResult{Status: StatusDegraded} })
	if got := hc.CheckHealth().Status; got != StatusDegraded {
		t.Fatalf("expected degraded, got %q", got)
	}
}

func TestHealthChecker_UnhealthyWins(t *testing.T) {
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("meh", func() CheckResult { return CheckResult{Status: StatusDegraded} })
	hc.AddCheck("bad", func() CheckResult { return CheckResult{Status: StatusUnhealthy} })
	if got := hc.CheckHealth().Status; got != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %q", got)
	}
}

func TestConfigurationHealthCheck(t *testing.T) {
	res := ConfigurationHealthCheck(map[string]string{"LLM_API_KEY": ""})()
	if res.Status != StatusDegraded {
		t.Fatalf("expected degraded for missing key, got %q", res.Status)
	}

	res = ConfigurationHealthCheck(map[string]string{"LLM_API_KEY": "k"})()
	if res.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %q", res.Status)
	}
}
