package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockProvider struct {
	err error
}

func (m *mockProvider) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{}, &mockProvider{}, &mockProvider{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{"records", "cache", "embedding", "chat"} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_RecordsError(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("conn refused")}, &mockPinger{},
		&mockProvider{}, &mockProvider{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["records"] != CheckError {
		t.Errorf("expected records %q, got %q", CheckError, r.Checks["records"])
	}
	if r.Checks["cache"] != CheckOK {
		t.Errorf("expected cache %q, got %q", CheckOK, r.Checks["cache"])
	}
}

func TestCheck_ProviderErrorsDegrade(t *testing.T) {
	tests := []struct {
		name      string
		embedding error
		chat      error
		failing   string
	}{
		{"embedding down", errors.New("timeout"), nil, "embedding"},
		{"chat down", nil, errors.New("429"), "chat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&mockPinger{}, &mockPinger{},
				&mockProvider{err: tt.embedding}, &mockProvider{err: tt.chat})
			r := svc.Check(context.Background())

			if r.Status != Degraded {
				t.Errorf("expected %q, got %q", Degraded, r.Status)
			}
			if r.Checks[tt.failing] != CheckError {
				t.Errorf("expected %s %q, got %q", tt.failing, CheckError, r.Checks[tt.failing])
			}
		})
	}
}

func TestCheck_AllFailIsUnhealthy(t *testing.T) {
	down := errors.New("down")
	svc := New(&mockPinger{err: down}, &mockPinger{err: down},
		&mockProvider{err: down}, &mockProvider{err: down})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	for name, result := range r.Checks {
		if result != CheckError {
			t.Errorf("expected %s to fail, got %q", name, result)
		}
	}
}

func TestCheck_NilComponentsSkipped(t *testing.T) {
	svc := New(&mockPinger{}, nil, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 1 {
		t.Errorf("expected only the records check, got %v", r.Checks)
	}
	if _, ok := r.Checks["cache"]; ok {
		t.Error("cache check should be absent when cache is nil")
	}
}
