package metrics

import "testing"

func TestNew(t *testing.T) {
	m := New(1542, 384200)
	if m.Requests() != 1542 {
		t.Errorf("Requests() = %d", m.Requests())
	}
	if m.Tokens() != 384200 {
		t.Errorf("Tokens() = %d", m.Tokens())
	}
}

func TestNew_NoTraffic(t *testing.T) {
	m := New(0, 0)
	if m.Requests() != 0 || m.Tokens() != 0 {
		t.Errorf("Requests() = %d, Tokens() = %d, want both 0", m.Requests(), m.Tokens())
	}
}
