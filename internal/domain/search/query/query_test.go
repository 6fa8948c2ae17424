package query

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/grantix/internal/domain/search/predicate"
)

func TestNew_Defaults(t *testing.T) {
	q, err := New("ayudas abiertas en Bizkaia", predicate.Set{}, 0, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Limit() != DefaultLimit {
		t.Errorf("Limit() = %d, expected default %d", q.Limit(), DefaultLimit)
	}
	if q.Offset() != 0 {
		t.Errorf("Offset() = %d", q.Offset())
	}
	if !q.HasText() {
		t.Error("HasText() = false")
	}
}

func TestNew_LimitClamped(t *testing.T) {
	q, err := New("q", predicate.Set{}, MaxLimit+100, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Limit() != MaxLimit {
		t.Errorf("Limit() = %d, expected %d", q.Limit(), MaxLimit)
	}
}

func TestNew_TextTrimmed(t *testing.T) {
	q, err := New("   ", predicate.Set{}, 5, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.HasText() {
		t.Error("whitespace-only text should count as empty")
	}
}

func TestNew_TextTooLong(t *testing.T) {
	_, err := New(strings.Repeat("a", MaxTextLength+1), predicate.Set{}, 5, "")
	if err == nil {
		t.Fatal("expected error for oversized text")
	}
	if !strings.Contains(err.Error(), "too long") {
		t.Errorf("error = %q", err)
	}
}

func TestNew_EmptyEverything(t *testing.T) {
	q, err := New("", predicate.Set{}, 0, "")
	if err != nil {
		t.Fatalf("empty text and filters must be legal: %v", err)
	}
	if q.HasText() {
		t.Error("HasText() = true for empty text")
	}
	if !q.Predicates().IsEmpty() {
		t.Error("Predicates() should be empty")
	}
}

// --- cursor tests ---

func TestCursor_RoundTrip(t *testing.T) {
	c := EncodeCursor(30)
	if c == "" {
		t.Fatal("expected non-empty cursor")
	}
	offset, err := DecodeCursor(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offset != 30 {
		t.Errorf("offset = %d, expected 30", offset)
	}
}

func TestEncodeCursor_ZeroIsEmpty(t *testing.T) {
	if c := EncodeCursor(0); c != "" {
		t.Errorf("EncodeCursor(0) = %q, expected empty", c)
	}
	if c := EncodeCursor(-5); c != "" {
		t.Errorf("EncodeCursor(-5) = %q, expected empty", c)
	}
}

func TestDecodeCursor_Invalid(t *testing.T) {
	for _, c := range []string{"!!!", "bm90LWEtbnVtYmVy", EncodeCursor(MaxOffset) + "9"} {
		if _, err := DecodeCursor(c); err == nil {
			t.Errorf("DecodeCursor(%q) should fail", c)
		}
	}
}

func TestNew_InvalidCursor(t *testing.T) {
	_, err := New("q", predicate.Set{}, 5, "not base64 ###")
	if err == nil {
		t.Fatal("expected error for invalid cursor")
	}
}
