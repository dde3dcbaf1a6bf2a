package auth

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestManager(clock *fakeClock) *ResetTokenManager {
	return NewResetTokenManager("0123456789abcdef0123456789abcdef", 120*time.Second).WithClock(clock.Now)
}

func TestResetTokenVerifyWithinWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(clock)

	token, claims, err := m.Issue("ana@x.com", "123456")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if claims.Subject != "ana@x.com" || claims.ID == "" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	clock.t = clock.t.Add(119 * time.Second)
	got, err := m.Verify(token, "123456")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.ID != claims.ID {
		t.Fatalf("jti mismatch")
	}
}

func TestResetTokenExpired(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(clock)
	token, _, _ := m.Issue("ana@x.com", "123456")

	clock.t = clock.t.Add(121 * time.Second)
	if _, err := m.Verify(token, "123456"); !errors.Is(err, ErrResetTokenExpired) {
		t.Fatalf("expected ErrResetTokenExpired, got %v", err)
	}
}

func TestResetTokenCodeMismatch(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(clock)
	token, _, _ := m.Issue("ana@x.com", "123456")

	if claims, err := m.Verify(token, "654321"); !errors.Is(err, ErrResetCodeMismatch) || claims == nil || claims.ID == "" {
		t.Fatalf("expected ErrResetCodeMismatch, got %v", err)
	}
}

func TestResetTokenRejectsOtherSecret(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	token, _, _ := newTestManager(clock).Issue("ana@x.com", "123456")

	other := NewResetTokenManager("ffffffffffffffffffffffffffffffff", 120*time.Second).WithClock(clock.Now)
	if _, err := other.Verify(token, "123456"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid, got %v", err)
	}
}
