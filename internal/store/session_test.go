package store

import (
	"testing"
	"time"

	"github.com/mwhitby/alcove/internal/database"
)

func setupSessionTestDB(t *testing.T) (*SessionStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSessionStore(db), NewUserStore(db)
}

func TestSessionCreate(t *testing.T) {
	ss, _ := setupSessionTestDB(t)

	sess, err := ss.Create(time.Now())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.Token == "" {
		t.Error("expected non-empty token")
	}
	if len(sess.Token) != 64 { // 32 bytes hex-encoded
		t.Errorf("token length = %d, want 64", len(sess.Token))
	}
	if sess.UserID != nil {
		t.Error("fresh session should be anonymous")
	}
	if sess.GuestID != nil {
		t.Error("fresh session should have no guest id")
	}
}

func TestSessionGetByToken(t *testing.T) {
	ss, _ := setupSessionTestDB(t)
	now := time.Now()

	created, _ := ss.Create(now)

	sess, err := ss.GetByToken(created.Token, now)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session, got nil")
	}
	if sess.ID != created.ID {
		t.Errorf("id = %d, want %d", sess.ID, created.ID)
	}
}

func TestSessionGetByTokenExpired(t *testing.T) {
	ss, _ := setupSessionTestDB(t)
	now := time.Now()

	created, _ := ss.Create(now)

	sess, err := ss.GetByToken(created.Token, now.Add(8*24*time.Hour))
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess != nil {
		t.Error("expected nil for expired session")
	}
}

func TestSessionAttachUserClearsGuest(t *testing.T) {
	ss, us := setupSessionTestDB(t)
	now := time.Now()

	u, err := us.Create("alice@example.com")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	sess, _ := ss.Create(now)
	if err := ss.SetGuestID(sess.ID, "guest-1756500000000-abcdef", now); err != nil {
		t.Fatalf("set guest id: %v", err)
	}

	if err := ss.AttachUser(sess.ID, u.ID, now); err != nil {
		t.Fatalf("attach user: %v", err)
	}

	got, _ := ss.GetByToken(sess.Token, now)
	if got.UserID == nil || *got.UserID != u.ID {
		t.Errorf("user_id = %v, want %d", got.UserID, u.ID)
	}
	if got.GuestID != nil {
		t.Error("attaching a user should discard the guest id")
	}
}

func TestSessionWriteRefreshesExpiry(t *testing.T) {
	ss, _ := setupSessionTestDB(t)
	now := time.Now()

	sess, _ := ss.Create(now)

	// Six days in, a write pushes the expiry past the original window
	later := now.Add(6 * 24 * time.Hour)
	if err := ss.SetGuestID(sess.ID, "guest-1756500000000-abcdef", later); err != nil {
		t.Fatalf("set guest id: %v", err)
	}

	got, err := ss.GetByToken(sess.Token, now.Add(8*24*time.Hour))
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil {
		t.Fatal("refreshed session should outlive the original expiry")
	}
}

func TestSessionReturnPath(t *testing.T) {
	ss, _ := setupSessionTestDB(t)
	now := time.Now()

	sess, _ := ss.Create(now)

	if err := ss.SetReturnPath(sess.ID, "/products/walnut-board", now); err != nil {
		t.Fatalf("set return path: %v", err)
	}
	got, _ := ss.GetByToken(sess.Token, now)
	if got.ReturnPath == nil || *got.ReturnPath != "/products/walnut-board" {
		t.Errorf("return_path = %v, want /products/walnut-board", got.ReturnPath)
	}

	if err := ss.ClearReturnPath(sess.ID, now); err != nil {
		t.Fatalf("clear return path: %v", err)
	}
	got, _ = ss.GetByToken(sess.Token, now)
	if got.ReturnPath != nil {
		t.Error("return_path should be cleared")
	}
}

func TestSessionDelete(t *testing.T) {
	ss, _ := setupSessionTestDB(t)
	now := time.Now()

	sess, _ := ss.Create(now)

	if err := ss.Delete(sess.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	got, _ := ss.GetByToken(sess.Token, now)
	if got != nil {
		t.Error("deleted session should be gone")
	}

	// Deleting again is not an error
	if err := ss.Delete(sess.ID); err != nil {
		t.Errorf("repeat delete: %v", err)
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	ss, _ := setupSessionTestDB(t)
	now := time.Now()

	ss.Create(now.Add(-8 * 24 * time.Hour)) // already expired
	live, _ := ss.Create(now)

	n, err := ss.DeleteExpired(now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	if got, _ := ss.GetByToken(live.Token, now); got == nil {
		t.Error("live session should survive the purge")
	}
}
