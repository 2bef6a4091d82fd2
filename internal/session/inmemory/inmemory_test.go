package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/civitas-ai/civitas/models"
)

type gatedTranslator struct {
	started chan string
	release chan struct{}
}

func (g *gatedTranslator) Translate(ctx context.Context, text, lang string) (string, error) {
	g.started <- text
	<-g.release
	return text, nil
}

func TestCreateAndGet(t *testing.T) {
	store := NewStore(time.Hour, 0)
	sess, err := store.Create("", "user-1", models.Document{Title: "Doc", RawText: "text"}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, ok := store.Get(sess.ID())
	if !ok || got != sess {
		t.Fatalf("Get returned %v, %v", got, ok)
	}
}

func TestCreateWithExplicitID(t *testing.T) {
	store := NewStore(time.Hour, 0)
	sess, err := store.Create("doc-42", "user-1", models.Document{Title: "Doc", RawText: "text"}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.ID() != "doc-42" {
		t.Fatalf("unexpected id: %q", sess.ID())
	}
	if _, ok := store.Get("doc-42"); !ok {
		t.Fatalf("session not reachable under explicit id")
	}
}

func TestCreateReplacesExistingSession(t *testing.T) {
	store := NewStore(time.Hour, 0)
	old, err := store.Create("doc-1", "user-1", models.Document{RawText: "old"}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	fresh, err := store.Create("doc-1", "user-1", models.Document{RawText: "new"}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, ok := store.Get("doc-1")
	if !ok || got != fresh || got == old {
		t.Fatalf("expected replacement session")
	}
}

func TestCreateAppliesTranslateFanout(t *testing.T) {
	store := NewStore(time.Hour, 1)
	sess, err := store.Create("", "user-1", models.Document{RawText: "One.\n\nTwo."}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	sess.SetTargetLanguage("es")
	tr := &gatedTranslator{started: make(chan string, 2), release: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		_, err := sess.Translate(context.Background(), tr)
		done <- err
	}()
	<-tr.started
	select {
	case p := <-tr.started:
		t.Fatalf("paragraph %q started past the configured fan-out", p)
	case <-time.After(50 * time.Millisecond):
	}
	close(tr.release)
	if err := <-done; err != nil {
		t.Fatalf("Translate: %v", err)
	}
}

func TestDrop(t *testing.T) {
	store := NewStore(time.Hour, 0)
	sess, _ := store.Create("", "user-1", models.Document{RawText: "text"}, nil)
	store.Drop(sess.ID())
	if _, ok := store.Get(sess.ID()); ok {
		t.Fatalf("session should be gone")
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	store := NewStore(time.Minute, 0)
	sess, _ := store.Create("", "user-1", models.Document{RawText: "text"}, nil)

	if n := store.Sweep(time.Now()); n != 0 {
		t.Fatalf("nothing should expire yet, got %d", n)
	}
	if n := store.Sweep(time.Now().Add(2 * time.Minute)); n != 1 {
		t.Fatalf("expected one expired session, got %d", n)
	}
	if _, ok := store.Get(sess.ID()); ok {
		t.Fatalf("expired session still reachable")
	}
}

func TestGetRefreshesTTL(t *testing.T) {
	store := NewStore(time.Minute, 0)
	sess, _ := store.Create("", "user-1", models.Document{RawText: "text"}, nil)

	// touch halfway through the TTL, then check past the original expiry
	if _, ok := store.Get(sess.ID()); !ok {
		t.Fatalf("session missing")
	}
	if sess.Expired(time.Now().Add(30 * time.Second)) {
		t.Fatalf("session should still be live after refresh")
	}
}
