package atomo_test

import (
	"context"
	"testing"
	"time"

	"github.com/atomo-dev/atomo"
)

func TestFacadeRoundTrip(t *testing.T) {
	count := atomo.New(0, atomo.WithLabel("facade-count"))
	double := atomo.Derived(func(g atomo.Getter) (int, error) {
		n, err := atomo.ReadAtom(g, count)
		return n * 2, err
	}, atomo.WithLabel("facade-double"))

	notified := 0
	unsubscribe := atomo.Subscribe(double, func() { notified++ })
	defer unsubscribe()

	if err := atomo.Set(count, 5); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if v, err := atomo.Get(double); err != nil || v != 10 {
		t.Errorf("expected 10, got %d (err %v)", v, err)
	}
	if notified != 1 {
		t.Errorf("expected 1 notification, got %d", notified)
	}

	if err := atomo.Update(count, func(n int) int { return n + 1 }); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if v, _ := atomo.Get(double); v != 12 {
		t.Errorf("expected 12, got %d", v)
	}
}

func TestFacadeAwait(t *testing.T) {
	a := atomo.Async(func(ctx context.Context, g atomo.Getter) (string, error) {
		return "ready", nil
	}, atomo.WithLabel("facade-async"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := atomo.Await(ctx, a)
	if err != nil {
		t.Fatalf("await failed: %v", err)
	}
	if v != "ready" {
		t.Errorf("expected ready, got %q", v)
	}
}

func TestDefaultStoreIsSingleton(t *testing.T) {
	if atomo.DefaultStore() != atomo.DefaultStore() {
		t.Error("default store should be process-wide")
	}
}
