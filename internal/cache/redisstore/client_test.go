package redisstore

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func newMini(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	cli, err := New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("redisstore.New: %v", err)
	}
	t.Cleanup(func() { _ = cli.Close() })

	return cli, mr
}

func TestNew_RequiresAddress(t *testing.T) {
	if _, err := New(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty address")
	}
}

func TestSetMGetDel_RoundTrip(t *testing.T) {
	cli, _ := newMini(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	if err := cli.Set(ctx, "cover:5339:env:5340:f=0", []byte(`[5339,5340]`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cli.Set(ctx, "cover:5339:int:2:f=1", []byte(`[533900]`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := cli.MGet(ctx, []string{"cover:5339:env:5340:f=0", "missing", "cover:5339:int:2:f=1"})
	if err != nil {
		t.Fatalf("MGet: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("MGet returned %d entries, want 2", len(got))
	}
	if string(got["cover:5339:env:5340:f=0"]) != `[5339,5340]` {
		t.Fatalf("unexpected value: %q", got["cover:5339:env:5340:f=0"])
	}

	if err := cli.Del(ctx, "cover:5339:env:5340:f=0"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	got, err = cli.MGet(ctx, []string{"cover:5339:env:5340:f=0"})
	if err != nil {
		t.Fatalf("MGet after Del: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("key survived Del: %v", got)
	}
}

func TestMGet_EmptyKeys(t *testing.T) {
	cli, _ := newMini(t)
	got, err := cli.MGet(context.Background(), nil)
	if err != nil {
		t.Fatalf("MGet(nil): %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
}

func TestSet_TTLExpires(t *testing.T) {
	cli, mr := newMini(t)
	ctx := context.Background()

	if err := cli.Set(ctx, "k", []byte("v"), 30*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(31 * time.Second)

	got, err := cli.MGet(ctx, []string{"k"})
	if err != nil {
		t.Fatalf("MGet: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("key did not expire: %v", got)
	}
}

func TestDelPrefix_OnlyMatchingKeys(t *testing.T) {
	cli, _ := newMini(t)
	ctx := context.Background()

	for _, k := range []string{
		"cover:533900:env:533901:f=a",
		"cover:533900:int:3:f=b",
		"cover:5339001:int:3:f=c",
	} {
		if err := cli.Set(ctx, k, []byte("x"), time.Minute); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}

	n, err := cli.DelPrefix(ctx, "cover:533900:")
	if err != nil {
		t.Fatalf("DelPrefix: %v", err)
	}
	if n != 2 {
		t.Fatalf("DelPrefix removed %d keys, want 2", n)
	}

	got, err := cli.MGet(ctx, []string{"cover:5339001:int:3:f=c"})
	if err != nil {
		t.Fatalf("MGet: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unrelated key was purged")
	}
}

func TestReady(t *testing.T) {
	cli, mr := newMini(t)
	if !cli.Ready(context.Background()) {
		t.Fatalf("expected ready while miniredis is up")
	}
	mr.Close()
	if cli.Ready(context.Background()) {
		t.Fatalf("expected not ready after close")
	}
}
