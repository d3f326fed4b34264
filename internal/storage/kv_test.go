package storage

import (
	"context"
	"errors"
	"testing"
)

// TestMemoryKVBasics verifies the get/set/remove contract, including the
// not-found sentinel.
func TestMemoryKVBasics(t *testing.T) {
	kv := NewMemory()
	ctx := context.Background()

	if _, err := kv.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing key: got %v, want ErrNotFound", err)
	}

	if err := kv.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, err := kv.Get(ctx, "k"); err != nil || got != "v1" {
		t.Errorf("Get = (%q, %v), want (v1, nil)", got, err)
	}

	if err := kv.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got, _ := kv.Get(ctx, "k"); got != "v2" {
		t.Errorf("overwrite not visible: %q", got)
	}

	if err := kv.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := kv.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Remove: got %v, want ErrNotFound", err)
	}

	// Removing an absent key is not an error.
	if err := kv.Remove(ctx, "k"); err != nil {
		t.Errorf("Remove absent key: %v", err)
	}
}

// TestGetJSONAbsentKey verifies the (false, nil) contract for missing
// documents and that the target is left untouched.
func TestGetJSONAbsentKey(t *testing.T) {
	kv := NewMemory()
	v := map[string]int{"kept": 1}
	found, err := GetJSON(context.Background(), kv, "missing", &v)
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if found {
		t.Error("found an absent key")
	}
	if v["kept"] != 1 {
		t.Error("target mutated on miss")
	}
}

// TestSetGetJSONRoundTrip verifies documents survive the JSON layer.
func TestSetGetJSONRoundTrip(t *testing.T) {
	kv := NewMemory()
	ctx := context.Background()

	type doc struct {
		Name  string   `json:"name"`
		Tags  []string `json:"tags"`
		Count int      `json:"count"`
	}
	in := doc{Name: "bench", Tags: []string{"push", "chest"}, Count: 3}
	if err := SetJSON(ctx, kv, "doc", in); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}

	var out doc
	found, err := GetJSON(ctx, kv, "doc", &out)
	if err != nil || !found {
		t.Fatalf("GetJSON = (%v, %v), want (true, nil)", found, err)
	}
	if out.Name != in.Name || out.Count != in.Count || len(out.Tags) != 2 {
		t.Errorf("round trip lost data: %+v", out)
	}
}

// TestGetJSONCorruptValue verifies malformed stored JSON surfaces as an
// error rather than a silent miss.
func TestGetJSONCorruptValue(t *testing.T) {
	kv := NewMemory()
	ctx := context.Background()
	if err := kv.Set(ctx, "doc", "{not json"); err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if _, err := GetJSON(ctx, kv, "doc", &out); err == nil {
		t.Error("corrupt value decoded without error")
	}
}

// TestFailWrites verifies the test hook fails mutations but not reads.
func TestFailWrites(t *testing.T) {
	kv := NewMemory()
	ctx := context.Background()
	if err := kv.Set(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	kv.FailWrites = boom

	if err := kv.Set(ctx, "k", "v2"); !errors.Is(err, boom) {
		t.Errorf("Set under FailWrites: %v", err)
	}
	if err := kv.Remove(ctx, "k"); !errors.Is(err, boom) {
		t.Errorf("Remove under FailWrites: %v", err)
	}
	if got, err := kv.Get(ctx, "k"); err != nil || got != "v" {
		t.Errorf("read affected by FailWrites: (%q, %v)", got, err)
	}
	if err := SetJSON(ctx, kv, "k", 1); !errors.Is(err, boom) {
		t.Errorf("SetJSON should wrap the write error, got %v", err)
	}
}
