package cache

import (
	"strings"
	"testing"
	"time"
)

func TestKey_NamespacedAndStable(t *testing.T) {
	a := Key(NamespaceText, "doc.pdf", "abc")
	b := Key(NamespaceText, "doc.pdf", "abc")
	c := Key(NamespaceEmbedding, "doc.pdf", "abc")

	if a != b {
		t.Errorf("Expected stable key, got %s and %s", a, b)
	}
	if a == c {
		t.Error("Expected namespaces to produce different keys")
	}
	if !strings.HasPrefix(a, "claimtrust:v1:text:") {
		t.Errorf("Unexpected key prefix: %s", a)
	}
	// Part boundaries matter
	if Key(NamespaceText, "ab", "c") == Key(NamespaceText, "a", "bc") {
		t.Error("Expected part boundaries to change the key")
	}
}

func TestMemoryCache_GetReturnsCopy(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("value"), 0)

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("Expected hit")
	}
	got[0] = 'X'

	again, _ := c.Get("k")
	if string(again) != "value" {
		t.Errorf("Expected cached value to be unchanged, got %q", again)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", c.Len())
	}
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := Key(NamespaceText, "x")

	if err := c.Set(key, []byte("hello"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := c.Get(key)
	if !ok || string(got) != "hello" {
		t.Fatalf("Expected hello, got %q (hit=%v)", got, ok)
	}

	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, ok := c.Get(key); ok {
		t.Error("Expected entry to be expired")
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("Expected deleting a missing key to succeed, got %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Hour)
	key := Key(NamespaceEmbedding, "y")
	_ = disk.Set(key, []byte("vec"), 0)

	mem := NewMemoryCache(time.Minute, time.Minute)
	layered := &LayeredCache{memory: mem, disk: disk}

	if got, ok := layered.Get(key); !ok || string(got) != "vec" {
		t.Fatalf("Expected disk hit, got %q", got)
	}
	if _, ok := mem.Get(key); !ok {
		t.Error("Expected disk hit to be promoted into memory")
	}
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	in := []float32{0.5, 1.5}
	if err := SetJSON(c, "v", in, 0); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}
	var out []float32
	if !GetJSON(c, "v", &out) || len(out) != 2 || out[1] != 1.5 {
		t.Errorf("Unexpected decoded value: %v", out)
	}
	if GetJSON(Nop{}, "v", &out) {
		t.Error("Expected Nop cache to miss")
	}
}

func TestFromConfig(t *testing.T) {
	if _, ok := FromConfig(false, "", 0, 0).(Nop); !ok {
		t.Error("Expected Nop cache when disabled")
	}
	if _, ok := FromConfig(true, "", time.Minute, 0).(*MemoryCache); !ok {
		t.Error("Expected memory cache without a directory")
	}
	if _, ok := FromConfig(true, t.TempDir(), time.Minute, time.Hour).(*LayeredCache); !ok {
		t.Error("Expected layered cache with a directory")
	}
}
