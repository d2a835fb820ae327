package link

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func cacheAt(t *testing.T) *DiskCache {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c, err := OpenDiskCache("tern-test")
	if err != nil {
		t.Fatalf("OpenDiskCache: %v", err)
	}
	return c
}

func TestDiskCache_RoundTrip(t *testing.T) {
	c := cacheAt(t)
	table := mustExtract(t, sampleModule, "app", PriorityProgram)
	key := DigestOf("app", PriorityProgram, sampleModule)

	if _, hit, err := c.Get(key); err != nil || hit {
		t.Fatalf("Get before Put: hit=%v err=%v", hit, err)
	}
	if err := c.Put(key, table); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, hit, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit {
		t.Fatal("Get missed after Put")
	}
	if diff := cmp.Diff(table, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDigestOf_Sensitivity(t *testing.T) {
	base := DigestOf("app", PriorityProgram, "define void @f() {}")
	cases := []Digest{
		DigestOf("app2", PriorityProgram, "define void @f() {}"),
		DigestOf("app", PriorityLibrary, "define void @f() {}"),
		DigestOf("app", PriorityProgram, "define void @g() {}"),
	}
	for i, d := range cases {
		if d == base {
			t.Errorf("digest %d did not change with its input", i)
		}
	}
	if again := DigestOf("app", PriorityProgram, "define void @f() {}"); again != base {
		t.Error("digest is not deterministic")
	}
}

func TestDiskCache_DropAll(t *testing.T) {
	c := cacheAt(t)
	table := mustExtract(t, sampleModule, "app", PriorityProgram)
	key := DigestOf("app", PriorityProgram, sampleModule)
	if err := c.Put(key, table); err != nil {
		t.Fatal(err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if _, hit, _ := c.Get(key); hit {
		t.Error("cache hit after DropAll")
	}
}

func TestDiskCache_NilSafe(t *testing.T) {
	var c *DiskCache
	if err := c.Put(Digest{}, nil); err != nil {
		t.Errorf("nil Put: %v", err)
	}
	if _, hit, err := c.Get(Digest{}); hit || err != nil {
		t.Errorf("nil Get: hit=%v err=%v", hit, err)
	}
	if err := c.DropAll(); err != nil {
		t.Errorf("nil DropAll: %v", err)
	}
}
