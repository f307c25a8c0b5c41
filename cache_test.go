package main

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCacheLoadAndFind(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"index.html":       "<html/>",
		"css/site.css":     "body{}",
		".hidden":          "secret",
		"sub/.hiddendir/x": "nope",
	})

	c := NewCache(newTestLogger())
	if err := c.Load(root); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	e, ok := c.Find("/index.html")
	if !ok {
		t.Fatal("expected hit for /index.html")
	}
	expectEqual(t, "<html/>", string(e.Bytes))
	expectEqual(t, len("<html/>"), e.Length)
	expectEqual(t, "text/html; charset=UTF-8", e.MIME)
	expectEqual(t, hashPath("/index.html"), e.Hash)

	if _, ok := c.Find("/.hidden"); ok {
		t.Error("dot files must not be cached")
	}
	if _, ok := c.Find("/sub/.hiddendir/x"); ok {
		t.Error("dot directories must not be cached")
	}
	if _, ok := c.Find("/missing"); ok {
		t.Error("expected miss for /missing")
	}

	if _, ok := c.Find("/css/site.css"); !ok {
		t.Error("expected hit for /css/site.css")
	}
}

func TestCacheFindReturnsIndependentCopy(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "hello"})
	c := NewCache(newTestLogger())
	if err := c.Load(root); err != nil {
		t.Fatal(err)
	}
	e1, _ := c.Find("/a.txt")
	e1.Bytes[0] = 'X'
	e2, _ := c.Find("/a.txt")
	expectEqual(t, "hello", string(e2.Bytes))
}

func TestCacheLoadEmptyDirFailsWithoutClobberingPriorSnapshot(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "hello"})
	c := NewCache(newTestLogger())
	if err := c.Load(root); err != nil {
		t.Fatal(err)
	}

	emptyRoot := t.TempDir()
	if err := c.Load(emptyRoot); err == nil {
		t.Error("expected error loading an empty tree")
	}
	if _, ok := c.Find("/a.txt"); !ok {
		t.Error("prior snapshot should survive a failed reload")
	}
}

func TestSnapshotCapacityIsPowerOfTwoGreaterThanCount(t *testing.T) {
	for count := 1; count <= 260; count++ {
		entries := make([]CacheEntry, count)
		for i := range entries {
			p := "/" + string(rune('a'+i%26)) + string(rune(i))
			entries[i] = CacheEntry{Path: p, Hash: hashPath(p)}
		}
		snap, err := buildSnapshot(entries)
		if err != nil {
			t.Fatalf("count=%d: %v", count, err)
		}
		capv := uint64(len(snap.table))
		if capv&(capv-1) != 0 {
			t.Fatalf("count=%d: capacity %d is not a power of two", count, capv)
		}
		if capv <= uint64(count) {
			t.Fatalf("count=%d: capacity %d not strictly greater", count, capv)
		}
	}
}

func TestSnapshotNoDuplicatePaths(t *testing.T) {
	entries := []CacheEntry{
		{Path: "/a", Hash: hashPath("/a")},
		{Path: "/b", Hash: hashPath("/b")},
		{Path: "/a", Hash: hashPath("/a")}, // duplicate path, replaces in place
	}
	snap, err := buildSnapshot(entries)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, e := range snap.table {
		if e.Path == "" {
			continue
		}
		if seen[e.Path] {
			t.Fatalf("duplicate path %s in snapshot", e.Path)
		}
		seen[e.Path] = true
	}
}

func TestCacheConcurrentFindDuringLoad(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "one"})
	c := NewCache(newTestLogger())
	if err := c.Load(root); err != nil {
		t.Fatal(err)
	}

	root2 := t.TempDir()
	writeTree(t, root2, map[string]string{"a.txt": "two", "b.txt": "extra"})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if e, ok := c.Find("/a.txt"); ok {
					if string(e.Bytes) != "one" && string(e.Bytes) != "two" {
						t.Errorf("torn read: %q", e.Bytes)
					}
				}
			}
		}()
	}
	if err := c.Load(root2); err != nil {
		t.Fatal(err)
	}
	close(stop)
	wg.Wait()
}
