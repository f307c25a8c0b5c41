package main

import "testing"

func TestHashPathEmpty(t *testing.T) {
	expectEqual(t, uint64(0), hashPath(""))
}

func TestHashPathIncremental(t *testing.T) {
	s := "/a/b/c"
	for _, c := range []byte("/index.html") {
		want := hashPath(s)*31 + uint64(c)
		expectEqual(t, want, hashPath(s+string(c)))
		s = s + string(c)
	}
}

func TestHashPathStable(t *testing.T) {
	expectEqual(t, hashPath("/index.html"), hashPath("/index.html"))
	if hashPath("/a") == hashPath("/b") {
		t.Error("distinct paths unexpectedly hashed equal (could be a coincidence, but not for these inputs)")
	}
}
