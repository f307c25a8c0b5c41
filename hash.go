package main

// hashPath computes the 64-bit djb2-style hash used to place a cache entry
// in the snapshot's open-addressed table. The arithmetic wraps naturally on
// overflow, same as unsigned 64-bit C arithmetic.
func hashPath(path string) uint64 {
	var h uint64
	for i := 0; i < len(path); i++ {
		h = h*31 + uint64(path[i])
	}
	return h
}
