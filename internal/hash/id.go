package hash

import "github.com/cespare/xxhash/v2"

// Key computes the xxHash64 of a canonical palette key.
func Key(data string) uint64 {
	return xxhash.Sum64String(data)
}
