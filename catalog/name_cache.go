package catalog

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// indexNameCache remembers the index name TabMeta.GetIndexName computed
// for each column list, keyed by a murmur3-128 hash of the joined column
// names since Go slices aren't comparable and can't be used as map keys
// directly.
type indexNameCache struct {
	entries map[[2]uint64]string
}

func newIndexNameCache() *indexNameCache {
	return &indexNameCache{entries: make(map[[2]uint64]string)}
}

// hashKey builds a stable hash of colNames, length-prefixing each
// element so ["ab","c"] and ["a","bc"] don't collide.
func hashKey(colNames []string) [2]uint64 {
	h := murmur3.New128()
	var lenBuf [8]byte
	for _, name := range colNames {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(name)))
		h.Write(lenBuf[:])
		h.Write([]byte(name))
	}
	hi, lo := h.Sum128()
	return [2]uint64{hi, lo}
}

func (c *indexNameCache) get(colNames []string) (string, bool) {
	name, ok := c.entries[hashKey(colNames)]
	return name, ok
}

func (c *indexNameCache) put(colNames []string, name string) {
	c.entries[hashKey(colNames)] = name
}
