package blob

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBucket is an in-process Bucket with the same compare-and-swap
// semantics as the S3 implementation. Used in tests and local runs.
type MemoryBucket struct {
	mu      sync.Mutex
	objects map[string]memObject
	nextGen int64
}

type memObject struct {
	data    []byte
	version string
}

func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{objects: make(map[string]memObject)}
}

func (b *MemoryBucket) Get(ctx context.Context, key string) ([]byte, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	obj, ok := b.objects[key]
	if !ok {
		return nil, "", ErrNotExist
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return data, obj.version, nil
}

func (b *MemoryBucket) Put(ctx context.Context, key string, data []byte, version string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	obj, exists := b.objects[key]
	if version == "" {
		if exists {
			return "", ErrVersionMismatch
		}
	} else if !exists || obj.version != version {
		return "", ErrVersionMismatch
	}

	b.nextGen++
	stored := make([]byte, len(data))
	copy(stored, data)
	next := memObject{data: stored, version: fmt.Sprintf("gen-%d", b.nextGen)}
	b.objects[key] = next
	return next.version, nil
}
