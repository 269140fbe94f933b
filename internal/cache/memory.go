package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultMemoryEntries = 1024

// Memory is an in-process LRU cache, discarded when the process exits.
type Memory struct {
	entries *lru.Cache[string, []byte]
}

func NewMemory(size int) (*Memory, error) {
	entries, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &Memory{entries: entries}, nil
}

func (m *Memory) Get(key string) ([]byte, bool) {
	return m.entries.Get(key)
}

func (m *Memory) Put(key string, value []byte) error {
	m.entries.Add(key, value)
	return nil
}

func (m *Memory) Len() int {
	return m.entries.Len()
}
