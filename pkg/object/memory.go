package object

import "fmt"

// MemoryStore is an in-process Storage. It keeps the uncompressed bytes and
// follows the same write-once rules as Store.
type MemoryStore struct {
	objects map[Hash][]byte
}

var _ Storage = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[Hash][]byte)}
}

func (m *MemoryStore) Has(h Hash) (bool, error) {
	if err := ValidateHash(h); err != nil {
		return false, err
	}
	_, ok := m.objects[h]
	return ok, nil
}

func (m *MemoryStore) Save(h Hash, raw []byte) (bool, error) {
	if err := ValidateHash(h); err != nil {
		return false, err
	}
	if _, ok := m.objects[h]; ok {
		return false, nil
	}
	m.objects[h] = append([]byte(nil), raw...)
	return true, nil
}

func (m *MemoryStore) Load(h Hash) ([]byte, error) {
	if err := ValidateHash(h); err != nil {
		return nil, err
	}
	raw, ok := m.objects[h]
	if !ok {
		return nil, fmt.Errorf("object load %s: %w", h, ErrNotFound)
	}
	return append([]byte(nil), raw...), nil
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	return len(m.objects)
}
