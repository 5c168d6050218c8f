package kvstore

import (
	"context"
	"slices"

	"github.com/alphadose/haxmap"
	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/repo"
)

type memoryImpl struct {
	data *haxmap.Map[string, []byte]
}

// NewMemory is a process-local store; contents are lost on exit.
func NewMemory() repo.KVStore {
	return &memoryImpl{data: haxmap.New[string, []byte]()}
}

func (m *memoryImpl) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data.Get(key)
	if !ok {
		return nil, code.NotFoundErr.WithMsgf("key %s", key)
	}
	return slices.Clone(v), nil
}

func (m *memoryImpl) Set(_ context.Context, key string, value []byte) error {
	m.data.Set(key, slices.Clone(value))
	return nil
}

func (m *memoryImpl) Delete(_ context.Context, key string) error {
	m.data.Del(key)
	return nil
}
