package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBadgerStore_Pool_Survives_Restart(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()

	// Given a pool with three instances, one of them allocated
	store, err := OpenBadgerStore(dir, nil)
	req.NoError(err)
	p, err := New(nil, store)
	req.NoError(err)
	p.Add(Descriptor{ID: "S2", URL: "http://localhost:8084"})
	p.Add(Descriptor{ID: "S1", URL: "http://localhost:8083"})
	p.Add(Descriptor{ID: "S3", URL: "http://localhost:8085"})
	allocated, ok := p.Allocate()
	req.True(ok)
	req.Equal("S2", allocated.ID)
	req.NoError(store.Close())

	// When the pool is reopened
	store, err = OpenBadgerStore(dir, nil)
	req.NoError(err)
	defer store.Close()
	reopened, err := New(nil, store)
	req.NoError(err)

	// Then registration order and busy flags are preserved
	list := reopened.List()
	req.Equal([]string{"S2", "S1", "S3"}, ids(list))
	req.True(list[0].Status)
	req.False(list[1].Status)
	req.Equal("http://localhost:8083", list[1].URL)

	next, ok := reopened.Allocate()
	req.True(ok)
	req.Equal("S1", next.ID)
}

func TestBadgerStore_Overwrite_Keeps_Single_Record(t *testing.T) {
	req := require.New(t)
	store, err := OpenBadgerStore("", nil)
	req.NoError(err)
	defer store.Close()

	p, err := New(nil, store)
	req.NoError(err)
	p.Add(Descriptor{ID: "S1", URL: "http://old"})
	p.Add(Descriptor{ID: "S1", URL: "http://new"})

	stored, err := store.LoadAll()
	req.NoError(err)
	req.Len(stored, 1)
	req.Equal("http://new", stored[0].URL)
}

func TestBadgerStore_Release_Is_Persisted(t *testing.T) {
	req := require.New(t)
	store, err := OpenBadgerStore("", nil)
	req.NoError(err)
	defer store.Close()

	p, err := New(nil, store)
	req.NoError(err)
	p.Add(Descriptor{ID: "S1", URL: "http://localhost:8082"})
	_, _ = p.Allocate()

	stored, err := store.LoadAll()
	req.NoError(err)
	req.True(stored[0].Status)
	req.False(stored[0].AllocatedAt.IsZero())

	p.Release("S1")
	stored, err = store.LoadAll()
	req.NoError(err)
	req.False(stored[0].Status)
	req.True(stored[0].AllocatedAt.IsZero())
}
