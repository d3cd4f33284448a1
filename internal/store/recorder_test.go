package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	Store
	calls int
}

func (f *failingStore) Add(context.Context, Entry) (*Entry, error) {
	f.calls++
	return nil, errors.New("disk full")
}

func TestRecorder_Disabled(t *testing.T) {
	var nilRec *Recorder
	assert.False(t, nilRec.Enabled())
	nilRec.Record(context.Background(), Entry{})
	assert.Nil(t, nilRec.Store())

	r := NewRecorder(nil)
	assert.False(t, r.Enabled())
	r.Record(context.Background(), Entry{URL: "https://a.example"})
}

func TestRecorder_SwallowsErrors(t *testing.T) {
	fs := &failingStore{}
	r := NewRecorder(fs)
	r.Record(context.Background(), Entry{URL: "https://a.example", Type: TypeScrape})
	assert.Equal(t, 1, fs.calls)
}

func TestRecorder_DetachedFromCancel(t *testing.T) {
	st := newTestSQLiteStore(t)
	r := NewRecorder(st)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Record(ctx, NewEntry(TypeSearch, "https://a.example", "exa", "Suche", "", nil))

	got, err := st.List(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, TypeSearch, got[0].Type)
}
