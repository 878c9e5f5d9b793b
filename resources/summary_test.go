package resources_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/go-hms-admin/api"
	hmserrors "github.com/jrsteele09/go-hms-admin/internal/errors"
	"github.com/jrsteele09/go-hms-admin/resources"
	"github.com/stretchr/testify/require"
)

// collectionDoer answers list requests from a fixed body per path
type collectionDoer struct {
	mu     sync.Mutex
	bodies map[string]string
	seen   []string
}

func (d *collectionDoer) Do(ctx context.Context, _, path string, _, out any) error {
	d.mu.Lock()
	d.seen = append(d.seen, path)
	body, ok := d.bodies[path]
	d.mu.Unlock()
	if !ok {
		return hmserrors.ErrForbidden
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return json.Unmarshal([]byte(body), out)
}

func TestCountsEveryCollection(t *testing.T) {
	doer := &collectionDoer{bodies: map[string]string{}}
	for i, c := range api.Collections {
		doer.bodies[api.CollectionPath(c)] = "[" + strings.Repeat(`{},`, i) + "{}]"
	}

	counts, err := resources.Counts(context.Background(), doer)
	require.NoError(t, err)
	require.Len(t, counts, len(api.Collections))
	for i, c := range api.Collections {
		require.Equal(t, i+1, counts[c], c)
	}
}

func TestCountsSelectedCollections(t *testing.T) {
	doer := &collectionDoer{bodies: map[string]string{
		api.CollectionPath(api.CollectionBeds): `[{},{}]`,
	}}

	counts, err := resources.Counts(context.Background(), doer, api.CollectionBeds)
	require.NoError(t, err)
	require.Equal(t, map[string]int{api.CollectionBeds: 2}, counts)
	require.Equal(t, []string{"/api/beds"}, doer.seen)
}

func TestCountsFailure(t *testing.T) {
	doer := &collectionDoer{bodies: map[string]string{
		api.CollectionPath(api.CollectionBeds): `[]`,
	}}

	counts, err := resources.Counts(context.Background(), doer, api.CollectionBeds, api.CollectionInvoices)
	require.ErrorIs(t, err, hmserrors.ErrForbidden)
	require.ErrorContains(t, err, api.CollectionInvoices)
	require.Nil(t, counts)
}
