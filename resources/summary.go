package resources

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/jrsteele09/go-hms-admin/api"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Counts lists the given collections concurrently and returns how many
// records each holds. No collections means all of them. The first failure
// cancels the remaining requests.
func Counts(ctx context.Context, client Doer, collections ...string) (map[string]int, error) {
	if len(collections) == 0 {
		collections = api.Collections
	}

	var mu sync.Mutex
	counts := make(map[string]int, len(collections))
	eg, ctx := errgroup.WithContext(ctx)
	for _, collection := range collections {
		eg.Go(func() error {
			var items []json.RawMessage
			if err := client.Do(ctx, http.MethodGet, api.CollectionPath(collection), nil, &items); err != nil {
				return errors.Wrapf(err, "Counts %s", collection)
			}
			mu.Lock()
			counts[collection] = len(items)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}
