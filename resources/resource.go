// Package resources holds the hospital feature modules: typed CRUD access to
// the backend collections and the request-state tracker the screens render.
package resources

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-hms-admin/api"
	hmserrors "github.com/jrsteele09/go-hms-admin/internal/errors"
	"github.com/pkg/errors"
)

// Doer is the part of apiclient.Client used by a Resource
type Doer interface {
	Do(ctx context.Context, method, path string, in, out any) error
}

// Model is a record that can check itself before it is sent
type Model interface {
	Validate() error
}

// normalizer is implemented by models that derive fields before sending
type normalizer interface {
	Normalize()
}

// Resource gives typed access to one backend collection
type Resource[T Model] struct {
	client     Doer
	collection string
}

func New[T Model](client Doer, collection string) *Resource[T] {
	return &Resource[T]{client: client, collection: collection}
}

func (r *Resource[T]) Collection() string {
	return r.collection
}

func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.client.Do(ctx, http.MethodGet, api.CollectionPath(r.collection), nil, &items); err != nil {
		return nil, errors.Wrapf(err, "Resource.List %s", r.collection)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var item T
	if err := checkID(id); err != nil {
		return item, err
	}
	if err := r.client.Do(ctx, http.MethodGet, api.ItemPath(r.collection, id), nil, &item); err != nil {
		return item, errors.Wrapf(err, "Resource.Get %s/%s", r.collection, id)
	}
	return item, nil
}

// Create validates item and returns the stored record, including its assigned ID
func (r *Resource[T]) Create(ctx context.Context, item T) (T, error) {
	var created T
	if err := Prepare(&item); err != nil {
		return created, err
	}
	if err := r.client.Do(ctx, http.MethodPost, api.CollectionPath(r.collection), item, &created); err != nil {
		return created, errors.Wrapf(err, "Resource.Create %s", r.collection)
	}
	return created, nil
}

func (r *Resource[T]) Update(ctx context.Context, id string, item T) (T, error) {
	var updated T
	if err := checkID(id); err != nil {
		return updated, err
	}
	if err := Prepare(&item); err != nil {
		return updated, err
	}
	if err := r.client.Do(ctx, http.MethodPut, api.ItemPath(r.collection, id), item, &updated); err != nil {
		return updated, errors.Wrapf(err, "Resource.Update %s/%s", r.collection, id)
	}
	return updated, nil
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := r.client.Do(ctx, http.MethodDelete, api.ItemPath(r.collection, id), nil, nil); err != nil {
		return errors.Wrapf(err, "Resource.Delete %s/%s", r.collection, id)
	}
	return nil
}

// Prepare normalizes then validates a model in place
func Prepare[T Model](item *T) error {
	if n, ok := any(item).(normalizer); ok {
		n.Normalize()
	}
	return (*item).Validate()
}

func checkID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.Wrap(hmserrors.ErrValidation, "id is required")
	}
	return nil
}

func Beds(client Doer) *Resource[Bed] {
	return New[Bed](client, api.CollectionBeds)
}

func Rooms(client Doer) *Resource[Room] {
	return New[Room](client, api.CollectionRooms)
}

func Donations(client Doer) *Resource[BloodDonation] {
	return New[BloodDonation](client, api.CollectionDonations)
}

func Schedules(client Doer) *Resource[DoctorSchedule] {
	return New[DoctorSchedule](client, api.CollectionSchedules)
}

func PathologyReports(client Doer) *Resource[PathologyReport] {
	return New[PathologyReport](client, api.CollectionReports)
}

func Invoices(client Doer) *Resource[Invoice] {
	return New[Invoice](client, api.CollectionInvoices)
}
