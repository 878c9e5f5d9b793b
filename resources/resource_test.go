package resources_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	hmserrors "github.com/jrsteele09/go-hms-admin/internal/errors"
	"github.com/jrsteele09/go-hms-admin/resources"
	"github.com/jrsteele09/go-hms-admin/sessions"
	"github.com/stretchr/testify/require"
)

type call struct {
	Method string
	Path   string
	Body   []byte
}

// fakeDoer records calls and answers with a canned JSON body
type fakeDoer struct {
	calls    []call
	response string
	err      error
}

func (f *fakeDoer) Do(_ context.Context, method, path string, in, out any) error {
	c := call{Method: method, Path: path}
	if in != nil {
		c.Body, _ = json.Marshal(in)
	}
	f.calls = append(f.calls, c)
	if f.err != nil {
		return f.err
	}
	if out != nil && f.response != "" {
		return json.Unmarshal([]byte(f.response), out)
	}
	return nil
}

func validBed() resources.Bed {
	return resources.Bed{Number: "B-12", Ward: "East", Status: resources.BedAvailable}
}

func TestResourcePaths(t *testing.T) {
	doer := &fakeDoer{response: `[{"id":"1","number":"B-12","ward":"East","status":"available"}]`}
	beds := resources.Beds(doer)
	ctx := context.Background()

	list, err := beds.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "B-12", list[0].Number)

	doer.response = `{"id":"1","number":"B-12","ward":"East","status":"available"}`
	_, err = beds.Get(ctx, "1")
	require.NoError(t, err)
	_, err = beds.Create(ctx, validBed())
	require.NoError(t, err)
	_, err = beds.Update(ctx, "1", validBed())
	require.NoError(t, err)
	require.NoError(t, beds.Delete(ctx, "1"))

	require.Equal(t, []call{
		{Method: http.MethodGet, Path: "/api/beds"},
		{Method: http.MethodGet, Path: "/api/beds/1"},
		{Method: http.MethodPost, Path: "/api/beds", Body: doer.calls[2].Body},
		{Method: http.MethodPut, Path: "/api/beds/1", Body: doer.calls[3].Body},
		{Method: http.MethodDelete, Path: "/api/beds/1"},
	}, doer.calls)
}

func TestResourceListEmpty(t *testing.T) {
	list, err := resources.Rooms(&fakeDoer{response: `null`}).List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestResourceValidatesBeforeSending(t *testing.T) {
	doer := &fakeDoer{}
	beds := resources.Beds(doer)
	ctx := context.Background()

	_, err := beds.Create(ctx, resources.Bed{Ward: "East", Status: resources.BedAvailable})
	require.ErrorIs(t, err, hmserrors.ErrValidation)

	_, err = beds.Get(ctx, " ")
	require.ErrorIs(t, err, hmserrors.ErrValidation)
	require.ErrorIs(t, beds.Delete(ctx, ""), hmserrors.ErrValidation)

	require.Empty(t, doer.calls)
}

func TestResourceWrapsClientErrors(t *testing.T) {
	doer := &fakeDoer{err: hmserrors.ErrForbidden}
	_, err := resources.Invoices(doer).List(context.Background())
	require.ErrorIs(t, err, hmserrors.ErrForbidden)
	require.Contains(t, err.Error(), "invoices")
}

func TestInvoiceTotalComputedOnCreate(t *testing.T) {
	doer := &fakeDoer{}
	invoice := resources.Invoice{
		PatientName: "Jane Roe",
		Status:      resources.InvoiceDraft,
		Total:       1,
		Items: []resources.LineItem{
			{Description: "Consultation", Quantity: 1, UnitPrice: 5000},
			{Description: "Blood test", Quantity: 2, UnitPrice: 1250},
		},
	}

	_, err := resources.Invoices(doer).Create(context.Background(), invoice)
	require.NoError(t, err)

	var sent resources.Invoice
	require.NoError(t, json.Unmarshal(doer.calls[0].Body, &sent))
	require.Equal(t, int64(7500), sent.Total)
	// the caller's value is untouched
	require.Equal(t, int64(1), invoice.Total)
}

func TestModelValidation(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		model resources.Model
		valid bool
	}{
		{"bed ok", validBed(), true},
		{"bed occupied without patient", resources.Bed{Number: "1", Ward: "W", Status: resources.BedOccupied}, false},
		{"bed available with patient", resources.Bed{Number: "1", Ward: "W", Status: resources.BedAvailable, PatientName: "X"}, false},
		{"bed unknown status", resources.Bed{Number: "1", Ward: "W", Status: "broken"}, false},
		{"room ok", resources.Room{Number: "101", Type: resources.RoomICU, Floor: 1, Capacity: 2}, true},
		{"room no capacity", resources.Room{Number: "101", Type: resources.RoomICU}, false},
		{"donation ok", resources.BloodDonation{DonorName: "Sam", BloodGroup: "O-", Units: 1, DonatedAt: now}, true},
		{"donation bad group", resources.BloodDonation{DonorName: "Sam", BloodGroup: "C+", Units: 1, DonatedAt: now}, false},
		{"schedule ok", resources.DoctorSchedule{DoctorName: "Dr Who", Department: "ER", Day: "monday", StartTime: "09:00", EndTime: "17:00"}, true},
		{"schedule ends before start", resources.DoctorSchedule{DoctorName: "Dr Who", Department: "ER", Day: "Monday", StartTime: "17:00", EndTime: "09:00"}, false},
		{"schedule bad day", resources.DoctorSchedule{DoctorName: "Dr Who", Department: "ER", Day: "Funday", StartTime: "09:00", EndTime: "17:00"}, false},
		{"report pending", resources.PathologyReport{PatientName: "P", TestName: "CBC", Status: resources.ReportPending}, true},
		{"report completed without result", resources.PathologyReport{PatientName: "P", TestName: "CBC", Status: resources.ReportCompleted}, false},
		{"invoice wrong total", resources.Invoice{PatientName: "P", Status: resources.InvoiceDraft, Total: 3, Items: []resources.LineItem{{Description: "x", Quantity: 1, UnitPrice: 2}}}, false},
		{"invoice issued without date", resources.Invoice{PatientName: "P", Status: resources.InvoiceIssued, Total: 2, Items: []resources.LineItem{{Description: "x", Quantity: 1, UnitPrice: 2}}}, false},
		{"invoice no items", resources.Invoice{PatientName: "P", Status: resources.InvoiceDraft}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.model.Validate()
			if tt.valid {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, hmserrors.ErrValidation)
		})
	}
}

func TestDonationNormalizedBeforeValidation(t *testing.T) {
	doer := &fakeDoer{}
	_, err := resources.Donations(doer).Create(context.Background(), resources.BloodDonation{
		DonorName: "Sam", BloodGroup: " ab+ ", Units: 2, DonatedAt: time.Now(),
	})
	require.NoError(t, err)
	require.Contains(t, string(doer.calls[0].Body), `"bloodGroup":"AB+"`)
}

func TestTrackerStates(t *testing.T) {
	tracker := resources.NewTracker[[]resources.Bed]()
	require.Equal(t, sessions.StatusIdle, tracker.State().Status)

	beds := []resources.Bed{validBed()}
	_, err := tracker.Run(context.Background(), func(context.Context) ([]resources.Bed, error) {
		require.Equal(t, sessions.StatusLoading, tracker.State().Status)
		return beds, nil
	})
	require.NoError(t, err)
	require.Equal(t, sessions.StatusSucceeded, tracker.State().Status)
	require.Equal(t, beds, tracker.State().Data)

	boom := errors.New("backend down")
	_, err = tracker.Run(context.Background(), func(context.Context) ([]resources.Bed, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	state := tracker.State()
	require.Equal(t, sessions.StatusFailed, state.Status)
	require.Equal(t, "backend down", state.Error)
	require.Equal(t, beds, state.Data)

	tracker.Reset()
	require.Equal(t, sessions.StatusIdle, tracker.State().Status)
	require.Nil(t, tracker.State().Data)
}

func TestTrackerLatestRunWins(t *testing.T) {
	tracker := resources.NewTracker[string]()
	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = tracker.Run(context.Background(), func(context.Context) (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
	}()
	<-started

	_, err := tracker.Run(context.Background(), func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	close(release)
	wg.Wait()

	require.Equal(t, "fresh", tracker.State().Data)
	require.Equal(t, sessions.StatusSucceeded, tracker.State().Status)
}
