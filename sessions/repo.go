package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorruptRecord is returned by a Repo when the stored record cannot be parsed
var ErrCorruptRecord = errors.New("corrupt session record")

// Repo defines durable storage for the single session record.
// Load returns errors.ErrNoStoredSession when nothing is stored.
// Delete must succeed when nothing is stored.
type Repo interface {
	Load(ctx context.Context) (*Record, error)
	Save(ctx context.Context, record *Record) error
	Delete(ctx context.Context) error
}

// TokenHolder carries the bearer token attached to outbound requests.
// The Store is its only writer.
type TokenHolder interface {
	SetBearerToken(token string)
	ClearBearerToken()
}

// EncodeRecord serialises a record in its persisted layout
func EncodeRecord(record *Record) ([]byte, error) {
	if record == nil {
		return nil, errors.New("nil session record")
	}
	rec := *record
	if rec.Roles == nil {
		rec.Roles = []string{}
	}
	if rec.Permissions == nil {
		rec.Permissions = []string{}
	}
	return json.Marshal(rec)
}

// DecodeRecord parses a persisted record, wrapping any failure in ErrCorruptRecord
func DecodeRecord(data []byte) (*Record, error) {
	var rec *Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: empty record", ErrCorruptRecord)
	}
	return rec, nil
}
