package records

import "encoding/json"

// Repo stores the backend's feature records as JSON documents, partitioned by
// collection. List returns records in insertion order.
type Repo interface {
	List(collection string) ([]json.RawMessage, error)
	Get(collection, id string) (json.RawMessage, error)
	Upsert(collection, id string, record json.RawMessage) error
	Delete(collection, id string) error
}
