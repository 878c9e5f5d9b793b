package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-hms-admin/api"
	hmserrors "github.com/jrsteele09/go-hms-admin/internal/errors"
	"github.com/jrsteele09/go-hms-admin/resources"
	"github.com/pkg/errors"
)

// recordCodec turns a request body into the stored document for one collection
type recordCodec func(body []byte, id string) (json.RawMessage, error)

var collectionCodecs = map[string]recordCodec{
	api.CollectionBeds:      modelCodec[resources.Bed],
	api.CollectionRooms:     modelCodec[resources.Room],
	api.CollectionDonations: modelCodec[resources.BloodDonation],
	api.CollectionSchedules: modelCodec[resources.DoctorSchedule],
	api.CollectionReports:   modelCodec[resources.PathologyReport],
	api.CollectionInvoices:  modelCodec[resources.Invoice],
}

// modelCodec validates the body as T and stores it with id set
func modelCodec[T resources.Model](body []byte, id string) (json.RawMessage, error) {
	var item T
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, errors.Wrap(hmserrors.ErrInvalidRequest, err.Error())
	}
	if err := resources.Prepare(&item); err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(item)
	if err != nil {
		return nil, errors.Wrap(err, "modelCodec Marshal")
	}
	var doc map[string]any
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return nil, errors.Wrap(err, "modelCodec Unmarshal")
	}
	doc["id"] = id
	return json.Marshal(doc)
}

func (s *Server) collectionCodec(w http.ResponseWriter, r *http.Request) (string, recordCodec, bool) {
	collection := r.PathValue("collection")
	codec, ok := collectionCodecs[collection]
	if !ok {
		writeJSONError(w, "not_found", "Unknown collection "+collection, http.StatusNotFound)
		return "", nil, false
	}
	return collection, codec, true
}

func (s *Server) ListRecordsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection, _, ok := s.collectionCodec(w, r)
		if !ok {
			return
		}
		list, err := s.repos.Records.List(collection)
		if err != nil {
			s.writeRecordError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) GetRecordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection, _, ok := s.collectionCodec(w, r)
		if !ok {
			return
		}
		record, err := s.repos.Records.Get(collection, r.PathValue("id"))
		if err != nil {
			s.writeRecordError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	}
}

func (s *Server) CreateRecordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.storeRecord(w, r, uuid.New().String(), http.StatusCreated)
	}
}

func (s *Server) UpdateRecordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection := r.PathValue("collection")
		id := r.PathValue("id")
		if _, err := s.repos.Records.Get(collection, id); err != nil {
			if _, known := collectionCodecs[collection]; !known {
				writeJSONError(w, "not_found", "Unknown collection "+collection, http.StatusNotFound)
				return
			}
			s.writeRecordError(w, err)
			return
		}
		s.storeRecord(w, r, id, http.StatusOK)
	}
}

func (s *Server) DeleteRecordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection, _, ok := s.collectionCodec(w, r)
		if !ok {
			return
		}
		if err := s.repos.Records.Delete(collection, r.PathValue("id")); err != nil {
			s.writeRecordError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) storeRecord(w http.ResponseWriter, r *http.Request, id string, status int) {
	collection, codec, ok := s.collectionCodec(w, r)
	if !ok {
		return
	}

	var body json.RawMessage
	if err := decodeBody(w, r, &body); err != nil {
		writeJSONError(w, "invalid_request", "Invalid request body", http.StatusBadRequest)
		return
	}

	record, err := codec(body, id)
	if err != nil {
		s.writeRecordError(w, err)
		return
	}
	if err := s.repos.Records.Upsert(collection, id, record); err != nil {
		s.writeRecordError(w, err)
		return
	}
	writeJSON(w, status, record)
}

func (s *Server) writeRecordError(w http.ResponseWriter, err error) {
	switch {
	case hmserrors.Is(err, hmserrors.ErrNotFound):
		writeJSONError(w, "not_found", "Record not found", http.StatusNotFound)
	case hmserrors.Is(err, hmserrors.ErrValidation):
		writeJSONError(w, "validation_failed", err.Error(), http.StatusUnprocessableEntity)
	case hmserrors.Is(err, hmserrors.ErrInvalidRequest):
		writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error().Err(err).Msg("record store failed")
		writeJSONError(w, "internal_error", "Internal server error", http.StatusInternalServerError)
	}
}
