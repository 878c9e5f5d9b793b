// Package filerepo persists the session record as a single file on disk,
// optionally sealed with NaCl secretbox.
package filerepo

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"

	hmserrors "github.com/jrsteele09/go-hms-admin/internal/errors"
	"github.com/jrsteele09/go-hms-admin/sessions"
	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var _ sessions.Repo = (*Repo)(nil)

type Repo struct {
	path string
	key  *[32]byte
}

type Option func(*Repo)

// WithKey seals the record at rest. A nil key keeps it as plain JSON.
func WithKey(key *[32]byte) Option {
	return func(r *Repo) {
		r.key = key
	}
}

func New(path string, options ...Option) *Repo {
	r := &Repo{path: path}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *Repo) Path() string {
	return r.path
}

func (r *Repo) Load(_ context.Context) (*sessions.Record, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, hmserrors.ErrNoStoredSession
		}
		return nil, errors.Wrap(err, "filerepo.Load ReadFile")
	}
	if len(data) == 0 {
		return nil, hmserrors.ErrNoStoredSession
	}

	if r.key != nil {
		if data, err = r.open(data); err != nil {
			return nil, err
		}
	}
	return sessions.DecodeRecord(data)
}

func (r *Repo) Save(_ context.Context, record *sessions.Record) error {
	data, err := sessions.EncodeRecord(record)
	if err != nil {
		return errors.Wrap(err, "filerepo.Save EncodeRecord")
	}
	if r.key != nil {
		if data, err = r.seal(data); err != nil {
			return err
		}
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "filerepo.Save MkdirAll")
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return errors.Wrap(err, "filerepo.Save CreateTemp")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "filerepo.Save Write")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "filerepo.Save Chmod")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "filerepo.Save Close")
	}
	return errors.Wrap(os.Rename(tmp.Name(), r.path), "filerepo.Save Rename")
}

func (r *Repo) Delete(_ context.Context) error {
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "filerepo.Delete Remove")
	}
	return nil
}

func (r *Repo) seal(plain []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, errors.Wrap(err, "filerepo.seal nonce")
	}
	return secretbox.Seal(nonce[:], plain, &nonce, r.key), nil
}

func (r *Repo) open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("%w: sealed record too short", sessions.ErrCorruptRecord)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, r.key)
	if !ok {
		return nil, fmt.Errorf("%w: cannot open sealed record", sessions.ErrCorruptRecord)
	}
	return plain, nil
}
