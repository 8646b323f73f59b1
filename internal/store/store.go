// Package store persists the serving artifacts produced by training: the
// known-command list, the sequence-transition table, and the similarity
// corpus. Artifacts are written as JSON blobs in a bbolt database with an
// xxhash checksum per blob so a truncated or tampered file is detected at
// load time instead of silently serving garbage.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"go.etcd.io/bbolt"
)

var (
	artifactsBucket = []byte("artifacts")
	metaBucket      = []byte("meta")
)

const (
	keyCommands    = "known_commands"
	keyTransitions = "transitions"
	keyCorpus      = "corpus"
	keyTrainedAt   = "trained_at"
)

// ErrMissing reports that the store holds no trained artifacts.
var ErrMissing = errors.New("artifacts missing")

// ErrCorrupt reports that a stored artifact failed its checksum.
var ErrCorrupt = errors.New("artifacts corrupt")

// Artifacts are the load-once inputs the suggestion engine serves from.
type Artifacts struct {
	KnownCommands []string
	Transitions   map[string]map[string]int
	Corpus        []string
	TrainedAt     time.Time
}

// Store is a bbolt-backed artifact database.
type Store struct {
	db   *bbolt.DB
	path string
}

// Open opens (or creates) the artifact database at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{artifactsBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveArtifacts replaces all stored artifacts in a single transaction.
func (s *Store) SaveArtifacts(a *Artifacts) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		blobs := tx.Bucket(artifactsBucket)
		meta := tx.Bucket(metaBucket)

		if err := putChecked(blobs, meta, keyCommands, a.KnownCommands); err != nil {
			return err
		}
		if err := putChecked(blobs, meta, keyTransitions, a.Transitions); err != nil {
			return err
		}
		if err := putChecked(blobs, meta, keyCorpus, a.Corpus); err != nil {
			return err
		}

		trainedAt := a.TrainedAt
		if trainedAt.IsZero() {
			trainedAt = time.Now()
		}
		stamp, err := trainedAt.MarshalBinary()
		if err != nil {
			return err
		}
		return meta.Put([]byte(keyTrainedAt), stamp)
	})
}

// LoadArtifacts reads and verifies all artifacts. It returns ErrMissing
// when the store was never trained and ErrCorrupt when a blob fails its
// checksum or does not decode.
func (s *Store) LoadArtifacts() (*Artifacts, error) {
	a := &Artifacts{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		blobs := tx.Bucket(artifactsBucket)
		meta := tx.Bucket(metaBucket)
		if blobs == nil || meta == nil {
			return ErrMissing
		}

		if err := getChecked(blobs, meta, keyCommands, &a.KnownCommands); err != nil {
			return err
		}
		if err := getChecked(blobs, meta, keyTransitions, &a.Transitions); err != nil {
			return err
		}
		if err := getChecked(blobs, meta, keyCorpus, &a.Corpus); err != nil {
			return err
		}

		if stamp := meta.Get([]byte(keyTrainedAt)); stamp != nil {
			if err := a.TrainedAt.UnmarshalBinary(stamp); err != nil {
				return fmt.Errorf("%w: bad timestamp: %v", ErrCorrupt, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// putChecked writes value as JSON plus its checksum.
func putChecked(blobs, meta *bbolt.Bucket, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := blobs.Put([]byte(key), data); err != nil {
		return err
	}
	return meta.Put([]byte(key+".sum"), sum(data))
}

// getChecked reads a JSON blob, verifies its checksum, and decodes into out.
func getChecked(blobs, meta *bbolt.Bucket, key string, out any) error {
	data := blobs.Get([]byte(key))
	if data == nil {
		return fmt.Errorf("%w: no %s", ErrMissing, key)
	}
	want := meta.Get([]byte(key + ".sum"))
	if want == nil {
		return fmt.Errorf("%w: no checksum for %s", ErrCorrupt, key)
	}
	if string(want) != string(sum(data)) {
		return fmt.Errorf("%w: checksum mismatch for %s", ErrCorrupt, key)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: failed to decode %s: %v", ErrCorrupt, key, err)
	}
	return nil
}

func sum(data []byte) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], xxhash.Sum64(data))
	return buf[:]
}
