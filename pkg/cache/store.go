package cache

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const DefaultPath = "./telemetry-cache.db"

// Stats summarises the cached provider responses.
type Stats struct {
	Entries int
	Bytes   int64
	Oldest  time.Time
	Newest  time.Time
}

// Store keeps provider responses on disk keyed by request identity, so a
// session that was loaded once can be loaded again quickly and offline.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening cache %s", path)
	}

	_, err = db.Exec(buildCreateResponsesTable())
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initialising cache")
	}

	logrus.WithField("path", path).Debug("cache opened")

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Close()
}

// Get returns the cached body for key. ok is false on a miss.
func (s *Store) Get(key string) (body []byte, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.QueryRow(buildSelectResponseCommand(), key).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "reading cache entry %s", key)
	}
	return body, true, nil
}

func (s *Store) Put(key, url string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(buildUpsertResponseCommand(), key, url, body, len(body), time.Now().Unix())
	if err != nil {
		return errors.Wrapf(err, "writing cache entry %s", key)
	}
	return nil
}

func (s *Store) Stats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, read := buildStatsCommand()
	st, err := read(s.db.QueryRow(query))
	return st, errors.Wrap(err, "reading cache stats")
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(buildDeleteAllCommand())
	return errors.Wrap(err, "clearing cache")
}
