package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Staged is a sqlite store written at a temporary path next to its final location.
// Commit publishes it; Discard throws the partial content away.
type Staged struct {
	*GormStore
	final string
}

// OpenStaged creates a fresh staging store that will replace final on Commit.
func OpenStaged(final string, cfg Config) (*Staged, error) {
	cfg.Driver = DriverSqlite
	cfg.Path = fmt.Sprintf("%s.%s.tmp", final, uuid.NewString())

	s, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	return &Staged{GormStore: s, final: final}, nil
}

// Final returns the path the store is published to.
func (s *Staged) Final() string {
	return s.final
}

// Commit finalizes the store and moves it to its final path, replacing any previous store.
func (s *Staged) Commit(ctx context.Context) error {
	if err := s.Finalize(ctx); err != nil {
		return errors.Join(err, s.Discard())
	}

	if err := s.Close(); err != nil {
		return errors.Join(err, s.Discard())
	}

	if err := removeSqliteFiles(s.final); err != nil {
		return errors.Join(err, s.Discard())
	}

	if err := os.Rename(s.Path(), s.final); err != nil {
		return errors.Join(err, s.Discard())
	}

	// the journal is empty after a clean close; drop leftovers so they never pair with the new file
	if err := removeSqliteFiles(s.Path()); err != nil {
		logrus.Warnf("remove staging leftovers of %s: %v", s.Path(), err)
	}

	logrus.Infof("published store %s", s.final)

	return nil
}

// Discard closes the store and deletes the staging files.
func (s *Staged) Discard() error {
	closeErr := s.Close()
	removeErr := removeSqliteFiles(s.Path())
	if removeErr == nil {
		logrus.Warnf("discarded partial store %s", s.Path())
	}

	return errors.Join(closeErr, removeErr)
}
