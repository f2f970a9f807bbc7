// Package bolt keeps accounts in a single bbolt file, one JSON value per
// account keyed by id.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shandysiswandi/sigil/internal/authenticator/entity"
	"github.com/shandysiswandi/sigil/internal/pkg/clock"
	"github.com/shandysiswandi/sigil/internal/pkg/goerror"
	"github.com/shandysiswandi/sigil/internal/pkg/uid"
	"go.etcd.io/bbolt"
)

var accountsBucket = []byte("accounts")

const openTimeout = 5 * time.Second

type Store struct {
	db    *bbolt.DB
	uuid  uid.StringID
	clock clock.Clocker
}

// Open opens or creates the database file. The file is locked for the
// lifetime of the store.
func Open(path string, uuid uid.StringID, clk clock.Clocker) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("bolt: create directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(accountsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bolt: create bucket: %w", err)
	}

	return &Store{db: db, uuid: uuid, clock: clk}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) List(_ context.Context) ([]entity.Account, error) {
	var out []entity.Account
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(accountsBucket).ForEach(func(_, v []byte) error {
			var acc entity.Account
			if err := json.Unmarshal(v, &acc); err != nil {
				return err
			}
			out = append(out, acc)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	entity.SortAccounts(out)
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (*entity.Account, error) {
	var acc entity.Account
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(accountsBucket).Get([]byte(id))
		if v == nil {
			return goerror.ErrNotFound
		}
		return json.Unmarshal(v, &acc)
	})
	if err != nil {
		return nil, err
	}

	return &acc, nil
}

func (s *Store) Add(_ context.Context, draft entity.AccountDraft) (*entity.Account, error) {
	var acc entity.Account
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(accountsBucket)

		order := 0
		err := b.ForEach(func(_, v []byte) error {
			var cur entity.Account
			if err := json.Unmarshal(v, &cur); err != nil {
				return err
			}
			order = max(order, cur.Order)
			return nil
		})
		if err != nil {
			return err
		}

		acc = entity.NewAccount(s.uuid.Generate(), s.clock.Now().UnixMilli(), order+1, draft)
		return put(b, acc)
	})
	if err != nil {
		return nil, err
	}

	return &acc, nil
}

func (s *Store) Update(_ context.Context, acc entity.Account) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(accountsBucket)

		v := b.Get([]byte(acc.ID))
		if v == nil {
			return goerror.ErrNotFound
		}

		var old entity.Account
		if err := json.Unmarshal(v, &old); err != nil {
			return err
		}
		acc.Created = old.Created

		return put(b, acc)
	})
}

func (s *Store) Delete(_ context.Context, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(accountsBucket)
		if b.Get([]byte(id)) == nil {
			return goerror.ErrNotFound
		}
		return b.Delete([]byte(id))
	})
}

func (s *Store) DeleteMany(_ context.Context, ids []string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(accountsBucket)
		for _, id := range ids {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

func put(b *bbolt.Bucket, acc entity.Account) error {
	v, err := json.Marshal(acc)
	if err != nil {
		return err
	}
	return b.Put([]byte(acc.ID), v)
}
