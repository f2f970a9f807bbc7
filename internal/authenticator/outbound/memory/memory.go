package memory

import (
	"context"
	"sync"

	"github.com/shandysiswandi/sigil/internal/authenticator/entity"
	"github.com/shandysiswandi/sigil/internal/pkg/clock"
	"github.com/shandysiswandi/sigil/internal/pkg/goerror"
	"github.com/shandysiswandi/sigil/internal/pkg/uid"
)

// Store keeps accounts in process memory. It does not enforce the identity
// triple; duplicate detection belongs to the caller.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]entity.Account
	uuid     uid.StringID
	clock    clock.Clocker
}

func NewStore(uuid uid.StringID, clk clock.Clocker) *Store {
	return &Store{
		accounts: make(map[string]entity.Account),
		uuid:     uuid,
		clock:    clk,
	}
}

func (s *Store) List(_ context.Context) ([]entity.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, acc)
	}
	entity.SortAccounts(out)

	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (*entity.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	return &acc, nil
}

func (s *Store) Add(_ context.Context, draft entity.AccountDraft) (*entity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := 0
	for _, acc := range s.accounts {
		order = max(order, acc.Order)
	}

	acc := entity.NewAccount(s.uuid.Generate(), s.clock.Now().UnixMilli(), order+1, draft)
	s.accounts[acc.ID] = acc

	return &acc, nil
}

func (s *Store) Update(_ context.Context, acc entity.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.accounts[acc.ID]
	if !ok {
		return goerror.ErrNotFound
	}

	acc.Created = old.Created
	s.accounts[acc.ID] = acc

	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return goerror.ErrNotFound
	}
	delete(s.accounts, id)

	return nil
}

func (s *Store) DeleteMany(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.accounts, id)
	}

	return nil
}
