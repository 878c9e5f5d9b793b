package fakeuserrepo

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	hmserrors "github.com/jrsteele09/go-hms-admin/internal/errors"
	"github.com/jrsteele09/go-hms-admin/users"
)

var _ users.AccountRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	accounts map[string]*users.Account // username to account
	emails   map[string]string         // email to username
	lock     sync.RWMutex
	nowFunc  func() time.Time
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		accounts: make(map[string]*users.Account),
		emails:   make(map[string]string),
		nowFunc:  time.Now,
	}
}

func (ur *FakeUserRepo) Upsert(account *users.Account) error {
	if strings.TrimSpace(account.Username) == "" {
		return errors.New("username required")
	}
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if account.UserID == "" {
		account.UserID = uuid.New().String()
	}
	ur.accounts[account.Username] = account
	if account.Email != "" {
		ur.emails[strings.ToLower(account.Email)] = account.Username
	}
	return nil
}

func (ur *FakeUserRepo) GetByUsername(username string) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	account, ok := ur.accounts[username]
	if !ok {
		return nil, hmserrors.ErrNotFound
	}
	return account, nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	username, ok := ur.emails[strings.ToLower(email)]
	if !ok {
		return nil, hmserrors.ErrNotFound
	}
	return ur.accounts[username], nil
}

func (ur *FakeUserRepo) SetLastLogin(username string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	account, ok := ur.accounts[username]
	if !ok {
		return hmserrors.ErrNotFound
	}
	account.LastLogin = ur.nowFunc()
	return nil
}
