package users

type AccountRepo interface {
	Upsert(account *Account) error
	GetByUsername(username string) (*Account, error)
	GetByEmail(email string) (*Account, error)
	SetLastLogin(username string) error
}
