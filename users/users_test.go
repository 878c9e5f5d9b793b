package users_test

import (
	"testing"

	hmserrors "github.com/jrsteele09/go-hms-admin/internal/errors"
	"github.com/jrsteele09/go-hms-admin/users"
	fakeuserrepo "github.com/jrsteele09/go-hms-admin/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestDisplayName(t *testing.T) {
	require.Equal(t, "", (*users.User)(nil).DisplayName())
	require.Equal(t, "Gregory House", (&users.User{Username: "drhouse", FirstName: "Gregory", LastName: "House"}).DisplayName())
	require.Equal(t, "drhouse", (&users.User{Username: "drhouse", Email: "h@hospital.local"}).DisplayName())
	require.Equal(t, "h@hospital.local", (&users.User{Email: "h@hospital.local"}).DisplayName())
}

func TestCloneAndIsZero(t *testing.T) {
	require.True(t, (*users.User)(nil).IsZero())
	require.True(t, (&users.User{}).IsZero())
	require.Nil(t, (*users.User)(nil).Clone())

	u := &users.User{Username: "nurse"}
	c := u.Clone()
	c.Username = "changed"
	require.Equal(t, "nurse", u.Username)
}

func TestPasswordHash(t *testing.T) {
	hash, err := users.HashPassword("password123")
	require.NoError(t, err)
	require.True(t, users.CheckPasswordHash("password123", hash))
	require.False(t, users.CheckPasswordHash("password124", hash))
}

func TestFakeUserRepo(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	require.Error(t, repo.Upsert(&users.Account{}))
	require.NoError(t, repo.Upsert(&users.Account{User: users.User{Username: "nurse", Email: "Nurse@Hospital.local"}}))

	byEmail, err := repo.GetByEmail("nurse@hospital.local")
	require.NoError(t, err)
	require.Equal(t, "nurse", byEmail.Username)
	require.NotEmpty(t, byEmail.UserID)

	_, err = repo.GetByUsername("nobody")
	require.True(t, hmserrors.Is(err, hmserrors.ErrNotFound))

	require.NoError(t, repo.SetLastLogin("nurse"))
	require.False(t, byEmail.LastLogin.IsZero())
	require.Error(t, repo.SetLastLogin("nobody"))
}
