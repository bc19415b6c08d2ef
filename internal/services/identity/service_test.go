package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupkeys/internal/domain"
	"groupkeys/internal/services/identity"
	"groupkeys/internal/store"
)

const goodPassphrase = "Correct-Horse-9-Battery"

func TestGenerateIdentity_WeakPassphrase(t *testing.T) {
	svc := identity.New(store.NewIdentityFileStore(t.TempDir()))

	for _, p := range []string{"short1!A", "alllowercase-123", "ALLUPPERCASE-123", "NoDigitsHere!!", "NoSymbols12345"} {
		_, _, err := svc.GenerateIdentity(p)
		assert.ErrorIs(t, err, identity.ErrWeakPassphrase, p)
	}
}

func TestGenerateAndLoadIdentity(t *testing.T) {
	svc := identity.New(store.NewIdentityFileStore(t.TempDir()))

	id, fp, err := svc.GenerateIdentity(goodPassphrase)
	require.NoError(t, err)
	require.NotEmpty(t, fp)

	loaded, err := svc.LoadIdentity(goodPassphrase)
	require.NoError(t, err)
	assert.Equal(t, id, loaded)

	again, err := svc.FingerprintIdentity(goodPassphrase)
	require.NoError(t, err)
	assert.Equal(t, fp, again)

	_, err = svc.LoadIdentity("Wrong-Horse-9-Battery")
	assert.ErrorIs(t, err, store.ErrWrongPassphrase)
}

func TestLoadIdentity_Missing(t *testing.T) {
	svc := identity.New(store.NewIdentityFileStore(t.TempDir()))

	_, err := svc.LoadIdentity(goodPassphrase)
	assert.ErrorIs(t, err, store.ErrNoIdentity)
}

func TestAsMember(t *testing.T) {
	svc := identity.New(store.NewIdentityFileStore(t.TempDir()))
	id, _, err := svc.GenerateIdentity(goodPassphrase)
	require.NoError(t, err)

	m := identity.AsMember("user-1", id)
	assert.Equal(t, domain.UserID("user-1"), m.UserID)
	assert.Equal(t, id.XPub, m.IdentityKey)
	assert.Equal(t, id.EdPub, m.SigningKey)
}
