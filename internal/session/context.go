package session

import (
	"context"
	"errors"
	"sync"

	"gopkg.in/op/go-logging.v1"

	"groupkeys/internal/domain"
	"groupkeys/internal/util/memzero"
)

var (
	// ErrNoSession is returned when an operation needs a logged-in user.
	ErrNoSession = errors.New("no session; log in first")
	// ErrAlreadyLoggedIn is returned by Login while a session is active.
	ErrAlreadyLoggedIn = errors.New("a user is already logged in")
	// ErrEmptyUserID is returned by Login for an empty user id.
	ErrEmptyUserID = errors.New("empty user id")
)

// LocalUserSetter is the part of the distribution service whose notion of
// the local user the session controls.
type LocalUserSetter interface {
	SetLocalUser(user domain.UserID, signingKey *domain.Ed25519Private)
	ClearLocalUser()
}

// CryptoSessionContext ties the in-memory sender key store, the
// distribution coordinator and the persistence gateway to one logged-in
// user. It is safe for concurrent use.
type CryptoSessionContext struct {
	store   domain.SenderKeyStore
	coord   LocalUserSetter
	gateway domain.PersistenceGateway
	log     *logging.Logger

	mu       sync.Mutex
	user     domain.UserID
	identity domain.Identity
}

// New returns a logged-out session context.
func New(
	store domain.SenderKeyStore,
	coord LocalUserSetter,
	gateway domain.PersistenceGateway,
	log *logging.Logger,
) *CryptoSessionContext {
	return &CryptoSessionContext{
		store:   store,
		coord:   coord,
		gateway: gateway,
		log:     log,
	}
}

// Login starts a session for user. It reports whether a backup was
// restored; false means a cold start with empty state.
func (c *CryptoSessionContext) Login(
	ctx context.Context,
	user domain.UserID,
	id domain.Identity,
) (bool, error) {
	if user == "" {
		return false, ErrEmptyUserID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.user != "" {
		return false, ErrAlreadyLoggedIn
	}

	c.store.Clear()
	c.user = user
	c.identity = id
	c.coord.SetLocalUser(user, &c.identity.EdPriv)

	restored := c.gateway.Load(ctx, user, c.identity.XPriv)
	if restored {
		c.log.Noticef("Session for %s restored from backup", user)
	} else {
		c.log.Noticef("Session for %s started cold", user)
	}
	return restored, nil
}

// User returns the logged-in user, if any.
func (c *CryptoSessionContext) User() (domain.UserID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.user, c.user != ""
}

// Checkpoint persists the current state. It reports whether the backup
// was written; a false result leaves the session memory-only.
func (c *CryptoSessionContext) Checkpoint(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.user == "" {
		return false, ErrNoSession
	}
	return c.gateway.Persist(ctx, c.user, c.identity.XPriv), nil
}

// Logout ends the session. Unless wipeBackup is set, state is persisted
// first; with wipeBackup the user's backup record is deleted instead.
// In-memory state is cleared either way.
func (c *CryptoSessionContext) Logout(ctx context.Context, wipeBackup bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.user == "" {
		return ErrNoSession
	}

	if wipeBackup {
		c.gateway.Clear(ctx, c.user)
	} else if !c.gateway.Persist(ctx, c.user, c.identity.XPriv) {
		c.log.Warningf("Logging %s out without a fresh backup", c.user)
	}
	c.store.Clear()
	c.coord.ClearLocalUser()

	c.log.Noticef("Session for %s closed", c.user)
	c.user = ""
	memzero.Zero32((*[32]byte)(&c.identity.XPriv))
	memzero.Zero(c.identity.EdPriv[:])
	c.identity = domain.Identity{}
	return nil
}
