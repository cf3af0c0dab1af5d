// Package auth decides who the caller is and whether they may administer
// the restaurant. Three paths coexist: the legacy shared password (a per-device
// flag), hosted-identity admins backed by admin_users, and customers.
// A hosted session, when present, always wins over the legacy flag.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ariefcatur/go-restaurant-orders/internal/identity"
)

var (
	ErrUnauthorized   = errors.New("not authorized as an admin")
	ErrLegacyDisabled = errors.New("password login is disabled")
	ErrNoDevice       = errors.New("device id is required")
)

// Credentials are what a request carries: a device id scoping the legacy
// flag and an optional hosted session token.
type Credentials struct {
	DeviceID    string
	AccessToken string
}

type Resolver struct {
	Identity identity.Provider
	Admins   AdminLookup
	Flags    SessionStore
	// LegacyPassword is the shared secret; empty disables that path.
	LegacyPassword string
}

// Resolve returns Loading together with the error when any lookup fails, so
// callers never mistake an unfinished check for "not an admin".
func (r *Resolver) Resolve(ctx context.Context, c Credentials) (State, error) {
	if c.AccessToken != "" {
		sess, err := r.Identity.GetSession(ctx, c.AccessToken)
		if err != nil {
			return Loading(), fmt.Errorf("get session: %w", err)
		}
		if sess != nil {
			admin, err := r.Admins.LookupAdminUser(ctx, sess.User.ID)
			if err != nil {
				return Loading(), fmt.Errorf("admin lookup: %w", err)
			}
			return Authenticated(sess.User, admin != nil), nil
		}
	}
	if c.DeviceID == "" {
		return Guest(), nil
	}
	ok, err := r.Flags.LegacyAdmin(ctx, c.DeviceID)
	if err != nil {
		return Loading(), fmt.Errorf("legacy flag: %w", err)
	}
	if ok {
		return LegacyAdmin(), nil
	}
	return Guest(), nil
}

// LoginLegacy compares password with the shared secret and, on match, marks
// the device as admin. No identity is established.
func (r *Resolver) LoginLegacy(ctx context.Context, deviceID, password string) (State, error) {
	if r.LegacyPassword == "" {
		return Guest(), ErrLegacyDisabled
	}
	if deviceID == "" {
		return Guest(), ErrNoDevice
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(r.LegacyPassword)) != 1 {
		return Guest(), ErrUnauthorized
	}
	if err := r.Flags.SetLegacyAdmin(ctx, deviceID); err != nil {
		return Guest(), err
	}
	return LegacyAdmin(), nil
}

// LoginAdmin signs in with the identity provider and requires an admin_users
// row. Without one the fresh session is signed out again before returning.
func (r *Resolver) LoginAdmin(ctx context.Context, email, password string) (*identity.Session, State, error) {
	sess, err := r.Identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, Guest(), err
	}
	admin, err := r.Admins.LookupAdminUser(ctx, sess.User.ID)
	if err != nil || admin == nil {
		if err != nil {
			log.Printf("admin lookup user=%s: %v", sess.User.ID, err)
		}
		if soErr := r.Identity.SignOut(context.WithoutCancel(ctx), sess.Token); soErr != nil {
			log.Printf("compensating sign-out user=%s: %v", sess.User.ID, soErr)
			return nil, Guest(), errors.Join(ErrUnauthorized, soErr)
		}
		return nil, Guest(), ErrUnauthorized
	}
	return sess, Authenticated(sess.User, true), nil
}

func (r *Resolver) SignIn(ctx context.Context, email, password string) (*identity.Session, State, error) {
	sess, err := r.Identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, Guest(), err
	}
	return r.established(ctx, sess)
}

func (r *Resolver) SignUp(ctx context.Context, email, password, name string) (*identity.Session, State, error) {
	sess, err := r.Identity.SignUpWithPassword(ctx, email, password, name)
	if err != nil {
		return nil, Guest(), err
	}
	return r.established(ctx, sess)
}

func (r *Resolver) StartOAuth(ctx context.Context, provider, redirectTo string) (string, error) {
	return r.Identity.SignInWithOAuth(ctx, provider, redirectTo)
}

func (r *Resolver) CompleteOAuth(ctx context.Context, provider, state, code string) (*identity.Session, State, string, error) {
	sess, redirectTo, err := r.Identity.CompleteOAuth(ctx, provider, state, code)
	if err != nil {
		return nil, Guest(), "", err
	}
	sess, st, err := r.established(ctx, sess)
	return sess, st, redirectTo, err
}

func (r *Resolver) established(ctx context.Context, sess *identity.Session) (*identity.Session, State, error) {
	admin, err := r.Admins.LookupAdminUser(ctx, sess.User.ID)
	if err != nil {
		return sess, Loading(), err
	}
	return sess, Authenticated(sess.User, admin != nil), nil
}

// Logout ends the hosted session and clears the legacy flag, whichever path
// was used. Repeating it is harmless.
func (r *Resolver) Logout(ctx context.Context, c Credentials) error {
	var errs []error
	if c.AccessToken != "" {
		if err := r.Identity.SignOut(ctx, c.AccessToken); err != nil {
			errs = append(errs, fmt.Errorf("sign out: %w", err))
		}
	}
	if c.DeviceID != "" {
		if err := r.Flags.ClearLegacyAdmin(ctx, c.DeviceID); err != nil {
			errs = append(errs, fmt.Errorf("clear legacy flag: %w", err))
		}
	}
	return errors.Join(errs...)
}

type refresher interface {
	Refresh(ctx context.Context, userID string) (*AdminUser, error)
	Forget(ctx context.Context, userID string) error
}

// Watch re-checks admin status on every session change of the provider.
// It returns the unsubscribe func.
func (r *Resolver) Watch(p identity.Provider) func() {
	cache, ok := r.Admins.(refresher)
	if !ok {
		return func() {}
	}
	return p.OnSessionChange(func(ev identity.SessionEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		var err error
		switch ev.Type {
		case identity.SignedIn:
			_, err = cache.Refresh(ctx, ev.UserID)
		case identity.SignedOut:
			err = cache.Forget(ctx, ev.UserID)
		}
		if err != nil {
			log.Printf("admin status refresh user=%s event=%s: %v", ev.UserID, ev.Type, err)
		}
	})
}
