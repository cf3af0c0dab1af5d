package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

func setup(t *testing.T) (*Service, pgxmock.PgxPoolIface, *miniredis.Miniredis) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewService(mock, rdb, time.Hour), mock, mr
}

func TestSignUpWithPassword(t *testing.T) {
	svc, mock, mr := setup(t)
	ctx := context.Background()

	var events []SessionEvent
	svc.OnSessionChange(func(ev SessionEvent) { events = append(events, ev) })

	mock.ExpectExec("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "ann@example.com", "Ann", pgxmock.AnyArg(), "email").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	sess, err := svc.SignUpWithPassword(ctx, "  Ann@Example.com ", "secret1", " Ann ")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", sess.User.Email)
	assert.NotEmpty(t, sess.Token)
	assert.True(t, mr.Exists("session:"+sess.Token))
	assert.Equal(t, []SessionEvent{{Type: SignedIn, UserID: sess.User.ID}}, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignUpWithPassword_Rejections(t *testing.T) {
	svc, mock, _ := setup(t)
	ctx := context.Background()

	_, err := svc.SignUpWithPassword(ctx, "ann@example.com", "123", "")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.SignUpWithPassword(ctx, "not-an-email", "secret1", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	mock.ExpectExec("INSERT INTO users").WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err = svc.SignUpWithPassword(ctx, "ann@example.com", "secret1", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignInWithPassword(t *testing.T) {
	svc, mock, _ := setup(t)
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	cols := []string{"id", "email", "name", "provider", "password_hash"}
	mock.ExpectQuery("SELECT id, email, name, provider, password_hash FROM users").
		WithArgs("ann@example.com").
		WillReturnRows(pgxmock.NewRows(cols).AddRow("u-1", "ann@example.com", "Ann", "email", string(hash)))

	sess, err := svc.SignInWithPassword(ctx, "ANN@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", sess.User.ID)

	got, err := svc.GetSession(ctx, sess.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sess.User, got.User)

	mock.ExpectQuery("SELECT id, email, name, provider, password_hash FROM users").
		WithArgs("ann@example.com").
		WillReturnRows(pgxmock.NewRows(cols).AddRow("u-1", "ann@example.com", "Ann", "email", string(hash)))
	_, err = svc.SignInWithPassword(ctx, "ann@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	mock.ExpectQuery("SELECT id, email, name, provider, password_hash FROM users").
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)
	_, err = svc.SignInWithPassword(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignOut(t *testing.T) {
	svc, mock, _ := setup(t)
	ctx := context.Background()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	sess, err := svc.SignUpWithPassword(ctx, "ann@example.com", "secret1", "")
	require.NoError(t, err)

	var events []SessionEvent
	unsubscribe := svc.OnSessionChange(func(ev SessionEvent) { events = append(events, ev) })

	require.NoError(t, svc.SignOut(ctx, sess.Token))
	got, err := svc.GetSession(ctx, sess.Token)
	require.NoError(t, err)
	assert.Nil(t, got)

	// second sign-out is a no-op and emits nothing
	require.NoError(t, svc.SignOut(ctx, sess.Token))
	require.NoError(t, svc.SignOut(ctx, ""))
	assert.Equal(t, []SessionEvent{{Type: SignedOut, UserID: sess.User.ID}}, events)

	unsubscribe()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	_, err = svc.SignUpWithPassword(ctx, "bob@example.com", "secret1", "")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

// fakeOAuth serves a token endpoint and a userinfo endpoint returning info.
func fakeOAuth(t *testing.T, svc *Service, name string, verifiedEmails bool, info map[string]any) {
	t.Helper()
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/token":
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "at", "token_type": "Bearer", "expires_in": 3600})
		case "/userinfo":
			assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(info)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(provider.Close)

	svc.RegisterOAuth(name, OAuthProvider{
		Config: &oauth2.Config{
			ClientID:     "cid",
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{AuthURL: provider.URL + "/auth", TokenURL: provider.URL + "/token"},
			RedirectURL:  "http://localhost/api/auth/oauth/" + name + "/callback",
		},
		UserInfoURL:    provider.URL + "/userinfo",
		VerifiedEmails: verifiedEmails,
	})
}

func startOAuth(t *testing.T, svc *Service, name, redirectTo string) string {
	t.Helper()
	authURL, err := svc.SignInWithOAuth(context.Background(), name, redirectTo)
	require.NoError(t, err)
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestOAuthRoundTrip(t *testing.T) {
	svc, mock, _ := setup(t)
	ctx := context.Background()
	fakeOAuth(t, svc, "google", false, map[string]any{"sub": "g-1", "email": "Ann@Example.com", "email_verified": true, "name": "Ann"})
	state := startOAuth(t, svc, "google", "/my-orders")

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "ann@example.com", "Ann", "google").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "name", "provider"}).
			AddRow("u-9", "ann@example.com", "Ann", "google"))

	sess, redirectTo, err := svc.CompleteOAuth(ctx, "google", state, "code-1")
	require.NoError(t, err)
	assert.Equal(t, "/my-orders", redirectTo)
	assert.Equal(t, "u-9", sess.User.ID)

	// state is single use
	_, _, err = svc.CompleteOAuth(ctx, "google", state, "code-1")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.SignInWithOAuth(ctx, "github", "/")
	assert.ErrorIs(t, err, ErrUnknownProvider)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOAuthUnverifiedEmailNeverLinks(t *testing.T) {
	for name, info := range map[string]map[string]any{
		"missing": {"sub": "g-2", "email": "admin@getberg.example", "name": "Mallory"},
		"false":   {"sub": "g-2", "email": "admin@getberg.example", "email_verified": false, "name": "Mallory"},
	} {
		t.Run(name, func(t *testing.T) {
			svc, mock, mr := setup(t)
			var events []SessionEvent
			svc.OnSessionChange(func(ev SessionEvent) { events = append(events, ev) })
			fakeOAuth(t, svc, "google", false, info)
			state := startOAuth(t, svc, "google", "/")

			sess, _, err := svc.CompleteOAuth(context.Background(), "google", state, "code-1")
			assert.ErrorIs(t, err, ErrUnverifiedEmail)
			assert.Nil(t, sess)
			assert.Empty(t, events)
			assert.Empty(t, mr.Keys(), "no session and no leftover state")
			assert.NoError(t, mock.ExpectationsWereMet(), "users table is never touched")
		})
	}
}

func TestOAuthProviderWithVerifiedEmails(t *testing.T) {
	svc, mock, _ := setup(t)
	fakeOAuth(t, svc, "facebook", true, map[string]any{"id": "fb-1", "email": "ann@example.com", "name": "Ann"})
	state := startOAuth(t, svc, "facebook", "/")

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "ann@example.com", "Ann", "facebook").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "name", "provider"}).
			AddRow("u-9", "ann@example.com", "Ann", "facebook"))
	sess, _, err := svc.CompleteOAuth(context.Background(), "facebook", state, "code-1")
	require.NoError(t, err)
	assert.Equal(t, "u-9", sess.User.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
