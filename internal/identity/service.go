package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ariefcatur/go-restaurant-orders/internal/postgres"
	"github.com/ariefcatur/go-restaurant-orders/internal/redisx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

const minPasswordLen = 6

// Service keeps users in Postgres and sessions in Redis.
type Service struct {
	DB    postgres.DB
	Redis redis.Cmdable
	TTL   time.Duration

	oauth     map[string]OAuthProvider
	listeners Listeners
}

var _ Provider = (*Service)(nil)

func NewService(db postgres.DB, rdb redis.Cmdable, ttl time.Duration) *Service {
	return &Service{DB: db, Redis: rdb, TTL: ttl, oauth: map[string]OAuthProvider{}}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) SignUpWithPassword(ctx context.Context, email, password, name string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidCredentials
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := User{ID: uuid.NewString(), Email: email, Name: strings.TrimSpace(name), Provider: "email"}
	_, err = s.DB.Exec(ctx, `
		INSERT INTO users(id, email, name, password_hash, provider)
		VALUES ($1,$2,$3,$4,$5)`, u.ID, u.Email, u.Name, string(hash), u.Provider)
	if postgres.IsUniqueViolation(err) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, u)
}

func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var (
		u    User
		hash string
	)
	err := s.DB.QueryRow(ctx, `SELECT id, email, name, provider, password_hash FROM users WHERE email=$1`,
		normalizeEmail(email)).Scan(&u.ID, &u.Email, &u.Name, &u.Provider, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, u)
}

func (s *Service) GetSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := s.Redis.Get(ctx, fmt.Sprintf(redisx.KeySession, token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &Session{Token: token, User: u}, nil
}

// SignOut is idempotent; unknown tokens are not an error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	sess, err := s.GetSession(ctx, token)
	if err != nil || sess == nil {
		return err
	}
	if err := s.Redis.Del(ctx, fmt.Sprintf(redisx.KeySession, token)).Err(); err != nil {
		return err
	}
	s.listeners.Emit(SessionEvent{Type: SignedOut, UserID: sess.User.ID})
	return nil
}

func (s *Service) OnSessionChange(fn func(SessionEvent)) func() {
	return s.listeners.Subscribe(fn)
}

func (s *Service) startSession(ctx context.Context, u User) (*Session, error) {
	token := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	b, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	if err := s.Redis.Set(ctx, fmt.Sprintf(redisx.KeySession, token), b, s.TTL).Err(); err != nil {
		return nil, err
	}
	log.Printf("session started user=%s provider=%s", u.ID, u.Provider)
	s.listeners.Emit(SessionEvent{Type: SignedIn, UserID: u.ID})
	return &Session{Token: token, User: u}, nil
}

// OAuthProvider pairs an oauth2 client with the endpoint that describes the user.
// Unless VerifiedEmails is set, the userinfo response must carry email_verified=true.
type OAuthProvider struct {
	Config         *oauth2.Config
	UserInfoURL    string
	VerifiedEmails bool
}

func (s *Service) RegisterOAuth(name string, p OAuthProvider) {
	if s.oauth == nil {
		s.oauth = map[string]OAuthProvider{}
	}
	s.oauth[name] = p
}

func (s *Service) SignInWithOAuth(ctx context.Context, provider, redirectTo string) (string, error) {
	p, ok := s.oauth[provider]
	if !ok {
		return "", ErrUnknownProvider
	}
	state := uuid.NewString()
	if err := s.Redis.Set(ctx, fmt.Sprintf(redisx.KeyOAuthState, state), redirectTo, redisx.TTLOAuthState).Err(); err != nil {
		return "", err
	}
	return p.Config.AuthCodeURL(state), nil
}

func (s *Service) CompleteOAuth(ctx context.Context, provider, state, code string) (*Session, string, error) {
	p, ok := s.oauth[provider]
	if !ok {
		return nil, "", ErrUnknownProvider
	}
	redirectTo, err := s.Redis.GetDel(ctx, fmt.Sprintf(redisx.KeyOAuthState, state)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, "", ErrInvalidState
	}
	if err != nil {
		return nil, "", err
	}

	tok, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("oauth exchange: %w", err)
	}
	info, err := fetchUserInfo(ctx, p, tok)
	if err != nil {
		return nil, "", err
	}
	// Accounts are keyed by email, so an unverified address could claim someone else's row.
	if !p.VerifiedEmails && (info.EmailVerified == nil || !*info.EmailVerified) {
		log.Printf("oauth sign-in refused provider=%s: unverified email", provider)
		return nil, "", ErrUnverifiedEmail
	}

	u := User{ID: uuid.NewString(), Email: normalizeEmail(info.Email), Name: info.Name, Provider: provider}
	err = s.DB.QueryRow(ctx, `
		INSERT INTO users(id, email, name, provider)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (email) DO UPDATE SET name = CASE WHEN users.name = '' THEN EXCLUDED.name ELSE users.name END
		RETURNING id, email, name, provider`, u.ID, u.Email, u.Name, u.Provider).
		Scan(&u.ID, &u.Email, &u.Name, &u.Provider)
	if err != nil {
		return nil, "", err
	}
	sess, err := s.startSession(ctx, u)
	if err != nil {
		return nil, "", err
	}
	return sess, redirectTo, nil
}

type userInfo struct {
	Sub           string `json:"sub"`
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	Name          string `json:"name"`
}

func fetchUserInfo(ctx context.Context, p OAuthProvider, tok *oauth2.Token) (*userInfo, error) {
	resp, err := p.Config.Client(ctx, tok).Get(p.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("oauth userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("oauth userinfo: status %d", resp.StatusCode)
	}
	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("oauth userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("oauth userinfo: %w", ErrInvalidCredentials)
	}
	return &info, nil
}
