package application

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-ddd-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-ddd-auth-service/internal/domain/policy"
	repo "github.com/oksasatya/go-ddd-auth-service/internal/domain/repository"
	"github.com/oksasatya/go-ddd-auth-service/internal/infrastructure/redisstore"
	"github.com/oksasatya/go-ddd-auth-service/pkg/helpers"
	mailtpl "github.com/oksasatya/go-ddd-auth-service/pkg/mailer/templates"
)

// memUsers is an in-memory UserRepository with the same uniqueness rule as the users table.
type memUsers struct {
	mu    sync.Mutex
	users map[string]entity.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[string]entity.User{}} }

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repo.ErrDuplicateEmail
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memUsers) Update(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return repo.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) SetVerified(_ context.Context, id string) error {
	return m.mutate(id, func(u *entity.User) { u.EmailVerified = true })
}

func (m *memUsers) mutate(id string, fn func(u *entity.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	fn(&u)
	m.users[id] = u
	return nil
}

// memResets mirrors the Postgres repository: a conditional consume and the
// owner's password write commit together.
type memResets struct {
	mu     sync.Mutex
	resets map[string]*entity.PasswordReset
	users  *memUsers

	// while set, Redeem fails its password write and consumes nothing
	passwordErr error
}

func newMemResets(users *memUsers) *memResets {
	return &memResets{resets: map[string]*entity.PasswordReset{}, users: users}
}

func (m *memResets) Create(_ context.Context, pr *entity.PasswordReset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pr.ID = uuid.NewString()
	cp := *pr
	m.resets[pr.TokenHash] = &cp
	return nil
}

func (m *memResets) active(hash string) (*entity.PasswordReset, bool) {
	pr, ok := m.resets[hash]
	if !ok || pr.IsConsumed() || pr.IsExpiredAt(time.Now()) {
		return nil, false
	}
	return pr, true
}

func (m *memResets) GetActive(_ context.Context, hash string) (*entity.PasswordReset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pr, ok := m.active(hash)
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *pr
	return &cp, nil
}

func (m *memResets) Redeem(_ context.Context, hash, passwordHash string) (*entity.PasswordReset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pr, ok := m.active(hash)
	if !ok {
		return nil, repo.ErrNotFound
	}
	if m.passwordErr != nil {
		return nil, m.passwordErr
	}
	if err := m.users.mutate(pr.UserID, func(u *entity.User) { u.PasswordHash = passwordHash }); err != nil {
		return nil, err
	}
	now := time.Now()
	pr.ConsumedAt = &now
	cp := *pr
	return &cp, nil
}

func (m *memResets) DeleteByUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, pr := range m.resets {
		if pr.UserID == userID {
			delete(m.resets, k)
		}
	}
	return nil
}

func (m *memResets) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, pr := range m.resets {
		if pr.IsConsumed() || pr.IsExpiredAt(time.Now()) {
			delete(m.resets, k)
			n++
		}
	}
	return n, nil
}

func (m *memResets) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resets)
}

// slowResets delays the writes that only a known address triggers.
type slowResets struct {
	*memResets
	delay time.Duration
}

func (s slowResets) DeleteByUser(ctx context.Context, userID string) error {
	time.Sleep(s.delay)
	return s.memResets.DeleteByUser(ctx, userID)
}

func (s slowResets) Create(ctx context.Context, pr *entity.PasswordReset) error {
	time.Sleep(s.delay)
	return s.memResets.Create(ctx, pr)
}

type sentMail struct {
	To, Subject, Body string
}

type captureSink struct {
	mu   sync.Mutex
	sent []sentMail
}

func (c *captureSink) Send(_ context.Context, to, subject, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (c *captureSink) messages() []sentMail {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentMail(nil), c.sent...)
}

var tokenInLink = regexp.MustCompile(`token=([0-9a-f]+)`)

func (c *captureSink) lastToken(t *testing.T) string {
	t.Helper()
	msgs := c.messages()
	require.NotEmpty(t, msgs, "no mail sent")
	m := tokenInLink.FindStringSubmatch(msgs[len(msgs)-1].Body)
	require.Len(t, m, 2, "no token link in mail body")
	return m[1]
}

type captureAudit struct {
	mu     sync.Mutex
	events []entity.AuditEvent
}

func (c *captureAudit) Record(_ context.Context, ev entity.AuditEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *captureAudit) actions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, ev.Action)
	}
	return out
}

type fixture struct {
	mr     *miniredis.Miniredis
	users  *memUsers
	resets *memResets
	sink   *captureSink
	audit  *captureAudit
	hook   *test.Hook

	creds    *CredentialStore
	tokens   *TokenIssuer
	auth     *AuthService
	recovery *RecoveryService
	verify   *VerificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	users := newMemUsers()
	f := &fixture{
		mr:     mr,
		users:  users,
		resets: newMemResets(users),
		sink:   &captureSink{},
		audit:  &captureAudit{},
		hook:   hook,
	}
	pol := policy.Default(8)
	refresh := redisstore.NewRefreshStore(rdb)

	f.creds = NewCredentialStore(f.users, helpers.BcryptHasher{Cost: bcrypt.MinCost})
	f.tokens = NewTokenIssuer(redisstore.NewTokenStore(rdb), f.users, time.Hour, logger)
	jwt := helpers.NewJWTManager("test-refresh-secret", 24*time.Hour, 30*24*time.Hour, "auth-test")

	f.auth = NewAuthService(f.creds, f.tokens, jwt, refresh, pol, f.audit, logger)
	f.recovery = NewRecoveryService(f.creds, f.resets, f.tokens, refresh, pol, f.sink, f.audit, logger)
	f.recovery.ResetURL = "http://app.test/reset"
	f.recovery.Brand = mailtpl.Brand{AppName: "Auth"}
	f.recovery.MinDuration = 2 * time.Millisecond
	f.recovery.JitterMin, f.recovery.JitterMax = 0, time.Millisecond

	f.verify = NewVerificationService(f.creds, redisstore.NewVerifyStore(rdb), f.sink, f.audit, logger)
	f.verify.VerifyURL = "http://app.test/verify"
	return f
}

func (f *fixture) register(t *testing.T, in RegisterInput) *AuthResult {
	t.Helper()
	res, err := f.auth.Register(context.Background(), in, RequestMeta{IP: "127.0.0.1"})
	require.NoError(t, err)
	return res
}

func customerInput(email, password string) RegisterInput {
	return RegisterInput{
		Role:            "customer",
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           email,
		Password:        password,
		ConfirmPassword: password,
		AcceptTOS:       true,
	}
}
