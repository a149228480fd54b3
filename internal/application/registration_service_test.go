package application

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-event-locator/config"
	"github.com/oksasatya/go-event-locator/internal/domain/entity"
)

const goodPassword = "Sup3r$ecret"

type regFixture struct {
	log      *callLog
	repo     *fakeUserRepo
	sessions *fakeSessions
	notifier *fakeNotifier
	indexer  *fakeIndexer
	svc      *RegistrationService
}

func newRegFixture() *regFixture {
	log := &callLog{}
	f := &regFixture{
		log:      log,
		repo:     newFakeUserRepo(log),
		sessions: &fakeSessions{log: log},
		notifier: &fakeNotifier{log: log},
		indexer:  &fakeIndexer{},
	}
	cfg := &config.Config{AppName: "Event Locator", WelcomeQueueEnabled: true}
	f.svc = NewRegistrationService(f.repo, f.sessions, f.notifier, f.indexer, cfg, nil)
	return f
}

func validRequest(username string) RegistrationRequest {
	return RegistrationRequest{
		Username:        username,
		Email:           username + "@example.com",
		Password:        goodPassword,
		PasswordConfirm: goodPassword,
	}
}

func TestRegister_Created(t *testing.T) {
	f := newRegFixture()

	out, err := f.svc.Register(context.Background(), validRequest("alice"))
	require.NoError(t, err)

	assert.Equal(t, RegistrationCreated, out.Status)
	assert.Equal(t, NextProfile, out.NextStep)
	require.NotNil(t, out.User)
	assert.NotEmpty(t, out.User.ID)
	assert.NotEqual(t, goodPassword, out.User.Password)
	assert.Equal(t, "sid-"+out.User.ID, out.Session.SessionID)
	assert.True(t, out.WelcomeQueued)
	assert.Equal(t, 1, f.repo.count())
	assert.Equal(t, []string{out.User.ID}, f.indexer.indexed)
}

func TestRegister_SideEffectOrder(t *testing.T) {
	f := newRegFixture()

	_, err := f.svc.Register(context.Background(), validRequest("alice"))
	require.NoError(t, err)

	assert.Equal(t, []string{"create", "session", "notify"}, f.log.list())
}

func TestRegister_WelcomeMessage(t *testing.T) {
	f := newRegFixture()

	out, err := f.svc.Register(context.Background(), validRequest("alice"))
	require.NoError(t, err)

	msgs := f.notifier.messages()
	require.Len(t, msgs, 1)
	msg := msgs[0]
	assert.Equal(t, "alice@example.com", msg.To)
	assert.Contains(t, msg.Subject, "Welcome")
	assert.Contains(t, msg.Text, "alice")
	assert.Contains(t, msg.HTML, "alice")
	assert.Equal(t, "welcome", msg.Kind)
	assert.Equal(t, out.User.ID, msg.Ref)
}

func TestComposeWelcome_GreetsByDisplayName(t *testing.T) {
	cfg := &config.Config{AppName: "Event Locator"}

	named, err := ComposeWelcome(cfg, &entity.User{ID: "u-1", Username: "alice", Email: "alice@example.com", Name: "Alice Liddell"})
	require.NoError(t, err)
	assert.Contains(t, named.HTML, "Event Locator, Alice Liddell!")
	assert.Contains(t, named.Text, "Hi alice,")

	bare, err := ComposeWelcome(cfg, &entity.User{ID: "u-2", Username: "bob", Email: "bob@example.com"})
	require.NoError(t, err)
	assert.Contains(t, bare.HTML, "Event Locator, bob!")
}

func TestRegister_InvalidHasNoSideEffects(t *testing.T) {
	tests := []struct {
		name       string
		req        RegistrationRequest
		wantFields []string
	}{
		{
			name:       "everything missing",
			req:        RegistrationRequest{},
			wantFields: []string{"username", "email", "password", "password_confirm"},
		},
		{
			name: "bad username and email together",
			req: RegistrationRequest{
				Username: "1bad name", Email: "nope",
				Password: goodPassword, PasswordConfirm: goodPassword,
			},
			wantFields: []string{"username", "email"},
		},
		{
			name: "weak password",
			req: RegistrationRequest{
				Username: "alice", Email: "alice@example.com",
				Password: "password", PasswordConfirm: "password",
			},
			wantFields: []string{"password"},
		},
		{
			name: "confirmation mismatch",
			req: RegistrationRequest{
				Username: "alice", Email: "alice@example.com",
				Password: goodPassword, PasswordConfirm: goodPassword + "x",
			},
			wantFields: []string{"password_confirm"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRegFixture()

			out, err := f.svc.Register(context.Background(), tt.req)
			require.NoError(t, err)

			assert.Equal(t, RegistrationInvalid, out.Status)
			assert.Equal(t, NextRedisplay, out.NextStep)
			for _, field := range tt.wantFields {
				assert.Contains(t, out.FieldErrors, field)
			}
			assert.Empty(t, out.Input.Password)
			assert.Empty(t, out.Input.PasswordConfirm)
			assert.Equal(t, 0, f.repo.count())
			assert.Empty(t, f.sessions.issued)
			assert.Empty(t, f.notifier.messages())
		})
	}
}

func TestRegister_TakenUsernameReportedWithOtherErrors(t *testing.T) {
	f := newRegFixture()
	f.repo.seed(entity.User{Username: "Alice", Email: "a@example.com"})

	req := validRequest("alice")
	req.Email = "not-an-email"
	out, err := f.svc.Register(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, RegistrationInvalid, out.Status)
	assert.Equal(t, msgUsernameTaken, out.FieldErrors["username"])
	assert.Contains(t, out.FieldErrors, "email")
	assert.Equal(t, "alice", out.Input.Username)
	assert.Equal(t, 1, f.repo.count())
}

func TestRegister_ConcurrentSameUsername(t *testing.T) {
	f := newRegFixture()
	const n = 8

	var wg sync.WaitGroup
	outs := make([]*RegistrationOutcome, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outs[i], errs[i] = f.svc.Register(context.Background(), validRequest("racer"))
		}(i)
	}
	wg.Wait()

	created := 0
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		switch outs[i].Status {
		case RegistrationCreated:
			created++
		case RegistrationConflict, RegistrationInvalid:
			assert.Equal(t, msgUsernameTaken, outs[i].FieldErrors["username"])
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, f.repo.count())
	assert.Len(t, f.notifier.messages(), 1)
	assert.Len(t, f.sessions.issued, 1)
}

func TestRegister_ConflictOnInsertRace(t *testing.T) {
	f := newRegFixture()
	// pre-check passes, insert loses
	f.repo.seed(entity.User{Username: "bob"})
	racing := &racingRepo{fakeUserRepo: f.repo}
	f.svc.Repo = racing

	out, err := f.svc.Register(context.Background(), validRequest("bob"))
	require.NoError(t, err)

	assert.Equal(t, RegistrationConflict, out.Status)
	assert.Equal(t, NextRedisplay, out.NextStep)
	assert.Equal(t, msgUsernameTaken, out.FieldErrors["username"])
	assert.Empty(t, f.sessions.issued)
	assert.Empty(t, f.notifier.messages())
}

type racingRepo struct{ *fakeUserRepo }

func (r *racingRepo) UsernameExists(context.Context, string) (bool, error) { return false, nil }

func TestRegister_NotificationFailureKeepsAccount(t *testing.T) {
	f := newRegFixture()
	f.notifier.err = errBoom

	out, err := f.svc.Register(context.Background(), validRequest("carol"))
	require.NoError(t, err)

	assert.Equal(t, RegistrationCreated, out.Status)
	assert.False(t, out.WelcomeQueued)
	assert.Equal(t, 1, f.repo.count())
	assert.Len(t, f.sessions.issued, 1)
	assert.Equal(t, []string{"create", "session", "notify"}, f.log.list())
}

func TestRegister_WelcomeDisabled(t *testing.T) {
	f := newRegFixture()
	f.svc.Cfg.WelcomeQueueEnabled = false

	out, err := f.svc.Register(context.Background(), validRequest("dave"))
	require.NoError(t, err)

	assert.Equal(t, RegistrationCreated, out.Status)
	assert.False(t, out.WelcomeQueued)
	assert.Empty(t, f.notifier.messages())
}

func TestRegister_InfrastructureErrors(t *testing.T) {
	t.Run("repository", func(t *testing.T) {
		f := newRegFixture()
		f.repo.failAll = errBoom

		_, err := f.svc.Register(context.Background(), validRequest("erin"))
		assert.ErrorIs(t, err, errBoom)
	})
	t.Run("session", func(t *testing.T) {
		f := newRegFixture()
		f.sessions.err = errBoom

		_, err := f.svc.Register(context.Background(), validRequest("erin"))
		assert.ErrorIs(t, err, errBoom)
		assert.Empty(t, f.notifier.messages())
	})
}

func TestResendWelcome(t *testing.T) {
	f := newRegFixture()
	u := f.repo.seed(entity.User{Username: "frank", Email: "frank@example.com"})

	_, err := f.svc.ResendWelcome(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.ResendWelcome(context.Background(), &Identity{UserID: "missing"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	queued, err := f.svc.ResendWelcome(context.Background(), &Identity{UserID: u.ID, Username: u.Username})
	require.NoError(t, err)
	assert.True(t, queued)
	require.Len(t, f.notifier.messages(), 1)
	assert.Equal(t, "frank@example.com", f.notifier.messages()[0].To)

	f.notifier.err = errBoom
	_, err = f.svc.ResendWelcome(context.Background(), &Identity{UserID: u.ID})
	assert.ErrorIs(t, err, ErrNotificationDelivery)
}
