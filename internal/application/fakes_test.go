package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/go-event-locator/internal/domain/entity"
	repo "github.com/oksasatya/go-event-locator/internal/domain/repository"
)

// callLog records side effects in order across fakes.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.calls = append(l.calls, s)
	l.mu.Unlock()
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*entity.User
	seq     int
	calls   int
	log     *callLog
	failAll error
}

func newFakeUserRepo(log *callLog) *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]*entity.User{}, log: log}
}

func (r *fakeUserRepo) touch() error {
	r.calls++
	return r.failAll
}

func (r *fakeUserRepo) seed(u entity.User) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		r.seq++
		u.ID = fmt.Sprintf("u-%d", r.seq)
	}
	cp := u
	r.byID[u.ID] = &cp
	return &cp
}

func (r *fakeUserRepo) findByUsername(name string) *entity.User {
	for _, u := range r.byID {
		if strings.EqualFold(u.Username, name) {
			return u
		}
	}
	return nil
}

func (r *fakeUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.touch(); err != nil {
		return err
	}
	if r.findByUsername(u.Username) != nil {
		return fmt.Errorf("insert: %w", repo.ErrUsernameTaken)
	}
	r.seq++
	u.ID = fmt.Sprintf("u-%d", r.seq)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.byID[u.ID] = &cp
	r.log.add("create")
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.touch(); err != nil {
		return nil, err
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.touch(); err != nil {
		return nil, err
	}
	u := r.findByUsername(username)
	if u == nil {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UsernameExists(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.touch(); err != nil {
		return false, err
	}
	return r.findByUsername(username) != nil, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id string, p entity.ProfileFields) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.touch(); err != nil {
		return nil, err
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	u.Name, u.Bio, u.Location, u.AvatarURL = p.Name, p.Bio, p.Location, p.AvatarURL
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *fakeUserRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fakeEventRepo struct {
	mu        sync.Mutex
	created   map[string][]entity.EventSummary
	attending map[string][]entity.EventSummary
	favorites map[string][]entity.EventSummary
	calls     int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		created:   map[string][]entity.EventSummary{},
		attending: map[string][]entity.EventSummary{},
		favorites: map[string][]entity.EventSummary{},
	}
}

func (r *fakeEventRepo) get(m map[string][]entity.EventSummary, id string) []entity.EventSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	src := m[id]
	if src == nil {
		return nil
	}
	return append([]entity.EventSummary(nil), src...)
}

func (r *fakeEventRepo) EventsCreated(_ context.Context, id string) ([]entity.EventSummary, error) {
	return r.get(r.created, id), nil
}

func (r *fakeEventRepo) EventsAttending(_ context.Context, id string) ([]entity.EventSummary, error) {
	return r.get(r.attending, id), nil
}

func (r *fakeEventRepo) FavoriteEvents(_ context.Context, id string) ([]entity.EventSummary, error) {
	return r.get(r.favorites, id), nil
}

func (r *fakeEventRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fakeSessions struct {
	mu     sync.Mutex
	log    *callLog
	err    error
	issued []string
	synced []string
}

func (s *fakeSessions) Establish(_ context.Context, u *entity.User) (TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return TokenPair{}, s.err
	}
	s.issued = append(s.issued, u.ID)
	s.log.add("session")
	return TokenPair{SessionID: "sid-" + u.ID, AccessToken: "access-" + u.ID, RefreshToken: "refresh-" + u.ID}, nil
}

func (s *fakeSessions) SyncProfile(_ context.Context, u *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced = append(s.synced, u.ID)
}

type fakeNotifier struct {
	mu   sync.Mutex
	log  *callLog
	err  error
	sent []Notification
}

func (n *fakeNotifier) Notify(_ context.Context, msg Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.log.add("notify")
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *fakeNotifier) messages() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.sent...)
}

type fakeIndexer struct {
	mu      sync.Mutex
	indexed []string
	err     error
	hits    []map[string]any
	lastQ   string
}

func (f *fakeIndexer) Index(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.indexed = append(f.indexed, u.ID)
	return nil
}

func (f *fakeIndexer) Search(_ context.Context, q string, _ int) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQ = q
	return f.hits, f.err
}

type fakeAvatars struct {
	uploads int
	err     error
}

func (f *fakeAvatars) Upload(_ context.Context, userID string, a AvatarUpload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if a.Body != nil {
		if _, err := io.Copy(io.Discard, a.Body); err != nil {
			return "", err
		}
	}
	f.uploads++
	return "https://cdn.example.com/avatars/" + userID + "/" + a.Filename, nil
}

var errBoom = errors.New("boom")
