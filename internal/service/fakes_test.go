package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"marry-fun-bot/internal/model"
	"marry-fun-bot/internal/repository"
)

// fakeSessionRepo stores copies so the service cannot share state with it,
// and enforces one active session per user like the unique index does.
type fakeSessionRepo struct {
	mu         sync.Mutex
	sessions   map[string]*model.GameSession
	beforeSave func(s *model.GameSession)
	findErr    error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.GameSession)}
}

func cloneSession(s *model.GameSession) *model.GameSession {
	c := *s
	c.NgWords = slices.Clone(s.NgWords)
	return &c
}

func (r *fakeSessionRepo) put(s *model.GameSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = cloneSession(s)
}

func (r *fakeSessionRepo) get(id string) *model.GameSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	return cloneSession(s)
}

func (r *fakeSessionRepo) Save(_ context.Context, s *model.GameSession) error {
	if r.beforeSave != nil {
		r.beforeSave(s)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.Status == model.StatusActive {
		for id, other := range r.sessions {
			if id != s.ID && other.UserID == s.UserID && other.Status == model.StatusActive {
				return repository.ErrActiveSessionExists
			}
		}
	}
	r.sessions[s.ID] = cloneSession(s)
	return nil
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id string) (*model.GameSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return cloneSession(s), nil
}

func (r *fakeSessionRepo) FindTodayByUserID(_ context.Context, userID int64) ([]*model.GameSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []*model.GameSession
	for _, s := range r.sessions {
		if s.UserID == userID {
			out = append(out, cloneSession(s))
		}
	}
	slices.SortFunc(out, func(a, b *model.GameSession) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (r *fakeSessionRepo) UpdateStatus(_ context.Context, id string, status model.SessionStatus, messageCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	s.Status = status
	s.MessageCount = messageCount
	return nil
}

func (r *fakeSessionRepo) UpdateNgWords(_ context.Context, id string, words []model.NgWord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	s.NgWords = slices.Clone(words)
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

type fakeCache struct {
	mu     sync.Mutex
	words  map[string][]model.NgWord
	getErr error
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{words: make(map[string][]model.NgWord)}
}

func (c *fakeCache) Set(_ context.Context, sessionID string, words []model.NgWord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.words[sessionID] = slices.Clone(words)
	return nil
}

func (c *fakeCache) Get(_ context.Context, sessionID string) ([]model.NgWord, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	words, ok := c.words[sessionID]
	return slices.Clone(words), ok, nil
}

func (c *fakeCache) Delete(_ context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.words, sessionID)
	return nil
}

func (c *fakeCache) has(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.words[sessionID]
	return ok
}

func (c *fakeCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.words = make(map[string][]model.NgWord)
}

type fakeAI struct {
	mu         sync.Mutex
	ngWords    []string
	ngErr      error
	greetErr   error
	rawScore   float64
	replyErr   error
	shock      string
	shockErr   error
	ngCalls    int
	replyCalls int
}

func newFakeAI() *fakeAI {
	return &fakeAI{
		ngWords:  []string{"boring", "whatever", "嫌い"},
		rawScore: 7,
		shock:    "How could you...",
	}
}

func (a *fakeAI) GenerateNgWords(context.Context, string, model.CharacterType, model.Locale) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ngCalls++
	if a.ngErr != nil {
		return nil, a.ngErr
	}
	return slices.Clone(a.ngWords), nil
}

func (a *fakeAI) SendMessage(_ context.Context, _ string, ct model.CharacterType, username, message string, _ model.Locale) (*model.AIReply, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if message == model.InitMessage {
		if a.greetErr != nil {
			return nil, a.greetErr
		}
		return &model.AIReply{Message: fmt.Sprintf("Hi %s, I'm %s", username, ct), RawScore: 5, Emotion: model.EmotionDefault}, nil
	}
	a.replyCalls++
	if a.replyErr != nil {
		return nil, a.replyErr
	}
	return &model.AIReply{Message: "reply: " + message, RawScore: a.rawScore, Emotion: model.EmotionJoy}, nil
}

func (a *fakeAI) GetShockResponse(context.Context, string, model.CharacterType, string, string, model.Locale) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.shockErr != nil {
		return "", a.shockErr
	}
	return a.shock, nil
}

func (a *fakeAI) set(fn func(a *fakeAI)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a)
}

type fixedPicker struct {
	ct  model.CharacterType
	err error
}

func (p fixedPicker) Pick() (model.CharacterType, error) {
	return p.ct, p.err
}

var errBackend = errors.New("backend unavailable")

type serviceFixture struct {
	svc   *GameSessionService
	repo  *fakeSessionRepo
	cache *fakeCache
	ai    *fakeAI
}

func newServiceFixture() *serviceFixture {
	repo := newFakeSessionRepo()
	cache := newFakeCache()
	ai := newFakeAI()
	svc := NewGameSessionService(repo, cache, ai, fixedPicker{ct: model.CharacterTsundere}, time.Second)

	var mu sync.Mutex
	n := 0
	svc.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("session-%d", n)
	}
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return base.Add(time.Duration(n) * time.Minute)
	}

	return &serviceFixture{svc: svc, repo: repo, cache: cache, ai: ai}
}
