// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"marry-fun-bot/internal/model"
	"marry-fun-bot/internal/pkg/lock"
	"marry-fun-bot/internal/repository"
)

var tracer = otel.Tracer("marry-fun-bot/internal/service")

// Sources reported when a taboo set is generated.
const (
	ngWordSourceStart  = "start"
	ngWordSourceResume = "resume"
	ngWordSourceChat   = "chat"
)

// DefaultLockTimeout bounds the wait for a busy user or session.
const DefaultLockTimeout = 45 * time.Second

var defaultShockLines = map[model.Locale]string{
	model.LocaleEN: "Why would you say that...! I can't believe it...!",
	model.LocaleJA: "どうしてそんなこと言うの…！信じられない…！",
}

// DefaultShockLine is the game-over reply used when the AI backend fails.
func DefaultShockLine(locale model.Locale) string {
	if line, ok := defaultShockLines[locale]; ok {
		return line
	}
	return defaultShockLines[model.LocaleEN]
}

// StartGameResult describes the session a user plays after /start.
type StartGameResult struct {
	SessionID     string
	CharacterType model.CharacterType
	// Greeting is empty when an existing session was resumed.
	Greeting       string
	RemainingChats int
	Resumed        bool
	// Task tracks taboo-word generation for a new session. Nil when resumed.
	Task *BackgroundTask
}

// ChatResult is the outcome of one chat turn. Score and Emotion are unset
// when the message ended the game.
type ChatResult struct {
	Reply          string
	Score          *model.Score
	Emotion        model.Emotion
	HitWord        string
	RemainingChats int
	IsGameOver     bool
}

// BackgroundTask is a handle on work that outlives the request that
// started it. A nil task is already done.
type BackgroundTask struct {
	done chan struct{}
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Done is closed when the task finishes.
func (t *BackgroundTask) Done() <-chan struct{} {
	if t == nil {
		return closedChan
	}
	return t.done
}

// Wait blocks until the task finishes or ctx ends.
func (t *BackgroundTask) Wait(ctx context.Context) error {
	select {
	case <-t.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GameSessionService runs the game: starting and resuming sessions, taboo
// detection and scored replies.
type GameSessionService struct {
	repo   GameSessionRepository
	cache  NgWordCache
	ai     AIChatAdapter
	picker PersonaPicker

	userLocks    *lock.KeyLock[int64]
	sessionLocks *lock.KeyLock[string]
	lockTimeout  time.Duration

	newID func() string
	now   func() time.Time
}

// NewGameSessionService creates a new GameSessionService instance.
func NewGameSessionService(
	repo GameSessionRepository,
	cache NgWordCache,
	ai AIChatAdapter,
	picker PersonaPicker,
	lockTimeout time.Duration,
) *GameSessionService {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &GameSessionService{
		repo:         repo,
		cache:        cache,
		ai:           ai,
		picker:       picker,
		userLocks:    lock.New[int64](),
		sessionLocks: lock.New[string](),
		lockTimeout:  lockTimeout,
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

// StartGame resumes the user's active session for the UTC day or creates a
// new one. A game over earlier in the day blocks both.
func (s *GameSessionService) StartGame(ctx context.Context, userID int64, username string, locale model.Locale) (*StartGameResult, error) {
	ctx, span := tracer.Start(ctx, "GameSessionService.StartGame", trace.WithAttributes(
		attribute.Int64("user.id", userID),
		attribute.String("locale", string(locale)),
	))
	defer span.End()

	var result *StartGameResult
	err := s.userLocks.WithLockContext(ctx, userID, s.lockTimeout, func() error {
		var err error
		result, err = s.startGame(ctx, userID, username, locale)
		return err
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("session.id", result.SessionID),
		attribute.Bool("session.resumed", result.Resumed),
	)
	return result, nil
}

func (s *GameSessionService) startGame(ctx context.Context, userID int64, username string, locale model.Locale) (*StartGameResult, error) {
	sessions, err := s.repo.FindTodayByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find today's sessions: %w", err)
	}
	if result, ok, err := s.resume(ctx, userID, sessions, locale); ok || err != nil {
		return result, err
	}

	characterType, err := s.picker.Pick()
	if err != nil {
		return nil, fmt.Errorf("failed to pick character: %w", err)
	}

	session := model.NewGameSession(s.newID(), userID, username, characterType, s.now())

	greeting, err := s.ai.SendMessage(ctx, session.ID, characterType, username, model.InitMessage, locale)
	if err != nil {
		return nil, fmt.Errorf("failed to generate greeting: %w", err)
	}

	if err := s.repo.Save(ctx, session); err != nil {
		if !errors.Is(err, repository.ErrActiveSessionExists) {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
		// Another process created today's session first.
		sessions, findErr := s.repo.FindTodayByUserID(ctx, userID)
		if findErr != nil {
			return nil, fmt.Errorf("failed to find today's sessions: %w", findErr)
		}
		if result, ok, err := s.resume(ctx, userID, sessions, locale); ok || err != nil {
			return result, err
		}
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	log.Info().
		Str("session_id", session.ID).
		Int64("user_id", userID).
		Str("character_type", string(characterType)).
		Msg("Game session started")

	return &StartGameResult{
		SessionID:      session.ID,
		CharacterType:  characterType,
		Greeting:       greeting.Message,
		RemainingChats: session.RemainingChats(),
		Task:           s.generateInBackground(ctx, session, locale),
	}, nil
}

// resume picks the session to continue from today's sessions. ok is false
// when a new session should be created.
func (s *GameSessionService) resume(ctx context.Context, userID int64, sessions []*model.GameSession, locale model.Locale) (*StartGameResult, bool, error) {
	var active *model.GameSession
	for _, session := range sessions {
		switch session.Status {
		case model.StatusGameOver:
			return nil, false, model.NewGameOverBlockedError(userID)
		case model.StatusActive:
			if active == nil {
				active = session
			}
		}
	}
	if active == nil {
		return nil, false, nil
	}

	s.loadNgWords(ctx, active, locale, ngWordSourceResume)

	return &StartGameResult{
		SessionID:      active.ID,
		CharacterType:  active.CharacterType,
		RemainingChats: active.RemainingChats(),
		Resumed:        true,
	}, true, nil
}

// Chat plays one turn of a session.
func (s *GameSessionService) Chat(ctx context.Context, sessionID, message string, locale model.Locale) (*ChatResult, error) {
	ctx, span := tracer.Start(ctx, "GameSessionService.Chat", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("locale", string(locale)),
	))
	defer span.End()

	var result *ChatResult
	err := s.sessionLocks.WithLockContext(ctx, sessionID, s.lockTimeout, func() error {
		var err error
		result, err = s.chat(ctx, sessionID, message, locale)
		return err
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("session.game_over", result.IsGameOver),
		attribute.Int("session.remaining_chats", result.RemainingChats),
	)
	return result, nil
}

func (s *GameSessionService) chat(ctx context.Context, sessionID, message string, locale model.Locale) (*ChatResult, error) {
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, model.NewSessionNotFoundError(sessionID)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !session.CanChat() {
		return nil, model.NewChatLimitExceededError(sessionID)
	}

	words := s.loadNgWords(ctx, session, locale, ngWordSourceChat)
	if hit, ok := model.FirstNgWordIn(words, message); ok {
		return s.gameOver(ctx, session, hit, locale)
	}

	reply, err := s.ai.SendMessage(ctx, session.ID, session.CharacterType, session.Username, message, locale)
	if err != nil {
		return nil, fmt.Errorf("failed to get reply: %w", err)
	}
	score, err := model.ScoreFromRaw(reply.RawScore)
	if err != nil {
		return nil, fmt.Errorf("invalid reply score: %w", err)
	}

	if err := session.IncrementMessageCount(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, session.ID, session.Status, session.MessageCount); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	if session.Status == model.StatusCompleted {
		s.dropNgWords(ctx, session.ID)
	}

	return &ChatResult{
		Reply:          reply.Message,
		Score:          &score,
		Emotion:        model.NormalizeEmotion(string(reply.Emotion)),
		RemainingChats: session.RemainingChats(),
	}, nil
}

func (s *GameSessionService) gameOver(ctx context.Context, session *model.GameSession, hit model.NgWord, locale model.Locale) (*ChatResult, error) {
	shock, err := s.ai.GetShockResponse(ctx, session.ID, session.CharacterType, session.Username, hit.Value(), locale)
	if err != nil || strings.TrimSpace(shock) == "" {
		log.Warn().Err(err).Str("session_id", session.ID).Msg("Shock response unavailable, using default line")
		shock = DefaultShockLine(locale)
	}

	// Game over first so a hit on the last message is not recorded as completed.
	if err := session.MarkGameOver(); err != nil {
		return nil, err
	}
	if err := session.IncrementMessageCount(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, session.ID, session.Status, session.MessageCount); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	s.dropNgWords(ctx, session.ID)

	log.Info().
		Str("session_id", session.ID).
		Int64("user_id", session.UserID).
		Str("hit_word", hit.Value()).
		Msg("Game over")

	return &ChatResult{
		Reply:          shock,
		HitWord:        hit.Value(),
		RemainingChats: 0,
		IsGameOver:     true,
	}, nil
}

// ActiveSession returns the user's active session for the current UTC day.
func (s *GameSessionService) ActiveSession(ctx context.Context, userID int64) (*model.GameSession, error) {
	sessions, err := s.repo.FindTodayByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find today's sessions: %w", err)
	}
	for _, session := range sessions {
		if session.Status == model.StatusActive {
			return session, nil
		}
	}
	return nil, model.NewSessionNotFoundError(fmt.Sprintf("user:%d", userID))
}

// loadNgWords returns the session's taboo set from the cache, regenerating
// it on a miss. When regeneration fails the words stored on the session are
// used, which may be empty.
func (s *GameSessionService) loadNgWords(ctx context.Context, session *model.GameSession, locale model.Locale, source string) []model.NgWord {
	words, found, err := s.cache.Get(ctx, session.ID)
	if err != nil {
		log.Warn().Err(err).Str("session_id", session.ID).Msg("ng-word cache read failed")
	} else if found {
		return words
	}

	words, err = s.generateNgWords(ctx, session, locale, source)
	if err != nil {
		log.Warn().
			Err(err).
			Str("session_id", session.ID).
			Str("source", source).
			Int("fallback_count", len(session.NgWords)).
			Msg("ng-word regeneration failed, using stored words")
		return session.NgWords
	}
	return words
}

func (s *GameSessionService) generateNgWords(ctx context.Context, session *model.GameSession, locale model.Locale, source string) ([]model.NgWord, error) {
	ctx, span := tracer.Start(ctx, "GameSessionService.generateNgWords", trace.WithAttributes(
		attribute.String("session.id", session.ID),
		attribute.String("ngword.source", source),
	))
	defer span.End()

	raw, err := s.ai.GenerateNgWords(ctx, session.ID, session.CharacterType, locale)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("failed to generate ng words: %w", err)
	}
	words, err := model.NewNgWords(raw)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("invalid ng words: %w", err)
	}

	if err := s.cache.Set(ctx, session.ID, words); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID).Msg("ng-word cache write failed")
	}
	if err := s.repo.UpdateNgWords(ctx, session.ID, words); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID).Msg("ng-word store failed")
	}
	session.ReplaceNgWords(words)

	span.SetAttributes(attribute.Int("ngword.count", len(words)))
	log.Info().
		Str("session_id", session.ID).
		Int("count", len(words)).
		Str("source", source).
		Msg("ng-word generated")
	return words, nil
}

// generateInBackground fills the taboo set of a new session without
// holding up the greeting. The work is not cancelled with ctx.
func (s *GameSessionService) generateInBackground(ctx context.Context, session *model.GameSession, locale model.Locale) *BackgroundTask {
	task := &BackgroundTask{done: make(chan struct{})}
	bgCtx := context.WithoutCancel(ctx)
	snapshot := *session

	go func() {
		defer close(task.done)
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("session_id", snapshot.ID).Msg("Panic in ng-word generation")
			}
		}()

		if _, err := s.generateNgWords(bgCtx, &snapshot, locale, ngWordSourceStart); err != nil {
			log.Warn().Err(err).Str("session_id", snapshot.ID).Msg("Background ng-word generation failed")
		}
	}()

	return task
}

func (s *GameSessionService) dropNgWords(ctx context.Context, sessionID string) {
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("ng-word cache delete failed")
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
