package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/pribylovaa/articles-cms/internal/cmsclient"
	"github.com/pribylovaa/articles-cms/internal/models"
	"github.com/pribylovaa/articles-cms/internal/notify"
	"github.com/pribylovaa/articles-cms/internal/pkg/log"
	"github.com/pribylovaa/articles-cms/internal/pkg/redact"
	"github.com/pribylovaa/articles-cms/internal/validation"
)

const (
	OpSignIn = "sign_in"
	OpSignUp = "sign_up"
	OpGetMe  = "get_me"
)

// AuthPhase — состояние сессии.
type AuthPhase string

const (
	AuthAnonymous      AuthPhase = "anonymous"
	AuthAuthenticating AuthPhase = "authenticating"
	AuthAuthenticated  AuthPhase = "authenticated"
)

const (
	msgLoginSuccess    = "Login successful!"
	msgRegisterSuccess = "Registration successful!"
	msgRegisterFailed  = "Failed to register user"
)

// ErrInvalidCredentials — вход не удался; причина наружу не раскрывается.
var ErrInvalidCredentials = errors.New(validation.MsgCredentialsIncorrect)

// AuthState — снапшот Auth-стора.
type AuthState struct {
	Phase           AuthPhase         `json:"phase"`
	IsAuthenticated bool              `json:"is_authenticated"`
	User            *models.User      `json:"user"`
	Loading         bool              `json:"loading"`
	Error           string            `json:"error,omitempty"`
	Ops             map[string]Status `json:"ops"`
}

// Auth — стор сессии: вход, регистрация, профиль, выход.
type Auth struct {
	client   Doer
	session  Sessions
	notifier notify.Notifier
	track    *Tracker

	mu    sync.RWMutex
	phase AuthPhase
	user  *models.User
}

func NewAuth(client Doer, session Sessions, notifier notify.Notifier) *Auth {
	if notifier == nil {
		notifier = notify.Discard{}
	}

	return &Auth{
		client:   client,
		session:  session,
		notifier: notifier,
		track:    NewTracker(),
		phase:    AuthAnonymous,
	}
}

func (s *Auth) Snapshot() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := AuthState{
		Phase:           s.phase,
		IsAuthenticated: s.phase == AuthAuthenticated,
		Loading:         s.track.Loading(),
		Error:           s.track.Error(),
		Ops:             s.track.Ops(),
	}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}

	return st
}

// IsAuthenticated — профиль загружен по действующему токену.
func (s *Auth) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.phase == AuthAuthenticated
}

// SignIn — POST /auth/local, сохранение токена, затем загрузка профиля.
// Любая ошибка после валидации даёт одно общее сообщение и одно уведомление;
// токен при этом не остаётся сохранённым.
func (s *Auth) SignIn(ctx context.Context, c models.Credentials) error {
	const op = "store/Auth.SignIn"

	if err := validation.SignIn(c); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	lg := log.Op(ctx, op).With("identifier", redact.Identifier(c.Identifier))

	s.track.Begin(OpSignIn)
	s.setPhase(AuthAuthenticating)

	var resp models.AuthResponse
	err := s.client.Do(ctx, cmsclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/local",
		Body:   c,
	}, &resp)
	if err == nil && resp.JWT == "" {
		err = cmsclient.ErrMalformedResponse
	}
	if err == nil {
		err = s.session.Set(ctx, resp.JWT)
	}
	if err == nil {
		err = s.loadProfile(ctx)
	}

	if err != nil {
		if clearErr := s.session.Clear(ctx); clearErr != nil {
			lg.Warn("session_clear_failed", "err", clearErr)
		}
		s.reset()

		s.track.End(OpSignIn, validation.MsgCredentialsIncorrect)
		s.notifier.Error(ctx, validation.MsgCredentialsIncorrect)
		lg.Warn("sign_in_failed", "err", err)

		return fmt.Errorf("%s: %w: %w", op, ErrInvalidCredentials, err)
	}

	s.track.End(OpSignIn, "")
	s.notifier.Success(ctx, msgLoginSuccess)
	lg.Info("signed_in")

	return nil
}

// SignUp — POST /auth/local/register. Текст ошибки сервера показывается
// как есть; после успеха вход не выполняется.
func (s *Auth) SignUp(ctx context.Context, r models.Registration) error {
	const op = "store/Auth.SignUp"

	if err := validation.SignUp(r); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.track.Begin(OpSignUp)

	err := s.client.Do(ctx, cmsclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/local/register",
		Body:   r,
	}, nil)
	if err != nil {
		msg := describeServer(msgRegisterFailed, err)
		s.track.End(OpSignUp, msg)
		s.notifier.Error(ctx, msg)
		log.Op(ctx, op).Warn("sign_up_failed", "email", redact.Email(r.Email), "err", err)

		return fmt.Errorf("%s: %w", op, err)
	}

	s.track.End(OpSignUp, "")
	s.notifier.Success(ctx, msgRegisterSuccess)
	log.Op(ctx, op).Info("signed_up", "email", redact.Email(r.Email))

	return nil
}

// GetMe — проба сессии. Без токена ничего не делает; ошибка профиля
// считается недействительным токеном: токен и профиль стираются.
func (s *Auth) GetMe(ctx context.Context) error {
	const op = "store/Auth.GetMe"

	if s.session.Token(ctx) == "" {
		return nil
	}

	s.track.Begin(OpGetMe)
	s.setPhase(AuthAuthenticating)

	if err := s.loadProfile(ctx); err != nil {
		if clearErr := s.ClearAuth(ctx); clearErr != nil {
			log.Op(ctx, op).Warn("session_clear_failed", "err", clearErr)
		}

		s.track.End(OpGetMe, describe("fetch profile", err))
		log.Op(ctx, op).Info("session_probe_failed", "err", err)

		return fmt.Errorf("%s: %w", op, err)
	}

	s.track.End(OpGetMe, "")

	return nil
}

// ClearAuth стирает токен и профиль. Перенаправление UI — забота вызывающего.
func (s *Auth) ClearAuth(ctx context.Context) error {
	const op = "store/Auth.ClearAuth"

	s.reset()

	if err := s.session.Clear(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// loadProfile — GET /users/me с текущим токеном; успех переводит в authenticated.
func (s *Auth) loadProfile(ctx context.Context) error {
	token := s.session.Token(ctx)
	if token == "" {
		return ErrUnauthorized
	}

	var user models.User
	if err := s.client.Do(ctx, cmsclient.Request{
		Method: http.MethodGet,
		Path:   "/users/me",
		Token:  token,
	}, &user); err != nil {
		return err
	}

	s.mu.Lock()
	s.user = &user
	s.phase = AuthAuthenticated
	s.mu.Unlock()

	return nil
}

func (s *Auth) setPhase(p AuthPhase) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = p
}

func (s *Auth) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.phase = AuthAnonymous
}
