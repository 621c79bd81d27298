package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"roomchat/internal/config"
	"roomchat/internal/web"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

const minPasswordLen = 6

type Service struct {
	cfg    config.Config
	users  UserStore
	tokens *TokenManager
	log    *slog.Logger
}

func NewService(cfg config.Config, users UserStore, tokens *TokenManager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cfg: cfg, users: users, tokens: tokens, log: logger.With("component", "auth")}
}

func (s *Service) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/register", s.Register)
	r.Post("/login", s.Login)
	r.Post("/logout", s.Logout)
	return r
}

// Verify lets the chat admission controller check a cookie credential.
func (s *Service) Verify(token string) (string, error) {
	return s.tokens.Verify(token)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Service) Register(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := web.DecodeJSON(r, &in); err != nil {
		http.Error(w, "bad input", http.StatusBadRequest)
		return
	}
	in.Username = strings.TrimSpace(in.Username)
	if !usernameRe.MatchString(in.Username) || len(in.Password) < minPasswordLen {
		http.Error(w, "username must be 3-32 of [A-Za-z0-9_.-], password at least 6 chars", http.StatusBadRequest)
		return
	}
	u, err := s.createUser(r.Context(), in.Username, in.Password)
	if errors.Is(err, ErrUserExists) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		s.log.Error("register", "username", in.Username, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !s.startSession(w, u.Username) {
		return
	}
	s.log.Info("user registered", "username", u.Username)
	web.JSON(w, http.StatusCreated, map[string]any{"user": u})
}

func (s *Service) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := web.DecodeJSON(r, &in); err != nil {
		http.Error(w, "bad input", http.StatusBadRequest)
		return
	}
	u, err := s.authenticate(r.Context(), strings.TrimSpace(in.Username), in.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if err != nil {
		s.log.Error("login", "username", in.Username, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !s.startSession(w, u.Username) {
		return
	}
	s.log.Info("user logged in", "username", u.Username)
	web.JSON(w, http.StatusOK, map[string]any{"user": u})
}

func (s *Service) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	web.JSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Service) Me(w http.ResponseWriter, r *http.Request) {
	web.JSON(w, http.StatusOK, map[string]any{"username": Username(r)})
}

// EnsureUser creates username unless it already exists.
func (s *Service) EnsureUser(ctx context.Context, username, password string) error {
	_, err := s.createUser(ctx, username, password)
	if errors.Is(err, ErrUserExists) {
		return nil
	}
	return err
}

func (s *Service) createUser(ctx context.Context, username, password string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.users.Create(ctx, username, string(hash))
}

func (s *Service) authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PassHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) startSession(w http.ResponseWriter, username string) bool {
	tok, err := s.tokens.Issue(username)
	if err != nil {
		s.log.Error("issue token", "username", username, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(s.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return true
}

// Middleware accepts the credential from the auth cookie or a bearer
// header and stores the username on the request context.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := ""
		if ck, err := r.Cookie(s.cfg.CookieName); err == nil {
			raw = ck.Value
		} else if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			raw = strings.TrimPrefix(h, "Bearer ")
		}
		if raw == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		username, err := s.tokens.Verify(raw)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUsername, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type ctxKey int

const ctxKeyUsername ctxKey = 1

func Username(r *http.Request) string {
	v, _ := r.Context().Value(ctxKeyUsername).(string)
	return v
}
