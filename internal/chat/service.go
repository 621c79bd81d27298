package chat

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// Verifier turns an opaque credential into a username.
type Verifier interface {
	Verify(token string) (string, error)
}

type Options struct {
	CookieName     string
	AllowedOrigins []string
	MaxFrameBytes  int64
	SendBuffer     int
	Logger         *slog.Logger
}

// Service is the admission controller in front of the Engine: it reads the
// credential cookie, verifies it, upgrades the request, and runs the
// connection's pumps.
type Service struct {
	engine   *Engine
	verifier Verifier
	opts     Options
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewService(engine *Engine, verifier Verifier, opts Options) *Service {
	if opts.CookieName == "" {
		opts.CookieName = "token"
	}
	if opts.MaxFrameBytes <= 0 {
		opts.MaxFrameBytes = 4096
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Service{
		engine:   engine,
		verifier: verifier,
		opts:     opts,
		log:      opts.Logger.With("component", "ws"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     newOriginChecker(opts.AllowedOrigins),
	}
	return s
}

// ServeWS admits one connection. Requests without a valid credential are
// refused before the upgrade, so no event ever reaches them.
func (s *Service) ServeWS(w http.ResponseWriter, r *http.Request) {
	username, err := s.authenticate(r)
	if err != nil {
		s.log.Info("connection rejected", "remote", r.RemoteAddr, "err", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.log.Info("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	conn.SetReadLimit(s.opts.MaxFrameBytes)

	c := newClient(conn, username, s.opts.SendBuffer, s.log)
	s.engine.Admit(c)
	go c.writePump()
	go c.readPump(s.engine)
}

func (s *Service) authenticate(r *http.Request) (username string, err error) {
	ck, cerr := r.Cookie(s.opts.CookieName)
	if cerr != nil || ck.Value == "" {
		return "", fmt.Errorf("%w: no credential", ErrAuthRejected)
	}
	defer func() {
		if rec := recover(); rec != nil {
			username, err = "", fmt.Errorf("%w: verifier panic: %v", ErrAuthRejected, rec)
		}
	}()
	username, err = s.verifier.Verify(ck.Value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthRejected, err)
	}
	if username == "" {
		return "", fmt.Errorf("%w: empty identity", ErrAuthRejected)
	}
	return username, nil
}

// newOriginChecker allows requests without an Origin header (non-browser
// clients) and browser requests from the listed origins. "*" allows all.
func newOriginChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	allowAll := false
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
			continue
		}
		if n, ok := normalizeOrigin(o); ok {
			allowed[n] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		n, ok := normalizeOrigin(origin)
		if !ok {
			return false
		}
		_, ok = allowed[n]
		return ok
	}
}

func normalizeOrigin(origin string) (string, bool) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), true
}
