package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env            string
	Port           int
	DatabaseURL    string
	AllowedOrigins []string
	DemoSeed       bool

	// JWT
	JWTPrivatePEM string
	JWTPublicPEM  string
	JWTTTL        time.Duration

	// auth cookie
	CookieName   string
	CookieSecure bool

	// websocket
	MaxFrameBytes int64
	SendBuffer    int
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	v, err := strconv.Atoi(getenv(k, strconv.Itoa(def)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func Load() Config {
	cors := getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	ttl, err := time.ParseDuration(getenv("JWT_TTL", "72h"))
	if err != nil || ttl <= 0 {
		slog.Warn("config: bad JWT_TTL, using 72h", "value", os.Getenv("JWT_TTL"))
		ttl = 72 * time.Hour
	}

	cfg := Config{
		Env:            getenv("APP_ENV", "dev"),
		Port:           getint("APP_PORT", 8000),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		AllowedOrigins: splitList(cors),
		DemoSeed:       getenv("DEMO_SEED", "0") == "1",
		JWTPrivatePEM:  os.Getenv("JWT_PRIVATE_PEM"),
		JWTPublicPEM:   os.Getenv("JWT_PUBLIC_PEM"),
		JWTTTL:         ttl,
		CookieName:     getenv("AUTH_COOKIE_NAME", "token"),
		CookieSecure:   getenv("AUTH_COOKIE_SECURE", "0") == "1",
		MaxFrameBytes:  int64(getint("WS_MAX_FRAME_BYTES", 4096)),
		SendBuffer:     getint("WS_SEND_BUFFER", 256),
	}
	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
