package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies the bearer token attached to backend requests. An
// empty token means the request goes out without an Authorization header.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function into a TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// Token calls the underlying function.
func (fn TokenFunc) Token(ctx context.Context) (string, error) {
	return fn(ctx)
}

// StaticToken always returns the same token.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) {
	return strings.TrimSpace(string(s)), nil
}

// FileToken re-reads the token from disk on every call so a session refresh
// written by another process is picked up without a restart.
type FileToken struct {
	Path string
}

// Token implements TokenSource.
func (f FileToken) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(f.Path) == "" {
		return "", errors.New("auth: token file path is required")
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("auth: read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Claims carried by tokens minted with SignedToken.
type Claims struct {
	Tenant string `json:"tenant,omitempty"`
	jwt.RegisteredClaims
}

// SignedToken mints short-lived HS256 tokens and caches each one until shortly
// before it expires.
type SignedToken struct {
	Secret  []byte
	Subject string
	Tenant  string
	Issuer  string
	TTL     time.Duration

	now    func() time.Time
	mu     sync.Mutex
	cached string
	expiry time.Time
}

// DefaultTokenTTL applies when SignedToken.TTL is zero.
const DefaultTokenTTL = 15 * time.Minute

// refreshSkew renews a cached token this long before it expires.
const refreshSkew = 30 * time.Second

// NewSignedToken constructs a SignedToken.
func NewSignedToken(secret []byte, subject, tenant string, ttl time.Duration) *SignedToken {
	return &SignedToken{
		Secret:  secret,
		Subject: subject,
		Tenant:  tenant,
		Issuer:  "crudform",
		TTL:     ttl,
	}
}

// Token implements TokenSource.
func (s *SignedToken) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(s.Secret) == 0 {
		return "", errors.New("auth: signing secret is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if s.cached != "" && now.Add(refreshSkew).Before(s.expiry) {
		return s.cached, nil
	}

	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	expiry := now.Add(ttl)
	claims := Claims{
		Tenant: s.Tenant,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.Subject,
			Issuer:    s.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	s.cached = signed
	s.expiry = expiry
	return signed, nil
}

func (s *SignedToken) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// ParseSigned validates a token minted by SignedToken and returns its claims.
func ParseSigned(token string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("auth: token is invalid")
	}
	return claims, nil
}

// Mode names a token source strategy in configuration.
type Mode string

const (
	ModeNone   Mode = "none"
	ModeStatic Mode = "static"
	ModeFile   Mode = "file"
	ModeJWT    Mode = "jwt"
)

// Settings describes a token source in configuration terms.
type Settings struct {
	Mode      Mode
	Token     string
	TokenFile string
	Secret    string
	Subject   string
	Tenant    string
	TTL       time.Duration
}

// FromSettings builds the TokenSource for the configured mode. ModeNone
// returns nil.
func FromSettings(s Settings) (TokenSource, error) {
	switch s.Mode {
	case "", ModeNone:
		return nil, nil
	case ModeStatic:
		if strings.TrimSpace(s.Token) == "" {
			return nil, errors.New("auth: static mode requires a token")
		}
		return StaticToken(s.Token), nil
	case ModeFile:
		if strings.TrimSpace(s.TokenFile) == "" {
			return nil, errors.New("auth: file mode requires tokenFile")
		}
		return FileToken{Path: s.TokenFile}, nil
	case ModeJWT:
		if strings.TrimSpace(s.Secret) == "" {
			return nil, errors.New("auth: jwt mode requires a secret")
		}
		return NewSignedToken([]byte(s.Secret), s.Subject, s.Tenant, s.TTL), nil
	default:
		return nil, fmt.Errorf("auth: unknown mode %q", s.Mode)
	}
}
