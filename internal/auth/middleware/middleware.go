package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/classhub/classhub-lms/internal/rbac"
)

type AuthService struct{ hmac []byte }

func NewAuthService(secret string) *AuthService { return &AuthService{hmac: []byte(secret)} }

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"` // "student", "teacher" or "admin"
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:  sub,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "classhub",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(8 * time.Hour)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	c, _ := token.Claims.(*Claims)
	return c, nil
}

// AdminCreds is the break-glass admin account from config; PassHash is bcrypt.
type AdminCreds struct {
	User     string
	PassHash string
}

// POST /auth/login  { "username": "...", "password": "..." }
// Credentials are checked against the users table; the config admin account
// works even on an empty database.
func LoginHandler(a *AuthService, db *sql.DB, admin AdminCreds) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Username == "" || req.Password == "" {
			http.Error(w, "username and password required", http.StatusBadRequest)
			return
		}

		sub, role, ok := checkUser(r.Context(), db, req.Username, req.Password)
		if !ok && admin.User != "" && req.Username == admin.User && admin.PassHash != "" {
			if bcrypt.CompareHashAndPassword([]byte(admin.PassHash), []byte(req.Password)) == nil {
				sub, role, ok = admin.User, "admin", true
			}
		}
		if !ok {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		tok, err := a.IssueJWT(sub, role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": tok, "role": role})
	}
}

func checkUser(ctx context.Context, db *sql.DB, username, password string) (sub, role string, ok bool) {
	var id, hash string
	err := db.QueryRowContext(ctx,
		`SELECT id, pass_hash, role FROM users WHERE username=$1`, username).Scan(&id, &hash, &role)
	if err != nil {
		return "", "", false
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", "", false
	}
	return id, role, true
}

// JWTMiddleware validates the bearer token and stashes subject and role in
// the request context for RBAC checks downstream.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			claims, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := WithSubject(r.Context(), claims.Sub)
			ctx = rbac.WithRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ---- subject in context ----

type ctxKey string

const ctxKeySub ctxKey = "sub"

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

func SubjectFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeySub); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
