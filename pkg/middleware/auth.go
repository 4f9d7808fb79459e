package middleware

import (
	"context"
	"fmt"
	"net/http"
	"smartrentals/pkg/logger"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

const (
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

var roleRank = map[string]int{
	RoleStaff: 1,
	RoleAdmin: 2,
}

// StaffTokenExpiry is the lifetime of tokens minted by GenerateStaffToken.
const StaffTokenExpiry = 12 * time.Hour

type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type claimsKey struct{}

func GenerateStaffToken(secret, subject, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: subject,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(StaffTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func ValidateStaffToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey{}).(*Claims)
	return claims
}

// StaffAuth guards administrative routes with HS256 bearer tokens.
// With no secret configured every guarded route answers 401.
type StaffAuth struct {
	secret string
	log    *logger.Logger
}

func NewStaffAuth(secret string, log *logger.Logger) *StaffAuth {
	return &StaffAuth{secret: secret, log: log}
}

// Require wraps h so it only runs for tokens holding at least minimum role.
func (a *StaffAuth) Require(minimum string, h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if a == nil || a.secret == "" {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "staff authentication is not configured")
			return
		}

		tokenStr, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found || tokenStr == "" {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid authorization header")
			return
		}

		claims, err := ValidateStaffToken(a.secret, tokenStr)
		if err != nil {
			a.log.Warn("Rejected staff token", "request_id", requestID(r), "path", r.URL.Path, "error", err)
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
			return
		}

		if roleRank[claims.Role] < roleRank[minimum] {
			writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
			return
		}

		h(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)), ps)
	}
}
