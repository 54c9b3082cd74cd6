package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken はJWTの検証に失敗したことを表します。
var ErrInvalidToken = errors.New("invalid token")

type UserIDKey struct{}

// GetUserIDFromContext retrieves the user ID from the context.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey{}).(string)
	return userID, ok
}

// WithUserID はユーザーIDを設定したコンテキストを返します。
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey{}, userID)
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Authenticator はJWTの検証設定です。HTTPミドルウェアとWebSocketの認証メッセージの両方で使います。
type Authenticator struct {
	Secret string // HMAC の署名鍵
	Bypass bool   // true の場合は検証せず、トークン文字列そのものをユーザーIDとして扱う
}

// ParseUserID は "Bearer " の有無を問わずトークンを検証し、sub クレームのユーザーIDを返します。
// Bypass が有効な場合は検証せず、トークンが空なら新しいUUIDを割り当てます。
//
// Parameters:
//   token : JWT 文字列
// Returns:
//   string: ユーザーID
//   error : 検証に失敗した場合は ErrInvalidToken をラップしたエラー
func (a *Authenticator) ParseUserID(token string) (string, error) {
	tokenString := strings.TrimPrefix(token, "Bearer ")
	if a.Bypass {
		if tokenString == "" {
			return uuid.New().String(), nil
		}
		return tokenString, nil
	}
	if a.Secret == "" {
		return "", fmt.Errorf("%w: JWT secret is not configured", ErrInvalidToken)
	}

	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// アルゴリズムがHMACであることを確認
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.Secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: invalid claims", ErrInvalidToken)
	}
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("%w: missing user ID", ErrInvalidToken)
	}
	return userID, nil
}

// Middleware is a middleware function that checks for a valid JWT token.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.Bypass {
			testUserID, _ := a.ParseUserID(r.Header.Get("Authorization"))
			log.Printf("AuthMiddleware: BYPASS_AUTH enabled, using test user ID: %s", testUserID)
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), testUserID)))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") || len(authHeader) == len("Bearer ") {
			writeJSONError(w, http.StatusUnauthorized, "Invalid Authorization header format. Must be 'Bearer <token>'")
			return
		}

		userID, err := a.ParseUserID(authHeader)
		if err != nil {
			log.Printf("AuthMiddleware Error: %v", err)
			writeJSONError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}
