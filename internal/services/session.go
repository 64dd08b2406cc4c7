package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"

	"time"

	"github.com/medibridge/medibridge-backend/internal/database"
)

const (
	// SessionDuration is 7 days.
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for sessions.
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping.
	UserSessionKeyPrefix = "user_session:"
)

// CreateSession creates a new session for an account and stores it in
// Redis as "<role>:<id>". An existing session for the same account is
// invalidated first so the 7-day timer resets from the current login.
func CreateSession(userID, role string) (string, error) {
	InvalidateUserSessions(userID, role)

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	sessionToken := base64.URLEncoding.EncodeToString(tokenBytes)

	ctx := context.Background()
	sessionKey := SessionKeyPrefix + sessionToken
	userSessionKey := UserSessionKeyPrefix + role + ":" + userID

	if err := database.RedisClient.Set(ctx, sessionKey, role+":"+userID, SessionDuration).Err(); err != nil {
		return "", err
	}
	if err := database.RedisClient.Set(ctx, userSessionKey, sessionToken, SessionDuration).Err(); err != nil {
		return "", err
	}

	return sessionToken, nil
}

// ValidateSession checks a session token and returns the account id and
// role ("doctor" or "patient").
func ValidateSession(sessionToken string) (userID, role string, ok bool, err error) {
	if sessionToken == "" {
		return "", "", false, nil
	}

	ctx := context.Background()
	val, err := database.RedisClient.Get(ctx, SessionKeyPrefix+sessionToken).Result()
	if err != nil {
		return "", "", false, nil
	}

	role, userID, found := strings.Cut(val, ":")
	if !found || role == "" || userID == "" {
		return "", "", false, nil
	}
	return userID, role, true, nil
}

// InvalidateSession removes a session from Redis.
func InvalidateSession(sessionToken string) error {
	if sessionToken == "" {
		return nil
	}

	ctx := context.Background()
	sessionKey := SessionKeyPrefix + sessionToken

	val, err := database.RedisClient.Get(ctx, sessionKey).Result()
	if err == nil && val != "" {
		database.RedisClient.Del(ctx, UserSessionKeyPrefix+val)
	}

	return database.RedisClient.Del(ctx, sessionKey).Err()
}

// InvalidateUserSessions invalidates the current session for an account.
func InvalidateUserSessions(userID, role string) error {
	ctx := context.Background()
	userSessionKey := UserSessionKeyPrefix + role + ":" + userID

	sessionToken, err := database.RedisClient.Get(ctx, userSessionKey).Result()
	if err == nil && sessionToken != "" {
		database.RedisClient.Del(ctx, SessionKeyPrefix+sessionToken)
	}

	return database.RedisClient.Del(ctx, userSessionKey).Err()
}
