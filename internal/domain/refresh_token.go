package domain

import "time"

// RefreshToken is a registry entry. ExpiresAt is epoch seconds so DynamoDB TTL
// can reap it; reads still check it because TTL deletion is lazy.
type RefreshToken struct {
	Token     string    `dynamodbav:"token"`
	UserID    string    `dynamodbav:"user_id"`
	CreatedAt time.Time `dynamodbav:"created_at"`
	ExpiresAt int64     `dynamodbav:"expires_at"`
}

func (t *RefreshToken) Expired(now time.Time) bool {
	return now.Unix() >= t.ExpiresAt
}
