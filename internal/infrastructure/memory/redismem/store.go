package redismem

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "docscout:session:"
	maxStored = 20
	maxRecent = 8
)

// SessionStore keeps a short recency list of query keywords per session so
// follow-up questions can be biased toward the ongoing topic. Entries expire
// with the session TTL; losing them only loses the bias.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func New(addr, password string, db int, ttl time.Duration) *SessionStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Close() error {
	return s.client.Close()
}

func (s *SessionStore) RememberKeywords(ctx context.Context, corpusID, sessionID string, keywords []string) error {
	if sessionID == "" || len(keywords) == 0 {
		return nil
	}

	values := make([]any, 0, len(keywords))
	for _, kw := range keywords {
		values = append(values, kw)
	}

	key := sessionKey(corpusID, sessionID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, values...)
	pipe.LTrim(ctx, key, 0, maxStored-1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remember keywords: %w", err)
	}
	return nil
}

func (s *SessionStore) RecentKeywords(ctx context.Context, corpusID, sessionID string) ([]string, error) {
	if sessionID == "" {
		return nil, nil
	}

	raw, err := s.client.LRange(ctx, sessionKey(corpusID, sessionID), 0, maxStored-1).Result()
	if err != nil {
		return nil, fmt.Errorf("recent keywords: %w", err)
	}
	return dedupeRecent(raw, maxRecent), nil
}

func sessionKey(corpusID, sessionID string) string {
	return keyPrefix + corpusID + ":" + sessionID
}

// dedupeRecent keeps the most recent occurrence of each keyword,
// preserving recency order.
func dedupeRecent(raw []string, max int) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, max)
	for _, kw := range raw {
		normalized := strings.ToLower(strings.TrimSpace(kw))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, kw)
		if len(out) >= max {
			break
		}
	}
	return out
}
