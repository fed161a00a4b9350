package request

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Draft is the money request being composed by an account.
type Draft struct {
	TransactionID string    `json:"transactionID"`
	ReportID      string    `json:"reportID"`
	IOUType       string    `json:"iouType"`
	RequestType   Tab       `json:"requestType"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Store persists per-account flow state.
type Store interface {
	SelectedTab(ctx context.Context, accountID int64) (Tab, error)
	SetSelectedTab(ctx context.Context, accountID int64, tab Tab) error
	Draft(ctx context.Context, accountID int64) (*Draft, error)
	SaveDraft(ctx context.Context, accountID int64, draft Draft) error
	DeleteDraft(ctx context.Context, accountID int64) error
	PruneDrafts(ctx context.Context, now time.Time) (int64, error)
}

const draftIndexKey = "iou_drafts"

// RedisStore keeps flow state in Redis. Drafts expire after ttl.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs the store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func selectedTabKey(accountID int64) string {
	return "selected_tab:iou_request_type:" + strconv.FormatInt(accountID, 10)
}

func draftKey(accountID int64) string {
	return "iou_draft:" + strconv.FormatInt(accountID, 10)
}

// SelectedTab returns DefaultTab when nothing valid is remembered.
func (s *RedisStore) SelectedTab(ctx context.Context, accountID int64) (Tab, error) {
	raw, err := s.client.Get(ctx, selectedTabKey(accountID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return DefaultTab, nil
		}
		return "", fmt.Errorf("request: selected tab: %w", err)
	}
	tab, err := ParseTab(raw)
	if err != nil {
		return DefaultTab, nil
	}
	return tab, nil
}

func (s *RedisStore) SetSelectedTab(ctx context.Context, accountID int64, tab Tab) error {
	return s.client.Set(ctx, selectedTabKey(accountID), string(tab), 0).Err()
}

// Draft returns nil when the account has no draft.
func (s *RedisStore) Draft(ctx context.Context, accountID int64) (*Draft, error) {
	payload, err := s.client.Get(ctx, draftKey(accountID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("request: load draft: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("request: decode draft: %w", err)
	}
	return &d, nil
}

func (s *RedisStore) SaveDraft(ctx context.Context, accountID int64, draft Draft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	expiresAt := draft.CreatedAt.Add(s.ttl)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, draftKey(accountID), raw, s.ttl)
		pipe.ZAdd(ctx, draftIndexKey, redis.Z{Score: float64(expiresAt.Unix()), Member: strconv.FormatInt(accountID, 10)})
		return nil
	})
	return err
}

func (s *RedisStore) DeleteDraft(ctx context.Context, accountID int64) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, draftKey(accountID))
		pipe.ZRem(ctx, draftIndexKey, strconv.FormatInt(accountID, 10))
		return nil
	})
	return err
}

// PruneDrafts drops index entries whose drafts expired before now.
func (s *RedisStore) PruneDrafts(ctx context.Context, now time.Time) (int64, error) {
	return s.client.ZRemRangeByScore(ctx, draftIndexKey, "-inf", strconv.FormatInt(now.Unix(), 10)).Result()
}

// ActiveDrafts counts accounts with a live draft.
func (s *RedisStore) ActiveDrafts(ctx context.Context) (int64, error) {
	return s.client.ZCard(ctx, draftIndexKey).Result()
}
