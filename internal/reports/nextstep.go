package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/moneyreport/internal/eligibility"
)

// NextStepStore keeps next-step advisories keyed by report.
type NextStepStore interface {
	Get(ctx context.Context, reportID string) (*NextStep, error)
	Set(ctx context.Context, reportID string, step NextStep) error
	Delete(ctx context.Context, reportID string) error
}

// RedisNextSteps stores advisories as JSON strings.
type RedisNextSteps struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisNextSteps constructs the store. A zero ttl keeps entries forever.
func NewRedisNextSteps(client *redis.Client, ttl time.Duration) *RedisNextSteps {
	return &RedisNextSteps{client: client, ttl: ttl}
}

func nextStepKey(reportID string) string {
	return "next_step:" + reportID
}

// Get returns nil when no advisory is stored.
func (s *RedisNextSteps) Get(ctx context.Context, reportID string) (*NextStep, error) {
	if s == nil || s.client == nil {
		return nil, nil
	}
	payload, err := s.client.Get(ctx, nextStepKey(reportID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("reports: get next step: %w", err)
	}
	var step NextStep
	if err := json.Unmarshal(payload, &step); err != nil {
		return nil, fmt.Errorf("reports: decode next step: %w", err)
	}
	return &step, nil
}

func (s *RedisNextSteps) Set(ctx context.Context, reportID string, step NextStep) error {
	raw, err := json.Marshal(step)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, nextStepKey(reportID), raw, s.ttl).Err()
}

func (s *RedisNextSteps) Delete(ctx context.Context, reportID string) error {
	return s.client.Del(ctx, nextStepKey(reportID)).Err()
}

// BuildNextStep derives the advisory for a report. It returns nil once
// nothing is left to do.
func BuildNextStep(report eligibility.Report, policy eligibility.Policy, now time.Time) *NextStep {
	if !report.IsMoneyRequest() || report.IsSettled() {
		return nil
	}
	var msg string
	switch {
	case report.IsDraft():
		msg = "Waiting for you to submit expenses."
	case policy.Type.IsGroup() && !report.IsApproved():
		msg = "Waiting for an approver to approve expenses."
	case report.IsWaitingOnBankAccount:
		msg = "Waiting for a bank account to be added."
	default:
		msg = "Waiting for an admin to pay expenses."
	}
	return &NextStep{Message: msg, UpdatedAt: now.UTC()}
}
