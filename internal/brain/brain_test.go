package brain

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	calls        int
	completeFunc func(ctx context.Context, system, user string) (string, error)
}

func (m *mockProvider) Complete(ctx context.Context, system, user string) (string, error) {
	m.calls++
	return m.completeFunc(ctx, system, user)
}

func newTestResponder(p Provider) *Responder {
	return &Responder{
		provider:    p,
		timeout:     time.Second,
		maxAttempts: 2,
		logger:      slog.New(slog.DiscardHandler),
		sleep:       func(time.Duration) {},
	}
}

func okCtx() Context {
	return Context{
		PetName:      "Testagatchi",
		Mood:         "content",
		Stats:        map[string]float64{"hunger": 50, "hygiene": 50, "mood": 50, "energy": 50, "health": 100},
		LastUserText: "hello",
		TimeOfDay:    "day",
	}
}

func TestGetReplyHappyPath(t *testing.T) {
	p := &mockProvider{completeFunc: func(ctx context.Context, system, user string) (string, error) {
		return `{"say": "hello owner!", "action": "WAVE"}`, nil
	}}
	r := newTestResponder(p)

	reply := r.GetReply(context.Background(), okCtx())
	assert.Equal(t, "hello owner!", reply.Say)
	assert.Equal(t, ActionWave, reply.Action)
	assert.Equal(t, 1, p.calls)
}

func TestGetReplyNilProviderUsesFallback(t *testing.T) {
	r := newTestResponder(nil)

	reply := r.GetReply(context.Background(), okCtx())
	assert.True(t, reply.Action.Valid())
	assert.NotEmpty(t, reply.Say)
}

func TestGetReplyRetriesThenFallsBack(t *testing.T) {
	p := &mockProvider{completeFunc: func(ctx context.Context, system, user string) (string, error) {
		return "not json at all", nil
	}}
	r := newTestResponder(p)

	var slept []time.Duration
	r.sleep = func(d time.Duration) { slept = append(slept, d) }

	reply := r.GetReply(context.Background(), okCtx())
	assert.Equal(t, 2, p.calls, "exactly two attempts before giving up")
	assert.Equal(t, []time.Duration{backoffBase}, slept)
	assert.True(t, reply.Action.Valid())
	assert.NotEmpty(t, reply.Say)
}

func TestGetReplyProviderErrorFallsBack(t *testing.T) {
	p := &mockProvider{completeFunc: func(ctx context.Context, system, user string) (string, error) {
		return "", errors.New("connection refused")
	}}
	r := newTestResponder(p)

	reply := r.GetReply(context.Background(), okCtx())
	assert.Equal(t, 2, p.calls)
	assert.True(t, reply.Action.Valid())
}

func TestGetReplyRecoversOnSecondAttempt(t *testing.T) {
	p := &mockProvider{}
	p.completeFunc = func(ctx context.Context, system, user string) (string, error) {
		if p.calls == 1 {
			return "", errors.New("flaky")
		}
		return `{"say": "back!", "action": "SMILE"}`, nil
	}
	r := newTestResponder(p)

	reply := r.GetReply(context.Background(), okCtx())
	assert.Equal(t, 2, p.calls)
	assert.Equal(t, "back!", reply.Say)
}

func TestGetReplyInvalidActionRetries(t *testing.T) {
	// An action outside the set is a schema failure, not something to
	// silently coerce.
	p := &mockProvider{completeFunc: func(ctx context.Context, system, user string) (string, error) {
		return `{"say": "boom", "action": "EXPLODE"}`, nil
	}}
	r := newTestResponder(p)

	reply := r.GetReply(context.Background(), okCtx())
	assert.Equal(t, 2, p.calls)
	assert.NotEqual(t, "boom", reply.Say)
}

func TestGetReplyRateLimited(t *testing.T) {
	p := &mockProvider{completeFunc: func(ctx context.Context, system, user string) (string, error) {
		return `{"say": "hi", "action": "SMILE"}`, nil
	}}
	r := newTestResponder(p)
	r.rateMax = 2
	r.rateDur = time.Minute

	ctx := context.Background()
	r.GetReply(ctx, okCtx())
	r.GetReply(ctx, okCtx())
	require.Equal(t, 2, p.calls)

	// Third call inside the window never reaches the provider.
	reply := r.GetReply(ctx, okCtx())
	assert.Equal(t, 2, p.calls)
	assert.True(t, reply.Action.Valid())
}

func TestGetReplyPassesContextInPrompt(t *testing.T) {
	var gotSystem, gotUser string
	p := &mockProvider{completeFunc: func(ctx context.Context, system, user string) (string, error) {
		gotSystem, gotUser = system, user
		return `{"say": "ok", "action": "SMILE"}`, nil
	}}
	r := newTestResponder(p)

	gc := okCtx()
	gc.LastUserText = "are you hungry?"
	r.GetReply(context.Background(), gc)

	assert.Contains(t, gotSystem, "Testagatchi")
	assert.Contains(t, gotSystem, string(ActionThanks))
	assert.Contains(t, gotUser, "are you hungry?")
	assert.Contains(t, gotUser, "time_of_day")
}

func TestNewWithoutKeysIsFallbackOnly(t *testing.T) {
	r := New(context.Background(), Config{}, slog.New(slog.DiscardHandler))
	require.NotNil(t, r)
	assert.Nil(t, r.provider)
	assert.Equal(t, 2, r.maxAttempts)

	reply := r.GetReply(context.Background(), okCtx())
	assert.True(t, reply.Action.Valid())
}
