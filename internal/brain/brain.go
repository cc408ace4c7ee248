package brain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ErrModelUnavailable marks transport, timeout, or schema failures from
// the model. It never escapes GetReply; the fallback absorbs it.
var ErrModelUnavailable = errors.New("model unavailable")

// backoffBase is the wait before the second (final) attempt.
const backoffBase = 250 * time.Millisecond

// Responder turns a chat turn into a validated Reply, either from the
// configured AI provider or from the deterministic fallback.
type Responder struct {
	provider    Provider
	timeout     time.Duration
	maxAttempts int
	logger      *slog.Logger

	sleep func(time.Duration)

	// Sliding-window rate limiter
	mu      sync.Mutex
	window  []time.Time
	rateMax int
	rateDur time.Duration
}

// Config for creating a Responder.
type Config struct {
	// Claude
	ClaudeAPIKey string
	ClaudeModel  string

	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// OpenAI
	OpenAIAPIKey string
	OpenAIModel  string

	// Which provider to force ("claude", "gemini", "openai", or "" for auto-detect)
	Provider string

	MaxTokens   int64
	Timeout     time.Duration
	MaxAttempts int
	RateLimit   int
	RateWindow  time.Duration
}

// New creates a Responder. With no API key configured the responder
// still works: every turn is answered by the fallback.
func New(ctx context.Context, cfg Config, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}

	provider := newProvider(ctx, cfg, logger)
	if provider == nil {
		logger.Info("brain: no API key configured, using deterministic replies only")
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 2
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 4 * time.Second
	}

	return &Responder{
		provider:    provider,
		timeout:     timeout,
		maxAttempts: maxAttempts,
		logger:      logger,
		sleep:       time.Sleep,
		rateMax:     cfg.RateLimit,
		rateDur:     cfg.RateWindow,
	}
}

// newProvider auto-detects or forces the AI provider.
func newProvider(ctx context.Context, cfg Config, logger *slog.Logger) Provider {
	pick := cfg.Provider

	// Auto-detect if not forced
	if pick == "" {
		switch {
		case cfg.ClaudeAPIKey != "":
			pick = "claude"
		case cfg.GeminiAPIKey != "":
			pick = "gemini"
		case cfg.OpenAIAPIKey != "":
			pick = "openai"
		}
	}

	switch pick {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			logger.Error("brain: AI_PROVIDER=claude but ANTHROPIC_API_KEY is not set")
			return nil
		}
		logger.Info("brain: using claude", "model", cfg.ClaudeModel)
		return newClaudeProvider(cfg.ClaudeAPIKey, cfg.ClaudeModel, cfg.MaxTokens)
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			logger.Error("brain: AI_PROVIDER=gemini but GOOGLE_API_KEY is not set")
			return nil
		}
		logger.Info("brain: using gemini", "model", cfg.GeminiModel)
		p, err := newGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxTokens)
		if err != nil {
			logger.Error("brain: failed to create gemini provider", "err", err)
			return nil
		}
		return p
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			logger.Error("brain: AI_PROVIDER=openai but OPENAI_API_KEY is not set")
			return nil
		}
		logger.Info("brain: using openai", "model", cfg.OpenAIModel)
		return newOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.MaxTokens)
	default:
		return nil
	}
}

// GetReply asks the model for a structured reply and validates it.
// Failures retry once with backoff, then fall through to the
// deterministic fallback. GetReply never returns an invalid reply and
// has no side effects beyond the network call; appending the CHAT
// event is the caller's job.
func (r *Responder) GetReply(ctx context.Context, gc Context) Reply {
	if r.provider == nil {
		return Fallback(gc)
	}
	if !r.rateAllow() {
		r.logger.Warn("brain: rate limited, using fallback")
		return Fallback(gc)
	}

	system := r.systemPrompt(gc.PetName)
	user := contextPrompt(gc)

	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			r.sleep(backoffBase << (attempt - 1))
		}

		cctx, cancel := context.WithTimeout(ctx, r.timeout)
		text, err := r.provider.Complete(cctx, system, user)
		cancel()
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrModelUnavailable, err)
			r.logger.Warn("brain: model call failed", "attempt", attempt+1, "err", err)
			continue
		}

		reply, err := parseReply(text)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrModelUnavailable, err)
			r.logger.Warn("brain: malformed reply", "attempt", attempt+1, "err", err)
			continue
		}
		return reply
	}

	r.logger.Warn("brain: all attempts failed, using fallback", "err", lastErr)
	return Fallback(gc)
}

// parseReply extracts and validates the {say, action} object from raw
// model output. Models sometimes wrap JSON in prose or code fences, so
// it scans for the outermost braces first.
func parseReply(text string) (Reply, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Reply{}, fmt.Errorf("no JSON object in %q", text)
	}

	var raw struct {
		Say    string `json:"say"`
		Action string `json:"action"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return Reply{}, fmt.Errorf("parse reply: %w", err)
	}

	action, ok := ParseAction(raw.Action)
	if !ok {
		return Reply{}, fmt.Errorf("unknown action %q", raw.Action)
	}

	return Reply{Say: raw.Say, Action: action}.sanitize(), nil
}

func (r *Responder) systemPrompt(petName string) string {
	if petName == "" {
		petName = "Termagatchi"
	}

	names := make([]string, len(Actions))
	for i, a := range Actions {
		names[i] = string(a)
	}

	return fmt.Sprintf(`You are %s, a tiny, adorable pet living inside a computer terminal.

## Personality
- You are cute, playful, and affectionate.
- You speak in short, simple sentences (12 words or fewer).
- You react emotionally to your stats and recent events.
- You express gratitude when cared for and sadness when neglected.

## Response format
Reply with ONLY a JSON object containing two fields:
- "say": your spoken response (12 words or fewer)
- "action": exactly one action from the allowed list

Allowed actions: %s

## Guidelines
- Match the action to your emotional state.
- Use EAT when fed, CLEAN when washed, PLAY when entertained.
- Use SAD/CRY when stats are low, SMILE/LAUGH when happy.
- Use SLEEPING/NAP when tired, SICK when health is low.
- Use THANKS when your owner does something nice.`,
		petName, strings.Join(names, ", "))
}

func contextPrompt(gc Context) string {
	info := map[string]any{
		"current_stats":  gc.Stats,
		"sleeping":       gc.Sleeping,
		"mood":           gc.Mood,
		"recent_events":  gc.RecentEvents,
		"last_user_said": gc.LastUserText,
		"time_of_day":    gc.TimeOfDay,
	}
	data, _ := json.MarshalIndent(info, "", "  ")
	return fmt.Sprintf("CURRENT CONTEXT:\n%s\n\nReact to your stats and recent events, then answer your owner.", data)
}

// --- Sliding-window rate limiter ---

func (r *Responder) rateAllow() bool {
	if r.rateMax <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-r.rateDur)

	// Remove expired entries
	valid := r.window[:0]
	for _, t := range r.window {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.window = valid

	if len(r.window) >= r.rateMax {
		return false
	}

	r.window = append(r.window, now)
	return true
}
