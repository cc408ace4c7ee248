package pet

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/moorebrett0/termagatchi/internal/brain"
	"github.com/moorebrett0/termagatchi/internal/items"
)

var (
	// ErrInvalidState rejects actions the sleeping pet can't do.
	ErrInvalidState = errors.New("pet is sleeping")

	// ErrNotNeeded rejects healing when health isn't low.
	ErrNotNeeded = errors.New("no healing needed")
)

// CooldownError rejects an item that was used too recently.
type CooldownError struct {
	ItemID    string
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("item %q on cooldown for %s", e.ItemID, e.Remaining.Round(time.Second))
}

const (
	// maxCatchUpMinutes caps offline catch-up at a day's worth of decay.
	maxCatchUpMinutes = 24 * 60

	// wakeEnergyThreshold auto-wakes a sleeping pet.
	wakeEnergyThreshold = 95.0

	// healNeededBelow gates the heal command.
	healNeededBelow = 50.0

	// chatContextEvents is how much history a chat turn sees.
	chatContextEvents = 6
)

// Default item per command when none is named.
var defaultItem = map[items.Category]string{
	items.CategoryFood:  "kibble",
	items.CategoryClean: "soap",
	items.CategoryPlay:  "ball",
}

// Care items the heal/vet commands consume.
const (
	healItemID = "medicine"
	vetItemID  = "vet_visit"
)

// Engine owns the live pet state: stats, per-item cooldown timestamps,
// and the event log. All mutation passes through it, serialized by a
// mutex so ticks, commands, and chat effects never interleave.
type Engine struct {
	mu      sync.Mutex
	catalog *items.Catalog
	logger  *slog.Logger

	stats     Stats
	lastUsed  map[string]time.Time
	events    *EventLog
	lastTick  time.Time
	createdAt time.Time
	playTime  time.Duration

	rng *rand.Rand
	now func() time.Time
}

// NewEngine creates an engine with a fresh pet.
func NewEngine(catalog *items.Catalog, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now()
	return &Engine{
		catalog:   catalog,
		logger:    logger,
		stats:     DefaultStats(),
		lastUsed:  make(map[string]time.Time),
		events:    NewEventLog(DefaultEventCapacity),
		lastTick:  now,
		createdAt: now,
		rng:       rand.New(rand.NewSource(now.UnixNano())),
		now:       time.Now,
	}
}

// Snapshot is a read-only copy of engine state for use outside the
// lock: status display and persistence both consume it.
type Snapshot struct {
	Stats         Stats
	Mood          string
	ItemCooldowns map[string]time.Time
	Events        []Event
	LastTick      time.Time
	CreatedAt     time.Time
	PlayTime      time.Duration
}

// Snapshot copies the live state under the lock. Persistence writes
// the copy, never the live state, so disk I/O happens outside the lock.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	cooldowns := make(map[string]time.Time, len(e.lastUsed))
	for id, t := range e.lastUsed {
		cooldowns[id] = t
	}

	return Snapshot{
		Stats:         e.stats,
		Mood:          DetermineMood(e.stats),
		ItemCooldowns: cooldowns,
		Events:        e.events.All(),
		LastTick:      e.lastTick,
		CreatedAt:     e.createdAt,
		PlayTime:      e.playTime,
	}
}

// Restore seeds the engine from a loaded snapshot. Stats are clamped
// and zero timestamps replaced, since disk data is not trusted.
func (e *Engine) Restore(snap Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap.Stats.Clamp()
	e.stats = snap.Stats

	e.lastUsed = make(map[string]time.Time, len(snap.ItemCooldowns))
	for id, t := range snap.ItemCooldowns {
		e.lastUsed[id] = t
	}

	e.events = NewEventLog(DefaultEventCapacity)
	for _, ev := range snap.Events {
		e.events.Append(ev)
	}

	now := e.now()
	e.lastTick = snap.LastTick
	if e.lastTick.IsZero() {
		e.lastTick = now
	}
	e.createdAt = snap.CreatedAt
	if e.createdAt.IsZero() {
		e.createdAt = now
	}
	e.playTime = snap.PlayTime
}

// Reset discards the pet and starts over with defaults.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.stats = DefaultStats()
	e.lastUsed = make(map[string]time.Time)
	e.events = NewEventLog(DefaultEventCapacity)
	e.lastTick = now
	e.createdAt = now
	e.playTime = 0
	e.events.Append(Event{TS: now, Kind: EventSystem, Meta: "a new pet hatched"})
}

// Feed uses a food item (default kibble).
func (e *Engine) Feed(itemID string) (brain.Action, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.useItem(items.CategoryFood, itemID, EventFeed, brain.ActionEat)
}

// Clean uses a cleaning item (default soap).
func (e *Engine) Clean(itemID string) (brain.Action, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.useItem(items.CategoryClean, itemID, EventClean, brain.ActionClean)
}

// Play uses a toy (default ball). Not allowed while sleeping.
func (e *Engine) Play(itemID string) (brain.Action, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stats.Sleeping {
		return "", ErrInvalidState
	}
	return e.useItem(items.CategoryPlay, itemID, EventPlay, brain.ActionPlay)
}

// useItem validates, applies, and records an item use. Caller holds the lock.
func (e *Engine) useItem(cat items.Category, itemID string, kind EventKind, action brain.Action) (brain.Action, error) {
	if itemID == "" {
		itemID = defaultItem[cat]
	}

	item, err := e.catalog.Get(itemID)
	if err != nil {
		return "", err
	}
	if item.Category != cat {
		return "", &items.UnknownItemError{ID: itemID}
	}

	now := e.now()
	if last, used := e.lastUsed[itemID]; used {
		if remaining := item.Cooldown() - now.Sub(last); remaining > 0 {
			return "", &CooldownError{ItemID: itemID, Remaining: remaining}
		}
	}

	e.stats.Apply(item.Effects)
	e.lastUsed[itemID] = now
	e.events.Append(Event{TS: now, Kind: kind, Meta: itemMeta(kind, item)})
	e.logger.Debug("engine: used item", "item", itemID, "kind", string(kind))
	return action, nil
}

func itemMeta(kind EventKind, item items.Item) string {
	switch kind {
	case EventFeed:
		return "fed " + item.Name
	case EventClean:
		return "washed with " + item.Name
	case EventPlay:
		return "played with " + item.Name
	case EventHeal:
		return "took " + item.Name
	case EventVet:
		return "went to the vet"
	}
	return "used " + item.Name
}

// Sleep puts the pet to sleep or wakes it.
func (e *Engine) Sleep(on bool) (brain.Action, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.stats.Sleeping = on
	if on {
		e.events.Append(Event{TS: now, Kind: EventSleep, Meta: "went to sleep"})
		return brain.ActionSleeping, nil
	}
	e.events.Append(Event{TS: now, Kind: EventWake, Meta: "woke up"})
	return brain.ActionWave, nil
}

// Pet gives the pet some attention: affection and a small mood boost.
func (e *Engine) Pet() (brain.Action, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.ApplyDelta(StatAffection, 5)
	e.stats.ApplyDelta(StatMood, 3)
	e.events.Append(Event{TS: e.now(), Kind: EventSystem, Meta: "was petted"})
	return brain.ActionHeart, nil
}

// Heal gives medicine, but only when health is actually low.
func (e *Engine) Heal() (brain.Action, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stats.Health >= healNeededBelow {
		return "", ErrNotNeeded
	}
	return e.useItem(items.CategoryCare, healItemID, EventHeal, brain.ActionHeal)
}

// Vet is a large deterministic heal with a long cooldown.
func (e *Engine) Vet() (brain.Action, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.useItem(items.CategoryCare, vetItemID, EventVet, brain.ActionHeal)
}

// Tick reconciles elapsed wall-clock time since the last tick,
// applying one minute of decay per whole elapsed minute. Catch-up is
// capped at 24 hours and summarized as a single DECAY event. Returns
// the number of minutes applied.
func (e *Engine) Tick(now time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if now.Before(e.lastTick) {
		// Clock went backwards; resync and carry on.
		e.lastTick = now
		return 0
	}

	minutes := int(now.Sub(e.lastTick) / time.Minute)
	if minutes == 0 {
		return 0
	}

	capped := minutes > maxCatchUpMinutes
	if capped {
		minutes = maxCatchUpMinutes
	}

	sickCount := 0
	woke := false
	for i := 0; i < minutes; i++ {
		if e.stats.DecayTick(e.rng.Float64) {
			sickCount++
		}
		if e.stats.Sleeping && e.stats.Energy >= wakeEnergyThreshold {
			e.stats.Sleeping = false
			woke = true
		}
	}

	if capped {
		e.lastTick = now
	} else {
		e.lastTick = e.lastTick.Add(time.Duration(minutes) * time.Minute)
	}
	e.playTime += time.Duration(minutes) * time.Minute

	e.events.Append(Event{TS: now, Kind: EventDecay, Meta: fmt.Sprintf("time passes (%d min)", minutes)})
	if sickCount > 0 {
		e.events.Append(Event{TS: now, Kind: EventSystem, Meta: "got sick from neglect"})
		e.logger.Warn("engine: pet got sick", "times", sickCount, "health", e.stats.Health)
	}
	if woke {
		e.events.Append(Event{TS: now, Kind: EventWake, Meta: "woke up fully rested"})
	}
	return minutes
}

// RecordChat appends the CHAT event for a completed chat turn. The
// responder itself is side-effect-free; this is the caller's half.
func (e *Engine) RecordChat(userText, petSay string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events.Append(Event{
		TS:   e.now(),
		Kind: EventChat,
		Meta: fmt.Sprintf("owner: %s | pet: %s", userText, petSay),
	})
}

// ChatContext builds the compact context bundle for one chat turn.
func (e *Engine) ChatContext(userText string, now time.Time) brain.Context {
	e.mu.Lock()
	defer e.mu.Unlock()

	recent := e.events.Recent(chatContextEvents)
	lines := make([]string, len(recent))
	for i, ev := range recent {
		lines[i] = ev.String()
	}

	return brain.Context{
		Mood:         DetermineMood(e.stats),
		Stats:        e.stats.ContextMap(),
		Sleeping:     e.stats.Sleeping,
		RecentEvents: lines,
		LastUserText: userText,
		TimeOfDay:    brain.TimeOfDay(now),
	}
}
