package brain

import "strings"

// Action is one of the fixed set of animations the pet can perform.
// Every chat reply carries exactly one.
type Action string

const (
	ActionSmile     Action = "SMILE"
	ActionLaugh     Action = "LAUGH"
	ActionBlush     Action = "BLUSH"
	ActionHeart     Action = "HEART"
	ActionWave      Action = "WAVE"
	ActionWiggle    Action = "WIGGLE"
	ActionJump      Action = "JUMP"
	ActionEat       Action = "EAT"
	ActionClean     Action = "CLEAN"
	ActionPlay      Action = "PLAY"
	ActionNap       Action = "NAP"
	ActionSleeping  Action = "SLEEPING"
	ActionSad       Action = "SAD"
	ActionCry       Action = "CRY"
	ActionSick      Action = "SICK"
	ActionHeal      Action = "HEAL"
	ActionConfused  Action = "CONFUSED"
	ActionThink     Action = "THINK"
	ActionSurprised Action = "SURPRISED"
	ActionThanks    Action = "THANKS"
)

// Actions lists every valid action, in a stable order for prompts.
var Actions = []Action{
	ActionSmile, ActionLaugh, ActionBlush, ActionHeart, ActionWave,
	ActionWiggle, ActionJump, ActionEat, ActionClean, ActionPlay,
	ActionNap, ActionSleeping, ActionSad, ActionCry, ActionSick,
	ActionHeal, ActionConfused, ActionThink, ActionSurprised, ActionThanks,
}

var actionSet = func() map[Action]bool {
	m := make(map[Action]bool, len(Actions))
	for _, a := range Actions {
		m[a] = true
	}
	return m
}()

// ParseAction matches a string against the action set, case-insensitively.
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	return a, actionSet[a]
}

// Valid reports whether a is a member of the action set.
func (a Action) Valid() bool {
	return actionSet[a]
}

// maxSayWords bounds the pet's speech; neutralSay replaces empty speech.
const (
	maxSayWords = 12
	neutralSay  = "hi!"
)

// Reply is the structured response the pet gives to a chat turn:
// a short line of speech plus one action to animate.
type Reply struct {
	Say    string `json:"say"`
	Action Action `json:"action"`
}

// sanitize enforces the reply shape: speech is truncated to the first
// 12 words, empty speech collapses to a neutral phrase, and an action
// outside the set falls back to SMILE. The result always satisfies the
// contract regardless of input.
func (r Reply) sanitize() Reply {
	words := strings.Fields(r.Say)
	if len(words) == 0 {
		r.Say = neutralSay
	} else {
		if len(words) > maxSayWords {
			words = words[:maxSayWords]
		}
		r.Say = strings.Join(words, " ")
	}
	if !r.Action.Valid() {
		r.Action = ActionSmile
	}
	return r
}
