package brain

// Deterministic fallback replies, used whenever the model is unavailable
// or keeps returning garbage. Priority mirrors the pet's needs: sleep,
// then health, hunger, energy, hygiene, then general wellbeing. The
// result always satisfies the reply contract.

var (
	fallbackSick    = []string{"feel sick...", "not well", "need help", "ouch..."}
	fallbackHunger  = []string{"so hungry...", "need food!", "tummy empty", "feed me?"}
	fallbackEnergy  = []string{"so tired...", "need sleep", "zzz...", "sleepy time"}
	fallbackHygiene = []string{"need wash!", "soap please", "clean me?", "feeling grubby"}
	fallbackHappy   = []string{"feeling great!", "happy pet!", "best day ever!"}
	fallbackOkay    = []string{"doing okay", "hi there!", "pet me?"}
	fallbackLow     = []string{"need care", "feeling down", "help me?"}
)

// Fallback builds a reply from fixed priority rules over the current
// stats. It never fails and needs no network.
func Fallback(gc Context) Reply {
	pick := func(phrases []string, action Action) Reply {
		// Stable choice for a given input, some variety across turns.
		i := len(gc.LastUserText) % len(phrases)
		return Reply{Say: phrases[i], Action: action}.sanitize()
	}

	if gc.Sleeping {
		return Reply{Say: "zzz...", Action: ActionSleeping}
	}

	switch {
	case gc.stat("health", 100) < 30:
		return pick(fallbackSick, ActionSick)
	case gc.stat("hunger", 50) < 20:
		return pick(fallbackHunger, ActionEat)
	case gc.stat("energy", 50) < 15:
		return pick(fallbackEnergy, ActionNap)
	case gc.stat("hygiene", 50) < 25:
		return pick(fallbackHygiene, ActionClean)
	}

	avg := (gc.stat("hunger", 50) + gc.stat("hygiene", 50) +
		gc.stat("mood", 50) + gc.stat("energy", 50)) / 4
	switch {
	case avg >= 70:
		return pick(fallbackHappy, ActionSmile)
	case avg >= 40:
		return pick(fallbackOkay, ActionSmile)
	default:
		return pick(fallbackLow, ActionSmile)
	}
}
