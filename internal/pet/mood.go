package pet

// DetermineMood returns a mood label based on priority-ordered rules.
// Priority: Sleeping > Sick > Starving > Sleepy > Grubby > Grumpy > Happy > Content
func DetermineMood(s Stats) string {
	if s.Sleeping {
		return "sleeping"
	}

	// Sick: low health
	if s.Health < 30 {
		return "sick"
	}

	// Starving: critically low hunger
	if s.Hunger < criticalHungerThreshold {
		return "starving"
	}

	// Sleepy: very low energy
	if s.Energy < 15 {
		return "sleepy"
	}

	// Grubby: very low hygiene
	if s.Hygiene < 25 {
		return "grubby"
	}

	// Grumpy: unmet basic needs
	if s.Hunger < lowHungerThreshold || s.Hygiene < lowHygieneThreshold {
		return "grumpy"
	}

	// Happy: high mood and good stats
	if s.Mood > 70 && s.Hunger > 40 && s.Energy > 40 {
		return "happy"
	}

	return "content"
}
