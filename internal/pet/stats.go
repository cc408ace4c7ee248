package pet

// Stat names accepted by ApplyDelta and item effects.
const (
	StatHunger    = "hunger"
	StatHygiene   = "hygiene"
	StatMood      = "mood"
	StatEnergy    = "energy"
	StatAffection = "affection"
	StatHealth    = "health"
)

// Decay rule, per simulated minute.
const (
	hungerDecay            = 1.0
	hygieneDecay           = 0.5
	energyDecayAwake       = 0.5
	energyRecoverySleeping = 1.0

	lowHungerThreshold  = 40.0
	lowHygieneThreshold = 40.0
	moodDecayRate       = 0.2

	criticalHungerThreshold  = 20.0
	criticalHygieneThreshold = 20.0
	criticalEnergyThreshold  = 10.0
	sickChance               = 0.05
	healthLossSick           = 3.0
)

// Stats holds the pet's six bounded attributes (0–100, higher is
// better) plus the sleeping flag. Every mutation clamps, so stats can
// never leave the range.
type Stats struct {
	Hunger    float64 `json:"hunger"`
	Hygiene   float64 `json:"hygiene"`
	Mood      float64 `json:"mood"`
	Energy    float64 `json:"energy"`
	Affection float64 `json:"affection"`
	Health    float64 `json:"health"`
	Sleeping  bool    `json:"sleeping"`
}

// DefaultStats is the state of a brand-new pet.
func DefaultStats() Stats {
	return Stats{
		Hunger:    50,
		Hygiene:   50,
		Mood:      50,
		Energy:    50,
		Affection: 50,
		Health:    100,
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Clamp forces every stat back into [0,100]. Used after restoring a
// snapshot from disk, where values are not trusted.
func (s *Stats) Clamp() {
	s.Hunger = clamp(s.Hunger)
	s.Hygiene = clamp(s.Hygiene)
	s.Mood = clamp(s.Mood)
	s.Energy = clamp(s.Energy)
	s.Affection = clamp(s.Affection)
	s.Health = clamp(s.Health)
}

func (s *Stats) field(name string) *float64 {
	switch name {
	case StatHunger:
		return &s.Hunger
	case StatHygiene:
		return &s.Hygiene
	case StatMood:
		return &s.Mood
	case StatEnergy:
		return &s.Energy
	case StatAffection:
		return &s.Affection
	case StatHealth:
		return &s.Health
	}
	return nil
}

// ApplyDelta adds amount to the named stat and clamps. Unknown names
// are ignored; the catalog rejects them at load time.
func (s *Stats) ApplyDelta(name string, amount float64) {
	if f := s.field(name); f != nil {
		*f = clamp(*f + amount)
	}
}

// Apply applies a set of item effects.
func (s *Stats) Apply(effects map[string]float64) {
	for name, delta := range effects {
		s.ApplyDelta(name, delta)
	}
}

// Get returns the named stat's value, or 0 for unknown names.
func (s Stats) Get(name string) float64 {
	if f := s.field(name); f != nil {
		return *f
	}
	return 0
}

// IsCritical reports whether the named stat is below threshold.
func (s Stats) IsCritical(name string, threshold float64) bool {
	return s.Get(name) < threshold
}

// DecayTick applies one simulated minute of decay. roll supplies the
// [0,1) draw for the sickness hazard, one draw per minute so offline
// catch-up preserves the per-tick hazard rate. Returns true if the pet
// got sick this minute.
func (s *Stats) DecayTick(roll func() float64) bool {
	s.Hunger = clamp(s.Hunger - hungerDecay)
	s.Hygiene = clamp(s.Hygiene - hygieneDecay)

	if s.Sleeping {
		s.Energy = clamp(s.Energy + energyRecoverySleeping)
	} else {
		s.Energy = clamp(s.Energy - energyDecayAwake)
	}

	if s.Hunger < lowHungerThreshold || s.Hygiene < lowHygieneThreshold {
		s.Mood = clamp(s.Mood - moodDecayRate)
	}

	critical := s.Hunger < criticalHungerThreshold ||
		s.Hygiene < criticalHygieneThreshold ||
		s.Energy < criticalEnergyThreshold
	if critical && roll() < sickChance {
		s.Health = clamp(s.Health - healthLossSick)
		return true
	}
	return false
}

// ContextMap converts stats to the map shape the chat prompt uses.
func (s Stats) ContextMap() map[string]float64 {
	return map[string]float64{
		StatHunger:    s.Hunger,
		StatHygiene:   s.Hygiene,
		StatMood:      s.Mood,
		StatEnergy:    s.Energy,
		StatAffection: s.Affection,
		StatHealth:    s.Health,
	}
}
