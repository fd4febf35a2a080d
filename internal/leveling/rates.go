package leveling

// Rates is the per-source base XP table. The values are process-wide
// configuration, not per-guild; guilds scale grants with their multiplier.
type Rates struct {
	MessageMin       int64
	MessageMax       int64
	ReactionGiven    int64
	ReactionReceived int64
	VoicePerMinute   int64
}

// DefaultRates returns the canonical rate table: messages roll 15-25,
// a given reaction is worth 5, a received one 3, and voice pays 10 per
// full minute.
func DefaultRates() Rates {
	return Rates{
		MessageMin:       15,
		MessageMax:       25,
		ReactionGiven:    5,
		ReactionReceived: 3,
		VoicePerMinute:   10,
	}
}

// Sanitize fixes impossible values so a bad config cannot stop accrual.
func (r Rates) Sanitize() Rates {
	def := DefaultRates()
	if r.MessageMin <= 0 {
		r.MessageMin = def.MessageMin
	}
	if r.MessageMax < r.MessageMin {
		r.MessageMax = r.MessageMin
	}
	if r.ReactionGiven <= 0 {
		r.ReactionGiven = def.ReactionGiven
	}
	if r.ReactionReceived <= 0 {
		r.ReactionReceived = def.ReactionReceived
	}
	if r.VoicePerMinute <= 0 {
		r.VoicePerMinute = def.VoicePerMinute
	}
	return r
}
