package store

import (
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/leveling"
)

// repairDocument restores record invariants in place and returns how many
// fields were changed: nil maps become empty, negative counters become zero,
// and level is recomputed from xp unconditionally. Idempotent.
func repairDocument(doc *Document) int {
	repairs := 0

	if doc.Users == nil {
		doc.Users = make(map[string]map[string]*Record)
		repairs++
	}

	for userID, guilds := range doc.Users {
		if guilds == nil {
			doc.Users[userID] = make(map[string]*Record)
			repairs++
			continue
		}
		for guildID, rec := range guilds {
			if rec == nil {
				guilds[guildID] = &Record{}
				repairs++
				continue
			}
			repairs += repairRecord(rec)
		}
	}
	return repairs
}

func repairRecord(rec *Record) int {
	repairs := 0
	if rec.XP < 0 {
		rec.XP = 0
		repairs++
	}
	if rec.VoiceMinutes < 0 {
		rec.VoiceMinutes = 0
		repairs++
	}
	if rec.ReactionsGiven < 0 {
		rec.ReactionsGiven = 0
		repairs++
	}
	if rec.ReactionsReceived < 0 {
		rec.ReactionsReceived = 0
		repairs++
	}
	if rec.LastMessageTimestamp < 0 {
		rec.LastMessageTimestamp = 0
		repairs++
	}
	if want := leveling.LevelForXP(rec.XP); rec.Level != want {
		rec.Level = want
		repairs++
	}
	return repairs
}
