package database

import (
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/logging"
)

// Audit records one moderator action through the global database. An
// unavailable audit store is logged loudly but never blocks the underlying
// correction.
func Audit(guildID, actorID, targetID, action, detail string) {
	db := GetDB()
	if db == nil {
		logging.Error("Audit log unavailable, action not recorded: guild=%s actor=%s action=%s detail=%s", guildID, actorID, action, detail)
		return
	}
	err := db.LogAction(&ModAction{
		GuildID:  guildID,
		ActorID:  actorID,
		TargetID: targetID,
		Action:   action,
		Detail:   detail,
	})
	if err != nil {
		logging.Error("Audit log write failed: %v", err)
	}
}
