package database

// Moderator action types recorded in the audit log.
const (
	ActionXPSet          = "xp_set"
	ActionXPAdjust       = "xp_adjust"
	ActionSettingsUpdate = "settings_update"
	ActionBackupCreate   = "backup_create"
	ActionBackupRestore  = "backup_restore"
	ActionDataSync       = "data_sync"
)

// ModAction is one audited administrative action.
type ModAction struct {
	ID        int64
	GuildID   string
	ActorID   string // "api" for dashboard requests without a Discord actor
	TargetID  string // affected user, snapshot id or empty
	Action    string
	Detail    string
	Timestamp int64 // unix millis
}
