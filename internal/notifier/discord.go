// Package notifier sends level-up announcements to the guild's configured
// channel. Dispatch failures are logged and never touch committed XP.
package notifier

import (
	"github.com/bwmarrin/discordgo"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/logging"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/metrics"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/settings"
)

type Dispatcher struct {
	session  *discordgo.Session
	settings *settings.Store
}

func NewDispatcher(cfg *settings.Store) *Dispatcher {
	return &Dispatcher{settings: cfg}
}

// SetSession wires the Discord session once the bot is connected.
func (d *Dispatcher) SetSession(session *discordgo.Session) {
	d.session = session
}

// LevelUp announces that userID reached level in guildID, if the guild has
// a notification channel configured.
func (d *Dispatcher) LevelUp(guildID, userID string, level int) {
	gs := d.settings.Get(guildID)
	if gs.LevelUpChannelID == "" {
		return
	}
	if d.session == nil {
		logging.Warn("Notifier: no Discord session, dropping level-up for user %s in guild %s", userID, guildID)
		metrics.Get().IncNotifyFails()
		return
	}

	content := RenderTemplate(gs.LevelUpMessage, userID, level)

	// Fire and forget; the grant is already committed
	go func() {
		_, err := d.session.ChannelMessageSend(gs.LevelUpChannelID, content)
		if err != nil {
			metrics.Get().IncNotifyFails()
			logging.Warn("Notifier: level-up dispatch to channel %s in guild %s failed: %v", gs.LevelUpChannelID, guildID, err)
		}
	}()
}
