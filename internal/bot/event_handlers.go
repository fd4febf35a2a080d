package bot

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/ingest"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/logging"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/voice"
)

// voiceChannels remembers which channel each user:guild was last seen in,
// so a VoiceStateUpdate without BeforeUpdate still classifies correctly.
type voiceChannelCache struct {
	mu       sync.Mutex
	channels map[string]string
}

func (c *voiceChannelCache) swap(userID, guildID, channelID string) string {
	key := userID + ":" + guildID

	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.channels[key]
	if channelID == "" {
		delete(c.channels, key)
	} else {
		c.channels[key] = channelID
	}
	return prev
}

// SetupEventHandlers wires gateway events into the ingestor and the voice
// tracker. Call before Connect so no early event is missed.
func (s *Session) SetupEventHandlers(ing *ingest.Ingestor, tracker *voice.Tracker) {
	logging.Info("Setting up Discord event handlers...")

	cache := &voiceChannelCache{channels: make(map[string]string)}

	s.discord.AddHandler(func(sess *discordgo.Session, r *discordgo.Ready) {
		logging.Info("Ready: connected as %s, serving %d guild(s)", r.User.Username, len(r.Guilds))
	})

	s.discord.AddHandler(func(sess *discordgo.Session, g *discordgo.GuildCreate) {
		logging.Info("Joined/loaded guild %s (ID %s)", g.Name, g.ID)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.MessageCreate) {
		if m.GuildID == "" || m.Author == nil || m.Author.Bot {
			return
		}
		var roles []string
		if m.Member != nil {
			roles = m.Member.Roles
		}
		ing.HandleMessage(m.Author.ID, m.GuildID, m.ChannelID, roles, time.Now())
	})

	s.discord.AddHandler(func(sess *discordgo.Session, r *discordgo.MessageReactionAdd) {
		if r.GuildID == "" || r.UserID == sess.State.User.ID {
			return
		}
		if r.Member != nil && r.Member.User != nil && r.Member.User.Bot {
			return
		}

		var reactorRoles []string
		if r.Member != nil {
			reactorRoles = r.Member.Roles
		}

		authorID, authorBot := lookupMessageAuthor(sess, r.ChannelID, r.MessageID)
		ing.HandleReactionAdd(r.UserID, authorID, authorBot, r.GuildID, r.ChannelID, reactorRoles, time.Now())
	})

	s.discord.AddHandler(func(sess *discordgo.Session, v *discordgo.VoiceStateUpdate) {
		if v.GuildID == "" || v.UserID == sess.State.User.ID {
			return
		}
		if member, err := sess.State.Member(v.GuildID, v.UserID); err == nil && member.User != nil && member.User.Bot {
			return
		}

		prev := cache.swap(v.UserID, v.GuildID, v.ChannelID)

		switch {
		case v.ChannelID == "" && prev != "":
			tracker.HandleLeave(v.UserID, v.GuildID)
		case v.ChannelID != "":
			var roles []string
			if member, err := sess.State.Member(v.GuildID, v.UserID); err == nil {
				roles = member.Roles
			}
			tracker.HandleJoin(v.UserID, v.GuildID, v.ChannelID, roles)
		}
	})
}

// lookupMessageAuthor resolves the author of the reacted-to message, state
// cache first, REST as fallback. An unresolvable author only skips the
// "received" grant.
func lookupMessageAuthor(sess *discordgo.Session, channelID, messageID string) (string, bool) {
	if msg, err := sess.State.Message(channelID, messageID); err == nil && msg.Author != nil {
		return msg.Author.ID, msg.Author.Bot
	}
	msg, err := sess.ChannelMessage(channelID, messageID)
	if err != nil || msg.Author == nil {
		logging.Debug("Could not resolve author of message %s in channel %s", messageID, channelID)
		return "", false
	}
	return msg.Author.ID, msg.Author.Bot
}
