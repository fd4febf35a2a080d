package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/leaderboard"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/leveling"
)

func (h *Handler) handleRank(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	target := i.Member.User
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "user" {
			target = opt.UserValue(s)
		}
	}
	if target == nil {
		return fmt.Errorf("could not resolve target user")
	}

	rec, ok := h.deps.Store.Get(target.ID, i.GuildID)
	if !ok {
		return respondEphemeral(s, i, fmt.Sprintf("<@%s> has no XP in this server yet.", target.ID))
	}

	rankLine := "unranked"
	if entry, found := h.deps.Leaderboard.Position(i.GuildID, target.ID, leaderboard.DimensionOverall); found {
		rankLine = fmt.Sprintf("#%d", entry.Rank)
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Rank for %s", target.Username),
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Level", Value: fmt.Sprintf("**%d**", rec.Level), Inline: true},
			{Name: "XP", Value: fmt.Sprintf("%d (next level in %d)", rec.XP, leveling.XPNeededForNextLevel(rec.XP)), Inline: true},
			{Name: "Rank", Value: rankLine, Inline: true},
			{Name: "Voice Minutes", Value: fmt.Sprintf("%d", rec.VoiceMinutes), Inline: true},
			{Name: "Reactions", Value: fmt.Sprintf("%d given / %d received", rec.ReactionsGiven, rec.ReactionsReceived), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	return respondEmbed(s, i, embed)
}
