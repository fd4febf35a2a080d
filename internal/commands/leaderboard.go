package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/leaderboard"
)

func (h *Handler) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	dimension := leaderboard.DimensionOverall
	limit := 10

	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "dimension":
			parsed, err := leaderboard.ParseDimension(opt.StringValue())
			if err != nil {
				return err
			}
			dimension = parsed
		case "limit":
			limit = int(opt.IntValue())
		}
	}

	entries, err := h.deps.Leaderboard.Top(i.GuildID, dimension, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return respondEphemeral(s, i, "Nobody has a score on this leaderboard yet.")
	}

	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("**#%d** <@%s> — %s\n", e.Rank, e.UserID, formatValue(e, dimension)))
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s Leaderboard", titleFor(dimension)),
		Description: sb.String(),
		Color:       0xFEE75C,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	return respondEmbed(s, i, embed)
}

func titleFor(dim leaderboard.Dimension) string {
	switch dim {
	case leaderboard.DimensionVoice:
		return "Voice"
	case leaderboard.DimensionReactions:
		return "Reactions"
	default:
		return "XP"
	}
}

func formatValue(e leaderboard.Entry, dim leaderboard.Dimension) string {
	switch dim {
	case leaderboard.DimensionVoice:
		return fmt.Sprintf("%d minutes", e.VoiceMinutes)
	case leaderboard.DimensionReactions:
		return fmt.Sprintf("%d reactions", e.Value)
	default:
		return fmt.Sprintf("level %d, %d XP", e.Level, e.XP)
	}
}
