package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/database"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/logging"
)

func (h *Handler) handleLevelAdmin(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	allowed, err := checkPermissions(s, i)
	if err != nil {
		return err
	}
	if !allowed {
		respondPermissionError(s, i, "You need Administrator permission to manage XP.")
		return nil
	}

	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return fmt.Errorf("missing subcommand")
	}
	sub := options[0]

	switch sub.Name {
	case "setxp":
		return h.adminSetXP(s, i, sub)
	case "adjustxp":
		return h.adminAdjustXP(s, i, sub)
	case "sync":
		return h.adminSync(s, i)
	default:
		return fmt.Errorf("unknown leveladmin subcommand: %s", sub.Name)
	}
}

func (h *Handler) adminSetXP(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	var target *discordgo.User
	var amount int64
	for _, opt := range sub.Options {
		switch opt.Name {
		case "user":
			target = opt.UserValue(s)
		case "amount":
			amount = opt.IntValue()
		}
	}
	if target == nil {
		return fmt.Errorf("missing user option")
	}

	result, err := h.deps.Engine.SetXP(target.ID, i.GuildID, amount)
	if err != nil {
		return err
	}

	database.Audit(i.GuildID, i.Member.User.ID, target.ID, database.ActionXPSet, fmt.Sprintf("xp=%d", amount))
	logging.Info("Commands: setxp user=%s guild=%s xp=%d by=%s", target.ID, i.GuildID, amount, i.Member.User.ID)

	msg := fmt.Sprintf("✅ Set <@%s> to **%d XP** (level %d).", target.ID, result.XP, result.NewLevel)
	if result.NewLevel != result.OldLevel {
		msg += fmt.Sprintf(" Level changed %d → %d.", result.OldLevel, result.NewLevel)
	}
	return respondEphemeral(s, i, msg)
}

func (h *Handler) adminAdjustXP(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	var target *discordgo.User
	var delta int64
	for _, opt := range sub.Options {
		switch opt.Name {
		case "user":
			target = opt.UserValue(s)
		case "delta":
			delta = opt.IntValue()
		}
	}
	if target == nil {
		return fmt.Errorf("missing user option")
	}

	result, err := h.deps.Engine.AdjustXP(target.ID, i.GuildID, delta)
	if err != nil {
		return err
	}

	database.Audit(i.GuildID, i.Member.User.ID, target.ID, database.ActionXPAdjust, fmt.Sprintf("delta=%d result=%d", delta, result.XP))
	logging.Info("Commands: adjustxp user=%s guild=%s delta=%d xp=%d by=%s", target.ID, i.GuildID, delta, result.XP, i.Member.User.ID)

	return respondEphemeral(s, i, fmt.Sprintf("✅ Adjusted <@%s> by %+d XP, now **%d XP** (level %d).",
		target.ID, delta, result.XP, result.NewLevel))
}

func (h *Handler) adminSync(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	repaired, err := h.deps.Store.Repair()
	if err != nil {
		return err
	}
	if h.deps.Voice != nil {
		h.deps.Voice.RunTickOnce()
	}

	database.Audit(i.GuildID, i.Member.User.ID, "", database.ActionDataSync, fmt.Sprintf("repaired=%d", repaired))
	logging.Info("Commands: sync guild=%s repaired=%d by=%s", i.GuildID, repaired, i.Member.User.ID)

	return respondEphemeral(s, i, fmt.Sprintf("✅ Data sync complete. Repaired %d record(s) and flushed pending voice minutes.", repaired))
}
