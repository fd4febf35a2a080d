package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/database"
)

func (h *Handler) handleLevelConfig(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	allowed, err := checkPermissions(s, i)
	if err != nil {
		return err
	}
	if !allowed {
		respondPermissionError(s, i, "You need Administrator permission to configure leveling.")
		return nil
	}

	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return fmt.Errorf("missing subcommand")
	}
	sub := options[0]

	switch sub.Name {
	case "view":
		return h.configView(s, i)
	case "enable":
		return h.configSetEnabled(s, i, true)
	case "disable":
		return h.configSetEnabled(s, i, false)
	case "sources":
		return h.configSources(s, i, sub)
	case "multiplier":
		return h.configMultiplier(s, i, sub)
	case "channel":
		return h.configChannel(s, i, sub)
	case "message":
		return h.configMessage(s, i, sub)
	case "exempt":
		return h.configExempt(s, i, sub)
	default:
		return fmt.Errorf("unknown levelconfig subcommand: %s", sub.Name)
	}
}

func (h *Handler) configView(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	gs := h.deps.Settings.Get(i.GuildID)

	state := "disabled"
	if gs.Enabled {
		state = "enabled"
	}

	var sources []string
	if gs.Sources.Messages {
		sources = append(sources, "messages")
	}
	if gs.Sources.Voice {
		sources = append(sources, "voice")
	}
	if gs.Sources.Reactions {
		sources = append(sources, "reactions")
	}
	if len(sources) == 0 {
		sources = append(sources, "none")
	}

	channel := "not set"
	if gs.LevelUpChannelID != "" {
		channel = "<#" + gs.LevelUpChannelID + ">"
	}

	embed := &discordgo.MessageEmbed{
		Title: "Leveling Configuration",
		Color: 0x57F287,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "State", Value: state, Inline: true},
			{Name: "Sources", Value: strings.Join(sources, ", "), Inline: true},
			{Name: "Multiplier", Value: fmt.Sprintf("%.2f", gs.XPMultiplier), Inline: true},
			{Name: "Announcement Channel", Value: channel, Inline: true},
			{Name: "Template", Value: gs.LevelUpMessage, Inline: false},
			{Name: "Exempt Roles", Value: mentionList(gs.ExemptRoleIDs, "<@&%s>"), Inline: false},
			{Name: "Exempt Channels", Value: mentionList(gs.ExemptChannelIDs, "<#%s>"), Inline: false},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	return respondEmbed(s, i, embed)
}

func (h *Handler) configSetEnabled(s *discordgo.Session, i *discordgo.InteractionCreate, enabled bool) error {
	gs := h.deps.Settings.Get(i.GuildID)
	gs.Enabled = enabled
	if err := h.deps.Settings.Update(i.GuildID, gs); err != nil {
		return err
	}

	database.Audit(i.GuildID, i.Member.User.ID, "", database.ActionSettingsUpdate, fmt.Sprintf("enabled=%v", enabled))
	if enabled {
		return respondEphemeral(s, i, "✅ Leveling enabled.")
	}
	return respondEphemeral(s, i, "✅ Leveling disabled.")
}

func (h *Handler) configSources(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	gs := h.deps.Settings.Get(i.GuildID)
	for _, opt := range sub.Options {
		switch opt.Name {
		case "messages":
			gs.Sources.Messages = opt.BoolValue()
		case "voice":
			gs.Sources.Voice = opt.BoolValue()
		case "reactions":
			gs.Sources.Reactions = opt.BoolValue()
		}
	}
	if err := h.deps.Settings.Update(i.GuildID, gs); err != nil {
		return err
	}

	database.Audit(i.GuildID, i.Member.User.ID, "", database.ActionSettingsUpdate,
		fmt.Sprintf("sources messages=%v voice=%v reactions=%v", gs.Sources.Messages, gs.Sources.Voice, gs.Sources.Reactions))
	return respondEphemeral(s, i, "✅ XP sources updated.")
}

func (h *Handler) configMultiplier(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	var value float64
	for _, opt := range sub.Options {
		if opt.Name == "value" {
			value = opt.FloatValue()
		}
	}

	gs := h.deps.Settings.Get(i.GuildID)
	gs.XPMultiplier = value
	if err := h.deps.Settings.Update(i.GuildID, gs); err != nil {
		return err
	}

	database.Audit(i.GuildID, i.Member.User.ID, "", database.ActionSettingsUpdate, fmt.Sprintf("multiplier=%.2f", value))
	return respondEphemeral(s, i, fmt.Sprintf("✅ XP multiplier set to %.2f.", value))
}

func (h *Handler) configChannel(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	channelID := ""
	for _, opt := range sub.Options {
		if opt.Name == "channel" {
			if ch := opt.ChannelValue(s); ch != nil {
				channelID = ch.ID
			}
		}
	}

	gs := h.deps.Settings.Get(i.GuildID)
	gs.LevelUpChannelID = channelID
	if err := h.deps.Settings.Update(i.GuildID, gs); err != nil {
		return err
	}

	database.Audit(i.GuildID, i.Member.User.ID, channelID, database.ActionSettingsUpdate, "levelup channel")
	if channelID == "" {
		return respondEphemeral(s, i, "✅ Level-up announcements disabled.")
	}
	return respondEphemeral(s, i, fmt.Sprintf("✅ Level-up announcements will go to <#%s>.", channelID))
}

func (h *Handler) configMessage(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	template := ""
	for _, opt := range sub.Options {
		if opt.Name == "template" {
			template = opt.StringValue()
		}
	}

	gs := h.deps.Settings.Get(i.GuildID)
	gs.LevelUpMessage = template
	if err := h.deps.Settings.Update(i.GuildID, gs); err != nil {
		return err
	}

	database.Audit(i.GuildID, i.Member.User.ID, "", database.ActionSettingsUpdate, "levelup template")
	return respondEphemeral(s, i, "✅ Level-up message template updated.")
}

func (h *Handler) configExempt(s *discordgo.Session, i *discordgo.InteractionCreate, group *discordgo.ApplicationCommandInteractionDataOption) error {
	if len(group.Options) == 0 {
		return fmt.Errorf("missing exempt subcommand")
	}
	sub := group.Options[0]
	add := sub.Name == "add"

	var roleID, channelID string
	for _, opt := range sub.Options {
		switch opt.Name {
		case "role":
			if role := opt.RoleValue(s, i.GuildID); role != nil {
				roleID = role.ID
			}
		case "channel":
			if ch := opt.ChannelValue(s); ch != nil {
				channelID = ch.ID
			}
		}
	}
	if roleID == "" && channelID == "" {
		return fmt.Errorf("provide a role or a channel")
	}

	gs := h.deps.Settings.Get(i.GuildID)
	if roleID != "" {
		gs.ExemptRoleIDs = toggleID(gs.ExemptRoleIDs, roleID, add)
	}
	if channelID != "" {
		gs.ExemptChannelIDs = toggleID(gs.ExemptChannelIDs, channelID, add)
	}
	if err := h.deps.Settings.Update(i.GuildID, gs); err != nil {
		return err
	}

	verb := "removed from"
	if add {
		verb = "added to"
	}
	database.Audit(i.GuildID, i.Member.User.ID, roleID+channelID, database.ActionSettingsUpdate, "exemption "+sub.Name)
	return respondEphemeral(s, i, fmt.Sprintf("✅ Exemption %s the list.", verb))
}

func toggleID(ids []string, id string, add bool) []string {
	out := make([]string, 0, len(ids)+1)
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	if add {
		out = append(out, id)
	}
	return out
}

func mentionList(ids []string, format string) string {
	if len(ids) == 0 {
		return "none"
	}
	mentions := make([]string, 0, len(ids))
	for _, id := range ids {
		mentions = append(mentions, fmt.Sprintf(format, id))
	}
	return strings.Join(mentions, " ")
}
