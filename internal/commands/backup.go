package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/backup"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/database"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/logging"
)

func (h *Handler) handleLevelBackup(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	allowed, err := checkPermissions(s, i)
	if err != nil {
		return err
	}
	if !allowed {
		respondPermissionError(s, i, "You need Administrator permission to manage backups.")
		return nil
	}

	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return fmt.Errorf("missing subcommand")
	}
	sub := options[0]

	switch sub.Name {
	case "create":
		return h.backupCreate(s, i, sub)
	case "list":
		return h.backupList(s, i)
	case "restore":
		return h.backupRestore(s, i, sub)
	default:
		return fmt.Errorf("unknown levelbackup subcommand: %s", sub.Name)
	}
}

func (h *Handler) backupCreate(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	reason := "manual backup"
	for _, opt := range sub.Options {
		if opt.Name == "reason" {
			reason = opt.StringValue()
		}
	}

	meta, err := h.deps.Backups.Create(backup.TagManual, reason)
	if err != nil {
		return err
	}

	database.Audit(i.GuildID, i.Member.User.ID, "", database.ActionBackupCreate, meta.ID)
	logging.Info("Commands: manual backup %s created by %s", meta.ID, i.Member.User.ID)

	return respondEphemeral(s, i, fmt.Sprintf("✅ Backup created: `%s`", meta.ID))
}

func (h *Handler) backupList(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	metas, err := h.deps.Backups.List()
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		return respondEphemeral(s, i, "No backups yet.")
	}

	const maxShown = 15
	var b strings.Builder
	for idx, meta := range metas {
		if idx >= maxShown {
			fmt.Fprintf(&b, "... and %d more\n", len(metas)-maxShown)
			break
		}
		created := time.UnixMilli(meta.CreatedAt).UTC().Format("2006-01-02 15:04:05")
		fmt.Fprintf(&b, "`%s` — %s, %s UTC\n", meta.ID, meta.Tag, created)
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Level Data Backups (%d)", len(metas)),
		Description: b.String(),
		Color:       0x5865F2,
	}
	return respondEmbed(s, i, embed)
}

func (h *Handler) backupRestore(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) error {
	isOwner, err := checkOwnerOnly(s, i)
	if err != nil {
		return err
	}
	if !isOwner {
		respondPermissionError(s, i, "Only the server owner can restore a backup.")
		return nil
	}

	id := ""
	for _, opt := range sub.Options {
		if opt.Name == "id" {
			id = opt.StringValue()
		}
	}
	if id == "" {
		return fmt.Errorf("missing backup id")
	}

	meta, err := h.deps.Backups.Restore(id)
	if err != nil {
		return err
	}

	database.Audit(i.GuildID, i.Member.User.ID, "", database.ActionBackupRestore, meta.ID)
	logging.Warn("Commands: restored backup %s by %s", meta.ID, i.Member.User.ID)

	return respondEphemeral(s, i, fmt.Sprintf(
		"✅ Restored backup `%s`. A pre-restore snapshot of the previous state was saved automatically.", meta.ID))
}
