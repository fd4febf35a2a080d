package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/accrual"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/backup"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/bot"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/ingest"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/leaderboard"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/logging"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/settings"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/store"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/voice"
)

// Deps carries everything the command handlers touch.
type Deps struct {
	Store       *store.Store
	Settings    *settings.Store
	Engine      *accrual.Engine
	Leaderboard *leaderboard.Service
	Backups     *backup.Manager
	Ingestor    *ingest.Ingestor
	Voice       *voice.Tracker
}

// Handler manages all command interactions
type Handler struct {
	session *bot.Session
	deps    Deps
}

var globalHandler *Handler

// Initialize creates the command handler and registers all commands.
func Initialize(session *bot.Session, deps Deps) error {
	globalHandler = &Handler{
		session: session,
		deps:    deps,
	}

	session.AddHandler(globalHandler.handleInteraction)

	commands := GetAllCommands()
	if err := session.RegisterCommands(commands); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	logging.Info("Command handler initialized with %d commands", len(commands))
	return nil
}

func (h *Handler) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	h.handleCommand(s, i)
}

// handleCommand routes slash commands to their handlers
func (h *Handler) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()

	var err error
	switch data.Name {
	case "rank":
		err = h.handleRank(s, i)
	case "leaderboard":
		err = h.handleLeaderboard(s, i)
	case "levelconfig":
		err = h.handleLevelConfig(s, i)
	case "leveladmin":
		err = h.handleLevelAdmin(s, i)
	case "levelbackup":
		err = h.handleLevelBackup(s, i)
	case "levelstatus":
		err = h.handleStatus(s, i)
	default:
		err = fmt.Errorf("unknown command: %s", data.Name)
	}

	if err != nil {
		logging.Error("Command error [%s]: %v", data.Name, err)
		respondError(s, i, err.Error())
	}
}

// respondError sends an ephemeral error message
func respondError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("❌ Error: %s", message),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// respondEmbed sends a single embed response
func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// respondEphemeral sends an ephemeral text response
func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, message string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
