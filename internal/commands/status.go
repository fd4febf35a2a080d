package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/metrics"
)

func (h *Handler) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	allowed, err := checkPermissions(s, i)
	if err != nil {
		return err
	}
	if !allowed {
		respondPermissionError(s, i, "You need Administrator permission to view engine status.")
		return nil
	}

	counters := metrics.Get()
	sys := metrics.CollectSystemStats()

	engineField := fmt.Sprintf(
		"Events: %d (%.1f/s)\nGrants: %d (%d failed)\nLevel-ups: %d\nDropped: %d\nExempt: %d\nCooldown hits: %d",
		counters.Events(), counters.EventsPerSecond(),
		counters.Grants(), counters.GrantFailures(),
		counters.LevelUps(), counters.Dropped(),
		counters.Exempt(), counters.CooldownHits())

	stateField := fmt.Sprintf(
		"Queue depth: %d\nActive voice sessions: %d\nTracked users: %d",
		h.deps.Ingestor.QueueLen(), h.deps.Voice.ActiveSessions(), h.deps.Store.UserCount())

	sysField := fmt.Sprintf(
		"CPU: %.1f%%\nMemory: %d/%d MB (%.1f%%)\nHeap: %d MB\nGoroutines: %d",
		sys.CPUPercent, sys.MemUsedMB, sys.MemTotalMB, sys.MemPercent,
		sys.HeapAllocMB, sys.Goroutines)

	embed := &discordgo.MessageEmbed{
		Title: "Leveling Engine Status",
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Engine", Value: engineField, Inline: true},
			{Name: "State", Value: stateField, Inline: true},
			{Name: "System", Value: sysField, Inline: false},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Uptime: %s", counters.Uptime().Round(time.Second))},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	return respondEmbed(s, i, embed)
}
