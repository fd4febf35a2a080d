package commands

import "github.com/bwmarrin/discordgo"

// GetAllCommands returns all application commands
func GetAllCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "rank",
			Description: "Show a member's level and XP",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "user",
					Description: "Member to look up (defaults to you)",
					Type:        discordgo.ApplicationCommandOptionUser,
					Required:    false,
				},
			},
		},
		{
			Name:        "leaderboard",
			Description: "Show the guild leaderboard",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "dimension",
					Description: "Ranking dimension",
					Type:        discordgo.ApplicationCommandOptionString,
					Required:    false,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Overall XP", Value: "overall"},
						{Name: "Voice minutes", Value: "voice"},
						{Name: "Reactions", Value: "reactions"},
					},
				},
				{
					Name:        "limit",
					Description: "Number of rows (1-100)",
					Type:        discordgo.ApplicationCommandOptionInteger,
					Required:    false,
				},
			},
		},
		{
			Name:        "levelconfig",
			Description: "Configure the leveling system",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "view",
					Description: "Show the current leveling configuration",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
				},
				{
					Name:        "enable",
					Description: "Enable XP accrual",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
				},
				{
					Name:        "disable",
					Description: "Disable XP accrual",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
				},
				{
					Name:        "sources",
					Description: "Choose which event sources grant XP",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "messages",
							Description: "Grant XP for messages",
							Type:        discordgo.ApplicationCommandOptionBoolean,
							Required:    true,
						},
						{
							Name:        "voice",
							Description: "Grant XP for voice activity",
							Type:        discordgo.ApplicationCommandOptionBoolean,
							Required:    true,
						},
						{
							Name:        "reactions",
							Description: "Grant XP for reactions",
							Type:        discordgo.ApplicationCommandOptionBoolean,
							Required:    true,
						},
					},
				},
				{
					Name:        "multiplier",
					Description: "Set the guild XP multiplier (0.1 - 10.0)",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "value",
							Description: "Multiplier value",
							Type:        discordgo.ApplicationCommandOptionNumber,
							Required:    true,
						},
					},
				},
				{
					Name:        "channel",
					Description: "Set or clear the level-up announcement channel",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "channel",
							Description: "Announcement channel (omit to clear)",
							Type:        discordgo.ApplicationCommandOptionChannel,
							Required:    false,
						},
					},
				},
				{
					Name:        "message",
					Description: "Set the level-up message template ({user}, {level})",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "template",
							Description: "Message template",
							Type:        discordgo.ApplicationCommandOptionString,
							Required:    true,
						},
					},
				},
				{
					Name:        "exempt",
					Description: "Manage exempt roles and channels",
					Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "add",
							Description: "Exempt a role or channel from XP accrual",
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Options: []*discordgo.ApplicationCommandOption{
								{
									Name:        "role",
									Description: "Role to exempt",
									Type:        discordgo.ApplicationCommandOptionRole,
									Required:    false,
								},
								{
									Name:        "channel",
									Description: "Channel to exempt",
									Type:        discordgo.ApplicationCommandOptionChannel,
									Required:    false,
								},
							},
						},
						{
							Name:        "remove",
							Description: "Remove a role or channel exemption",
							Type:        discordgo.ApplicationCommandOptionSubCommand,
							Options: []*discordgo.ApplicationCommandOption{
								{
									Name:        "role",
									Description: "Role to un-exempt",
									Type:        discordgo.ApplicationCommandOptionRole,
									Required:    false,
								},
								{
									Name:        "channel",
									Description: "Channel to un-exempt",
									Type:        discordgo.ApplicationCommandOptionChannel,
									Required:    false,
								},
							},
						},
					},
				},
			},
		},
		{
			Name:        "leveladmin",
			Description: "Administrative XP corrections",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "setxp",
					Description: "Set a member's XP to an exact amount",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "user",
							Description: "Member to correct",
							Type:        discordgo.ApplicationCommandOptionUser,
							Required:    true,
						},
						{
							Name:        "amount",
							Description: "New XP amount (>= 0)",
							Type:        discordgo.ApplicationCommandOptionInteger,
							Required:    true,
						},
					},
				},
				{
					Name:        "adjustxp",
					Description: "Add or remove XP (result clamps at 0)",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "user",
							Description: "Member to correct",
							Type:        discordgo.ApplicationCommandOptionUser,
							Required:    true,
						},
						{
							Name:        "delta",
							Description: "Signed XP delta",
							Type:        discordgo.ApplicationCommandOptionInteger,
							Required:    true,
						},
					},
				},
				{
					Name:        "sync",
					Description: "Run the data validation/repair pass",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
				},
			},
		},
		{
			Name:        "levelbackup",
			Description: "Manage record store backups",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "create",
					Description: "Create a manual backup now",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "reason",
							Description: "Why this backup is taken",
							Type:        discordgo.ApplicationCommandOptionString,
							Required:    false,
						},
					},
				},
				{
					Name:        "list",
					Description: "List recent backups",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
				},
				{
					Name:        "restore",
					Description: "Restore a backup (owner only)",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "id",
							Description: "Snapshot id from /levelbackup list",
							Type:        discordgo.ApplicationCommandOptionString,
							Required:    true,
						},
					},
				},
			},
		},
		{
			Name:        "levelstatus",
			Description: "Show engine and system status",
		},
	}
}
