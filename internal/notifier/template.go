package notifier

import (
	"strconv"
	"strings"
)

// RenderTemplate fills the {user} and {level} placeholders of a level-up
// message. {user} becomes a mention so the announcement pings.
func RenderTemplate(template, userID string, level int) string {
	out := strings.ReplaceAll(template, "{user}", "<@"+userID+">")
	out = strings.ReplaceAll(out, "{level}", strconv.Itoa(level))
	return out
}
