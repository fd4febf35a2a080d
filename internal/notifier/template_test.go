package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTemplate(t *testing.T) {
	out := RenderTemplate("GG {user}, you just reached level {level}!", "111111111111111111", 7)
	assert.Equal(t, "GG <@111111111111111111>, you just reached level 7!", out)
}

func TestRenderTemplateRepeatedPlaceholders(t *testing.T) {
	out := RenderTemplate("{user} {user} hit {level}/{level}", "111111111111111111", 3)
	assert.Equal(t, "<@111111111111111111> <@111111111111111111> hit 3/3", out)
}

func TestRenderTemplateNoPlaceholders(t *testing.T) {
	assert.Equal(t, "plain text", RenderTemplate("plain text", "111111111111111111", 1))
}
