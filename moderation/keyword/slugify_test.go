package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		input  string
		output string
	}{
		{input: "", output: ""},
		{input: "Hello, World!", output: "helloworld"},
		{input: "discord.gg/abc123", output: "discordggabc123"},
		{input: "rácìst", output: "racist"},
		{input: "  spaced   out  ", output: "spacedout"},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.output, Slugify(fix.input))
	}
}
