package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{"default", Config{}, "info"},
		{"verbose", Config{Verbose: true}, "debug"},
		{"quiet", Config{Quiet: true}, "warn"},
		{"quiet wins over verbose", Config{Verbose: true, Quiet: true}, "warn"},
		{"explicit level wins", Config{Verbose: true, LogLevel: "error"}, "error"},
		{"invalid level falls back", Config{LogLevel: "loud"}, "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determineLogLevel(&tt.config))
		})
	}
}

func TestUpdateFromFlags(t *testing.T) {
	c := &Config{SinkType: "stdout", LogLevel: "info"}

	c.UpdateFromFlags(true, false, true, "", "")
	assert.True(t, c.Verbose)
	assert.True(t, c.NoColor)
	// Empty flag values leave config-file values alone.
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "stdout", c.SinkType)

	c.UpdateFromFlags(false, false, false, "debug", "csv")
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "csv", c.SinkType)
}

func TestProcessCommandRequiresPairs(t *testing.T) {
	a := &App{config: &Config{SinkType: "stdout"}}
	cmd := a.NewProcessCommand()

	require.Error(t, cmd.Args(cmd, []string{}))
	require.Error(t, cmd.Args(cmd, []string{"Quercus"}))
	require.NoError(t, cmd.Args(cmd, []string{"Quercus", "alba"}))
	require.NoError(t, cmd.Args(cmd, []string{"Quercus", "alba", "Acer", "rubrum"}))
}
