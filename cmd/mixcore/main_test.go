package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionFlagExitsZeroWithoutStartingApp(t *testing.T) {
	require.Equal(t, 0, run([]string{"--version"}))
}

func TestHelpFlagExitsZeroWithoutStartingApp(t *testing.T) {
	require.Equal(t, 0, run([]string{"--help"}))
}

func TestUnknownFlagExitsOne(t *testing.T) {
	require.Equal(t, 1, run([]string{"--not-a-real-flag"}))
}
