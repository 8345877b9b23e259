package cta

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()

	contents, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	return contents
}

func loadPositions(t *testing.T, name string) *PositionsResponse {
	t.Helper()

	var positions PositionsResponse
	require.NoError(t, json.Unmarshal(loadFixture(t, name), &positions))

	return &positions
}
