//go:build !noboost

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// the example file lists the boosting backends, so it only validates when
// they are compiled in
func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "strokeml.example.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, Default().Categorical, cfg.Categorical)
	assert.Equal(t, Default().Models, cfg.Models)
}
