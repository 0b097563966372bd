package scenario

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lord/ocaml-swift-example/rootref"
)

func TestAllScenariosPassAgainstPoolVariant(t *testing.T) {
	cfg := rootref.DefaultConfig()
	for _, name := range Names {
		result, err := Run(name, cfg, zap.NewNop())
		require.NoError(t, err, "scenario %s", name)
		require.NotEmpty(t, result)
	}
}

func TestS6PassesAgainstBitmapVariant(t *testing.T) {
	cfg := rootref.DefaultConfig()
	cfg.Variant = rootref.VariantBitmap
	result, err := Run(S6BitmapReclassify, cfg, zap.NewNop())
	require.NoError(t, err)
	require.Contains(t, result, "ok")
}
