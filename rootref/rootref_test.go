package rootref

import (
	"bytes"
	"testing"

	"github.com/lord/ocaml-swift-example/hostiface"
	"github.com/stretchr/testify/require"
)

func resetForTest(t *testing.T) {
	t.Helper()
	Teardown()
	t.Cleanup(Teardown)
}

func TestSetupIsIdempotent(t *testing.T) {
	resetForTest(t)
	rt := hostiface.NewSimulated()

	require.True(t, Setup(rt, DefaultConfig()))
	require.False(t, Setup(rt, DefaultConfig()))
}

func TestTeardownIsIdempotent(t *testing.T) {
	resetForTest(t)
	rt := hostiface.NewSimulated()
	require.True(t, Setup(rt, DefaultConfig()))

	Teardown()
	require.NotPanics(t, Teardown)
}

func TestCreateBeforeSetupReturnsNullHandle(t *testing.T) {
	resetForTest(t)
	h := Create(hostiface.Immediate(1))
	require.True(t, h.IsNull())
}

func TestPoolVariantRoundTrip(t *testing.T) {
	resetForTest(t)
	rt := hostiface.NewSimulated()
	require.True(t, Setup(rt, DefaultConfig()))

	h := Create(hostiface.Immediate(42))
	require.False(t, h.IsNull())
	require.Equal(t, hostiface.Immediate(42), Get(h))
	Delete(h)

	var buf bytes.Buffer
	FprintStats(&buf)
	require.NotEmpty(t, buf.String())
}

func TestBitmapVariantRoundTrip(t *testing.T) {
	resetForTest(t)
	rt := hostiface.NewSimulated()
	cfg := DefaultConfig()
	cfg.Variant = VariantBitmap
	require.True(t, Setup(rt, cfg))

	h := Create(hostiface.Immediate(7))
	require.False(t, h.IsNull())
	require.Equal(t, hostiface.Immediate(7), Get(h))
	Delete(h)
}

func TestLinkedVariantModifyPromotion(t *testing.T) {
	resetForTest(t)
	rt := hostiface.NewSimulated()
	cfg := DefaultConfig()
	cfg.Variant = VariantLinked
	require.True(t, Setup(rt, cfg))

	h := Create(rt.NewNurseryPointer())
	mature := rt.NewMaturePointer()
	Modify(&h, mature)
	require.Equal(t, mature, Get(h))
}
