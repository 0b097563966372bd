// Package rootref is the public facade implementing the §6 handle API
// (setup/teardown/create/get/get_ref/delete/modify/print_stats) against a
// selectable engine variant: pool (the default), bitmap, or linked.
//
// Grounded on the teacher's package-level singleton conventions (a single
// mutable *Engine behind a setup flag, the way runtime itself is one
// process-wide instance rather than a value callers construct), generalized
// to a selectable backend the way the teacher never needed to.
package rootref

import (
	"io"
	"os"
	"sync"

	"github.com/lord/ocaml-swift-example/bitmap"
	"github.com/lord/ocaml-swift-example/hostiface"
	"github.com/lord/ocaml-swift-example/linked"
	"github.com/lord/ocaml-swift-example/pool"
	"github.com/lord/ocaml-swift-example/stats"
	"go.uber.org/zap"
)

// Variant selects which engine backs the facade.
type Variant int

const (
	// VariantPool is the primary, default engine (§9 Open Questions:
	// "pick variant 4.1 as primary since it has the best measured
	// throughput and the richest engineering").
	VariantPool Variant = iota
	VariantBitmap
	VariantLinked
)

// Config collects the §6 "Configuration knobs (compile-time)" as ordinary
// struct fields, plus the variant selector.
type Config struct {
	Variant             Variant
	PoolLogSize         uint
	GenerationalEnabled bool
	Domain              int
	DebugAssertLevel    int
	// Logger receives the one-time pre-setup-misuse warning (§7). A nil
	// Logger defaults to zap.NewNop(), matching the teacher's preference
	// for an always-valid no-op logger over a nil check at every call site.
	Logger *zap.Logger
}

// DefaultConfig returns the recommended configuration: the pool variant,
// the default pool size, and the generational fast path enabled. Setup
// does not fall back to it as a whole; see Setup for which zero fields it
// fills in.
func DefaultConfig() Config {
	return Config{
		Variant:             VariantPool,
		PoolLogSize:         pool.DefaultPoolLogSize,
		GenerationalEnabled: true,
	}
}

// backend is the one operation common to every variant's Engine, enough
// to let Teardown dispatch without a type switch.
type backend interface {
	Teardown()
}

// Handle is the facade's own opaque handle type, wrapping whichever
// variant's concrete handle is live underneath. A Handle obtained while
// one variant is set up is meaningless to another; this is the "wrong
// engine" misuse case §7 calls undefined behavior, not something this
// type tries to prevent.
type Handle struct {
	variant Variant
	pool    pool.Handle
	bitmap  bitmap.Handle
	linked  linked.Handle
}

// IsNull reports whether h is the null handle for its variant.
func (h Handle) IsNull() bool {
	switch h.variant {
	case VariantBitmap:
		return h.bitmap.IsNull()
	case VariantLinked:
		return h.linked.IsNull()
	default:
		return h.pool.IsNull()
	}
}

var (
	mu      sync.Mutex
	isSetUp bool
	cfg     Config
	st      *stats.Stats

	poolEngine   *pool.Engine
	bitmapEngine *bitmap.Engine
	linkedEngine *linked.Engine
	active       backend
)

// Setup initializes the facade against rt with cfg. A zero PoolLogSize is
// replaced by pool.DefaultPoolLogSize and a nil Logger by a no-op logger;
// every other field, GenerationalEnabled included, is used as given.
// Idempotent: returns false if already
// set up without changing any state (§6, invariant 5).
func Setup(rtImpl hostiface.Runtime, c Config) bool {
	mu.Lock()
	defer mu.Unlock()

	if isSetUp {
		return false
	}

	if c.PoolLogSize == 0 {
		c.PoolLogSize = pool.DefaultPoolLogSize
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	cfg = c
	st = stats.New()

	switch cfg.Variant {
	case VariantBitmap:
		bitmapEngine = bitmap.New(rtImpl, bitmap.Config{
			GenerationalEnabled: cfg.GenerationalEnabled,
			Domain:              cfg.Domain,
			DebugAssertLevel:    cfg.DebugAssertLevel,
		}, st)
		active = bitmapEngine
	case VariantLinked:
		linkedEngine = linked.New(rtImpl, linked.Config{
			GenerationalEnabled: cfg.GenerationalEnabled,
			DebugAssertLevel:    cfg.DebugAssertLevel,
		}, st)
		active = linkedEngine
	default:
		poolEngine = pool.New(rtImpl, pool.Config{
			PoolLogSize:         cfg.PoolLogSize,
			GenerationalEnabled: cfg.GenerationalEnabled,
			Domain:              cfg.Domain,
			DebugAssertLevel:    cfg.DebugAssertLevel,
		}, st)
		active = poolEngine
	}

	isSetUp = true
	return true
}

// Teardown releases every pool/chunk/element and clears the setup flag.
// Idempotent (§6, invariant 5): a second call is a no-op.
func Teardown() {
	mu.Lock()
	defer mu.Unlock()

	if !isSetUp {
		return
	}
	active.Teardown()
	poolEngine, bitmapEngine, linkedEngine, active = nil, nil, nil, nil
	isSetUp = false
}

// Create implements the public create operation (§6). Returns the null
// handle both on capacity exhaustion and on the pre-setup misuse case
// (§7), logging once for the latter.
func Create(payload hostiface.Payload) Handle {
	mu.Lock()
	if !isSetUp {
		mu.Unlock()
		logPreSetupMisuse()
		return Handle{variant: cfg.Variant}
	}
	variant := cfg.Variant
	mu.Unlock()

	switch variant {
	case VariantBitmap:
		return Handle{variant: variant, bitmap: bitmapEngine.Create(payload)}
	case VariantLinked:
		return Handle{variant: variant, linked: linkedEngine.Create(payload)}
	default:
		return Handle{variant: variant, pool: poolEngine.Create(payload)}
	}
}

// Get implements the public get operation (§6). h must be non-null.
func Get(h Handle) hostiface.Payload {
	switch h.variant {
	case VariantBitmap:
		return bitmapEngine.Get(h.bitmap)
	case VariantLinked:
		return linkedEngine.Get(h.linked)
	default:
		return poolEngine.Get(h.pool)
	}
}

// GetRef implements get_ref (§6): valid until the next Modify or Delete on
// this handle.
func GetRef(h Handle) *hostiface.Payload {
	switch h.variant {
	case VariantBitmap:
		return bitmapEngine.GetRef(h.bitmap)
	case VariantLinked:
		return linkedEngine.GetRef(h.linked)
	default:
		return poolEngine.GetRef(h.pool)
	}
}

// Delete implements the public delete operation (§6). h must be non-null.
func Delete(h Handle) {
	switch h.variant {
	case VariantBitmap:
		bitmapEngine.Delete(h.bitmap)
	case VariantLinked:
		linkedEngine.Delete(h.linked)
	default:
		poolEngine.Delete(h.pool)
	}
}

// Modify implements the public modify operation (§6): h is taken by
// pointer since the linked variant may rewrite it on a young-to-old
// promotion (§9); pool and bitmap never rewrite it.
func Modify(h *Handle, newPayload hostiface.Payload) {
	switch h.variant {
	case VariantBitmap:
		bitmapEngine.Modify(&h.bitmap, newPayload)
	case VariantLinked:
		linkedEngine.Modify(&h.linked, newPayload)
	default:
		poolEngine.Modify(&h.pool, newPayload)
	}
}

// PrintStats implements print_stats (§6): writes a human-readable summary
// to os.Stdout.
func PrintStats() {
	FprintStats(os.Stdout)
}

// FprintStats writes the summary to an arbitrary writer; used by tests and
// by cmd/rootrefbench to capture output without touching stdout.
func FprintStats(w io.Writer) {
	mu.Lock()
	s := st
	mu.Unlock()
	if s == nil {
		return
	}
	s.PrintStats(w)
}

var loggedPreSetup bool

func logPreSetupMisuse() {
	mu.Lock()
	defer mu.Unlock()
	if loggedPreSetup {
		return
	}
	loggedPreSetup = true
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Warn("create called before setup")
}
