// Package linked implements variant 4.3 of the rooted reference allocator:
// the doubly-linked baseline with one heap cell per payload and no
// pooling. It exists as a correctness reference, not for throughput (§4.3).
//
// Grounded on the teacher's container/list.go element-per-node discipline,
// generalized via the same ring package pool and bitmap use, since a
// single-element "ring" of one is exactly container/list's Element
// relationship to its List.
package linked

import (
	"github.com/lord/ocaml-swift-example/hostiface"
	"github.com/lord/ocaml-swift-example/ring"
)

// Element is one tracked payload's dedicated cell. young records which
// generational ring it currently belongs to; it is meaningless while the
// element sits in the free cache.
type Element struct {
	node    *ring.Node[*Element]
	payload hostiface.Payload
	young   bool
}

func newElement() *Element {
	el := &Element{}
	el.node = ring.New(el)
	return el
}
