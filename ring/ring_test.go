package ring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSingleton(t *testing.T) {
	n := New(42)
	require.True(t, n.Alone())
	require.Equal(t, 1, n.Len())
	require.Equal(t, n, n.Next())
	require.Equal(t, n, n.Prev())
}

func TestInsertAfterAndLen(t *testing.T) {
	a := New("a")
	b := New("b")
	c := New("c")

	a.InsertAfter(b)
	require.Equal(t, 2, a.Len())
	a.InsertAfter(c)
	require.Equal(t, 3, a.Len())

	var seen []string
	a.Do(func(s string) { seen = append(seen, s) })
	require.ElementsMatch(t, []string{"a", "b", "c"}, seen)
}

func TestRemove(t *testing.T) {
	a := New(1)
	b := New(2)
	a.InsertAfter(b)
	require.Equal(t, 2, a.Len())

	b.Remove()
	require.True(t, b.Alone())
	require.Equal(t, 1, a.Len())
}

func TestMoveToHead(t *testing.T) {
	a := New("a")
	b := New("b")
	a.InsertAfter(b)

	c := New("c")
	head := c.MoveToHead(a)
	require.Equal(t, c, head)
	require.Equal(t, 3, head.Len())

	var seen []string
	head.Do(func(s string) { seen = append(seen, s) })
	require.Equal(t, []string{"c", "a", "b"}, seen)
}

func TestMoveToTail(t *testing.T) {
	a := New("a")
	b := New("b")
	a.InsertAfter(b)

	c := New("c")
	c.MoveToTail(a)
	require.Equal(t, 3, a.Len())

	var seen []string
	a.Do(func(s string) { seen = append(seen, s) })
	require.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestConcatAfter(t *testing.T) {
	a := New(1)
	b := New(2)
	a.InsertAfter(b)

	x := New(10)
	y := New(20)
	x.InsertAfter(y)

	a.ConcatAfter(x)
	require.Equal(t, 4, a.Len())

	var seen []int
	a.Do(func(v int) { seen = append(seen, v) })
	require.Equal(t, []int{1, 10, 20, 2}, seen)
}

func TestDoOnNilIsNoop(t *testing.T) {
	var n *Node[int]
	called := false
	n.Do(func(int) { called = true })
	require.False(t, called)
	require.Equal(t, 0, n.Len())
}
