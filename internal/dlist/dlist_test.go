package dlist

import (
	"math/rand"
	"testing"
)

type item struct {
	node Node[item]
	id   int
}

func newItem(id int) *item {
	it := &item{id: id}
	it.node.Init(it)
	return it
}

func ids(l *List[item]) []int {
	var out []int
	l.Each(func(it *item) bool {
		out = append(out, it.id)
		return true
	})
	return out
}

func checkRing(t *testing.T, l *List[item]) {
	t.Helper()
	head := l.Head()
	n := head
	for i := 0; ; i++ {
		if n.next.prev != n {
			t.Fatalf("node %p: next.prev = %p, want self", n, n.next.prev)
		}
		if n.prev.next != n {
			t.Fatalf("node %p: prev.next = %p, want self", n, n.prev.next)
		}
		n = n.next
		if n == head {
			return
		}
		if i > 10_000 {
			t.Fatal("ring does not return to head")
		}
	}
}

func TestEmptyList(t *testing.T) {
	var l List[item]
	if !l.Empty() {
		t.Fatal("zero List not empty")
	}
	if l.Front() != nil || l.Back() != nil {
		t.Fatal("Front/Back on empty list returned an element")
	}
	if got := l.Len(); got != 0 {
		t.Fatalf("Len() = %d, want 0", got)
	}
	checkRing(t, &l)
}

func TestInsertBeforeAfter(t *testing.T) {
	var l List[item]
	a, b, c, d := newItem(1), newItem(2), newItem(3), newItem(4)

	l.PushBack(&b.node)
	InsertBefore(&b.node, &a.node)
	InsertAfter(&b.node, &d.node)
	InsertBefore(&d.node, &c.node)

	got := ids(&l)
	want := []int{1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
	if l.Front() != a || l.Back() != d {
		t.Fatalf("Front/Back = %d/%d, want 1/4", l.Front().id, l.Back().id)
	}
	checkRing(t, &l)
}

func TestRemoveSelfLoops(t *testing.T) {
	var l List[item]
	a, b := newItem(1), newItem(2)
	l.PushBack(&a.node)
	l.PushBack(&b.node)

	Remove(&a.node)
	if !a.node.Detached() || a.node.Linked() {
		t.Fatal("removed node is not self-looped")
	}
	if got := ids(&l); len(got) != 1 || got[0] != 2 {
		t.Fatalf("ids after remove = %v, want [2]", got)
	}

	// A second remove must not disturb the list.
	Remove(&a.node)
	if got := l.Len(); got != 1 {
		t.Fatalf("Len() after double remove = %d, want 1", got)
	}
	checkRing(t, &l)
}

func TestEachAllowsRemovingCurrent(t *testing.T) {
	var l List[item]
	for i := 0; i < 5; i++ {
		l.PushBack(&newItem(i).node)
	}
	l.Each(func(it *item) bool {
		if it.id%2 == 0 {
			Remove(&it.node)
		}
		return true
	})
	got := ids(&l)
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("ids = %v, want [1 3]", got)
	}
	checkRing(t, &l)
}

func TestRandomOperationsKeepInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var l List[item]
	pool := make([]*item, 32)
	for i := range pool {
		pool[i] = newItem(i)
	}

	for step := 0; step < 5000; step++ {
		it := pool[rng.Intn(len(pool))]
		switch {
		case it.node.Linked():
			Remove(&it.node)
			if !it.node.Detached() {
				t.Fatalf("step %d: removed node %d not detached", step, it.id)
			}
		default:
			anchor := l.Head()
			if linked := l.Len(); linked > 0 {
				k := rng.Intn(linked)
				for n := l.First(); n != nil && k > 0; n = l.After(n) {
					anchor = n
					k--
				}
			}
			if rng.Intn(2) == 0 {
				InsertBefore(anchor, &it.node)
			} else {
				InsertAfter(anchor, &it.node)
			}
		}
		checkRing(t, &l)
		for _, p := range pool {
			if !p.node.Linked() && !p.node.Detached() {
				t.Fatalf("step %d: node %d neither linked nor detached", step, p.id)
			}
		}
	}
}
