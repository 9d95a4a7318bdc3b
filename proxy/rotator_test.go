package proxy

import "testing"

func TestRotator_NoRepeatUntilFullCycle(t *testing.T) {
	eps := []Endpoint{
		{Host: "a", Port: 1},
		{Host: "b", Port: 2},
		{Host: "c", Port: 3},
	}
	r := NewRotator(eps)

	// Two full cycles: every endpoint must appear exactly once per cycle.
	for cycle := 0; cycle < 2; cycle++ {
		seen := map[string]bool{}
		for i := 0; i < len(eps); i++ {
			ep, ok := r.Next()
			if !ok {
				t.Fatal("Next returned !ok on non-empty rotation")
			}
			if seen[ep.Addr()] {
				t.Fatalf("cycle %d: endpoint %s repeated before full cycle", cycle, ep.Addr())
			}
			seen[ep.Addr()] = true
		}
		if len(seen) != len(eps) {
			t.Fatalf("cycle %d: saw %d distinct endpoints, want %d", cycle, len(seen), len(eps))
		}
	}
}

func TestRotator_Order(t *testing.T) {
	r := NewRotator([]Endpoint{{Host: "a", Port: 1}, {Host: "b", Port: 2}})

	want := []string{"a:1", "b:2", "a:1", "b:2"}
	for i, w := range want {
		ep, _ := r.Next()
		if ep.Addr() != w {
			t.Errorf("Next #%d = %s, want %s", i, ep.Addr(), w)
		}
	}
}

func TestRotator_Current(t *testing.T) {
	r := NewRotator([]Endpoint{{Host: "a", Port: 1}, {Host: "b", Port: 2}})

	if _, ok := r.Current(); ok {
		t.Fatal("Current before first Next should be !ok")
	}

	r.Next()
	cur, ok := r.Current()
	if !ok || cur.Addr() != "a:1" {
		t.Errorf("Current = %v %v, want a:1 true", cur, ok)
	}

	r.Next()
	cur, _ = r.Current()
	if cur.Addr() != "b:2" {
		t.Errorf("Current after second Next = %s, want b:2", cur.Addr())
	}
}

func TestRotator_Empty(t *testing.T) {
	r := NewRotator(nil)
	if r.Size() != 0 {
		t.Errorf("Size = %d, want 0", r.Size())
	}
	if _, ok := r.Next(); ok {
		t.Error("Next on empty rotation should be !ok")
	}
	if _, ok := r.Current(); ok {
		t.Error("Current on empty rotation should be !ok")
	}
}
