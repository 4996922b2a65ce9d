package bootstrap

import "testing"

func TestBootQueueDiscardsOldestWhenFull(t *testing.T) {
	q := newBootQueue(2)

	if _, dropped := q.push(queuedRequest{id: 1, line: "a"}); dropped {
		t.Fatal("push into empty queue reported a drop")
	}
	if _, dropped := q.push(queuedRequest{id: 2, line: "b"}); dropped {
		t.Fatal("push under cap reported a drop")
	}
	old, dropped := q.push(queuedRequest{id: 3, line: "c"})
	if !dropped {
		t.Fatal("push over cap did not report a drop")
	}
	if old.id != 1 {
		t.Fatalf("dropped id = %v, want 1", old.id)
	}

	got := q.drain()
	if len(got) != 2 || got[0].line != "b" || got[1].line != "c" {
		t.Fatalf("drain = %v, want [b c]", got)
	}
}

func TestBootQueueDrainEmptiesAndPreservesOrder(t *testing.T) {
	q := newBootQueue(5)
	q.push(queuedRequest{id: "x", line: "first"})
	q.push(queuedRequest{id: "y", line: "second"})

	got := q.drain()
	if len(got) != 2 || got[0].line != "first" || got[1].line != "second" {
		t.Fatalf("drain = %v, want [first second]", got)
	}
	if q.len() != 0 {
		t.Fatalf("len after drain = %d, want 0", q.len())
	}
}

func TestBootQueueDefaultsCapWhenUnset(t *testing.T) {
	q := newBootQueue(0)
	for i := 0; i < DefaultQueueMax; i++ {
		if _, dropped := q.push(queuedRequest{id: i, line: "r"}); dropped {
			t.Fatalf("push %d reported a drop under the default cap", i)
		}
	}
	if _, dropped := q.push(queuedRequest{id: DefaultQueueMax, line: "r"}); !dropped {
		t.Fatal("push past the default cap did not report a drop")
	}
}
