package relay

import (
	"testing"
)

func TestSendQueueDiscardsOldestWhenFull(t *testing.T) {
	q := newSendQueue(2)

	if dropped := q.push([]byte("a")); dropped {
		t.Fatal("push into empty queue reported a drop")
	}
	if dropped := q.push([]byte("b")); dropped {
		t.Fatal("push into non-full queue reported a drop")
	}
	if dropped := q.push([]byte("c")); !dropped {
		t.Fatal("push into full queue did not report a drop")
	}

	got := q.drain()
	if len(got) != 2 || string(got[0]) != "b" || string(got[1]) != "c" {
		t.Fatalf("drain = %q, want [b c]", got)
	}
	if q.len() != 0 {
		t.Fatalf("len after drain = %d, want 0", q.len())
	}
}

func TestSendQueueRequeueFrontPreservesOrder(t *testing.T) {
	q := newSendQueue(4)
	q.push([]byte("c"))
	q.requeueFront([][]byte{[]byte("a"), []byte("b")})

	got := q.drain()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("drain = %q, want %v", got, want)
	}
	for i := range want {
		if string(got[i]) != want[i] {
			t.Fatalf("drain[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSendQueueRequeueFrontRespectsBound(t *testing.T) {
	q := newSendQueue(2)
	q.push([]byte("x"))
	q.requeueFront([][]byte{[]byte("a"), []byte("b")})

	got := q.drain()
	if len(got) != 2 || string(got[0]) != "b" || string(got[1]) != "x" {
		t.Fatalf("drain = %q, want [b x] (oldest trimmed)", got)
	}
}
