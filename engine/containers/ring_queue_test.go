package containers

import "testing"

func TestRingQueueFIFOOrder(t *testing.T) {
	rq := NewRingQueue[int](4)
	for i := 1; i <= 4; i++ {
		if err := rq.Enqueue(i); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := rq.Enqueue(5); err != ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	for i := 1; i <= 4; i++ {
		v, err := rq.Dequeue()
		if err != nil {
			t.Fatalf("dequeue: %v", err)
		}
		if v != i {
			t.Fatalf("got %d, want %d", v, i)
		}
	}
	if _, err := rq.Dequeue(); err != ErrQueueEmpty {
		t.Fatalf("expected ErrQueueEmpty, got %v", err)
	}
}

func TestRingQueueWrapAround(t *testing.T) {
	rq := NewRingQueue[string](2)
	rq.Enqueue("a")
	rq.Enqueue("b")
	rq.Dequeue()
	if err := rq.Enqueue("c"); err != nil {
		t.Fatalf("enqueue after wrap: %v", err)
	}

	v, _ := rq.Peek()
	if v != "b" {
		t.Fatalf("peek got %q, want %q", v, "b")
	}
	if rq.Len() != 2 {
		t.Fatalf("len got %d, want 2", rq.Len())
	}
}
