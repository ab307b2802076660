package nodelist

import "testing"

func TestPushBackOrder(t *testing.T) {
	l := New[string]()
	l.PushBack("a")
	l.PushBack("b")
	l.PushBack("c")

	var got []string
	l.Each(func(h Handle, v string) bool {
		got = append(got, v)
		return true
	})
	want := []string{"a", "b", "c"}
	for i, v := range want {
		if got[i] != v {
			t.Fatalf("index %d: got %q want %q", i, got[i], v)
		}
	}
	if l.Len() != 3 {
		t.Fatalf("Len: %d", l.Len())
	}
}

func TestPushFront(t *testing.T) {
	l := New[int]()
	l.PushBack(2)
	l.PushFront(1)
	if v, _ := l.Get(l.Front()); v != 1 {
		t.Fatalf("Front value: %d", v)
	}
	if v, _ := l.Get(l.Back()); v != 2 {
		t.Fatalf("Back value: %d", v)
	}
}

func TestRemoveMiddle(t *testing.T) {
	l := New[int]()
	ha := l.PushBack(1)
	hb := l.PushBack(2)
	hc := l.PushBack(3)

	if code := l.Remove(hb); code != "ok" {
		t.Fatalf("Remove: %v", code)
	}
	_ = ha
	_ = hc

	var got []int
	l.Each(func(h Handle, v int) bool {
		got = append(got, v)
		return true
	})
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("expected [1 3] after removing middle, got %v", got)
	}
	if l.Len() != 2 {
		t.Fatalf("Len after remove: %d", l.Len())
	}
}

func TestInsertAfter(t *testing.T) {
	l := New[int]()
	h1 := l.PushBack(1)
	l.PushBack(3)
	if _, code := l.InsertAfter(h1, 2); code != "ok" {
		t.Fatalf("InsertAfter: %v", code)
	}
	var got []int
	l.Each(func(h Handle, v int) bool {
		got = append(got, v)
		return true
	})
	want := []int{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestInsertAfterUnknownHandle(t *testing.T) {
	l := New[int]()
	if _, code := l.InsertAfter(Handle(999), 1); code != "not_found" {
		t.Fatalf("expected not_found, got %v", code)
	}
}

func TestRemoveUnknownHandle(t *testing.T) {
	l := New[int]()
	if code := l.Remove(Handle(42)); code != "not_found" {
		t.Fatalf("expected not_found, got %v", code)
	}
}

func TestSetOverwritesInPlace(t *testing.T) {
	l := New[string]()
	h := l.PushBack("x")
	if code := l.Set(h, "y"); code != "ok" {
		t.Fatalf("Set: %v", code)
	}
	if v, _ := l.Get(h); v != "y" {
		t.Fatalf("expected overwritten value, got %q", v)
	}
}

func TestClearEmptiesListAndInvalidatesHandles(t *testing.T) {
	l := New[int]()
	h := l.PushBack(1)
	l.PushBack(2)

	l.Clear()

	if l.Len() != 0 || l.Front() != 0 || l.Back() != 0 {
		t.Fatalf("expected an empty list after Clear, got len=%d front=%d back=%d", l.Len(), l.Front(), l.Back())
	}
	if _, code := l.Get(h); code != "not_found" {
		t.Fatalf("expected stale handles invalidated by Clear, got %v", code)
	}

	h2 := l.PushBack(3)
	if h2 == h {
		t.Fatal("expected a post-Clear handle to never alias a stale one")
	}
	if v, _ := l.Get(h2); v != 3 {
		t.Fatalf("expected the list to be usable after Clear, got %d", v)
	}
}

func TestEachStopsEarly(t *testing.T) {
	l := New[int]()
	l.PushBack(1)
	l.PushBack(2)
	l.PushBack(3)
	var seen []int
	l.Each(func(h Handle, v int) bool {
		seen = append(seen, v)
		return v != 2
	})
	if len(seen) != 2 {
		t.Fatalf("expected Each to stop after 2 elements, got %v", seen)
	}
}

func TestNextPrev(t *testing.T) {
	l := New[int]()
	h1 := l.PushBack(1)
	h2 := l.PushBack(2)
	h3 := l.PushBack(3)
	if l.Next(h1) != h2 || l.Next(h2) != h3 {
		t.Fatal("Next chain broken")
	}
	if l.Prev(h3) != h2 || l.Prev(h2) != h1 {
		t.Fatal("Prev chain broken")
	}
	if l.Next(h3) != 0 || l.Prev(h1) != 0 {
		t.Fatal("expected zero Handle at list edges")
	}
}
