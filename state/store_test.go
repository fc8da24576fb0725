package state

import (
	"fmt"
	"slices"
	"sync"
	"testing"
)

func TestInsertGetRemove(t *testing.T) {
	s := New[string, int]()

	if _, replaced := s.Insert("a", 1); replaced {
		t.Error("expected first insert not to replace")
	}
	old, replaced := s.Insert("a", 2)
	if !replaced || old != 1 {
		t.Errorf("expected to replace 1, got %d (%v)", old, replaced)
	}
	if v, ok := s.Get("a"); !ok || v != 2 {
		t.Errorf("expected 2, got %d (%v)", v, ok)
	}
	if v, ok := s.Remove("a"); !ok || v != 2 {
		t.Errorf("expected removed 2, got %d (%v)", v, ok)
	}
	if _, ok := s.Remove("a"); ok {
		t.Error("expected second remove to report absence")
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("expected missing key to be absent")
	}
}

func TestLenContainsClear(t *testing.T) {
	s := New[string, string]()
	if !s.IsEmpty() {
		t.Error("expected new store to be empty")
	}
	s.Insert("x", "1")
	s.Insert("y", "2")
	if s.Len() != 2 || !s.Contains("x") || s.Contains("z") {
		t.Errorf("unexpected state: len=%d", s.Len())
	}
	s.Clear()
	if !s.IsEmpty() || s.Contains("x") {
		t.Error("expected clear to remove everything")
	}
}

func TestKeysValuesSnapshot(t *testing.T) {
	s := New[string, int]()
	s.Insert("b", 2)
	s.Insert("a", 1)

	keys := s.Keys()
	slices.Sort(keys)
	if !slices.Equal(keys, []string{"a", "b"}) {
		t.Errorf("unexpected keys %v", keys)
	}
	values := s.Values()
	slices.Sort(values)
	if !slices.Equal(values, []int{1, 2}) {
		t.Errorf("unexpected values %v", values)
	}

	snap := s.Snapshot()
	snap["c"] = 3
	if s.Contains("c") {
		t.Error("expected snapshot to be detached from the store")
	}
}

func TestCloneSharesState(t *testing.T) {
	a := New[string, int]()
	b := a.Clone()

	b.Insert("k", 7)
	if v, ok := a.Get("k"); !ok || v != 7 {
		t.Errorf("expected write through clone to be visible, got %d (%v)", v, ok)
	}
	a.Clear()
	if !b.IsEmpty() {
		t.Error("expected clear through original to be visible in clone")
	}
	if !a.Shares(b) || a.Shares(New[string, int]()) || a.Shares(nil) {
		t.Error("unexpected Shares result")
	}
}

func TestUpdate(t *testing.T) {
	s := New[string, int]()
	inc := func(cur int, ok bool) int {
		if !ok {
			return 1
		}
		return cur + 1
	}
	s.Update("n", inc)
	if got := s.Update("n", inc); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}

func TestPush(t *testing.T) {
	s := New[string, []string]()
	Push(s, "log", "a")
	Push(s, "log", "b", "c")

	got, _ := s.Get("log")
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("unexpected list %v", got)
	}
}

func TestPushDoesNotMutateEarlierReads(t *testing.T) {
	s := New[string, []int]()
	Push(s, "k", 1, 2)
	before, _ := s.Get("k")

	Push(s, "k", 3)
	_ = append(before, 99)

	after, _ := s.Get("k")
	if !slices.Equal(before, []int{1, 2}) || !slices.Equal(after, []int{1, 2, 3}) {
		t.Errorf("expected independent slices, got before=%v after=%v", before, after)
	}
}

func TestConcurrentPushLosesNothing(t *testing.T) {
	s := New[string, []int]()
	clone := s.Clone()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			target := s
			if i%2 == 0 {
				target = clone
			}
			Push(target, "k", i)
		}(i)
	}
	wg.Wait()

	got, _ := s.Get("k")
	if len(got) != 100 {
		t.Fatalf("expected 100 values, got %d", len(got))
	}
	slices.Sort(got)
	for i, v := range got {
		if v != i {
			t.Fatalf("missing value %d", i)
		}
	}
}

func TestConcurrentReadWrite(t *testing.T) {
	s := New[string, int]()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.Insert(fmt.Sprintf("k%d", i), i)
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Keys()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	if s.Len() != 20 {
		t.Errorf("expected 20 entries, got %d", s.Len())
	}
}
