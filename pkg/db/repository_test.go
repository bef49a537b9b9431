package db

import "testing"

func TestDistinct(t *testing.T) {
	got := distinct([]int{3, 1, 3, 2, 1})
	want := []int{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("db:repository_test - distinct = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("db:repository_test - distinct[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestToInt64s(t *testing.T) {
	got := toInt64s([]int{0, 7, -1})
	if len(got) != 3 || got[0] != 0 || got[1] != 7 || got[2] != -1 {
		t.Errorf("db:repository_test - toInt64s = %v", got)
	}
}
