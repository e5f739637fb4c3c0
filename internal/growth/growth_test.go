package growth

import "testing"

func TestNext(t *testing.T) {
	tests := []struct {
		old, required, want int
	}{
		{0, 1, 1},
		{0, 0, 1},
		{1, 1, 2},
		{4, 1, 7},
		{10, 5, 20},
	}

	for _, tt := range tests {
		if got := Next(tt.old, tt.required); got != tt.want {
			t.Errorf("Next(%d, %d) = %d, want %d", tt.old, tt.required, got, tt.want)
		}
	}
}

func TestNextAlwaysFits(t *testing.T) {
	for old := 0; old < 100; old++ {
		for req := 1; req < 10; req++ {
			if got := Next(old, req); got < old+req {
				t.Fatalf("Next(%d, %d) = %d does not fit", old, req, got)
			}
		}
	}
}
