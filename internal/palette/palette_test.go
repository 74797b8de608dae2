package palette

import "testing"

func TestGridSize(t *testing.T) {
	if len(colors) != Size {
		t.Fatalf("expected %d colors, got %d", Size, len(colors))
	}
	for i, color := range colors {
		if len(color) != 7 || color[0] != '#' {
			t.Fatalf("color %d malformed: %q", i, color)
		}
	}
}

func TestPositionRoundTrip(t *testing.T) {
	for i := 0; i < Size; i++ {
		col, row := Position(i)
		if back := Index(col, row); back != i {
			t.Fatalf("index %d round-tripped to %d via (%d,%d)", i, back, col, row)
		}
	}
}

func TestCoordinate(t *testing.T) {
	cases := []struct {
		index int
		want  string
	}{
		{0, "A-1"},
		{23, "A-24"},
		{24, "B-1"},
		{Size - 1, "T-24"},
		{2*GridCols + 3, "C-4"},
	}
	for _, tc := range cases {
		if got := Coordinate(tc.index); got != tc.want {
			t.Errorf("Coordinate(%d) = %q, want %q", tc.index, got, tc.want)
		}
	}
}

func TestSampleFourDistinctInRange(t *testing.T) {
	for trial := 0; trial < 100; trial++ {
		card := SampleFour()
		seen := make(map[int]struct{}, 4)
		for _, index := range card {
			if index < 0 || index >= Size {
				t.Fatalf("sampled index %d out of range", index)
			}
			if _, dup := seen[index]; dup {
				t.Fatalf("duplicate index %d in card %v", index, card)
			}
			seen[index] = struct{}{}
		}
	}
}

func TestDistanceSelfIsZero(t *testing.T) {
	for _, index := range []int{0, 5, 239, Center(), Size - 1} {
		d := Distance(index, index)
		if d.Rows != 0 || d.Cols != 0 {
			t.Fatalf("Distance(%d,%d) = %+v, want zero", index, index, d)
		}
	}
}

func TestScoreRings(t *testing.T) {
	cases := []struct {
		delta Delta
		want  int
	}{
		{Delta{0, 0}, 3},
		{Delta{0, 1}, 2},
		{Delta{1, 1}, 2},
		{Delta{1, 2}, 1},
		{Delta{2, 2}, 1},
		{Delta{0, 3}, 0},
		{Delta{3, 0}, 0},
		{Delta{10, 10}, 0},
	}
	for _, tc := range cases {
		if got := Score(tc.delta); got != tc.want {
			t.Errorf("Score(%+v) = %d, want %d", tc.delta, got, tc.want)
		}
	}
}

func TestScoreMonotonicity(t *testing.T) {
	for rows := 0; rows < 5; rows++ {
		for cols := 0; cols < 5; cols++ {
			inner := Score(Delta{Rows: rows, Cols: cols})
			for dr := 0; dr < 3; dr++ {
				for dc := 0; dc < 3; dc++ {
					outer := Score(Delta{Rows: rows + dr, Cols: cols + dc})
					if inner < outer {
						t.Fatalf("score increased moving out: (%d,%d)=%d vs (%d,%d)=%d",
							rows, cols, inner, rows+dr, cols+dc, outer)
					}
				}
			}
		}
	}
}

func TestInvalidIndexPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range index")
		}
	}()
	Color(Size)
}
