// Package palette holds the fixed color grid the game is played on:
// 480 colors laid out 24 wide by 20 tall, generated once from an HSL
// ramp so every process sees the identical board.
package palette

import (
	"fmt"
	"math"
	"math/rand"
)

const (
	GridCols = 24
	GridRows = 20
	Size     = GridCols * GridRows
)

var colors = buildColors()

// buildColors generates 20 lightness levels by 24 hues. Saturation varies
// slightly with the lightness band; the darkest band is pure gray.
func buildColors() []string {
	out := make([]string, 0, Size)
	for l := 0; l < GridRows; l++ {
		lightness := 10 + float64(l)*4.5
		for h := 0; h < GridCols; h++ {
			hue := float64(h * 15)
			saturation := 0.0
			if l != 0 {
				saturation = 70 + float64(l%3)*10
			}
			out = append(out, hslToHex(hue, saturation, lightness))
		}
	}
	return out
}

func hslToHex(h, s, l float64) string {
	l /= 100
	a := s * math.Min(l, 1-l) / 100
	f := func(n float64) int {
		k := math.Mod(n+h/30, 12)
		c := l - a*math.Max(math.Min(math.Min(k-3, 9-k), 1), -1)
		return int(math.Round(255 * c))
	}
	return fmt.Sprintf("#%02x%02x%02x", f(0), f(8), f(4))
}

func mustIndex(index int) {
	if index < 0 || index >= Size {
		panic(fmt.Sprintf("palette: index %d out of range [0,%d)", index, Size))
	}
}

// Color returns the hex color at index.
func Color(index int) string {
	mustIndex(index)
	return colors[index]
}

// Position converts an index to its grid column and row.
func Position(index int) (col, row int) {
	mustIndex(index)
	return index % GridCols, index / GridCols
}

// Index converts a grid column and row back to a palette index.
func Index(col, row int) int {
	if col < 0 || col >= GridCols || row < 0 || row >= GridRows {
		panic(fmt.Sprintf("palette: position (%d,%d) out of range", col, row))
	}
	return row*GridCols + col
}

// Coordinate returns the human-readable board label for an index,
// row letter first ("A-1" is the top-left square).
func Coordinate(index int) string {
	col, row := Position(index)
	return fmt.Sprintf("%c-%d", 'A'+row, col+1)
}

// Center returns the index players are auto-assigned when a guess
// deadline passes without input.
func Center() int {
	return Size / 2
}

// SampleFour draws four distinct indices uniformly at random.
func SampleFour() [4]int {
	var picked [4]int
	seen := make(map[int]struct{}, 4)
	for i := 0; i < 4; {
		candidate := rand.Intn(Size)
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		picked[i] = candidate
		i++
	}
	return picked
}

// Delta is the absolute row and column distance between two squares.
// The two axes stay separate because scoring rings are square, not
// circular.
type Delta struct {
	Rows int
	Cols int
}

// Distance returns the grid delta between two indices.
func Distance(a, b int) Delta {
	colA, rowA := Position(a)
	colB, rowB := Position(b)
	return Delta{
		Rows: abs(rowB - rowA),
		Cols: abs(colB - colA),
	}
}

// Score maps a delta onto the concentric-square scoring frame:
// bullseye 3, inner ring 2, outer ring 1, anything further 0.
func Score(d Delta) int {
	switch {
	case d.Rows == 0 && d.Cols == 0:
		return 3
	case d.Rows <= 1 && d.Cols <= 1:
		return 2
	case d.Rows <= 2 && d.Cols <= 2:
		return 1
	default:
		return 0
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
