// Package board holds the pure rules of the 3x3x3 board: coordinate mapping,
// placement and line detection. Nothing here touches storage or time.
package board

import (
	"fmt"

	"github.com/mcoot/tictactoe3d/internal/model"
)

// Line is three cell indices that win when held by one symbol
type Line [3]int

// Lines is every winning line on the cube. Planes are the 9-cell blocks of
// consecutive indices, i.e. the first coordinate is fixed within a plane.
var Lines = [49]Line{
	// Plane x=-1: rows, columns, diagonals
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},

	// Plane x=0
	{9, 10, 11}, {12, 13, 14}, {15, 16, 17},
	{9, 12, 15}, {10, 13, 16}, {11, 14, 17},
	{9, 13, 17}, {11, 13, 15},

	// Plane x=1
	{18, 19, 20}, {21, 22, 23}, {24, 25, 26},
	{18, 21, 24}, {19, 22, 25}, {20, 23, 26},
	{18, 22, 26}, {20, 22, 24},

	// Straight through all three planes
	{0, 9, 18}, {1, 10, 19}, {2, 11, 20},
	{3, 12, 21}, {4, 13, 22}, {5, 14, 23},
	{6, 15, 24}, {7, 16, 25}, {8, 17, 26},

	// Diagonals of the planes with y fixed
	{0, 10, 20}, {2, 10, 18},
	{3, 13, 23}, {5, 13, 21},
	{6, 16, 26}, {8, 16, 24},

	// Diagonals of the planes with z fixed
	{0, 12, 24}, {6, 12, 18},
	{1, 13, 25}, {7, 13, 19},
	{2, 14, 26}, {8, 14, 20},

	// Space diagonals through the centre
	{0, 13, 26}, {2, 13, 24}, {6, 13, 20}, {8, 13, 18},
}

// ValidCoordinate reports whether v is a legal axis value
func ValidCoordinate(v int) bool {
	return v >= -1 && v <= 1
}

// InRange reports whether all three coordinates are legal
func InRange(x, y, z int) bool {
	return ValidCoordinate(x) && ValidCoordinate(y) && ValidCoordinate(z)
}

// CellIndex maps coordinates to a board index. Callers must check InRange
// first; out of range coordinates are a programming error.
func CellIndex(x, y, z int) int {
	if !InRange(x, y, z) {
		panic(fmt.Sprintf("board: coordinates (%d, %d, %d) out of range", x, y, z))
	}
	return (x+1)*9 + (y+1)*3 + (z + 1)
}

// Coordinates is the inverse of CellIndex
func Coordinates(index int) (x, y, z int) {
	return index/9 - 1, (index/3)%3 - 1, index%3 - 1
}

// ApplyMove returns a copy of the board with the symbol placed at index.
// The input board is never modified.
func ApplyMove(b model.Board, index int, symbol model.Symbol) (model.Board, error) {
	if index < 0 || index >= model.CellCount {
		return b, model.ErrOutOfRange
	}
	if b[index] != model.SymbolNone {
		return b, model.ErrCellOccupied
	}
	b[index] = symbol
	return b, nil
}

// WinningLine returns the first line fully held by symbol
func WinningLine(b model.Board, symbol model.Symbol) (Line, bool) {
	if symbol == model.SymbolNone {
		return Line{}, false
	}
	for _, line := range Lines {
		if b[line[0]] == symbol && b[line[1]] == symbol && b[line[2]] == symbol {
			return line, true
		}
	}
	return Line{}, false
}

// CheckWin reports whether symbol holds any complete line
func CheckWin(b model.Board, symbol model.Symbol) bool {
	_, ok := WinningLine(b, symbol)
	return ok
}

// IsFull reports whether every cell is occupied
func IsFull(b model.Board) bool {
	return b.Occupied() == model.CellCount
}

// CheckDraw reports a full board on which neither symbol holds a line
func CheckDraw(b model.Board) bool {
	return IsFull(b) && !CheckWin(b, model.SymbolX) && !CheckWin(b, model.SymbolO)
}
