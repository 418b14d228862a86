package engine

import (
	"fmt"

	"github.com/hailam/checkers/internal/board"
)

// ScoringMode selects the evaluation terms.
type ScoringMode int

const (
	// NumberOnly counts material: men and weighted kings.
	NumberOnly ScoringMode = iota
	// NumberAndPotential also rewards men for advancing toward promotion.
	NumberAndPotential
)

// Evaluation weights
const (
	kingWeight          = 4
	kingWeightPotential = 5
	potentialPerRow     = 0.05
)

// String returns the settings name of the mode.
func (m ScoringMode) String() string {
	switch m {
	case NumberAndPotential:
		return "NumberAndPotential"
	default:
		return "NumberOnly"
	}
}

// ParseScoringMode parses a settings name. The empty string is NumberOnly.
func ParseScoringMode(s string) (ScoringMode, error) {
	switch s {
	case "", "NumberOnly":
		return NumberOnly, nil
	case "NumberAndPotential":
		return NumberAndPotential, nil
	default:
		return NumberOnly, fmt.Errorf("unknown scoring mode %q", s)
	}
}

// Score evaluates g from the point of view of perspective. Higher is better:
// 0 when perspective has no pieces left, Infinity when the opponent has none,
// otherwise own material divided by opponent material. This is the inverse of
// an opponent/own ratio where lower is better; it keeps "no own pieces" as the
// worst value and "no opponent pieces" as the best, and lets the searching
// side maximize.
func Score(g board.Grid, perspective board.Color, mode ScoringMode) float64 {
	var men, kings [2]float64

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			switch g[row][col] {
			case board.WhiteMan:
				men[board.White]++
				if mode == NumberAndPotential {
					men[board.White] += potentialPerRow * float64(7-row)
				}
			case board.BlackMan:
				men[board.Black]++
				if mode == NumberAndPotential {
					men[board.Black] += potentialPerRow * float64(row)
				}
			case board.WhiteKing:
				kings[board.White]++
			case board.BlackKing:
				kings[board.Black]++
			}
		}
	}

	us, them := perspective, perspective.Other()
	if men[them]+kings[them] == 0 {
		return Infinity
	}
	if men[us]+kings[us] == 0 {
		return 0
	}

	k := float64(kingWeight)
	if mode == NumberAndPotential {
		k = kingWeightPotential
	}
	return (men[us] + kings[us]*k) / (men[them] + kings[them]*k)
}
