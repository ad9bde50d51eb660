package model

import (
	"errors"
	"fmt"
	"math"
)

const (
	MinRawScore     = 1
	MaxRawScore     = 10
	BonusMultiplier = 1.2
)

var (
	ErrScoreOutOfRange = errors.New("score out of range")
	ErrScoreNotInteger = errors.New("score must be an integer")
)

// Score is a validated affection rating and its bonus-adjusted value.
type Score struct {
	raw      int
	adjusted int
}

// ScoreFromRaw validates raw and derives the adjusted value.
func ScoreFromRaw(raw float64) (Score, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) || math.Trunc(raw) != raw {
		return Score{}, fmt.Errorf("%w: %v", ErrScoreNotInteger, raw)
	}
	if raw < MinRawScore || raw > MaxRawScore {
		return Score{}, fmt.Errorf("%w: %v not in [%d,%d]", ErrScoreOutOfRange, raw, MinRawScore, MaxRawScore)
	}
	r := int(raw)
	return Score{
		raw:      r,
		adjusted: int(math.Round(float64(r) * BonusMultiplier)),
	}, nil
}

func (s Score) Raw() int {
	return s.raw
}

func (s Score) Adjusted() int {
	return s.adjusted
}
