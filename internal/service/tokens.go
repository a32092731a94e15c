package service

import (
	"log/slog"

	"github.com/pkoukk/tiktoken-go"

	"github.com/xiaot623/supportiq/internal/config"
)

// TokenCounter estimates prompt tokens for history windowing.
type TokenCounter interface {
	Count(text string) int
}

// HeuristicCounter weighs ASCII as a quarter token and any other rune as a
// full token.
type HeuristicCounter struct{}

func (HeuristicCounter) Count(text string) int {
	weight := 0
	for _, r := range text {
		if r <= 127 {
			weight++
		} else {
			weight += 4
		}
	}
	return (weight + 3) / 4
}

// TiktokenCounter counts with a BPE encoding.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter loads cl100k_base.
func NewTiktokenCounter() (*TiktokenCounter, error) {
	tkm, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{encoding: tkm}, nil
}

func (t *TiktokenCounter) Count(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// NewTokenCounter picks a counter by name. A tiktoken encoding that cannot
// be loaded degrades to the heuristic.
func NewTokenCounter(kind string, logger *slog.Logger) TokenCounter {
	if kind != config.TokenizerTiktoken {
		return HeuristicCounter{}
	}
	counter, err := NewTiktokenCounter()
	if err != nil {
		logger.Warn("tiktoken unavailable, using heuristic token counts", "error", err)
		return HeuristicCounter{}
	}
	return counter
}
