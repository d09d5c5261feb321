package sim

import (
	"context"
	"testing"

	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/logger"
)

func TestRunIsDeterministicPerSeed(t *testing.T) {
	// Setup
	opts := Options{Games: 3, Seed: 7, BoardSize: 10, MaxSteps: 300, Workers: 2}

	// Act
	first, err := NewRunner(logger.Discard()).Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	second, err := NewRunner(logger.Discard()).Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Assert
	if len(first.Results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(first.Results))
	}
	for i := range first.Results {
		a, b := first.Results[i], second.Results[i]
		if a.Seed != uint64(7+i) {
			t.Errorf("Results not ordered by seed: %+v", first.Results)
		}
		if a.Score != b.Score || a.Ticks != b.Ticks || a.Reason != b.Reason {
			t.Errorf("Seed %d diverged: %+v vs %+v", a.Seed, a, b)
		}
		if a.Ticks == 0 || a.Reason == "" {
			t.Errorf("Game did not play: %+v", a)
		}
	}
	if first.Decisions == 0 {
		t.Errorf("Autopilot decisions not counted")
	}
	if first.BestScore == 0 {
		t.Errorf("Expected the autopilot to score on a 10x10 board, got %+v", first)
	}
}

func TestRunRejectsEmptyBatch(t *testing.T) {
	if _, err := NewRunner(logger.Discard()).Run(context.Background(), Options{}); err == nil {
		t.Error("Expected an error for zero games")
	}
}
