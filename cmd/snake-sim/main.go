// Package main - snake-sim
// Plays batches of autopilot games without a server and prints a summary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/logger"
	"github.com/MRamiBalles/SnakeWeb/server/internal/sim"
)

func main() {
	games := flag.Int("games", 20, "Number of games to play")
	seed := flag.Uint64("seed", 1, "Seed of the first game; game i uses seed+i")
	board := flag.Int("board", 20, "Board size")
	maxSteps := flag.Int("max-steps", 5000, "Moves before a game is cut off")
	workers := flag.Int("workers", 4, "Games played concurrently")
	out := flag.String("out", "", "Write the JSON report to this file")
	minAvg := flag.Float64("min-average", 0, "Exit non-zero when the average score is below this")
	debug := flag.Bool("debug", false, "Log every game")
	flag.Parse()

	log := logger.NewLogger()
	log.SetDebug(*debug)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	fmt.Println("=========================================")
	fmt.Println("SNAKE SIM - autopilot batch")
	fmt.Println("=========================================")
	fmt.Printf("Games: %d  Seeds: %d..%d  Board: %dx%d\n", *games, *seed, *seed+uint64(*games)-1, *board, *board)

	report, err := sim.NewRunner(log).Run(ctx, sim.Options{
		Games:     *games,
		Seed:      *seed,
		BoardSize: *board,
		MaxSteps:  *maxSteps,
		Workers:   *workers,
	})
	if err != nil {
		log.Error("Simulation failed: " + err.Error())
		os.Exit(1)
	}

	printReport(report)

	if *out != "" {
		data, _ := json.MarshalIndent(report, "", "  ")
		if err := os.WriteFile(*out, data, 0644); err != nil {
			log.Error("Failed to write report: " + err.Error())
			os.Exit(1)
		}
		fmt.Println("\nResults saved to " + *out)
	}

	if report.AverageScore < *minAvg {
		fmt.Printf("\nFAILED: average %.2f below %.2f\n", report.AverageScore, *minAvg)
		os.Exit(1)
	}
}

func printReport(r *sim.Report) {
	fmt.Printf("\n%-6s %-6s %-6s %-6s %s\n", "SEED", "SCORE", "LEN", "TICKS", "REASON")
	for _, res := range r.Results {
		fmt.Printf("%-6d %-6d %-6d %-6d %s\n", res.Seed, res.Score, res.Length, res.Ticks, res.Reason)
	}

	fmt.Println("\n" + strings.Repeat("=", 41))
	fmt.Printf("Best score:    %d\n", r.BestScore)
	fmt.Printf("Average score: %.2f\n", r.AverageScore)
	fmt.Printf("Total ticks:   %d\n", r.TotalTicks)
	fmt.Printf("Decisions:     %d\n", r.Decisions)
	for reason, n := range r.StopReasons {
		fmt.Printf("Stopped by %-14s %d\n", reason+":", n)
	}
	fmt.Println(strings.Repeat("=", 41))
}
