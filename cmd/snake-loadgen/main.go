// Package main - snake-loadgen
// Load generator: every client creates its own game over REST, then steers
// it over a WebSocket with random turns.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Config for the load generator
type Config struct {
	BaseURL        string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
	MoveInterval   time.Duration
	Output         string
}

// Stats tracks performance metrics
type Stats struct {
	GamesCreated     int64
	MessagesSent     int64
	MessagesReceived int64
	ServerErrors     int64
	Errors           int64
	Latencies        []time.Duration
	mu               sync.Mutex
}

var directions = []string{"up", "down", "left", "right"}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Server base URL")
	numClients := flag.Int("clients", 50, "Number of concurrent clients")
	interval := flag.Duration("interval", 100*time.Millisecond, "Command interval per client")
	duration := flag.Duration("duration", 60*time.Second, "Test duration")
	moveInterval := flag.Duration("move-interval", 100*time.Millisecond, "Move interval of the created games")
	output := flag.String("out", "loadgen_results.json", "Where to save the JSON results")
	flag.Parse()

	config := Config{
		BaseURL:        strings.TrimRight(*baseURL, "/"),
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
		MoveInterval:   *moveInterval,
		Output:         *output,
	}

	fmt.Println("=========================================")
	fmt.Println("SNAKE LOADGEN")
	fmt.Println("=========================================")
	fmt.Printf("Server: %s\n", config.BaseURL)
	fmt.Printf("Clients: %d\n", config.NumClients)
	fmt.Printf("Interval: %v\n", config.ActionInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	stats := runLoad(ctx, config)
	printResults(stats, config)
}

func runLoad(ctx context.Context, config Config) *Stats {
	stats := &Stats{
		Latencies: make([]time.Duration, 0, 10000),
	}

	var wg sync.WaitGroup
	fmt.Println("\nStarting clients...")
	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, stats)
		}(i)

		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}
	fmt.Printf("All %d clients started\n\n", config.NumClients)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Printf("Progress: Games=%d Sent=%d Recv=%d Errors=%d\n",
					atomic.LoadInt64(&stats.GamesCreated),
					atomic.LoadInt64(&stats.MessagesSent),
					atomic.LoadInt64(&stats.MessagesReceived),
					atomic.LoadInt64(&stats.Errors))
			}
		}
	}()

	wg.Wait()
	return stats
}

func createGame(ctx context.Context, config Config) (string, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"interval_ms": config.MoveInterval.Milliseconds(),
		"start":       true,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.BaseURL+"/api/games", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create game: HTTP %d", resp.StatusCode)
	}

	var created struct {
		Game struct {
			ID string `json:"id"`
		} `json:"game"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", err
	}
	return created.Game.ID, nil
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	gameID, err := createGame(ctx, config)
	if err != nil {
		log.Printf("Client %d: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	atomic.AddInt64(&stats.GamesCreated, 1)

	u, err := url.Parse(config.BaseURL)
	if err != nil {
		log.Printf("Client %d: URL parse error: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/ws"
	q := u.Query()
	q.Set("game_id", gameID)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		log.Printf("Client %d: Connection failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	go func() {
		for {
			var msg struct {
				Type string `json:"type"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			atomic.AddInt64(&stats.MessagesReceived, 1)
			if msg.Type == "ERROR" {
				atomic.AddInt64(&stats.ServerErrors, 1)
			}
		}
	}()

	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			if err := conn.WriteJSON(randomCommand()); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}
			latency := time.Since(start)
			atomic.AddInt64(&stats.MessagesSent, 1)

			stats.mu.Lock()
			stats.Latencies = append(stats.Latencies, latency)
			stats.mu.Unlock()
		}
	}
}

// randomCommand mostly turns; now and then it restarts a finished game.
func randomCommand() map[string]interface{} {
	if rand.IntN(20) == 0 {
		return map[string]interface{}{"type": "START"}
	}
	if rand.IntN(2) == 0 {
		return map[string]interface{}{"type": "KEY", "key_code": 37 + rand.IntN(4)}
	}
	return map[string]interface{}{"type": "DIRECTION", "direction": directions[rand.IntN(len(directions))]}
}

func printResults(stats *Stats, config Config) {
	fmt.Println("\n=========================================")
	fmt.Println("LOADGEN RESULTS")
	fmt.Println("=========================================")

	games := atomic.LoadInt64(&stats.GamesCreated)
	sent := atomic.LoadInt64(&stats.MessagesSent)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	serverErrs := atomic.LoadInt64(&stats.ServerErrors)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Printf("Games Created:     %d\n", games)
	fmt.Printf("Messages Sent:     %d\n", sent)
	fmt.Printf("Messages Received: %d\n", recv)
	fmt.Printf("Server Errors:     %d\n", serverErrs)
	fmt.Printf("Client Errors:     %d\n", errs)
	fmt.Printf("Error Rate:        %.2f%%\n", float64(errs)/float64(sent+1)*100)

	throughput := float64(sent) / config.TestDuration.Seconds()
	fmt.Printf("Throughput:        %.2f msg/sec\n", throughput)

	if len(stats.Latencies) > 0 {
		var total time.Duration
		min, max := stats.Latencies[0], stats.Latencies[0]
		for _, l := range stats.Latencies {
			total += l
			if l < min {
				min = l
			}
			if l > max {
				max = l
			}
		}
		fmt.Printf("\nWrite latency:\n")
		fmt.Printf("  Min: %v\n", min)
		fmt.Printf("  Avg: %v\n", total/time.Duration(len(stats.Latencies)))
		fmt.Printf("  Max: %v\n", max)
	}

	fmt.Println("\n-----------------------------------------")
	switch {
	case errs == 0 && games == int64(config.NumClients):
		fmt.Println("PASSED: System handled the load")
	case float64(errs)/float64(sent+1) < 0.05:
		fmt.Println("WARNING: Some errors detected")
	default:
		fmt.Println("FAILED: High error rate")
	}
	fmt.Println("=========================================")

	results := map[string]interface{}{
		"games_created":      games,
		"messages_sent":      sent,
		"messages_received":  recv,
		"server_errors":      serverErrs,
		"errors":             errs,
		"throughput_per_sec": throughput,
		"config": map[string]interface{}{
			"clients":       config.NumClients,
			"interval":      config.ActionInterval.String(),
			"duration":      config.TestDuration.String(),
			"move_interval": config.MoveInterval.String(),
		},
	}
	jsonData, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile(config.Output, jsonData, 0644); err != nil {
		log.Printf("Failed to save results: %v", err)
		return
	}
	fmt.Println("\nResults saved to " + config.Output)
}
