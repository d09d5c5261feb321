package config

// Recommendations are adjustments suggested by observed metrics.
type Recommendations struct {
	IncreaseEventRetention bool
	IncreaseSendBuffer     bool
	IncreaseDBConnections  bool
	RaiseRateLimit         bool
	Notes                  []string
}

// Any reports whether at least one adjustment is suggested.
func (r *Recommendations) Any() bool {
	return r.IncreaseEventRetention || r.IncreaseSendBuffer || r.IncreaseDBConnections || r.RaiseRateLimit
}

// Analyze examines a metrics snapshot and returns tuning recommendations.
func Analyze(metrics map[string]interface{}) *Recommendations {
	rec := &Recommendations{
		Notes: make([]string, 0),
	}

	if tick, ok := metrics["tick"].(map[string]interface{}); ok {
		if maxLat, ok := tick["max_latency_ms"].(float64); ok && maxLat > 100 {
			rec.IncreaseEventRetention = true
			rec.Notes = append(rec.Notes, "Tick latency exceeds 100ms - slow readers may miss events, raise retention")
		}
	}

	if events, ok := metrics["events"].(map[string]interface{}); ok {
		if errs, ok := events["errors"].(int64); ok && errs > 0 {
			rec.IncreaseDBConnections = true
			rec.Notes = append(rec.Notes, "Event write errors detected - check DB connection pool")
		}
		if missed, ok := events["missed"].(int64); ok && missed > 0 {
			rec.IncreaseEventRetention = true
			rec.Notes = append(rec.Notes, "Readers fell behind the event log - raise retention")
		}
	}

	if ws, ok := metrics["websocket"].(map[string]interface{}); ok {
		if errs, ok := ws["errors"].(int64); ok && errs > 0 {
			rec.IncreaseSendBuffer = true
			rec.Notes = append(rec.Notes, "WebSocket errors detected - increase client send buffer")
		}
		if limited, ok := ws["rate_limited"].(int64); ok && limited > 0 {
			if in, ok := ws["messages_in"].(int64); ok && in > 0 && limited*10 > in {
				rec.RaiseRateLimit = true
				rec.Notes = append(rec.Notes, "More than 10% of client commands rate limited")
			}
		}
	}

	return rec
}

// ApplyRecommendations returns a copy of cfg with the recommendations applied.
func ApplyRecommendations(cfg *Config, rec *Recommendations) *Config {
	out := *cfg
	out.InitialFood = append(out.InitialFood[:0:0], cfg.InitialFood...)
	out.AllowedOrigins = append(out.AllowedOrigins[:0:0], cfg.AllowedOrigins...)

	if rec.IncreaseEventRetention {
		out.EventRetention *= 2
	}
	if rec.IncreaseSendBuffer {
		out.ClientSendBuffer *= 2
	}
	if rec.IncreaseDBConnections {
		out.DBMaxOpenConns = int(float64(out.DBMaxOpenConns) * 1.5)
		out.DBMaxIdleConns = int(float64(out.DBMaxIdleConns) * 1.5)
	}
	if rec.RaiseRateLimit {
		out.MaxMessagesPerSecond *= 2
	}
	return &out
}
