package network

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MRamiBalles/SnakeWeb/server/internal/events"
	"github.com/MRamiBalles/SnakeWeb/server/internal/infra/storage"
	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/logger"
)

// Where a replay was read from.
const (
	SourceMemory   = "memory"
	SourceDatabase = "database"
)

// ReplayHandler serves the recorded history of a game. Live games are read
// from the in-memory log; games that left it are read from the database.
type ReplayHandler struct {
	eventLog *events.EventLog
	repo     storage.EventRepository
	scores   storage.ScoreRepository
	logger   *logger.Logger
}

// NewReplayHandler creates a replay handler. repo may be nil.
func NewReplayHandler(el *events.EventLog, repo storage.EventRepository, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{
		eventLog: el,
		repo:     repo,
		logger:   log,
	}
}

// WithScores lets summaries report the best stored score of a game.
func (rh *ReplayHandler) WithScores(scores storage.ScoreRepository) *ReplayHandler {
	rh.scores = scores
	return rh
}

// ReplayResponse is the API response for a replay.
type ReplayResponse struct {
	GameID      string               `json:"game_id"`
	Source      string               `json:"source"`
	TotalEvents int                  `json:"total_events"`
	FilteredBy  string               `json:"filtered_by,omitempty"`
	GeneratedAt string               `json:"generated_at"`
	Summary     *storage.GameSummary `json:"summary"`
	Events      []storage.RecapEvent `json:"events"`
	Raw         []storage.GameEvent  `json:"raw,omitempty"`
}

// HandleReplay returns the timeline of a game.
// GET /api/games/:id/events?type=FOOD_EATEN&moves=true&raw=true&since=N
func (rh *ReplayHandler) HandleReplay(c *gin.Context) {
	gameID := c.Param("id")
	eventType := c.Query("type")
	includeMoves := c.Query("moves") == "true"
	includeRaw := c.Query("raw") == "true"

	var since uint64
	if raw := c.Query("since"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a sequence number"})
			return
		}
		since = n
	}

	all, source, err := rh.load(c, gameID)
	if err != nil {
		rh.logger.Error("Failed to load events for replay: " + err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load events"})
		return
	}
	if len(all) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no events recorded for game " + gameID})
		return
	}

	base := all
	if source == SourceDatabase && eventType != "" {
		base, err = rh.repo.GetByEventType(c.Request.Context(), gameID, eventType)
		if err != nil {
			rh.logger.Error("Failed to load events for replay: " + err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load events"})
			return
		}
	}

	filtered := make([]storage.GameEvent, 0, len(base))
	filterDesc := ""
	for _, e := range base {
		if since > 0 && e.Seq <= since {
			continue
		}
		if eventType != "" && e.EventType != eventType {
			continue
		}
		filtered = append(filtered, e)
	}
	if eventType != "" {
		filterDesc = "type " + eventType
	}
	// An explicit type filter wins over the moves switch.
	recap := storage.Recap(filtered, includeMoves || eventType != "")

	resp := ReplayResponse{
		GameID:      gameID,
		Source:      source,
		TotalEvents: len(recap),
		FilteredBy:  filterDesc,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Summary:     storage.Summarize(gameID, all),
		Events:      recap,
	}
	if includeRaw {
		resp.Raw = filtered
	}

	rh.logger.Event("REPLAY", events.ActorPlayer, "GameID:"+gameID+" Events:"+strconv.Itoa(len(recap)))
	c.JSON(http.StatusOK, resp)
}

// HandleSummary returns what the event history says about a game.
// GET /api/games/:id/summary
func (rh *ReplayHandler) HandleSummary(c *gin.Context) {
	gameID := c.Param("id")
	all, source, err := rh.load(c, gameID)
	if err != nil {
		rh.logger.Error("Failed to load events for summary: " + err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load events"})
		return
	}
	if len(all) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no events recorded for game " + gameID})
		return
	}
	body := gin.H{
		"source":  source,
		"summary": storage.Summarize(gameID, all),
	}
	if rh.scores != nil {
		best, err := rh.scores.BestForGame(c.Request.Context(), gameID)
		if err != nil {
			rh.logger.Error("Failed to load best score: " + err.Error())
		} else if best != nil {
			body["best_score"] = best
		}
	}
	c.JSON(http.StatusOK, body)
}

func (rh *ReplayHandler) load(c *gin.Context, gameID string) ([]storage.GameEvent, string, error) {
	if mem := rh.eventLog.GetByGame(gameID); len(mem) > 0 && mem[0].Type == events.EventTypeGameCreated {
		return storage.FromEvents(mem), SourceMemory, nil
	}
	// The in-memory log was trimmed or the server restarted.
	if rh.repo != nil {
		stored, err := rh.repo.GetByGameID(c.Request.Context(), gameID)
		if err != nil {
			return nil, "", err
		}
		if len(stored) > 0 {
			return stored, SourceDatabase, nil
		}
	}
	return storage.FromEvents(rh.eventLog.GetByGame(gameID)), SourceMemory, nil
}
