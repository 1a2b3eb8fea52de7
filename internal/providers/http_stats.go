package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/cs2insight/impact-engine/internal/engine"
)

// StatsAPIClient pulls round-aggregated player statistics from the
// upstream stats API. Calls run behind a circuit breaker and a client
// side rate limit so a misbehaving upstream cannot stall refresh runs
// or burn the request quota.
type StatsAPIClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// NewStatsAPIClient creates a new stats API client
func NewStatsAPIClient(baseURL string, requestsPerSecond float64, logger *logrus.Logger) *StatsAPIClient {
	settings := gobreaker.Settings{
		Name:        "stats-api",
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"component": "circuit_breaker",
				"service":   name,
				"from":      from.String(),
				"to":        to.String(),
			}).Info("Circuit breaker state changed")
		},
	}

	return &StatsAPIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:  logger,
	}
}

// apiPlayerStats mirrors the upstream JSON schema. Pointer fields keep
// absent values distinguishable from zero.
type apiPlayerStats struct {
	SteamID  string `json:"steam_id"`
	UserName string `json:"user_name"`
	TeamName string `json:"team_clan_name"`

	Kills     *float64 `json:"kills"`
	Deaths    *float64 `json:"deaths"`
	Assists   *float64 `json:"assists"`
	Headshots *float64 `json:"headshots"`

	WallbangKills     *float64 `json:"wallbang_kills"`
	AssistedFlashes   *float64 `json:"assisted_flashes"`
	NoScopeKills      *float64 `json:"no_scope"`
	ThroughSmokeKills *float64 `json:"through_smoke"`
	BlindKills        *float64 `json:"blind_kills"`
	VictimBlindKills  *float64 `json:"victim_blind_kills"`

	FirstKills    *float64 `json:"first_kills"`
	FirstDeaths   *float64 `json:"first_deaths"`
	TFirstKills   *float64 `json:"t_first_kills"`
	TFirstDeaths  *float64 `json:"t_first_deaths"`
	CTFirstKills  *float64 `json:"ct_first_kills"`
	CTFirstDeaths *float64 `json:"ct_first_deaths"`

	RoundsWon   *float64 `json:"total_rounds_won"`
	TRoundsWon  *float64 `json:"t_rounds_won"`
	CTRoundsWon *float64 `json:"ct_rounds_won"`

	FlashesThrown    *float64 `json:"flashes_thrown"`
	TFlashesThrown   *float64 `json:"t_flashes_thrown"`
	CTFlashesThrown  *float64 `json:"ct_flashes_thrown"`
	HEThrown         *float64 `json:"he_thrown"`
	THEThrown        *float64 `json:"t_he_thrown"`
	CTHEThrown       *float64 `json:"ct_he_thrown"`
	InfernosThrown   *float64 `json:"infernos_thrown"`
	TInfernosThrown  *float64 `json:"t_infernos_thrown"`
	CTInfernosThrown *float64 `json:"ct_infernos_thrown"`
	SmokesThrown     *float64 `json:"smokes_thrown"`
	TSmokesThrown    *float64 `json:"t_smokes_thrown"`
	CTSmokesThrown   *float64 `json:"ct_smokes_thrown"`

	TotalUtilityThrown *float64 `json:"total_util_thrown"`
	KD                 *float64 `json:"kd"`
}

// GetEventStats fetches the player statistics for one event.
func (c *StatsAPIClient) GetEventStats(ctx context.Context, event string) ([]engine.RawPlayerStats, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait aborted: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchEvent(ctx, event)
	})
	if err != nil {
		return nil, err
	}
	return result.([]engine.RawPlayerStats), nil
}

func (c *StatsAPIClient) fetchEvent(ctx context.Context, event string) ([]engine.RawPlayerStats, error) {
	url := fmt.Sprintf("%s/v1/events/%s/player-stats", c.baseURL, event)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stats API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats API returned status %d", resp.StatusCode)
	}

	var payload struct {
		Players []apiPlayerStats `json:"players"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode stats response: %w", err)
	}

	out := make([]engine.RawPlayerStats, 0, len(payload.Players))
	for _, p := range payload.Players {
		out = append(out, p.toRaw())
	}

	c.logger.WithFields(logrus.Fields{
		"event":   event,
		"players": len(out),
	}).Info("Fetched player stats from API")
	return out, nil
}

func (p apiPlayerStats) toRaw() engine.RawPlayerStats {
	return engine.RawPlayerStats{
		PlayerID: p.SteamID,
		Name:     p.UserName,
		Team:     p.TeamName,

		Kills:     deref(p.Kills),
		Deaths:    deref(p.Deaths),
		Assists:   deref(p.Assists),
		Headshots: deref(p.Headshots),

		WallbangKills:     deref(p.WallbangKills),
		AssistedFlashes:   deref(p.AssistedFlashes),
		NoScopeKills:      deref(p.NoScopeKills),
		ThroughSmokeKills: deref(p.ThroughSmokeKills),
		BlindKills:        deref(p.BlindKills),
		VictimBlindKills:  deref(p.VictimBlindKills),

		FirstKills:    deref(p.FirstKills),
		FirstDeaths:   deref(p.FirstDeaths),
		TFirstKills:   deref(p.TFirstKills),
		TFirstDeaths:  deref(p.TFirstDeaths),
		CTFirstKills:  deref(p.CTFirstKills),
		CTFirstDeaths: deref(p.CTFirstDeaths),

		RoundsWon:   deref(p.RoundsWon),
		TRoundsWon:  deref(p.TRoundsWon),
		CTRoundsWon: deref(p.CTRoundsWon),

		FlashesThrown:    deref(p.FlashesThrown),
		TFlashesThrown:   deref(p.TFlashesThrown),
		CTFlashesThrown:  deref(p.CTFlashesThrown),
		HEThrown:         deref(p.HEThrown),
		THEThrown:        deref(p.THEThrown),
		CTHEThrown:       deref(p.CTHEThrown),
		InfernosThrown:   deref(p.InfernosThrown),
		TInfernosThrown:  deref(p.TInfernosThrown),
		CTInfernosThrown: deref(p.CTInfernosThrown),
		SmokesThrown:     deref(p.SmokesThrown),
		TSmokesThrown:    deref(p.TSmokesThrown),
		CTSmokesThrown:   deref(p.CTSmokesThrown),

		TotalUtilityThrown: deref(p.TotalUtilityThrown),
		KD:                 deref(p.KD),
	}
}

// deref unwraps an optional stat; absent stays absent as NaN.
func deref(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// BreakerState exposes the circuit state for health reporting.
func (c *StatsAPIClient) BreakerState() gobreaker.State {
	return c.breaker.State()
}
