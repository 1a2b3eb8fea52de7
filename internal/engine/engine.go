package engine

import (
	"runtime"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Engine converts a batch of raw per-player statistics into player and
// team impact ratings. It is a pure, synchronous batch transform: no I/O,
// no state between runs, and byte-identical output for identical input.
type Engine struct {
	logger  *logrus.Logger
	workers int
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers bounds the per-phase worker pool. Values below 1 fall back
// to the CPU count.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// New creates an Engine.
func New(logger *logrus.Logger, opts ...Option) *Engine {
	e := &Engine{logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the complete output of one scoring run.
type Result struct {
	Players   []PlayerScore    `json:"players"`
	Teams     []TeamScore      `json:"teams"`
	Integrity []IntegrityEntry `json:"integrity"`
}

// Process runs the full three-phase pipeline over one immutable batch.
//
// Phase A evaluates roles per player and collects population extrema;
// it must complete for every player before Phase B can score anyone,
// because scoring is population-relative. Phase C aggregates teams once
// every member's score is materialized. Work inside phase A's candidate
// evaluation and all of phase B runs on a bounded worker pool; the
// barriers between phases are hard.
func (e *Engine) Process(batch []RawPlayerStats, lists Allowlists) *Result {
	log := &IntegrityLog{}

	// Identity validation and defensive defaulting. Sequential so dropped
	// records and log ordering stay deterministic.
	players := make([]RawPlayerStats, 0, len(batch))
	for _, rec := range batch {
		normalized, ok := Normalize(rec, log)
		if !ok {
			e.logger.WithField("name", rec.Name).Warn("Dropping record without player identifier")
			continue
		}
		players = append(players, normalized)
	}

	// Phase A: per-player role candidates, independent per player.
	inputs := make([]RoleInput, len(players))
	e.parallel(len(players), func(i int) {
		p := players[i]
		inputs[i] = RoleInput{
			Stats:         p,
			Candidates:    EvaluateRoleCandidates(p, lists.IsLeader(p.Name)),
			KnownLeader:   lists.IsLeader(p.Name),
			KnownMarksman: lists.IsMarksman(p.Name),
		}
	})

	// Group rosters in first-appearance order, then resolve the
	// constrained assignment per team.
	teamOrder, byTeam := groupByTeam(players)
	assignments := make([]RoleAssignment, len(players))
	for _, team := range teamOrder {
		idxs := byTeam[team]
		roster := make([]RoleInput, len(idxs))
		for j, i := range idxs {
			roster[j] = inputs[i]
		}
		resolved := AssignTeamRoles(team, roster, log)
		for j, i := range idxs {
			assignments[i] = resolved[j]
		}
	}

	// Population collection closes phase A: every player's raw metrics
	// for their primary role must be observed before any scaling.
	rawMetrics := make([]map[string]float64, len(players))
	for i := range players {
		rawMetrics[i] = RoleMetrics(assignments[i].Primary, players[i])
	}
	pop := CollectPopulation(rawMetrics)

	// Phase B: composite scoring against the finished population.
	scores := make([]PlayerScore, len(players))
	e.parallel(len(players), func(i int) {
		scores[i] = ScorePlayer(players[i], assignments[i], pop)
	})

	// Phase C: team aggregation over finished member scores.
	teams := make([]TeamScore, 0, len(teamOrder))
	for _, team := range teamOrder {
		members := make([]PlayerScore, 0, len(byTeam[team]))
		for _, i := range byTeam[team] {
			members = append(members, scores[i])
		}
		teams = append(teams, AggregateTeam(team, members))
	}
	sort.SliceStable(teams, func(i, j int) bool {
		if teams[i].TIR != teams[j].TIR {
			return teams[i].TIR > teams[j].TIR
		}
		return teams[i].Name < teams[j].Name
	})

	e.logger.WithFields(logrus.Fields{
		"players":   len(scores),
		"teams":     len(teams),
		"dropped":   len(batch) - len(players),
		"anomalies": len(log.Entries),
	}).Info("Impact scoring run completed")

	return &Result{Players: scores, Teams: teams, Integrity: log.Entries}
}

func groupByTeam(players []RawPlayerStats) ([]string, map[string][]int) {
	order := make([]string, 0)
	byTeam := make(map[string][]int)
	for i, p := range players {
		if _, seen := byTeam[p.Team]; !seen {
			order = append(order, p.Team)
		}
		byTeam[p.Team] = append(byTeam[p.Team], i)
	}
	return order, byTeam
}

// parallel fans fn out over a bounded worker pool and blocks until every
// index is done. Each invocation writes only its own output slot.
func (e *Engine) parallel(n int, fn func(i int)) {
	if n == 0 {
		return
	}
	workers := e.workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	if workers == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	idx := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		idx <- i
	}
	close(idx)
	wg.Wait()
}
