package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cs2insight/impact-engine/internal/engine"
	"github.com/cs2insight/impact-engine/internal/services"
	"github.com/cs2insight/impact-engine/pkg/utils"
)

type RatingsHandler struct {
	ratings       *services.RatingsService
	defaultSample string
}

func NewRatingsHandler(ratings *services.RatingsService, defaultSample string) *RatingsHandler {
	return &RatingsHandler{
		ratings:       ratings,
		defaultSample: defaultSample,
	}
}

func (h *RatingsHandler) sample(c *gin.Context) string {
	if s := c.Query("sample"); s != "" {
		return s
	}
	return h.defaultSample
}

// GetPlayers returns the latest player impact ratings, PIV-descending.
// Optional filters: team, role, minPIV.
func (h *RatingsHandler) GetPlayers(c *gin.Context) {
	sample := h.sample(c)
	players, err := h.ratings.GetPlayerRatings(c.Request.Context(), sample)
	if err != nil {
		utils.SendNotFound(c, "No ratings available for sample "+sample)
		return
	}

	team := c.Query("team")
	role := c.Query("role")
	filtered := make([]engine.PlayerScore, 0, len(players))
	for _, p := range players {
		if team != "" && !strings.EqualFold(p.Team, team) {
			continue
		}
		if role != "" && !strings.EqualFold(string(p.Role), role) {
			continue
		}
		filtered = append(filtered, p)
	}

	utils.SendSuccessWithMeta(c, filtered, &utils.Meta{
		Sample: sample,
		Total:  len(filtered),
	})
}

// GetPlayer returns one player's rating by player ID.
func (h *RatingsHandler) GetPlayer(c *gin.Context) {
	sample := h.sample(c)
	players, err := h.ratings.GetPlayerRatings(c.Request.Context(), sample)
	if err != nil {
		utils.SendNotFound(c, "No ratings available for sample "+sample)
		return
	}

	id := c.Param("id")
	for _, p := range players {
		if p.PlayerID == id {
			utils.SendSuccess(c, p)
			return
		}
	}
	utils.SendNotFound(c, "Player not found: "+id)
}

// GetTeams returns the latest team impact ratings in rank order.
func (h *RatingsHandler) GetTeams(c *gin.Context) {
	sample := h.sample(c)
	teams, err := h.ratings.GetTeamRatings(c.Request.Context(), sample)
	if err != nil {
		utils.SendNotFound(c, "No ratings available for sample "+sample)
		return
	}

	utils.SendSuccessWithMeta(c, teams, &utils.Meta{
		Sample: sample,
		Total:  len(teams),
	})
}

// GetTeam returns one team's rating plus its member player ratings.
func (h *RatingsHandler) GetTeam(c *gin.Context) {
	sample := h.sample(c)
	name := c.Param("name")

	teams, err := h.ratings.GetTeamRatings(c.Request.Context(), sample)
	if err != nil {
		utils.SendNotFound(c, "No ratings available for sample "+sample)
		return
	}

	for _, t := range teams {
		if !strings.EqualFold(t.Name, name) {
			continue
		}

		players, err := h.ratings.GetPlayerRatings(c.Request.Context(), sample)
		if err != nil {
			utils.SendInternalError(c, "Failed to load team members")
			return
		}
		members := make([]engine.PlayerScore, 0, len(t.PlayerIDs))
		for _, p := range players {
			if strings.EqualFold(p.Team, t.Name) {
				members = append(members, p)
			}
		}

		utils.SendSuccess(c, gin.H{
			"team":    t,
			"players": members,
		})
		return
	}
	utils.SendNotFound(c, "Team not found: "+name)
}

// GetRun returns metadata and the integrity log of the latest run.
func (h *RatingsHandler) GetRun(c *gin.Context) {
	sample := h.sample(c)
	summary, integrity, err := h.ratings.GetRunSummary(c.Request.Context(), sample)
	if err != nil {
		utils.SendNotFound(c, "No completed run for sample "+sample)
		return
	}

	utils.SendSuccess(c, gin.H{
		"run":       summary,
		"integrity": integrity,
	})
}

// Recompute triggers a synchronous scoring run over the stored sample.
func (h *RatingsHandler) Recompute(c *gin.Context) {
	sample := h.sample(c)
	summary, err := h.ratings.Recompute(c.Request.Context(), sample)
	if err != nil {
		utils.SendConflict(c, "Recompute failed: "+err.Error())
		return
	}
	utils.SendSuccess(c, summary)
}
