package handlers

import (
	"net/http"

	"studybuddy/models"
	"studybuddy/services/matching"
	"studybuddy/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MatchHandler struct {
	Service matching.MatchingService
}

func NewMatchHandler(svc matching.MatchingService) *MatchHandler {
	return &MatchHandler{Service: svc}
}

func (h *MatchHandler) BuddiesHandler(c *gin.Context) {
	users, err := h.Service.Buddies(c.Request.Context(), identity(c))
	respondList(c, users, err)
}

// MatchedHandler lists pending incoming requests.
func (h *MatchHandler) MatchedHandler(c *gin.Context) {
	users, err := h.Service.IncomingRequests(c.Request.Context(), identity(c))
	respondList(c, users, err)
}

func (h *MatchHandler) CandidatesHandler(c *gin.Context) {
	users, err := h.Service.Candidates(c.Request.Context(), identity(c))
	respondList(c, users, err)
}

func (h *MatchHandler) MatchHandler(c *gin.Context) {
	var req models.MatchRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.Service.Match(c.Request.Context(), identity(c), req.Username)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if result.Matched {
		getLogger(c).Info("Mutual match", zap.String("user", identity(c).Username), zap.String("buddy", result.Buddy))
	}
	c.JSON(http.StatusOK, result)
}

// UnmatchHandler takes the other user from the JSON body or the username query parameter.
func (h *MatchHandler) UnmatchHandler(c *gin.Context) {
	target := c.Query("username")
	if target == "" {
		var req models.MatchRequest
		if !bindJSON(c, &req) {
			return
		}
		target = req.Username
	}
	if err := h.Service.Unmatch(c.Request.Context(), identity(c), target); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unmatched", "username": target})
}

// respondList writes users, always as a JSON array.
func respondList(c *gin.Context, users []models.User, err error) {
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, users)
}
