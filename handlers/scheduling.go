package handlers

import (
	"net/http"
	"strconv"

	"studybuddy/models"
	"studybuddy/services/scheduling"
	"studybuddy/utils"

	"github.com/gin-gonic/gin"
)

type SchedulingHandler struct {
	Service scheduling.SchedulingService
}

func NewSchedulingHandler(svc scheduling.SchedulingService) *SchedulingHandler {
	return &SchedulingHandler{Service: svc}
}

// GetAvailabilityHandler handles GET /scheduling/availability.
func (h *SchedulingHandler) GetAvailabilityHandler(c *gin.Context) {
	days, err := h.Service.GetAvailability(c.Request.Context(), identity(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, days)
}

// UpdateAvailabilityHandler handles POST /scheduling/availability; it replaces one day.
func (h *SchedulingHandler) UpdateAvailabilityHandler(c *gin.Context) {
	var req models.UpdateAvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}
	day, err := h.Service.ReplaceAvailability(c.Request.Context(), identity(c), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// SuggestTimesHandler handles POST /scheduling/suggest-times.
func (h *SchedulingHandler) SuggestTimesHandler(c *gin.Context) {
	var req models.SuggestTimesRequest
	if !bindJSON(c, &req) {
		return
	}
	slots, err := h.Service.SuggestTimes(c.Request.Context(), identity(c), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if slots == nil {
		slots = []models.SuggestedSlot{}
	}
	c.JSON(http.StatusOK, gin.H{"suggestedTimes": slots})
}

func (h *SchedulingHandler) ListSessionsHandler(c *gin.Context) {
	sessions, err := h.Service.ListSessions(c.Request.Context(), identity(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if sessions == nil {
		sessions = []models.StudySession{}
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *SchedulingHandler) CreateSessionHandler(c *gin.Context) {
	var req models.CreateSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.Service.CreateSession(c.Request.Context(), identity(c), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *SchedulingHandler) GetSessionHandler(c *gin.Context) {
	session, err := h.Service.GetSession(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SchedulingHandler) RespondHandler(c *gin.Context) {
	var req models.RespondRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.Service.RespondToSession(c.Request.Context(), identity(c), c.Param("id"), req.Response)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SchedulingHandler) UpdateStatusHandler(c *gin.Context) {
	var req models.SessionStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.Service.UpdateSessionStatus(c.Request.Context(), identity(c), c.Param("id"), req.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SchedulingHandler) ListCoursesHandler(c *gin.Context) {
	courses, err := h.Service.ListCourses(c.Request.Context(), identity(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if courses == nil {
		courses = []models.CourseEnrollment{}
	}
	c.JSON(http.StatusOK, courses)
}

func (h *SchedulingHandler) UpsertCourseHandler(c *gin.Context) {
	var req models.CourseEnrollment
	if !bindJSON(c, &req) {
		return
	}
	enrollment, err := h.Service.UpsertCourse(c.Request.Context(), identity(c), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

// FindPartnersHandler handles GET /scheduling/find-partners/:courseId?day=&minute=.
func (h *SchedulingHandler) FindPartnersHandler(c *gin.Context) {
	day, err := optionalInt(c, "day")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	minute, err := optionalInt(c, "minute")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	partners, err := h.Service.FindPartners(c.Request.Context(), identity(c), c.Param("courseId"), day, minute)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if partners == nil {
		partners = []models.Partner{}
	}
	c.JSON(http.StatusOK, partners)
}

func optionalInt(c *gin.Context, key string) (*int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, utils.InvalidInput("%s must be an integer", key)
	}
	return &v, nil
}
