package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/domain"
	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/services"
)

type HabitHandler struct {
	svc *services.HabitService
}

func NewHabitHandler(svc *services.HabitService) *HabitHandler {
	return &HabitHandler{
		svc: svc,
	}
}

type addHabitRequest struct {
	ID       string            `json:"id" binding:"required"`
	Kind     string            `json:"kind"`
	Metadata map[string]string `json:"metadata"`
	Date     string            `json:"date"`
}

type dateRequest struct {
	Date string `json:"date"`
}

type habitListResponse struct {
	Date   domain.DateKey       `json:"date"`
	Habits []domain.HabitStatus `json:"habits"`
}

type completeResponse struct {
	AlreadyCompleted bool          `json:"already_completed"`
	Found            bool          `json:"found"`
	Habit            *domain.Habit `json:"habit,omitempty"`
}

func (h *HabitHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/catalog", h.Catalog)

	habits := router.Group("/habits")
	{
		habits.GET("", h.List)
		habits.POST("", h.Add)
		habits.GET("/:id", h.Get)
		habits.DELETE("/:id", h.Remove)
		habits.POST("/:id/complete", h.Complete)
		habits.DELETE("/:id/complete", h.Uncomplete)
		habits.GET("/:id/completions/:date", h.IsCompleted)
	}
}

// Catalog godoc
// @Summary  List starter habits
// @Tags     habits
// @Produce  json
// @Success  200 {array} domain.CatalogEntry
// @Security BearerAuth
// @Router   /catalog [get]
func (h *HabitHandler) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, domain.Catalog())
}

// List godoc
// @Summary  List habits with today's completion status
// @Tags     habits
// @Produce  json
// @Param    date query string false "YYYY-MM-DD, defaults to today"
// @Success  200 {object} habitListResponse
// @Security BearerAuth
// @Router   /habits [get]
func (h *HabitHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	list, day, err := h.svc.ListHabits(c.Request.Context(), userID, c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []domain.HabitStatus{}
	}

	c.JSON(http.StatusOK, habitListResponse{Date: day, Habits: list})
}

// Add godoc
// @Summary  Add or replace a habit
// @Tags     habits
// @Accept   json
// @Produce  json
// @Param    body body addHabitRequest true "habit"
// @Success  201 {object} domain.Habit
// @Failure  400 {object} errorResponse
// @Security BearerAuth
// @Router   /habits [post]
func (h *HabitHandler) Add(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req addHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	habit, err := h.svc.AddHabit(c.Request.Context(), services.AddHabitInput{
		UserID:   userID,
		ID:       req.ID,
		Kind:     req.Kind,
		Metadata: req.Metadata,
		Date:     req.Date,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, habit)
}

// Get godoc
// @Summary  Get one habit with today's completion status
// @Tags     habits
// @Produce  json
// @Param    id path string true "habit id"
// @Success  200 {object} domain.HabitStatus
// @Failure  400 {object} errorResponse
// @Failure  404 {object} errorResponse
// @Security BearerAuth
// @Router   /habits/{id} [get]
func (h *HabitHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	habit, err := h.svc.GetHabit(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

// Remove godoc
// @Summary  Remove a habit and its completions
// @Tags     habits
// @Produce  json
// @Param    id path string true "habit id"
// @Success  200 {object} map[string]bool
// @Security BearerAuth
// @Router   /habits/{id} [delete]
func (h *HabitHandler) Remove(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	removed, err := h.svc.RemoveHabit(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// Complete godoc
// @Summary  Mark a habit done for a day
// @Tags     habits
// @Accept   json
// @Produce  json
// @Param    id   path  string      true  "habit id"
// @Param    date query string      false "YYYY-MM-DD, defaults to today"
// @Param    body body  dateRequest false "alternative to the query parameter"
// @Success  200 {object} completeResponse
// @Failure  400 {object} errorResponse
// @Security BearerAuth
// @Router   /habits/{id}/complete [post]
func (h *HabitHandler) Complete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	date, ok := requestDate(c)
	if !ok {
		return
	}

	res, err := h.svc.CompleteHabit(c.Request.Context(), userID, c.Param("id"), date)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, completeResponse{
		AlreadyCompleted: res.AlreadyCompleted,
		Found:            res.Found,
		Habit:            res.Habit,
	})
}

// Uncomplete godoc
// @Summary  Undo a completion
// @Tags     habits
// @Produce  json
// @Param    id   path  string true  "habit id"
// @Param    date query string false "YYYY-MM-DD, defaults to today"
// @Success  200 {object} map[string]bool
// @Security BearerAuth
// @Router   /habits/{id}/complete [delete]
func (h *HabitHandler) Uncomplete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	date, ok := requestDate(c)
	if !ok {
		return
	}

	undone, err := h.svc.UncompleteHabit(c.Request.Context(), userID, c.Param("id"), date)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"uncompleted": undone})
}

// IsCompleted godoc
// @Summary  Check a habit's completion on a day
// @Tags     habits
// @Produce  json
// @Param    id   path string true "habit id"
// @Param    date path string true "YYYY-MM-DD"
// @Success  200 {object} map[string]interface{}
// @Failure  400 {object} errorResponse
// @Security BearerAuth
// @Router   /habits/{id}/completions/{date} [get]
func (h *HabitHandler) IsCompleted(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	done, err := h.svc.IsCompletedOn(c.Request.Context(), userID, c.Param("id"), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"habit_id":  c.Param("id"),
		"date":      c.Param("date"),
		"completed": done,
	})
}

// requestDate reads the optional date from the query string or a JSON body.
func requestDate(c *gin.Context) (string, bool) {
	if d := c.Query("date"); d != "" {
		return d, true
	}
	if c.Request.ContentLength == 0 {
		return "", true
	}

	var req dateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return "", false
	}
	return req.Date, true
}
