package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"healthtrends/internal/aggregate"
)

// DefaultLookback is used by trend queries that omit recent.
const DefaultLookback = 7

type SummaryProvider interface {
	ActivitySummary(ctx context.Context, userID uint, q aggregate.Query) (*aggregate.Summary, error)
	WorkoutSummary(ctx context.Context, userID uint, q aggregate.Query) (*aggregate.Summary, error)
}

type SummaryController struct {
	summaries SummaryProvider
}

func NewSummaryController(summaries SummaryProvider) *SummaryController {
	return &SummaryController{summaries: summaries}
}

// SummaryRequest is accepted as query parameters or a JSON body.
type SummaryRequest struct {
	Agg    string `form:"agg" json:"agg"`
	Kind   string `form:"kind" json:"kind" binding:"required"`
	Recent int    `form:"recent" json:"recent"`
}

type summaryFunc func(ctx context.Context, userID uint, q aggregate.Query) (*aggregate.Summary, error)

// ActivityCurrent godoc
// @Summary Most recent activity bucket
// @Description Returns the latest day/week/month/year bucket for one ring
// @Tags activity
// @Produce json
// @Param agg query string false "date, week_start, month or year"
// @Param kind query string true "move, exercise or stand"
// @Success 200 {object} map[string]interface{} "Summary retrieved successfully"
// @Failure 400 {object} map[string]interface{} "Unsupported summary request"
// @Router /activity/current [get]
func (sc *SummaryController) ActivityCurrent(c *gin.Context) {
	sc.respond(c, sc.summaries.ActivitySummary, true)
}

// ActivityTrend godoc
// @Summary Recent activity buckets
// @Description Returns the last N buckets for one ring
// @Tags activity
// @Produce json
// @Param agg query string false "date, week_start, month or year"
// @Param kind query string true "move, exercise or stand"
// @Param recent query int false "number of buckets"
// @Success 200 {object} map[string]interface{} "Summary retrieved successfully"
// @Failure 400 {object} map[string]interface{} "Unsupported summary request"
// @Router /activity/trend [get]
func (sc *SummaryController) ActivityTrend(c *gin.Context) {
	sc.respond(c, sc.summaries.ActivitySummary, false)
}

// WorkoutCurrent godoc
// @Summary Most recent workout bucket
// @Tags workout
// @Produce json
// @Router /workout/current [get]
func (sc *SummaryController) WorkoutCurrent(c *gin.Context) {
	sc.respond(c, sc.summaries.WorkoutSummary, true)
}

// WorkoutTrend godoc
// @Summary Recent workout buckets
// @Tags workout
// @Produce json
// @Router /workout/trend [get]
func (sc *SummaryController) WorkoutTrend(c *gin.Context) {
	sc.respond(c, sc.summaries.WorkoutSummary, false)
}

func (sc *SummaryController) respond(c *gin.Context, fetch summaryFunc, current bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req SummaryRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request data",
			"error":   err.Error(),
		})
		return
	}
	if req.Agg == "" {
		req.Agg = aggregate.Day.String()
	}
	if !current && req.Recent <= 0 {
		req.Recent = DefaultLookback
	}

	q, err := aggregate.ParseQuery(req.Agg, req.Kind, req.Recent, current)
	if err == nil {
		var summary *aggregate.Summary
		summary, err = fetch(c.Request.Context(), userID, q)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{
				"status":  "success",
				"message": "Summary retrieved successfully",
				"data":    summary,
			})
			return
		}
	}

	if errors.Is(err, aggregate.ErrUnknownGranularity) || errors.Is(err, aggregate.ErrUnknownFamily) {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Unsupported summary request",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"status":  "error",
		"message": "Failed to build summary",
		"error":   err.Error(),
	})
}
