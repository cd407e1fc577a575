package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	customerrors "github.com/dobprotocol/doblink/internal/errors"
	"github.com/dobprotocol/doblink/internal/models"
	"github.com/dobprotocol/doblink/internal/services"
)

// EventsChannel is the global channel used to queue analytics events from
// the embed-facing path. Queuing is non-blocking so serving a widget never
// waits on analytics.
var EventsChannel chan models.EventMessage

// SetupRoutes configures all Gin API routes and injects the services.
// Parameters:
//   - router: Gin engine instance to configure routes on
//   - widgetService: widget lifecycle and embed artifacts
//   - analyticsService: event recording, queries and rollups
//   - poolService: liquidity pools and token metrics
//   - bufferSize: size of the analytics event channel buffer
func SetupRoutes(router *gin.Engine, widgetService *services.WidgetService, analyticsService *services.AnalyticsService, poolService *services.PoolService, bufferSize int) {
	if EventsChannel == nil {
		EventsChannel = make(chan models.EventMessage, bufferSize)
	}

	router.GET("/health", HealthCheckHandler)

	// Embed-facing route: third-party pages fetch the widget config here.
	router.GET("/widget/:hash", EmbedConfigHandler(widgetService))

	api := router.Group("/api/v1")
	{
		api.POST("/widgets", CreateWidgetHandler(widgetService))
		api.GET("/widgets", ListWidgetsHandler(widgetService))
		api.GET("/widgets/:hash", GetWidgetHandler(widgetService))
		api.PUT("/widgets/:hash", UpdateWidgetHandler(widgetService))
		api.DELETE("/widgets/:hash", DeleteWidgetHandler(widgetService))
		api.GET("/widgets/:hash/stats", WidgetStatsHandler(analyticsService))

		api.POST("/analytics", RecordEventHandler(analyticsService))
		api.GET("/analytics/:widgetHash", QueryEventsHandler(analyticsService))
		api.GET("/dashboard/stats", DashboardStatsHandler(analyticsService))

		api.POST("/pools", CreatePoolHandler(poolService))
		api.GET("/pools", ListPoolsHandler(poolService))
		api.GET("/pools/:id", GetPoolHandler(poolService))
		api.PUT("/pools/:id", UpdatePoolHandler(poolService))
		api.DELETE("/pools/:id", DeletePoolHandler(poolService))
		api.POST("/pools/:id/metrics", RecordMetricHandler(poolService))
		api.GET("/pools/:id/metrics/latest", LatestMetricHandler(poolService))
	}
}

// HealthCheckHandler handles the /health route to verify service status.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}

// CreateWidgetRequest is the JSON body for creating a widget. Theme and
// position are constrained to the values the embed understands; empty
// values fall back to defaults in the service.
type CreateWidgetRequest struct {
	TokenID           string         `json:"tokenId" binding:"required"`
	ScopeID           string         `json:"scopeId" binding:"required"`
	Theme             string         `json:"theme" binding:"omitempty,oneof=light dark"`
	Position          string         `json:"position" binding:"omitempty,oneof=bottom-right bottom-left top-right top-left"`
	CustomStyles      map[string]any `json:"customStyles"`
	PreferredCurrency string         `json:"preferredCurrency"`
}

// UpdateWidgetRequest is the JSON body for updating a widget's mutable
// configuration. The hash, counters and creation time cannot be changed.
type UpdateWidgetRequest struct {
	Theme             string         `json:"theme" binding:"omitempty,oneof=light dark"`
	Position          string         `json:"position" binding:"omitempty,oneof=bottom-right bottom-left top-right top-left"`
	CustomStyles      map[string]any `json:"customStyles"`
	PreferredCurrency string         `json:"preferredCurrency"`
	IsActive          *bool          `json:"isActive"`
}

// RecordEventRequest is the JSON body for tracking an analytics event.
type RecordEventRequest struct {
	WidgetHash string  `json:"widgetHash" binding:"required"`
	EventType  string  `json:"eventType" binding:"required,oneof=embed view sale wallet_connect"`
	Domain     string  `json:"domain" binding:"required"`
	UserAgent  string  `json:"userAgent"`
	Amount     float64 `json:"amount" binding:"omitempty,gte=0"`
	Currency   string  `json:"currency"`
}

// CreateWidgetHandler handles widget creation: mints the hash, derives the
// embed artifacts and stores the record with zeroed counters.
func CreateWidgetHandler(widgetService *services.WidgetService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateWidgetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		widget, err := widgetService.Create(services.CreateWidgetParams{
			TokenID:           req.TokenID,
			ScopeID:           req.ScopeID,
			Theme:             req.Theme,
			Position:          req.Position,
			CustomStyles:      req.CustomStyles,
			PreferredCurrency: req.PreferredCurrency,
		})
		if err != nil {
			if errors.Is(err, customerrors.ErrHashGenerationFailed) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Unable to generate unique widget hash. Please try again later."})
				return
			}
			log.Printf("Error creating widget: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create widget"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "widget": widget})
	}
}

// GetWidgetHandler returns a single widget by hash.
func GetWidgetHandler(widgetService *services.WidgetService) gin.HandlerFunc {
	return func(c *gin.Context) {
		widget, err := widgetService.Get(c.Param("hash"))
		if err != nil {
			if errors.Is(err, customerrors.ErrWidgetNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Widget not found"})
				return
			}
			log.Printf("Error retrieving widget %s: %v", c.Param("hash"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "widget": widget})
	}
}

// ListWidgetsHandler returns all widgets, optionally filtered by scope.
func ListWidgetsHandler(widgetService *services.WidgetService) gin.HandlerFunc {
	return func(c *gin.Context) {
		widgets, err := widgetService.List(c.Query("scopeId"))
		if err != nil {
			log.Printf("Error listing widgets: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "widgets": widgets})
	}
}

// UpdateWidgetHandler applies new configuration to an existing widget.
func UpdateWidgetHandler(widgetService *services.WidgetService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateWidgetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		widget, err := widgetService.Update(c.Param("hash"), services.UpdateWidgetParams{
			Theme:             req.Theme,
			Position:          req.Position,
			CustomStyles:      req.CustomStyles,
			PreferredCurrency: req.PreferredCurrency,
			IsActive:          req.IsActive,
		})
		if err != nil {
			if errors.Is(err, customerrors.ErrWidgetNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Widget not found"})
				return
			}
			log.Printf("Error updating widget %s: %v", c.Param("hash"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "widget": widget})
	}
}

// DeleteWidgetHandler removes a widget and its analytics rows.
func DeleteWidgetHandler(widgetService *services.WidgetService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := widgetService.Delete(c.Param("hash")); err != nil {
			if errors.Is(err, customerrors.ErrWidgetNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Widget not found"})
				return
			}
			log.Printf("Error deleting widget %s: %v", c.Param("hash"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Widget deleted successfully"})
	}
}

// WidgetStatsHandler returns a widget's counters and total event count.
func WidgetStatsHandler(analyticsService *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		widget, totalEvents, err := analyticsService.WidgetStats(c.Param("hash"))
		if err != nil {
			if errors.Is(err, customerrors.ErrWidgetNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Widget not found"})
				return
			}
			log.Printf("Error retrieving stats for %s: %v", c.Param("hash"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"widget":      widget,
			"totalEvents": totalEvents,
		})
	}
}

// EmbedConfigHandler serves the widget configuration to the embed script
// running on a third-party page, and queues a view event without blocking
// the response. Paused widgets are still returned with isActive false; the
// embed decides not to render.
func EmbedConfigHandler(widgetService *services.WidgetService) gin.HandlerFunc {
	return func(c *gin.Context) {
		hash := c.Param("hash")
		widget, err := widgetService.Get(hash)
		if err != nil {
			if errors.Is(err, customerrors.ErrWidgetNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Widget not found"})
				return
			}
			log.Printf("Error retrieving widget %s: %v", hash, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		msg := models.EventMessage{
			WidgetHash: hash,
			EventType:  models.EventTypeView,
			Domain:     c.Query("domain"),
			UserAgent:  c.GetHeader("User-Agent"),
			Timestamp:  time.Now(),
		}
		select {
		case EventsChannel <- msg:
		default:
			// Buffer full: drop the view rather than stall the embed.
			log.Printf("WARNING: EventsChannel is full, dropping view event for %s", hash)
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "widget": widget})
	}
}

// RecordEventHandler tracks an analytics event synchronously. The event is
// stored even when no widget claims the hash; widgetUpdated tells the
// caller whether counters moved.
func RecordEventHandler(analyticsService *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RecordEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		event, err := analyticsService.Record(models.EventMessage{
			WidgetHash: req.WidgetHash,
			EventType:  req.EventType,
			Domain:     req.Domain,
			UserAgent:  req.UserAgent,
			Amount:     req.Amount,
			Currency:   req.Currency,
		})
		if err != nil {
			if errors.Is(err, customerrors.ErrWidgetNotFound) {
				c.JSON(http.StatusCreated, gin.H{"success": true, "event": event, "widgetUpdated": false})
				return
			}
			log.Printf("Error recording event: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record event"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "event": event, "widgetUpdated": true})
	}
}

// QueryEventsHandler returns the events for a widget, filtered by the
// optional eventType, startDate and endDate query parameters. Dates accept
// RFC 3339 or plain YYYY-MM-DD; a date-only endDate is inclusive through
// the end of that day.
func QueryEventsHandler(analyticsService *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, err := parseQueryTime(c.Query("startDate"), false)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid startDate: " + err.Error()})
			return
		}
		to, err := parseQueryTime(c.Query("endDate"), true)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid endDate: " + err.Error()})
			return
		}
		events, err := analyticsService.Query(c.Param("widgetHash"), c.Query("eventType"), from, to)
		if err != nil {
			if errors.Is(err, customerrors.ErrInvalidEventType) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid eventType"})
				return
			}
			log.Printf("Error querying analytics: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "analytics": events})
	}
}

// DashboardStatsHandler returns the rollup for a scope, or the global
// rollup when scopeId is absent. Always recomputed from current widget
// state.
func DashboardStatsHandler(analyticsService *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rollup, err := analyticsService.Rollup(c.Query("scopeId"))
		if err != nil {
			log.Printf("Error computing dashboard stats: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "stats": rollup})
	}
}

// parseQueryTime parses an optional date query parameter. endOfDay shifts
// a date-only value to the last instant of that day so endDate stays
// inclusive.
func parseQueryTime(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
