package handler

import (
	"errors"
	"net/http"

	"logistics-live-tracking/internal/domain/depot"
	"logistics-live-tracking/internal/telemetry"
	"logistics-live-tracking/internal/tracking"
	apperrors "logistics-live-tracking/pkg/errors"
	"logistics-live-tracking/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TrackingHandler struct {
	session   *telemetry.Session
	poller    *tracking.Poller
	snapshots *tracking.SnapshotStore
	hub       *tracking.Hub
	depots    depot.Catalog

	// Provider credentials from configuration. The dashboard never sends
	// credentials of its own.
	username string
	password string
}

func NewTrackingHandler(
	session *telemetry.Session,
	poller *tracking.Poller,
	snapshots *tracking.SnapshotStore,
	hub *tracking.Hub,
	depots depot.Catalog,
	username, password string,
) *TrackingHandler {
	return &TrackingHandler{
		session:   session,
		poller:    poller,
		snapshots: snapshots,
		hub:       hub,
		depots:    depots,
		username:  username,
		password:  password,
	}
}

func (h *TrackingHandler) RegisterRoutes(router *gin.RouterGroup) {
	trackingGroup := router.Group("/tracking")
	{
		trackingGroup.POST("/authenticate", h.Authenticate)
		trackingGroup.POST("/poll", h.PollNow)
		trackingGroup.GET("/snapshots", h.ListSnapshots)
		trackingGroup.GET("/snapshots/:loadId", h.GetSnapshot)
		trackingGroup.GET("/metrics", h.GetMetrics)
	}

	router.GET("/depots", h.ListDepots)
}

// Authenticate forces a fresh provider session, replacing whatever token is
// cached. Exposed for operators; the poller authenticates on its own.
func (h *TrackingHandler) Authenticate(c *gin.Context) {
	token, err := h.session.Authenticate(c.Request.Context(), h.username, h.password)
	if err != nil {
		if errors.Is(err, apperrors.ErrAuthFailed) {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Telemetry provider rejected the credentials")
			return
		}
		_ = c.Error(apperrors.NewAppError("TELEMETRY_UNAVAILABLE", "authentication against telemetry provider failed", err))
		utils.ErrorResponse(c, http.StatusBadGateway, "Telemetry provider unavailable")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Authenticated with telemetry provider", gin.H{
		"expires_at":    token.ExpiresAt,
		"clock_skew_ms": token.SkewOffset.Milliseconds(),
		"skew_detected": token.SkewOffset > 0,
	})
}

// PollNow triggers an immediate tick outside the regular schedule.
func (h *TrackingHandler) PollNow(c *gin.Context) {
	err := h.poller.PollOnce(c.Request.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrTickInFlight) {
			utils.ErrorResponse(c, http.StatusConflict, "A poll is already in progress")
			return
		}
		if errors.Is(err, apperrors.ErrAuthExpired) || errors.Is(err, apperrors.ErrAuthFailed) {
			utils.ErrorResponse(c, http.StatusBadGateway, "Telemetry session could not be established")
			return
		}
		_ = c.Error(apperrors.NewAppError("POLL_FAILED", "poll tick failed", err))
		utils.ErrorResponse(c, http.StatusBadGateway, "Poll failed: "+err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Poll completed", h.poller.Metrics())
}

func (h *TrackingHandler) ListSnapshots(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Snapshots retrieved", h.snapshots.List())
}

func (h *TrackingHandler) GetSnapshot(c *gin.Context) {
	loadID, err := uuid.Parse(c.Param("loadId"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid load ID")
		return
	}

	snap, ok := h.snapshots.Get(loadID)
	if !ok {
		utils.ErrorResponse(c, http.StatusNotFound, "No snapshot for this load")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Snapshot retrieved", snap)
}

func (h *TrackingHandler) GetMetrics(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Poll metrics retrieved", gin.H{
		"poller":     h.poller.Metrics(),
		"ws_clients": h.hub.ClientCount(),
	})
}

func (h *TrackingHandler) ListDepots(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Depots retrieved", h.depots.All())
}

// ServeWS upgrades the connection and registers it with the broadcast hub.
func (h *TrackingHandler) ServeWS(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request, h.snapshots.List())
}
