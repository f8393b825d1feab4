package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ForbidWorker handles POST /api/v1/workers/:worker_id/forbid
// Soft kill-switch: the worker keeps running but stops claiming.
func (h *AdminHandler) ForbidWorker(c *gin.Context) {
	workerID := c.Param("worker_id")

	if err := h.admission.Forbid(c.Request.Context(), workerID); err != nil {
		h.logger.Error("Failed to forbid worker",
			slog.String("worker_id", workerID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to forbid worker",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"worker_id": workerID,
		"forbidden": true,
	})
}

// PermitWorker handles DELETE /api/v1/workers/:worker_id/forbid
func (h *AdminHandler) PermitWorker(c *gin.Context) {
	workerID := c.Param("worker_id")

	if err := h.admission.Permit(c.Request.Context(), workerID); err != nil {
		h.logger.Error("Failed to permit worker",
			slog.String("worker_id", workerID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to permit worker",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"worker_id": workerID,
		"forbidden": false,
	})
}
