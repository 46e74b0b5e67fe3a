package api

import (
	"net/http"
	"strconv"

	"clipforge/editor-api/internal/model"
	"clipforge/editor-api/internal/service"

	"github.com/gin-gonic/gin"
)

type timelineSaveRequest struct {
	TimelineState model.TimelineState `json:"timeline_state" binding:"required"`
	Description   string              `json:"description"`
	ChangeSummary string              `json:"change_summary"`
}

func (a *API) TimelineSave(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var req timelineSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	snap, err := a.d.Timeline.Save(c.Request.Context(), c.Param("id"), userID, req.TimelineState, req.Description, req.ChangeSummary)
	if err != nil {
		abortWithError(c, requestID, err)
		return
	}

	c.JSON(http.StatusCreated, snap)
}

func (a *API) TimelineCurrent(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	snap, err := a.d.Timeline.GetCurrent(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		abortWithError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

func (a *API) TimelineHistory(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	limit, offset, ok := pagination(c, requestID)
	if !ok {
		return
	}

	snaps, err := a.d.Timeline.GetHistory(c.Request.Context(), c.Param("id"), userID, limit, offset)
	if err != nil {
		abortWithError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, snaps)
}

func (a *API) TimelineByVersion(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	version, ok := versionParam(c, requestID)
	if !ok {
		return
	}

	snap, err := a.d.Timeline.GetByVersion(c.Request.Context(), c.Param("id"), version, userID)
	if err != nil {
		abortWithError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

func (a *API) TimelineRestore(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	version, ok := versionParam(c, requestID)
	if !ok {
		return
	}

	snap, err := a.d.Timeline.Restore(c.Request.Context(), c.Param("id"), version, userID)
	if err != nil {
		abortWithError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

func (a *API) TimelineUpdate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var upd service.TimelineUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	snap, err := a.d.Timeline.Update(c.Request.Context(), c.Param("snapshotID"), userID, upd)
	if err != nil {
		abortWithError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

func (a *API) TimelineDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	err := a.d.Timeline.Delete(c.Request.Context(), c.Param("snapshotID"), userID)
	if err != nil {
		abortWithError(c, requestID, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func versionParam(c *gin.Context, requestID string) (int, bool) {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Version must be a positive number",
			"requestID": requestID,
		})
		return 0, false
	}

	return version, true
}
