package api

import (
	"net/http"
	"strconv"

	"clipforge/editor-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type projectCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (a *API) ProjectCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var req projectCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	p, err := a.d.Projects.Create(c.Request.Context(), userID, req.Name, req.Description)
	if err != nil {
		abortWithError(c, requestID, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

func (a *API) ProjectFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	p, err := a.d.Projects.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		abortWithError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (a *API) ProjectList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	limit, offset, ok := pagination(c, requestID)
	if !ok {
		return
	}

	projects, err := a.d.Projects.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		abortWithError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, projects)
}

func (a *API) ProjectUpdate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var upd service.ProjectUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	p, err := a.d.Projects.Update(c.Request.Context(), c.Param("id"), userID, upd)
	if err != nil {
		abortWithError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (a *API) ProjectDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	err := a.d.Projects.SoftDelete(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		abortWithError(c, requestID, err)
		return
	}

	zap.L().Info("Project soft-deleted", zap.String("project_id", c.Param("id")))
	c.Status(http.StatusNoContent)
}

func (a *API) ProjectRestore(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	p, err := a.d.Projects.Restore(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		abortWithError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

type collaboratorAddRequest struct {
	UserID      string   `json:"user_id" binding:"required"`
	Permissions []string `json:"permissions"`
}

func (a *API) CollaboratorAdd(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var req collaboratorAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	p, err := a.d.Projects.AddCollaborator(c.Request.Context(), c.Param("id"), userID, req.UserID, req.Permissions)
	if err != nil {
		abortWithError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (a *API) CollaboratorRemove(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	p, err := a.d.Projects.RemoveCollaborator(c.Request.Context(), c.Param("id"), userID, c.Param("userID"))
	if err != nil {
		abortWithError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

// pagination reads and bounds the limit/offset query params
func pagination(c *gin.Context, requestID string) (limit, offset int, ok bool) {
	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 250 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Limit must be a number between 1 and 250",
			"requestID": requestID,
		})
		return 0, 0, false
	}

	offsetStr := c.DefaultQuery("offset", "0")
	offset, err = strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Offset can't be negative",
			"requestID": requestID,
		})
		return 0, 0, false
	}

	return limit, offset, true
}
