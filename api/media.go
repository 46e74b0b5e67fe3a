package api

import (
	"io"
	"net/http"
	"os"

	"clipforge/editor-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (a *API) MediaUpload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to open uploaded file", zap.Error(err))
		return
	}
	defer f.Close()

	tempFile, err := os.CreateTemp("", "upload-*.mp4")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create temporary file", zap.Error(err))
		return
	}
	defer tempFile.Close()

	if _, err := io.Copy(tempFile, f); err != nil {
		os.Remove(tempFile.Name())

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to copy data to temporary file", zap.Error(err))
		return
	}

	p, err := a.d.Media.SaveSource(c.Request.Context(), c.Param("id"), userID, tempFile.Name(), fileHeader.Filename)
	if err != nil {
		os.Remove(tempFile.Name())
		abortWithError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

type mediaTrimRequest struct {
	Segments []validators.MediaSegment `json:"segments"`
}

func (a *API) MediaTrim(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var req mediaTrimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	res, err := a.d.Media.TrimSegments(c.Request.Context(), c.Param("id"), userID, req.Segments)
	if err != nil {
		abortWithError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
