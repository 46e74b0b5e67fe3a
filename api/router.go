// Package api contains all endpoints available
package api

import (
	"context"
	"fmt"
	"time"

	"clipforge/editor-api/aws"
	"clipforge/editor-api/db"
	"clipforge/editor-api/internal"
	"clipforge/editor-api/internal/service"
	"clipforge/editor-api/pkg/middleware"

	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

type API struct {
	Router *gin.Engine
	d      *internal.Deps
}

func NewRouter() (*API, error) {
	makeLogger()

	database, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	var storage service.Storage

	switch viper.GetString("storage.type") {
	case "s3":
		s3, err := aws.NewS3(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}

		storage = service.NewS3Storage(s3)
	default:
		storage, err = service.NewLocalStorage(viper.GetString("media.dir"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage, %w", err)
		}
	}

	guard := service.NewAccessGuard(database)
	audit := service.NewAuditRecorder(database, viper.GetInt("audit.buffer_size"))
	transcoder := service.NewFFmpeg()
	compiler := service.NewSegmentCompiler(transcoder, viper.GetString("media.dir"), viper.GetInt("ffmpeg.workers"))

	a := &API{
		d: &internal.Deps{
			DB:       database,
			Guard:    guard,
			Audit:    audit,
			Projects: service.NewProjectService(database, guard, audit),
			Timeline: service.NewTimelineService(database, guard, audit),
			Media:    service.NewMediaService(database, guard, audit, transcoder, compiler, storage),
		},
	}

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("user_id", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 5 << 20

	jwt := middleware.NewJWTMiddleware()
	maxUploadSize := viper.GetInt64("upload.max_size")

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)
	}

	projects := main.Group("/projects", jwt, middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/projects		-> Creates a new project
		projects.POST("", a.ProjectCreate)

		// GET /api/projects		-> Lists the caller's projects
		projects.GET("", a.ProjectList)

		// GET /api/projects/:id	-> Returns one project
		projects.GET("/:id", a.ProjectFetch)

		// PATCH /api/projects/:id	-> Partially updates a project
		projects.PATCH("/:id", a.ProjectUpdate)

		// DELETE /api/projects/:id	-> Soft-deletes a project
		projects.DELETE("/:id", a.ProjectDelete)

		// POST /api/projects/:id/restore	-> Restores a soft-deleted project
		projects.POST("/:id/restore", a.ProjectRestore)

		// POST /api/projects/:id/collaborators			-> Shares the project
		projects.POST("/:id/collaborators", a.CollaboratorAdd)

		// DELETE /api/projects/:id/collaborators/:userID	-> Revokes access
		projects.DELETE("/:id/collaborators/:userID", a.CollaboratorRemove)

		// POST /api/projects/:id/timeline	-> Saves a new timeline version
		projects.POST("/:id/timeline", a.TimelineSave)

		// GET /api/projects/:id/timeline	-> Returns the current timeline state
		projects.GET("/:id/timeline", a.TimelineCurrent)

		// GET /api/projects/:id/timeline/history	-> Lists saved versions
		projects.GET("/:id/timeline/history", a.TimelineHistory)

		// GET /api/projects/:id/timeline/versions/:version	-> Returns one version
		projects.GET("/:id/timeline/versions/:version", a.TimelineByVersion)

		// POST /api/projects/:id/timeline/versions/:version/restore	-> Makes an old version current
		projects.POST("/:id/timeline/versions/:version/restore", a.TimelineRestore)

		// POST /api/projects/:id/media/trim	-> Compiles segments of the source media
		projects.POST("/:id/media/trim", a.MediaTrim)
	}

	// Uploads get their own body limit
	media := main.Group("/projects/:id/media", jwt, middleware.BodySizeLimiter(maxUploadSize))
	{
		// POST /api/projects/:id/media		-> Uploads the project's source media
		media.POST("", a.MediaUpload)
	}

	timeline := main.Group("/timeline", jwt, middleware.BodySizeLimiter(1<<20))
	{
		// PATCH /api/timeline/:snapshotID	-> Partially updates a snapshot
		timeline.PATCH("/:snapshotID", a.TimelineUpdate)

		// DELETE /api/timeline/:snapshotID	-> Deletes a non-current snapshot
		timeline.DELETE("/:snapshotID", a.TimelineDelete)
	}

	return a, nil
}

// Close flushes the audit recorder. Call on shutdown
func (a *API) Close() {
	a.d.Audit.Close()
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	if lvl, err := zapcore.ParseLevel(viper.GetString("app.log_level")); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}
