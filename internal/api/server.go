// Package api serves the admin console API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hadithconsole/internal/auth"
	"github.com/hadithconsole/internal/content"
	"github.com/hadithconsole/internal/jobs"
	"github.com/hadithconsole/internal/models"
	"github.com/hadithconsole/internal/store"
)

// Error messages shown by the console.
const (
	msgNotificationNotFound = "الإشعار غير موجود"
	msgNotificationIDNeeded = "معرف الإشعار مطلوب"
	msgHadithNotFound       = "الحديث غير موجود"
	msgHadithIDNeeded       = "معرف الحديث مطلوب"
	msgDeliveryFailed       = "تم حفظ الإشعار لكن فشل الإرسال عبر Firebase"
	msgStorageFailed        = "تم إرسال الإشعار بنجاح لكن تعذّر حفظه في السجل (تخزين غير متاح على الخادم)."
	msgWrongPassword        = "كلمة المرور غير صحيحة"
)

// CronTrigger runs the job processor on demand.
type CronTrigger interface {
	Trigger(ctx context.Context, source string) (jobs.Result, error)
	Started() bool
}

type Options struct {
	Notifications *content.NotificationManager
	Hadiths       *content.HadithManager
	CronLogs      store.AuditLog
	Scheduler     CronTrigger
	Sessions      *auth.Sessions
	CronAuth      *auth.CronAuthorizer
	SecureCookies bool
	Logger        *zap.Logger
}

type Server struct {
	notifications *content.NotificationManager
	hadiths       *content.HadithManager
	cronLogs      store.AuditLog
	scheduler     CronTrigger
	sessions      *auth.Sessions
	cronAuth      *auth.CronAuthorizer
	secureCookies bool
	logger        *zap.Logger
	router        *gin.Engine
	httpServer    *http.Server
}

func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(requestLogger(opts.Logger), gin.Recovery())

	server := &Server{
		notifications: opts.Notifications,
		hadiths:       opts.Hadiths,
		cronLogs:      opts.CronLogs,
		scheduler:     opts.Scheduler,
		sessions:      opts.Sessions,
		cronAuth:      opts.CronAuth,
		secureCookies: opts.SecureCookies,
		logger:        opts.Logger,
		router:        router,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.health)

	// Public routes
	s.router.POST("/api/auth", s.login)
	s.router.DELETE("/api/auth", s.logout)
	s.router.GET("/api/cron", s.cronAuth.Middleware(), s.runCron)

	// Protected routes
	api := s.router.Group("/api")
	api.Use(s.sessions.AuthMiddleware(), auth.RequireRole(models.RoleAdmin))

	api.GET("/notifications", s.listNotifications)
	api.POST("/notifications", s.createNotification)
	api.PUT("/notifications", s.updateNotification)
	api.DELETE("/notifications", s.deleteNotification)

	api.GET("/hadiths", s.listHadiths)
	api.POST("/hadiths", s.createHadith)
	api.PUT("/hadiths", s.updateHadith)
	api.DELETE("/hadiths", s.deleteHadith)

	api.GET("/cron-logs", s.listCronLogs)
	api.DELETE("/cron-logs", s.clearCronLogs)
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start(port int) error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("admin API listening", zap.Int("port", port))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	state := "stopped"
	if s.scheduler.Started() {
		state = "started"
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "scheduler": state})
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := s.sessions.Login(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": msgWrongPassword})
			return
		}
		s.logger.Error("failed to issue session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	auth.SetCookie(c, token, int(auth.SessionTTL.Seconds()), s.secureCookies)
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

func (s *Server) logout(c *gin.Context) {
	auth.SetCookie(c, "", -1, s.secureCookies)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) runCron(c *gin.Context) {
	res, err := s.scheduler.Trigger(c.Request.Context(), "api")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"processed": res.Processed,
		"errors":    res.Errors,
		"details":   res.Details,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Notification handlers
func (s *Server) listNotifications(c *gin.Context) {
	notifications, err := s.notifications.List(c.Request.Context())
	if err != nil {
		s.internalError(c, "failed to list notifications", err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (s *Server) createNotification(c *gin.Context) {
	var in content.NotificationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.notifications.Create(c.Request.Context(), in)
	if err != nil {
		s.contentError(c, err, msgNotificationNotFound)
		return
	}

	switch {
	case res.DeliveryErr != nil:
		c.JSON(http.StatusMultiStatus, partialNotification{Notification: res.Notification, FCMError: msgDeliveryFailed})
	case res.StorageErr != nil:
		c.JSON(http.StatusMultiStatus, partialNotification{Notification: res.Notification, StorageError: msgStorageFailed})
	default:
		c.JSON(http.StatusCreated, res.Notification)
	}
}

func (s *Server) updateNotification(c *gin.Context) {
	var patch content.NotificationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	n, err := s.notifications.Update(c.Request.Context(), patch)
	if err != nil {
		s.contentError(c, err, msgNotificationNotFound)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *Server) deleteNotification(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgNotificationIDNeeded})
		return
	}

	if err := s.notifications.Delete(c.Request.Context(), id); err != nil {
		s.internalError(c, "failed to delete notification", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Hadith handlers
func (s *Server) listHadiths(c *gin.Context) {
	hadiths, err := s.hadiths.List(c.Request.Context())
	if err != nil {
		s.internalError(c, "failed to list hadiths", err)
		return
	}
	c.JSON(http.StatusOK, hadiths)
}

func (s *Server) createHadith(c *gin.Context) {
	var in content.HadithInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h, err := s.hadiths.Create(c.Request.Context(), in)
	if err != nil {
		s.contentError(c, err, msgHadithNotFound)
		return
	}
	c.JSON(http.StatusCreated, h)
}

func (s *Server) updateHadith(c *gin.Context) {
	var patch content.HadithPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h, err := s.hadiths.Update(c.Request.Context(), patch)
	if err != nil {
		s.contentError(c, err, msgHadithNotFound)
		return
	}
	c.JSON(http.StatusOK, h)
}

func (s *Server) deleteHadith(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgHadithIDNeeded})
		return
	}

	if err := s.hadiths.Delete(c.Request.Context(), id); err != nil {
		s.internalError(c, "failed to delete hadith", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Cron log handlers
func (s *Server) listCronLogs(c *gin.Context) {
	logs, err := s.cronLogs.LoadAll(c.Request.Context())
	if err != nil {
		s.internalError(c, "failed to list cron logs", err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (s *Server) clearCronLogs(c *gin.Context) {
	if err := s.cronLogs.ClearAll(c.Request.Context()); err != nil {
		s.internalError(c, "failed to clear cron logs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// partialNotification is the body of a 207 response.
type partialNotification struct {
	models.Notification
	FCMError     string `json:"fcmError,omitempty"`
	StorageError string `json:"storageError,omitempty"`
}

func (s *Server) contentError(c *gin.Context, err error, notFound string) {
	var verr *content.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, content.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	default:
		s.internalError(c, "content operation failed", err)
	}
}

func (s *Server) internalError(c *gin.Context, msg string, err error) {
	s.logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
