package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/RMBLOGG/StreamFliix/internal/middleware"
	"github.com/RMBLOGG/StreamFliix/internal/service"
	"github.com/RMBLOGG/StreamFliix/internal/store"
	"github.com/RMBLOGG/StreamFliix/internal/telemetry"
	"github.com/gin-gonic/gin"
)

// render executes a page template with the data every page shares
func (api *API) render(c *gin.Context, name string, data gin.H) {
	api.renderStatus(c, http.StatusOK, name, data)
}

func (api *API) renderStatus(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["AppName"] = api.cfg.App.Name
	data["User"] = middleware.CurrentUser(c)
	data["Flashes"] = middleware.Flashes(c)
	if _, ok := data["Title"]; !ok {
		data["Title"] = ""
	}
	if _, ok := data["Query"]; !ok {
		data["Query"] = ""
	}

	announcements, err := api.svc.ActiveAnnouncements(c.Request.Context())
	if err != nil {
		middleware.RequestLogger(c, api.logger).WithError(err).Warn("Failed to load announcements")
	}
	data["Announcements"] = announcements

	c.HTML(status, name, data)
}

func (api *API) renderError(c *gin.Context, status int, message string) {
	api.renderStatus(c, status, "error.html", gin.H{
		"Title":   http.StatusText(status),
		"Code":    status,
		"Message": message,
	})
}

// fail maps an unexpected error to the error page. Missing records become 404.
func (api *API) fail(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		api.renderError(c, http.StatusNotFound, "Halaman tidak ditemukan.")
		return
	}

	middleware.RequestLogger(c, api.logger).WithError(err).Error("Request failed")
	telemetry.CaptureError(err, map[string]string{"route": c.FullPath()})
	_ = c.Error(err)
	api.renderError(c, http.StatusInternalServerError, "Terjadi kesalahan pada server.")
}

// failJSON is fail for JSON routes
func (api *API) failJSON(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	middleware.RequestLogger(c, api.logger).WithError(err).Error("Request failed")
	telemetry.CaptureError(err, map[string]string{"route": c.FullPath()})
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// flashError redirects with the message of a validation error, or fails
func (api *API) flashError(c *gin.Context, err error, location string) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		middleware.FlashRedirect(c, middleware.FlashDanger, verr.Message, location)
		return
	}
	api.fail(c, err)
}

// paramID parses the :id path parameter
func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// userID returns the current user's id, 0 when anonymous
func userID(c *gin.Context) int64 {
	if user := middleware.CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}
