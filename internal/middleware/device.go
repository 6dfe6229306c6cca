package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	DeviceCookieName    = "streamflix_device"
	deviceContextKey    = "device_id"
	defaultDeviceMaxAge = 365 * 24 * time.Hour
)

// DeviceID gives every browser a long-lived random id, used to bind access codes
func DeviceID(maxAge time.Duration, secure bool) gin.HandlerFunc {
	if maxAge <= 0 {
		maxAge = defaultDeviceMaxAge
	}
	return func(c *gin.Context) {
		id, err := c.Cookie(DeviceCookieName)
		if _, perr := uuid.Parse(id); err != nil || perr != nil {
			id = uuid.New().String()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(DeviceCookieName, id, int(maxAge.Seconds()), "/", "", secure, true)
		}
		c.Set(deviceContextKey, id)
		c.Next()
	}
}

// CurrentDevice returns the request's device id
func CurrentDevice(c *gin.Context) string {
	return c.GetString(deviceContextKey)
}
