package middleware

import (
	"net/http"
	"strings"

	"github.com/RMBLOGG/StreamFliix/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const (
	SessionName    = "streamflix_session"
	sessionUserKey = "user_id"
)

// Flash categories
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Flash is a one-shot message shown on the next rendered page
type Flash struct {
	Category string
	Message  string
}

// NewSessionStore creates the signed cookie store backing login sessions.
// The cookie is also encrypted when an encryption key is configured. It is
// SameSite=Strict as several GET routes change state.
func NewSessionStore(cfg config.AuthConfig) sessions.Store {
	var store cookie.Store
	if cfg.SessionEncryption != "" {
		store = cookie.NewStore([]byte(cfg.SessionSecret), []byte(cfg.SessionEncryption))
	} else {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   cfg.SecureCookie,
	})
	return store
}

// Sessions attaches the session to every request
func Sessions(store sessions.Store) gin.HandlerFunc {
	return sessions.Sessions(SessionName, store)
}

// StartSession records userID as logged in, dropping any earlier session
// data. The cookie is written by SaveSession or FlashRedirect.
func StartSession(c *gin.Context, userID int64) {
	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUserKey, userID)
}

// EndSession logs the current user out
func EndSession(c *gin.Context) {
	sessions.Default(c).Clear()
}

// SaveSession writes the session cookie. Each save adds a Set-Cookie
// header, so call it once per response.
func SaveSession(c *gin.Context) error {
	return sessions.Default(c).Save()
}

func sessionUserID(c *gin.Context) int64 {
	switch id := sessions.Default(c).Get(sessionUserKey).(type) {
	case int64:
		return id
	case int:
		return int64(id)
	default:
		return 0
	}
}

// AddFlash queues a message for the next page. It is persisted by the
// next SaveSession, FlashRedirect or Flashes call.
func AddFlash(c *gin.Context, category, message string) {
	sessions.Default(c).AddFlash(category + "|" + message)
}

// FlashRedirect queues a message, saves the session and redirects
func FlashRedirect(c *gin.Context, category, message, location string) {
	AddFlash(c, category, message)
	_ = SaveSession(c)
	c.Redirect(http.StatusFound, location)
}

// Flashes drains the queued messages
func Flashes(c *gin.Context) []Flash {
	session := sessions.Default(c)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = SaveSession(c)

	flashes := make([]Flash, 0, len(raw))
	for _, r := range raw {
		s, ok := r.(string)
		if !ok {
			continue
		}
		category, message, found := strings.Cut(s, "|")
		if !found {
			category, message = FlashInfo, s
		}
		flashes = append(flashes, Flash{Category: category, Message: message})
	}
	return flashes
}
