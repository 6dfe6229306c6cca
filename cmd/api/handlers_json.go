package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/RMBLOGG/StreamFliix/internal/middleware"
	"github.com/RMBLOGG/StreamFliix/internal/service"
	"github.com/gin-gonic/gin"
)

// TokenRequest is the body of POST /api/token
type TokenRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// issueToken exchanges credentials for a bearer token
func (api *API) issueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	if !api.allowLogin(c) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many login attempts"})
		return
	}

	user, err := api.svc.Authenticate(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	case errors.Is(err, service.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": "Account disabled"})
		return
	case err != nil:
		api.failJSON(c, err)
		return
	}

	token, claims, err := api.tokens.Issue(user)
	if err != nil {
		api.failJSON(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": claims.ExpiresAt.Time.UTC().Format(time.RFC3339),
	})
}

// revokeToken blacklists the bearer token used for this request until it
// would have expired anyway
func (api *API) revokeToken(c *gin.Context) {
	claims := middleware.TokenClaims(c)
	if claims == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bearer token required"})
		return
	}
	if api.revoker == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Token revocation unavailable"})
		return
	}

	ttl := api.cfg.Auth.TokenTTL
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(api.svc.Now())
	}
	if ttl > 0 {
		if err := api.revoker.RevokeToken(c.Request.Context(), claims.ID, ttl); err != nil {
			api.failJSON(c, err)
			return
		}
	}

	c.Status(http.StatusNoContent)
}

func (api *API) userBalance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"balance": middleware.CurrentUser(c).Balance})
}

func (api *API) checkAccess(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	ctx := c.Request.Context()
	video, err := api.svc.GetVideo(ctx, id)
	if err != nil {
		api.failJSON(c, err)
		return
	}

	hasAccess, err := api.svc.HasAccess(ctx, userID(c), video, middleware.CurrentDevice(c))
	if err != nil {
		api.failJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"has_access": hasAccess})
}

func (api *API) stats(c *gin.Context) {
	totals, err := api.svc.Totals(c.Request.Context())
	if err != nil {
		api.failJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

// announcementJSON is the public shape of an active announcement
type announcementJSON struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	TextColor string `json:"text_color"`
	TextStyle string `json:"text_style"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func (api *API) activeAnnouncements(c *gin.Context) {
	list, err := api.svc.ActiveAnnouncements(c.Request.Context())
	if err != nil {
		api.failJSON(c, err)
		return
	}

	loc := api.svc.Location()
	out := make([]announcementJSON, 0, len(list))
	for _, a := range list {
		out = append(out, announcementJSON{
			ID:        a.ID,
			Title:     a.Title,
			Content:   a.Content,
			TextColor: a.TextColor,
			TextStyle: a.TextStyle,
			CreatedAt: a.CreatedAt.In(loc).Format("02/01/2006 15:04"),
			UpdatedAt: a.UpdatedAt.In(loc).Format("02/01/2006 15:04"),
		})
	}
	c.JSON(http.StatusOK, out)
}

// paymentStats feeds the dashboard chart with the last week of revenue
func (api *API) paymentStats(c *gin.Context) {
	daily, err := api.svc.PaymentStats(c.Request.Context())
	if err != nil {
		api.failJSON(c, err)
		return
	}

	dates := make([]string, 0, len(daily))
	amounts := make([]float64, 0, len(daily))
	counts := make([]int, 0, len(daily))
	for _, d := range daily {
		amount, _ := d.Amount.Float64()
		dates = append(dates, d.Date)
		amounts = append(amounts, amount)
		counts = append(counts, d.Count)
	}

	c.JSON(http.StatusOK, gin.H{
		"dates":   dates,
		"amounts": amounts,
		"counts":  counts,
	})
}

func (api *API) categoryStats(c *gin.Context) {
	stats, err := api.svc.CategoryStats(c.Request.Context())
	if err != nil {
		api.failJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (api *API) announcementStats(c *gin.Context) {
	stats, err := api.svc.AnnouncementStats(c.Request.Context())
	if err != nil {
		api.failJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (api *API) getCategory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	category, err := api.svc.GetCategory(c.Request.Context(), id)
	if err != nil {
		api.failJSON(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          category.ID,
		"name":        category.Name,
		"description": category.Description,
		"created_at":  category.CreatedAt.In(api.svc.Location()).Format("2006-01-02 15:04:05"),
	})
}
