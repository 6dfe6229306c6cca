package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/RMBLOGG/StreamFliix/internal/middleware"
	"github.com/RMBLOGG/StreamFliix/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func (api *API) index(c *gin.Context) {
	page, err := api.svc.Home(c.Request.Context(), userID(c))
	if err != nil {
		api.fail(c, err)
		return
	}

	api.render(c, "index.html", gin.H{
		"FreeVideos":     page.FreeVideos,
		"PremiumVideos":  page.PremiumVideos,
		"Categories":     page.Categories,
		"ActiveAccesses": page.ActiveAccesses,
	})
}

func (api *API) search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	videos, err := api.svc.Search(c.Request.Context(), query)
	if err != nil {
		api.fail(c, err)
		return
	}

	api.render(c, "search.html", gin.H{
		"Title":  "Cari",
		"Query":  query,
		"Videos": videos,
	})
}

func (api *API) videoDetail(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		api.renderError(c, http.StatusNotFound, "Video tidak ditemukan.")
		return
	}

	ctx := c.Request.Context()
	video, err := api.svc.GetVideo(ctx, id)
	if err != nil {
		api.fail(c, err)
		return
	}

	hasAccess, err := api.svc.HasAccess(ctx, userID(c), video, middleware.CurrentDevice(c))
	if err != nil {
		api.fail(c, err)
		return
	}

	api.render(c, "video.html", gin.H{
		"Title":     video.Title,
		"Video":     video,
		"HasAccess": hasAccess,
	})
}

// watch plays a video, buying 48h access from the wallet when the viewer
// has none yet
func (api *API) watch(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		api.renderError(c, http.StatusNotFound, "Video tidak ditemukan.")
		return
	}

	result, err := api.svc.Watch(c.Request.Context(), userID(c), id, middleware.CurrentDevice(c))
	if err != nil {
		api.fail(c, err)
		return
	}

	switch result.Outcome {
	case service.WatchPurchased:
		if fresh, err := api.svc.GetUser(c.Request.Context(), userID(c)); err == nil {
			c.Set(middleware.UserContextKey, fresh)
		}
		hours := int(api.cfg.App.AccessDuration.Hours())
		if hours <= 0 {
			hours = 48
		}
		middleware.AddFlash(c, middleware.FlashSuccess, fmt.Sprintf("Akses video premium diberikan! Berlaku %d jam.", hours))
		fallthrough
	case service.WatchGranted:
		api.render(c, "watch.html", gin.H{
			"Title":  result.Video.Title,
			"Video":  result.Video,
			"Access": result.Access,
		})
	case service.WatchNeedsPayment:
		user := middleware.CurrentUser(c)
		if user == nil {
			middleware.FlashRedirect(c, middleware.FlashWarning, "Silakan login terlebih dahulu!", fmt.Sprintf("/login?next=/watch/%d", id))
			return
		}
		shortfall := result.Video.Price.Sub(user.Balance)
		if shortfall.IsNegative() {
			shortfall = decimal.Zero
		}
		api.render(c, "need_payment.html", gin.H{
			"Title":     "Saldo tidak cukup",
			"Video":     result.Video,
			"Shortfall": shortfall,
		})
	}
}
