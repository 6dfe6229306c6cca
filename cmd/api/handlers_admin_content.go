package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/RMBLOGG/StreamFliix/internal/middleware"
	"github.com/RMBLOGG/StreamFliix/internal/service"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/gin-gonic/gin"
)

// Announcements

func (api *API) adminAnnouncements(c *gin.Context) {
	list, err := api.svc.ListAnnouncements(c.Request.Context())
	if err != nil {
		api.fail(c, err)
		return
	}
	api.render(c, "admin_announcements.html", gin.H{"Title": "Kelola Pengumuman", "AnnouncementList": list})
}

func announcementForm(c *gin.Context) service.AnnouncementInput {
	return service.AnnouncementInput{
		Title:     c.PostForm("title"),
		Content:   c.PostForm("content"),
		TextColor: c.DefaultPostForm("text_color", models.DefaultAnnouncementColor),
		TextStyle: c.DefaultPostForm("text_style", models.DefaultAnnouncementStyle),
		IsActive:  c.PostForm("is_active") != "",
	}
}

func (api *API) addAnnouncementPage(c *gin.Context) {
	api.render(c, "admin_announcement_form.html", gin.H{
		"Title":        "Tambah Pengumuman",
		"Action":       "/admin/add_announcement",
		"Announcement": nil,
	})
}

func (api *API) addAnnouncement(c *gin.Context) {
	if _, err := api.svc.CreateAnnouncement(c.Request.Context(), announcementForm(c)); err != nil {
		api.flashError(c, err, "/admin/announcements")
		return
	}
	middleware.FlashRedirect(c, middleware.FlashSuccess, "Pengumuman berhasil ditambahkan!", "/admin/announcements")
}

func (api *API) editAnnouncementPage(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		api.renderError(c, http.StatusNotFound, "Pengumuman tidak ditemukan.")
		return
	}
	a, err := api.svc.GetAnnouncement(c.Request.Context(), id)
	if err != nil {
		api.fail(c, err)
		return
	}
	api.render(c, "admin_announcement_form.html", gin.H{
		"Title":        "Edit Pengumuman",
		"Action":       fmt.Sprintf("/admin/edit_announcement/%d", id),
		"Announcement": a,
	})
}

func (api *API) editAnnouncement(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		api.renderError(c, http.StatusNotFound, "Pengumuman tidak ditemukan.")
		return
	}
	if _, err := api.svc.UpdateAnnouncement(c.Request.Context(), id, announcementForm(c)); err != nil {
		api.flashError(c, err, "/admin/announcements")
		return
	}
	middleware.FlashRedirect(c, middleware.FlashSuccess, "Pengumuman berhasil diupdate!", "/admin/announcements")
}

func (api *API) deleteAnnouncement(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		api.renderError(c, http.StatusNotFound, "Pengumuman tidak ditemukan.")
		return
	}
	if err := api.svc.DeleteAnnouncement(c.Request.Context(), id); err != nil {
		api.fail(c, err)
		return
	}
	middleware.FlashRedirect(c, middleware.FlashSuccess, "Pengumuman berhasil dihapus!", "/admin/announcements")
}

func (api *API) toggleAnnouncement(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		api.renderError(c, http.StatusNotFound, "Pengumuman tidak ditemukan.")
		return
	}
	a, err := api.svc.ToggleAnnouncement(c.Request.Context(), id)
	if err != nil {
		api.fail(c, err)
		return
	}

	status := "dinonaktifkan"
	if a.IsActive {
		status = "diaktifkan"
	}
	middleware.FlashRedirect(c, middleware.FlashSuccess, "Pengumuman berhasil "+status+"!", "/admin/announcements")
}

// Access codes

func (api *API) adminAccessCodes(c *gin.Context) {
	codes, err := api.svc.ListAccessCodes(c.Request.Context())
	if err != nil {
		api.fail(c, err)
		return
	}
	api.render(c, "admin_access_codes.html", gin.H{"Title": "Kode Akses", "Codes": codes})
}

// createAccessCode issues a code valid for the given number of days, or the
// configured default when days is empty
func (api *API) createAccessCode(c *gin.Context) {
	var duration time.Duration
	if raw := strings.TrimSpace(c.PostForm("days")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			middleware.FlashRedirect(c, middleware.FlashDanger, "Durasi kode akses tidak valid!", "/admin/access_codes")
			return
		}
		duration = time.Duration(days) * 24 * time.Hour
	}

	code, err := api.svc.CreateAccessCode(c.Request.Context(), duration, c.PostForm("note"))
	if err != nil {
		api.flashError(c, err, "/admin/access_codes")
		return
	}
	middleware.FlashRedirect(c, middleware.FlashSuccess, "Kode akses "+code.Code+" berhasil dibuat!", "/admin/access_codes")
}

func (api *API) deleteAccessCode(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		api.renderError(c, http.StatusNotFound, "Kode akses tidak ditemukan.")
		return
	}
	if err := api.svc.DeleteAccessCode(c.Request.Context(), id); err != nil {
		api.fail(c, err)
		return
	}
	middleware.FlashRedirect(c, middleware.FlashSuccess, "Kode akses berhasil dihapus!", "/admin/access_codes")
}
