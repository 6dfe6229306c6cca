package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/RMBLOGG/StreamFliix/internal/store"
	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	category, err := f.svc.CreateCategory(ctx, "Action", "")
	require.NoError(t, err)

	_, err = f.svc.CreateVideo(ctx, VideoInput{Title: " ", EmbedURL: "x"})
	assert.Equal(t, "Judul dan URL embed video wajib diisi!", validationMessage(t, err))

	_, err = f.svc.CreateVideo(ctx, VideoInput{Title: "t", EmbedURL: "x", Price: decimal.NewFromInt(-1)})
	assert.Equal(t, "Harga video tidak boleh negatif!", validationMessage(t, err))

	_, err = f.svc.CreateVideo(ctx, VideoInput{Title: strings.Repeat("é", 201), EmbedURL: "x"})
	assert.Equal(t, "Judul video maksimal 200 karakter!", validationMessage(t, err))

	_, err = f.svc.CreateVideo(ctx, VideoInput{Title: "t", EmbedURL: "x", Price: decimal.New(1, 12)})
	assert.Equal(t, "Harga video terlalu besar!", validationMessage(t, err))

	missing := int64(999)
	_, err = f.svc.CreateVideo(ctx, VideoInput{Title: "t", EmbedURL: "x", CategoryID: &missing})
	assert.Equal(t, "Kategori tidak ditemukan!", validationMessage(t, err))

	video, err := f.svc.CreateVideo(ctx, VideoInput{
		Title:      "  Film  ",
		EmbedURL:   "https://player.example/film",
		Price:      decimal.NewFromInt(5000),
		IsPremium:  true,
		CategoryID: &category.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Film", video.Title)

	got, err := f.svc.GetVideo(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, "Action", got.CategoryName)

	updated, err := f.svc.UpdateVideo(ctx, video.ID, VideoInput{Title: "Film 2", EmbedURL: "https://player.example/film2"})
	require.NoError(t, err)
	assert.False(t, updated.IsPremium)
	assert.Nil(t, updated.CategoryID)

	_, err = f.svc.UpdateVideo(ctx, 999, VideoInput{Title: "x", EmbedURL: "y"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, f.svc.DeleteVideo(ctx, video.ID))
	_, err = f.svc.GetVideo(ctx, video.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHomeAndSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.video(t, "Gratis Kartun", 0)
	f.video(t, "Premium Drama", 5000)
	f.video(t, "Premium Aksi", 7000)

	page, err := f.svc.Home(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, page.FreeVideos, 1)
	assert.Len(t, page.PremiumVideos, 2)
	assert.Nil(t, page.ActiveAccesses)

	results, err := f.svc.Search(ctx, "  premium ")
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = f.svc.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestCategoryLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		title       string
		description string
		message     string
	}{
		{"empty", "  ", "", "Nama kategori wajib diisi!"},
		{"long name", strings.Repeat("a", 51), "", "Nama kategori maksimal 50 karakter!"},
		{"long description", "Drama", strings.Repeat("d", 201), "Deskripsi kategori maksimal 200 karakter!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateCategory(ctx, tt.title, tt.description)
			assert.Equal(t, tt.message, validationMessage(t, err))
		})
	}

	action, err := f.svc.CreateCategory(ctx, "Action", "Laga")
	require.NoError(t, err)
	drama, err := f.svc.CreateCategory(ctx, "Drama", "")
	require.NoError(t, err)

	_, err = f.svc.CreateCategory(ctx, "action", "")
	assert.Equal(t, "Kategori sudah ada!", validationMessage(t, err))

	_, err = f.svc.UpdateCategory(ctx, drama.ID, "ACTION", "")
	assert.Equal(t, "Nama kategori sudah digunakan!", validationMessage(t, err))

	renamed, err := f.svc.UpdateCategory(ctx, drama.ID, "Drama Korea", "K-drama")
	require.NoError(t, err)
	assert.Equal(t, "Drama Korea", renamed.Name)

	_, err = f.svc.CreateVideo(ctx, VideoInput{Title: "a", EmbedURL: "x", CategoryID: &action.ID, IsPremium: true, Price: decimal.NewFromInt(1000)})
	require.NoError(t, err)
	_, err = f.svc.CreateVideo(ctx, VideoInput{Title: "b", EmbedURL: "y", CategoryID: &action.ID})
	require.NoError(t, err)

	deleted, err := f.svc.DeleteCategory(ctx, action.ID)
	var inUse *store.CategoryInUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, 2, inUse.Count)
	assert.Equal(t, "Action", deleted.Name)

	stats, err := f.svc.CategoryStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, models.CategoryStat{ID: action.ID, Name: "Action", Description: "Laga", Total: 2, Premium: 1, Free: 1}, *stats[0])

	deleted, err = f.svc.DeleteCategory(ctx, drama.ID)
	require.NoError(t, err)
	assert.Equal(t, "Drama Korea", deleted.Name)

	_, err = f.svc.DeleteCategory(ctx, drama.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAnnouncements(t *testing.T) {
	cache := newFakeCache()
	f := newFixture(t, WithCache(cache))
	ctx := context.Background()

	_, err := f.svc.CreateAnnouncement(ctx, AnnouncementInput{Title: "x"})
	assert.Equal(t, "Judul dan konten pengumuman wajib diisi!", validationMessage(t, err))

	_, err = f.svc.CreateAnnouncement(ctx, AnnouncementInput{Title: strings.Repeat("a", 201), Content: "x"})
	assert.Equal(t, "Judul pengumuman maksimal 200 karakter!", validationMessage(t, err))

	_, err = f.svc.CreateAnnouncement(ctx, AnnouncementInput{Title: "x", Content: "x", TextColor: "rgba(255, 255, 255, 0.5)"})
	assert.Equal(t, "Warna dan gaya teks maksimal 20 karakter!", validationMessage(t, err))

	first, err := f.svc.CreateAnnouncement(ctx, AnnouncementInput{Title: "Promo", Content: "Diskon 50%", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAnnouncementColor, first.TextColor)
	assert.Equal(t, models.DefaultAnnouncementStyle, first.TextStyle)

	active, err := f.svc.ActiveAnnouncements(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, cache.cached)

	// served from cache until invalidated
	require.NoError(t, f.store.UpdateAnnouncement(ctx, &models.Announcement{ID: first.ID, Title: "raw", Content: "raw", IsActive: true}))
	active, err = f.svc.ActiveAnnouncements(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Promo", active[0].Title)

	toggled, err := f.svc.ToggleAnnouncement(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, cache.cached)

	assert.False(t, toggled.IsActive)

	active, err = f.svc.ActiveAnnouncements(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	second, err := f.svc.CreateAnnouncement(ctx, AnnouncementInput{Title: "Info", Content: "Maintenance", TextColor: "#ff0000", TextStyle: "bold"})
	require.NoError(t, err)

	updated, err := f.svc.UpdateAnnouncement(ctx, second.ID, AnnouncementInput{Title: "Info", Content: "Selesai", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAnnouncementColor, updated.TextColor)

	stats, err := f.svc.AnnouncementStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, stats.Total, stats.Active+stats.Inactive)
	assert.Equal(t, 2, stats.Recent)

	f.clock.Advance(8 * 24 * time.Hour)
	stats, err = f.svc.AnnouncementStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Recent)

	require.NoError(t, f.svc.DeleteAnnouncement(ctx, second.ID))
	assert.ErrorIs(t, f.svc.DeleteAnnouncement(ctx, second.ID), store.ErrNotFound)
	assert.GreaterOrEqual(t, cache.invalidations, 4)
}
