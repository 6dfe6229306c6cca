package web

import (
	"bytes"
	"html/template"
	"testing"
	"time"

	"github.com/RMBLOGG/StreamFliix/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func jakarta() *time.Location {
	return time.FixedZone("WIB", 7*60*60)
}

func fixedNow() time.Time { return testNow }

func TestFuncMap(t *testing.T) {
	funcs := FuncMap(jakarta(), fixedNow)

	isFuture := funcs["is_future"].(func(time.Time) bool)
	assert.True(t, isFuture(testNow.Add(time.Second)))
	assert.False(t, isFuture(testNow))

	localTime := funcs["local_time"].(func(time.Time) string)
	assert.Equal(t, "19:00", localTime(testNow))
	assert.Equal(t, "-", localTime(time.Time{}))

	localDatetime := funcs["local_datetime"].(func(time.Time) string)
	assert.Equal(t, "02/05/2024 05:30", localDatetime(time.Date(2024, 5, 1, 22, 30, 0, 0, time.UTC)))

	localDate := funcs["local_date"].(func(time.Time) string)
	assert.Equal(t, "2024-05-02", localDate(time.Date(2024, 5, 1, 17, 0, 0, 0, time.UTC)))

	hours := funcs["hours_remaining"].(func(time.Time) float64)
	assert.Equal(t, 1.5, hours(testNow.Add(90*time.Minute)))
	assert.Equal(t, 0.0, hours(testNow.Add(-time.Hour)))

	rupiah := funcs["rupiah"].(func(decimal.Decimal) string)
	assert.Equal(t, "Rp 12,500", rupiah(decimal.NewFromInt(12500)))

	id := int64(4)
	deref := funcs["deref"].(func(*int64) int64)
	assert.Equal(t, int64(4), deref(&id))
	assert.Equal(t, int64(0), deref(nil))

	sameID := funcs["same_id"].(func(*int64, int64) bool)
	assert.True(t, sameID(&id, 4))
	assert.False(t, sameID(nil, 4))
}

func TestTemplates_Parse(t *testing.T) {
	tmpl, err := Templates(jakarta(), fixedNow)
	require.NoError(t, err)

	for _, name := range []string{
		"index.html", "search.html", "login.html", "register.html", "profile.html",
		"video.html", "watch.html", "need_payment.html", "wallet.html", "redeem.html",
		"error.html", "admin_dashboard.html", "admin_videos.html", "admin_video_form.html",
		"admin_users.html", "admin_payments.html", "admin_payment_details.html",
		"admin_categories.html", "admin_announcements.html", "admin_announcement_form.html",
		"admin_access_codes.html", "billing_return.html",
	} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func render(t *testing.T, tmpl *template.Template, name string, data map[string]interface{}) string {
	t.Helper()
	base := map[string]interface{}{
		"AppName":       "StreamFlix",
		"Title":         "",
		"Query":         "",
		"User":          (*models.User)(nil),
		"Flashes":       nil,
		"Announcements": nil,
	}
	for k, v := range data {
		base[k] = v
	}
	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, name, base))
	return buf.String()
}

func TestTemplates_Render(t *testing.T) {
	tmpl, err := Templates(jakarta(), fixedNow)
	require.NoError(t, err)

	premium := &models.Video{ID: 7, Title: "Premium <Show>", Price: decimal.NewFromInt(5000), IsPremium: true}
	free := &models.Video{ID: 8, Title: "Free Show"}
	viewer := &models.User{ID: 1, Email: "viewer@example.com", Balance: decimal.NewFromInt(20000), Role: models.UserRoleUser}

	t.Run("index anonymous", func(t *testing.T) {
		out := render(t, tmpl, "index.html", map[string]interface{}{
			"FreeVideos":    []*models.Video{free},
			"PremiumVideos": []*models.Video{premium},
			"Announcements": []*models.Announcement{{Title: "Promo", Content: "Diskon", TextColor: "#ff0000", TextStyle: "bold"}},
		})
		assert.Contains(t, out, "Free Show")
		assert.Contains(t, out, "Premium &lt;Show&gt;")
		assert.Contains(t, out, "Rp 5,000")
		assert.Contains(t, out, "Promo")
		assert.Contains(t, out, "/login")
	})

	t.Run("video with access", func(t *testing.T) {
		out := render(t, tmpl, "video.html", map[string]interface{}{
			"User":      viewer,
			"Video":     premium,
			"HasAccess": true,
			"Access":    &models.Access{VideoID: 7, ExpiresAt: testNow.Add(48 * time.Hour)},
		})
		assert.Contains(t, out, "/watch/7")
		assert.Contains(t, out, "03/05/2024 19:00")
		assert.Contains(t, out, "Rp 20,000")
	})

	t.Run("admin access codes", func(t *testing.T) {
		bound := testNow.Add(-time.Hour)
		admin := &models.User{ID: 2, Email: "admin@example.com", Role: models.UserRoleAdmin}
		out := render(t, tmpl, "admin_access_codes.html", map[string]interface{}{
			"User": admin,
			"Codes": []*models.AccessCode{
				{ID: 1, Code: "ABCD-1234-EF56", ExpiresAt: testNow.Add(time.Hour)},
				{ID: 2, Code: "FFFF-0000-AAAA", DeviceID: "device", BoundAt: &bound, ExpiresAt: testNow},
			},
		})
		assert.Contains(t, out, "ABCD-1234-EF56")
		assert.Contains(t, out, "belum dipakai")
		assert.Contains(t, out, "terpakai")
		assert.Contains(t, out, "kedaluwarsa")
		assert.Contains(t, out, "/admin/dashboard")
	})
}
