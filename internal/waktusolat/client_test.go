package waktusolat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return raw
}

// recorder keeps the most recent request seen by the fake upstream.
type recorder struct {
	mu   sync.Mutex
	last *http.Request
}

func (r *recorder) Last() *http.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// newUpstream serves fixtures by path and records the last request.
func newUpstream(t *testing.T, routes map[string][]byte) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.last = r.Clone(context.Background())
		rec.mu.Unlock()
		body, ok := routes[r.URL.Path]
		if !ok {
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newTestClient(t *testing.T, baseURL string, now time.Time) *Client {
	t.Helper()
	c, err := NewClient(baseURL, time.Second, WithUserAgent("test-agent"), WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return c
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	_, err := NewClient("ftp://example.com", time.Second)
	require.Error(t, err)

	c, err := NewClient("", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}

func TestZones(t *testing.T) {
	srv, rec := newUpstream(t, map[string][]byte{"/zones": fixture(t, "zones.json")})
	c := newTestClient(t, srv.URL, time.Now())

	zones, err := c.Zones(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Zone{
		{Code: "JHR01", Name: "Pulau Aur dan Pulau Pemanggil", State: "Johor"},
		{Code: "SGR01", Name: "Gombak, Petaling, Sepang, Hulu Langat, Hulu Selangor, S.Alam", State: "Selangor"},
		{Code: "WLY01", Name: "Kuala Lumpur, Putrajaya", State: "Wilayah Persekutuan"},
		{Code: "SGR03", Name: "Klang, Kuala Langat", State: "Selangor"},
	}, zones)
	assert.Equal(t, "test-agent", rec.Last().Header.Get("User-Agent"))
	assert.Equal(t, "application/json", rec.Last().Header.Get("Accept"))
}

func TestZonesRejectsEmptyList(t *testing.T) {
	srv, _ := newUpstream(t, map[string][]byte{"/zones": []byte(`[{"jakimCode":"","negeri":"","daerah":""}]`)})
	c := newTestClient(t, srv.URL, time.Now())

	_, err := c.Zones(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestPrayerTimesV2(t *testing.T) {
	srv, rec := newUpstream(t, map[string][]byte{"/v2/solat/SGR01": fixture(t, "solat_sgr01.json")})
	c := newTestClient(t, srv.URL, time.Now())

	month := time.Date(2024, time.April, 4, 12, 0, 0, 0, Location())
	sched, err := c.PrayerTimes(context.Background(), "SGR01", month)
	require.NoError(t, err)

	assert.Equal(t, "2024", rec.Last().URL.Query().Get("year"))
	assert.Equal(t, "4", rec.Last().URL.Query().Get("month"))

	assert.Equal(t, "SGR01", sched.Zone)
	assert.Equal(t, "APR", sched.Month)
	assert.Equal(t, 2024, sched.Year)
	assert.Equal(t, "2024-03-30T10:00:00.000Z", sched.LastUpdated)
	require.Len(t, sched.Prayers, 3, "incomplete day must be skipped")

	day, ok := sched.Day("2024-04-04")
	require.True(t, ok)
	assert.Equal(t, PrayerTimes{
		Date:    "2024-04-04",
		Day:     "Thursday",
		Hijri:   "1445-09-25",
		Fajr:    "05:55",
		Syuruk:  "07:08",
		Dhuhr:   "13:16",
		Asr:     "16:25",
		Maghrib: "19:21",
		Isha:    "20:30",
	}, day)
}

func TestPrayerTimesLegacyArray(t *testing.T) {
	srv, rec := newUpstream(t, map[string][]byte{"/v2/solat/PRK02": fixture(t, "solat_legacy.json")})
	c := newTestClient(t, srv.URL, time.Now())

	sched, err := c.PrayerTimes(context.Background(), "PRK02", time.Time{})
	require.NoError(t, err)
	assert.Empty(t, rec.Last().URL.RawQuery)

	assert.Equal(t, "PRK02", sched.Zone)
	require.Len(t, sched.Prayers, 2)
	assert.Equal(t, "2024-04-04", sched.Prayers[0].Date)
	assert.Equal(t, "Thursday", sched.Prayers[0].Day)
	assert.Equal(t, "05:45", sched.Prayers[0].Imsak)
	assert.Equal(t, "05:55", sched.Prayers[0].Fajr)
	assert.Equal(t, "05:54", sched.Prayers[1].Fajr)
	assert.Empty(t, sched.Prayers[1].Imsak)
}

func TestPrayerTimesFromYearMonthDay(t *testing.T) {
	sched, err := parseSchedule([]byte(`{"year":2024,"month":"APR","prayers":[
		{"day":4,"fajr":"05:55","syuruk":"07:08","dhuhr":"13:16","asr":"16:25","maghrib":"19:21","isha":"20:30"}
	]}`))
	require.NoError(t, err)
	require.Len(t, sched.Prayers, 1)
	assert.Equal(t, "2024-04-04", sched.Prayers[0].Date)
	assert.Equal(t, "Thursday", sched.Prayers[0].Day)
}

func TestPrayerTimesErrors(t *testing.T) {
	srv, _ := newUpstream(t, map[string][]byte{
		"/v2/solat/SGR02": []byte(`{"zone":"SGR02"}`),
		"/v2/solat/SGR03": []byte(`"nope"`),
		"/v2/solat/SGR04": []byte(`   `),
	})
	c := newTestClient(t, srv.URL, time.Now())
	ctx := context.Background()

	_, err := c.PrayerTimes(ctx, "sgr01", time.Time{})
	assert.ErrorIs(t, err, ErrInvalidZone)

	_, err = c.PrayerTimes(ctx, "SGR02", time.Time{})
	assert.ErrorIs(t, err, ErrUnexpectedResponse)

	_, err = c.PrayerTimes(ctx, "SGR03", time.Time{})
	assert.ErrorIs(t, err, ErrUnexpectedResponse)

	_, err = c.PrayerTimes(ctx, "SGR04", time.Time{})
	assert.ErrorIs(t, err, ErrUnexpectedResponse)

	_, err = c.PrayerTimes(ctx, "KDH01", time.Time{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "/v2/solat/KDH01", apiErr.Path)
}

func TestPrayerTimesHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.PrayerTimes(ctx, "SGR01", time.Time{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCurrentPrayerFromSchedule(t *testing.T) {
	srv, _ := newUpstream(t, map[string][]byte{"/v2/solat/SGR01": fixture(t, "solat_sgr01.json")})
	now := time.Date(2024, time.April, 4, 16, 40, 0, 0, Location())
	c := newTestClient(t, srv.URL, now)

	cur, err := c.CurrentPrayer(context.Background(), "SGR01")
	require.NoError(t, err)
	assert.Equal(t, CurrentPrayer{
		Zone:       "SGR01",
		Date:       "2024-04-04",
		Prayer:     "Asr",
		Time:       "16:25",
		NextPrayer: "Maghrib",
		NextTime:   "19:21",
	}, cur)
}

func TestCurrentAt(t *testing.T) {
	today := PrayerTimes{Date: "2024-04-04", Fajr: "05:55", Syuruk: "07:08", Dhuhr: "13:16", Asr: "16:25", Maghrib: "19:21", Isha: "20:30"}
	tomorrow := PrayerTimes{Date: "2024-04-05", Fajr: "05:54"}
	at := func(h, m int) time.Time { return time.Date(2024, time.April, 4, h, m, 0, 0, Location()) }

	cases := []struct {
		name     string
		now      time.Time
		tomorrow *PrayerTimes
		want     CurrentPrayer
	}{
		{"before fajr", at(4, 30), &tomorrow, CurrentPrayer{Date: "2024-04-04", Prayer: "Isha", NextPrayer: "Fajr", NextTime: "05:55"}},
		{"at fajr", at(5, 55), &tomorrow, CurrentPrayer{Date: "2024-04-04", Prayer: "Fajr", Time: "05:55", NextPrayer: "Syuruk", NextTime: "07:08"}},
		{"after syuruk", at(9, 0), &tomorrow, CurrentPrayer{Date: "2024-04-04", Prayer: "Syuruk", Time: "07:08", NextPrayer: "Dhuhr", NextTime: "13:16"}},
		{"after isha", at(22, 0), &tomorrow, CurrentPrayer{Date: "2024-04-04", Prayer: "Isha", Time: "20:30", NextPrayer: "Fajr", NextTime: "05:54"}},
		{"after isha month end", at(22, 0), nil, CurrentPrayer{Date: "2024-04-04", Prayer: "Isha", Time: "20:30", NextPrayer: "Fajr"}},
		{"utc clock", time.Date(2024, time.April, 4, 8, 30, 0, 0, time.UTC), &tomorrow, CurrentPrayer{Date: "2024-04-04", Prayer: "Asr", Time: "16:25", NextPrayer: "Maghrib", NextTime: "19:21"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CurrentAt(today, tc.tomorrow, tc.now))
		})
	}
}

func TestSchedulePickFallsBack(t *testing.T) {
	sched := Schedule{Prayers: []PrayerTimes{{Date: "2024-03-01"}, {Date: "2024-03-04"}}}

	day, ok := sched.Pick(time.Date(2024, time.April, 4, 0, 0, 0, 0, Location()))
	require.True(t, ok)
	assert.Equal(t, "2024-03-04", day.Date)

	day, ok = sched.Pick(time.Date(2024, time.April, 20, 0, 0, 0, 0, Location()))
	require.True(t, ok)
	assert.Equal(t, "2024-03-01", day.Date)

	_, ok = Schedule{}.Pick(time.Now())
	assert.False(t, ok)
}

func TestValidZoneCode(t *testing.T) {
	for _, code := range []string{"SGR01", "WLY02", "JHR04"} {
		assert.True(t, ValidZoneCode(code), code)
	}
	for _, code := range []string{"", "sgr01", "SGR1", "SGR001", "SG01", " SGR01"} {
		assert.False(t, ValidZoneCode(code), code)
	}
}
