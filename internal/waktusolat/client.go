// Package waktusolat is a client for the api.waktusolat.app prayer-time API.
package waktusolat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public waktusolat API.
const DefaultBaseURL = "https://api.waktusolat.app"

const maxBodyBytes = 4 << 20

var (
	// ErrInvalidZone is returned for zone codes not shaped like ABC12.
	ErrInvalidZone = errors.New("invalid zone code, expected format ABC12 (e.g. SGR01)")
	// ErrUnexpectedResponse is returned when the API answers with a body of the wrong shape.
	ErrUnexpectedResponse = errors.New("unexpected response from prayer time API")
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: unexpected status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: unexpected status %d: %s", e.Path, e.StatusCode, e.Body)
}

// Client fetches zones and prayer schedules.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	now       func() time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithUserAgent sets the User-Agent header sent upstream.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithClock overrides the clock used to pick "today".
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient builds a client for baseURL with the given request timeout.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base URL must start with http:// or https://, got %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:   baseURL,
		userAgent: "malaysia-prayer-time-mcp",
		http:      &http.Client{Timeout: timeout},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Zones lists every zone the API knows, skipping malformed entries.
func (c *Client) Zones(ctx context.Context) ([]Zone, error) {
	body, err := c.get(ctx, "/zones", nil)
	if err != nil {
		return nil, err
	}

	var raw []struct {
		JakimCode string `json:"jakimCode"`
		Negeri    string `json:"negeri"`
		Daerah    string `json:"daerah"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode zones: %v", ErrUnexpectedResponse, err)
	}

	zones := make([]Zone, 0, len(raw))
	for _, item := range raw {
		z := Zone{
			Code:  strings.TrimSpace(item.JakimCode),
			Name:  strings.TrimSpace(item.Daerah),
			State: strings.TrimSpace(item.Negeri),
		}
		if z.Name == "" || z.State == "" || !ValidZoneCode(z.Code) {
			continue
		}
		zones = append(zones, z)
	}
	if len(zones) == 0 {
		return nil, fmt.Errorf("%w: no valid zones in response", ErrUnexpectedResponse)
	}
	return zones, nil
}

// PrayerTimes fetches the schedule of zone for the month containing month.
// A zero month asks the API for its default (the current month).
func (c *Client) PrayerTimes(ctx context.Context, zone string, month time.Time) (Schedule, error) {
	if !ValidZoneCode(zone) {
		return Schedule{}, ErrInvalidZone
	}

	var q url.Values
	if !month.IsZero() {
		month = month.In(malaysiaTime)
		q = url.Values{}
		q.Set("year", strconv.Itoa(month.Year()))
		q.Set("month", strconv.Itoa(int(month.Month())))
	}
	body, err := c.get(ctx, "/v2/solat/"+zone, q)
	if err != nil {
		return Schedule{}, err
	}

	sched, err := parseSchedule(body)
	if err != nil {
		return Schedule{}, err
	}
	if sched.Zone == "" {
		sched.Zone = zone
	}
	return sched, nil
}

// CurrentPrayer reports the prayer in effect now in zone and the next one.
func (c *Client) CurrentPrayer(ctx context.Context, zone string) (CurrentPrayer, error) {
	now := c.now().In(malaysiaTime)
	sched, err := c.PrayerTimes(ctx, zone, now)
	if err != nil {
		return CurrentPrayer{}, err
	}
	today, ok := sched.Pick(now)
	if !ok {
		return CurrentPrayer{}, fmt.Errorf("%w: no prayer times for zone %s", ErrUnexpectedResponse, zone)
	}
	var tomorrow *PrayerTimes
	if next, found := sched.Day(now.AddDate(0, 0, 1).Format(dateLayout)); found {
		tomorrow = &next
	}

	cur := CurrentAt(today, tomorrow, now)
	cur.Zone = sched.Zone
	return cur, nil
}

// CurrentAt evaluates today's schedule at now. Before Fajr the previous
// night's Isha is current; after Isha the next Fajr comes from tomorrow.
func CurrentAt(today PrayerTimes, tomorrow *PrayerTimes, now time.Time) CurrentPrayer {
	now = now.In(malaysiaTime)
	minute := now.Hour()*60 + now.Minute()
	order := []Named{
		{"Fajr", today.Fajr},
		{"Syuruk", today.Syuruk},
		{"Dhuhr", today.Dhuhr},
		{"Asr", today.Asr},
		{"Maghrib", today.Maghrib},
		{"Isha", today.Isha},
	}

	cur := CurrentPrayer{Date: today.Date}
	var prev Named
	for _, p := range order {
		m, ok := minutesOf(p.Time)
		if !ok {
			continue
		}
		if minute < m {
			if prev.Name == "" {
				cur.Prayer = "Isha"
			} else {
				cur.Prayer, cur.Time = prev.Name, prev.Time
			}
			cur.NextPrayer, cur.NextTime = p.Name, p.Time
			return cur
		}
		prev = p
	}

	cur.Prayer, cur.Time = "Isha", today.Isha
	cur.NextPrayer = "Fajr"
	if tomorrow != nil {
		cur.NextTime = tomorrow.Fajr
	}
	return cur
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Path: path, Body: snippet}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty body from %s", ErrUnexpectedResponse, path)
	}
	return body, nil
}

const dateLayout = "2006-01-02"

type rawSchedule struct {
	Zone        string          `json:"zone"`
	Year        int             `json:"year"`
	Month       json.RawMessage `json:"month"`
	LastUpdated json.RawMessage `json:"last_updated"`
	Prayers     []rawDay        `json:"prayers"`
}

type rawDay struct {
	Date    string          `json:"date"`
	Day     json.RawMessage `json:"day"`
	Hijri   string          `json:"hijri"`
	Imsak   json.RawMessage `json:"imsak"`
	Fajr    json.RawMessage `json:"fajr"`
	Syuruk  json.RawMessage `json:"syuruk"`
	Dhuhr   json.RawMessage `json:"dhuhr"`
	Asr     json.RawMessage `json:"asr"`
	Maghrib json.RawMessage `json:"maghrib"`
	Isha    json.RawMessage `json:"isha"`
}

// parseSchedule accepts the v2 envelope or a bare array of days.
// Days missing any of the six daily times are dropped.
func parseSchedule(body []byte) (Schedule, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Schedule{}, fmt.Errorf("%w: empty schedule", ErrUnexpectedResponse)
	}
	var raw rawSchedule
	switch trimmed[0] {
	case '{':
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return Schedule{}, fmt.Errorf("%w: decode schedule: %v", ErrUnexpectedResponse, err)
		}
		if raw.Prayers == nil {
			return Schedule{}, fmt.Errorf("%w: schedule has no prayers", ErrUnexpectedResponse)
		}
	case '[':
		if err := json.Unmarshal(trimmed, &raw.Prayers); err != nil {
			return Schedule{}, fmt.Errorf("%w: decode schedule: %v", ErrUnexpectedResponse, err)
		}
	default:
		return Schedule{}, fmt.Errorf("%w: schedule is neither object nor array", ErrUnexpectedResponse)
	}

	month := parseMonth(raw.Month)
	sched := Schedule{
		Zone:        raw.Zone,
		Year:        raw.Year,
		LastUpdated: rawText(raw.LastUpdated),
		Prayers:     make([]PrayerTimes, 0, len(raw.Prayers)),
	}
	if month != 0 {
		sched.Month = strings.ToUpper(month.String()[:3])
	}

	for _, d := range raw.Prayers {
		p, ok := d.toPrayerTimes(raw.Year, month)
		if !ok {
			continue
		}
		sched.Prayers = append(sched.Prayers, p)
	}
	sort.SliceStable(sched.Prayers, func(i, j int) bool { return sched.Prayers[i].Date < sched.Prayers[j].Date })
	return sched, nil
}

func (d rawDay) toPrayerTimes(year int, month time.Month) (PrayerTimes, bool) {
	fajr, fajrAt, ok := clockValue(d.Fajr)
	if !ok {
		return PrayerTimes{}, false
	}
	p := PrayerTimes{Fajr: fajr, Hijri: d.Hijri}
	for _, f := range []struct {
		raw json.RawMessage
		dst *string
	}{
		{d.Syuruk, &p.Syuruk},
		{d.Dhuhr, &p.Dhuhr},
		{d.Asr, &p.Asr},
		{d.Maghrib, &p.Maghrib},
		{d.Isha, &p.Isha},
	} {
		v, _, ok := clockValue(f.raw)
		if !ok {
			return PrayerTimes{}, false
		}
		*f.dst = v
	}
	p.Imsak, _, _ = clockValue(d.Imsak)

	date, ok := d.resolveDate(fajrAt, year, month)
	if !ok {
		return PrayerTimes{}, false
	}
	p.Date = date.Format(dateLayout)
	p.Day = date.Weekday().String()
	return p, true
}

func (d rawDay) resolveDate(fajrAt time.Time, year int, month time.Month) (time.Time, bool) {
	if d.Date != "" {
		for _, layout := range []string{dateLayout, "02-Jan-2006", "02-01-2006"} {
			if t, err := time.ParseInLocation(layout, d.Date, malaysiaTime); err == nil {
				return t, true
			}
		}
	}
	if !fajrAt.IsZero() {
		y, m, dd := fajrAt.Date()
		return time.Date(y, m, dd, 0, 0, 0, 0, malaysiaTime), true
	}
	var day int
	if err := json.Unmarshal(d.Day, &day); err != nil || day < 1 || day > 31 || year == 0 || month == 0 {
		return time.Time{}, false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, malaysiaTime), true
}

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)

// clockValue reads a time that is either unix seconds or an HH:MM[:SS] string.
// The returned instant is set only for unix values.
func clockValue(raw json.RawMessage) (string, time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", time.Time{}, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", time.Time{}, false
		}
		m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
		if m == nil {
			return "", time.Time{}, false
		}
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if h > 23 || mm > 59 {
			return "", time.Time{}, false
		}
		return fmt.Sprintf("%02d:%02d", h, mm), time.Time{}, true
	}
	secs, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || secs <= 0 {
		return "", time.Time{}, false
	}
	at := time.Unix(secs, 0).In(malaysiaTime)
	return at.Format("15:04"), at, true
}

func parseMonth(raw json.RawMessage) time.Month {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n >= 1 && n <= 12 {
			return time.Month(n)
		}
		return 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	for _, layout := range []string{"Jan", "January", "1"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.Month()
		}
	}
	return 0
}

func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if t := string(bytes.TrimSpace(raw)); t != "null" {
		return t
	}
	return ""
}

func minutesOf(clock string) (int, bool) {
	m := clockPattern.FindStringSubmatch(clock)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return h*60 + mm, true
}
