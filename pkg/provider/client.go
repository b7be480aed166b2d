package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"f1telemetryhub/pkg/helper"
	"f1telemetryhub/pkg/model"
)

const dateLayout = "2006-01-02T15:04:05.000"

// ErrNotFound is returned when the provider has no such resource.
var ErrNotFound = errors.New("provider: not found")

// Cache stores raw provider responses.
type Cache interface {
	Get(key string) ([]byte, bool, error)
	Put(key, url string, body []byte) error
}

type Client struct {
	baseURL string
	http    *http.Client
	cache   Cache
	now     func() time.Time
}

// NewClient builds a provider client. cache may be nil.
func NewClient(baseURL string, timeout time.Duration, cache Cache) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		cache:   cache,
		now:     time.Now,
	}
}

func (c *Client) Schedule(ctx context.Context, year int) ([]model.Event, error) {
	var events []model.Event
	u := c.endpoint("meetings", url.Values{"year": {fmt.Sprint(year)}}, nil)
	// the running season still gains events
	var err error
	if year >= c.now().Year() {
		err = c.fetchJSON(ctx, u, &events, false)
	} else {
		err = c.getJSON(ctx, u, &events)
	}
	if err != nil {
		return nil, err
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].DateStart.Before(events[j].DateStart)
	})
	return events, nil
}

func (c *Client) Sessions(ctx context.Context, meetingKey int) ([]Session, error) {
	var sessions []Session
	err := c.getJSON(ctx, c.endpoint("sessions", url.Values{"meeting_key": {fmt.Sprint(meetingKey)}}, nil), &sessions)
	return sessions, err
}

func (c *Client) Drivers(ctx context.Context, sessionKey int) ([]model.Driver, error) {
	var raw []model.Driver
	err := c.getJSON(ctx, c.endpoint("drivers", url.Values{"session_key": {fmt.Sprint(sessionKey)}}, nil), &raw)
	if err != nil {
		return nil, err
	}

	seen := map[int]bool{}
	drivers := make([]model.Driver, 0, len(raw))
	for _, d := range raw {
		if seen[d.Number] {
			continue
		}
		seen[d.Number] = true
		if d.Code == "" {
			d.Code = helper.DriverCode(d.FullName)
		}
		d.TeamColour = helper.TeamColour(d.TeamColour)
		drivers = append(drivers, d)
	}
	return drivers, nil
}

func (c *Client) Laps(ctx context.Context, sessionKey int) ([]model.Lap, error) {
	var records []lapRecord
	err := c.getJSON(ctx, c.endpoint("laps", url.Values{"session_key": {fmt.Sprint(sessionKey)}}, nil), &records)
	if err != nil {
		return nil, err
	}
	laps := make([]model.Lap, len(records))
	for i, r := range records {
		laps[i] = r.toLap()
	}
	return laps, nil
}

func (c *Client) CarData(ctx context.Context, sessionKey, driverNumber int, from, to time.Time) ([]model.Sample, error) {
	var samples []model.Sample
	q := url.Values{
		"session_key":   {fmt.Sprint(sessionKey)},
		"driver_number": {fmt.Sprint(driverNumber)},
	}
	err := c.getJSON(ctx, c.endpoint("car_data", q, dateRange(from, to)), &samples)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Date.Before(samples[j].Date)
	})
	return samples, nil
}

func (c *Client) Location(ctx context.Context, sessionKey, driverNumber int, from, to time.Time) ([]model.Position, error) {
	var positions []model.Position
	q := url.Values{
		"session_key":   {fmt.Sprint(sessionKey)},
		"driver_number": {fmt.Sprint(driverNumber)},
	}
	err := c.getJSON(ctx, c.endpoint("location", q, dateRange(from, to)), &positions)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(positions, func(i, j int) bool {
		return positions[i].Date.Before(positions[j].Date)
	})
	return positions, nil
}

// dateRange renders the provider's inclusive comparison filters, which are not
// plain key=value pairs and so cannot go through url.Values.
func dateRange(from, to time.Time) []string {
	return []string{
		"date>=" + url.QueryEscape(from.UTC().Format(dateLayout)),
		"date<=" + url.QueryEscape(to.UTC().Format(dateLayout)),
	}
}

func (c *Client) endpoint(resource string, q url.Values, filters []string) string {
	raw := q.Encode()
	for _, f := range filters {
		raw += "&" + f
	}
	return fmt.Sprintf("%s/%s?%s", c.baseURL, resource, raw)
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	return c.fetchJSON(ctx, u, out, true)
}

// fetchJSON decodes the response of u into out. Only cacheable responses are
// read from and written to the cache.
func (c *Client) fetchJSON(ctx context.Context, u string, out any, cacheable bool) error {
	key := helper.ToID(u)
	if cacheable && c.cache != nil {
		body, ok, err := c.cache.Get(key)
		if err != nil {
			logrus.WithError(err).Warn("provider cache read failed, fetching")
		} else if ok {
			logrus.WithField("url", u).Debug("provider cache hit")
			return errors.Wrapf(json.Unmarshal(body, out), "decoding cached %s", u)
		}
	}

	body, err := c.fetch(ctx, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "decoding %s", u)
	}

	if cacheable && c.cache != nil && !isEmptyArray(body) {
		if err := c.cache.Put(key, u, body); err != nil {
			logrus.WithError(err).Warn("provider cache write failed")
		}
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	logrus.WithField("url", u).Debug("provider fetch")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building provider request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "requesting provider")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading provider response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.Wrapf(ErrNotFound, "%s", u)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("provider returned %s: %s", resp.Status, excerpt(body))
	}
	return body, nil
}

func isEmptyArray(body []byte) bool {
	return bytes.Equal(bytes.TrimSpace(body), []byte("[]"))
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
