package gazetteer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	DefaultUserAgent    = "maponyms (+https://github.com/maponyms/maponyms)"
	DefaultOnlineLimit  = 10
)

// Nominatim resolves names with the OpenStreetMap Nominatim search API.
type Nominatim struct {
	baseURL   string
	userAgent string
	httpc     *http.Client
	limiter   *rate.Limiter
}

// NewNominatim creates an online resolver from cfg.
func NewNominatim(cfg Config) *Nominatim {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultNominatimURL
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}

	return &Nominatim{
		baseURL:   strings.TrimRight(base, "/"),
		userAgent: ua,
		httpc:     &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Close implements io.Closer.
func (n *Nominatim) Close() error {
	n.httpc.CloseIdleConnections()
	return nil
}

type nominatimPlace struct {
	PlaceID     int64  `json:"place_id"`
	OSMType     string `json:"osm_type"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Resolve implements Resolver.
func (n *Nominatim) Resolve(ctx context.Context, q Query) ([]Candidate, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultOnlineLimit
	}

	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("q", q.Name)
	params.Set("limit", strconv.Itoa(limit))
	if q.Lang != "" {
		params.Set("accept-language", q.Lang)
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim search %q: %w", q.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("nominatim %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("nominatim: bad JSON: %w", err)
	}

	out := make([]Candidate, 0, len(places))
	for _, p := range places {
		lat, err := strconv.ParseFloat(p.Lat, 64)
		if err != nil {
			return nil, fmt.Errorf("nominatim: bad latitude %q: %w", p.Lat, err)
		}
		lon, err := strconv.ParseFloat(p.Lon, 64)
		if err != nil {
			return nil, fmt.Errorf("nominatim: bad longitude %q: %w", p.Lon, err)
		}
		out = append(out, Candidate{
			Name:   p.DisplayName,
			Lon:    lon,
			Lat:    lat,
			ID:     strconv.FormatInt(p.PlaceID, 10),
			Source: "nominatim",
			Search: q.Name,
		})
	}
	return out, nil
}
