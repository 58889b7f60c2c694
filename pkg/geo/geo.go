// Package geo turns coordinates into place names and searches places by name,
// against a Nominatim compatible endpoint.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/dixieflatline76/courtside/util/log"
)

const (
	DefaultRPS       = 1.0
	DefaultCacheSize = 512
	DefaultLimit     = 5
	userAgent        = "Courtside/1.0 (+https://github.com/dixieflatline76/courtside)"
)

// ErrNoResult is returned when the geocoder knows nothing about the query.
var ErrNoResult = errors.New("no place found")

// Place is a geocoding result.
type Place struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"displayName"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// Client talks to the geocoder. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *lru.Cache[string, []Place]
}

// NewClient creates a client for baseURL. rps limits outgoing requests and
// cacheSize bounds the number of remembered answers. httpClient is copied, never modified.
func NewClient(baseURL string, httpClient *http.Client, rps float64, cacheSize int) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if rps <= 0 {
		rps = DefaultRPS
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, _ := lru.New[string, []Place](cacheSize)
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: wrapClient(httpClient, userAgent, rate.NewLimiter(rate.Limit(rps), 1)),
		cache:      cache,
	}
}

// Reverse returns the place at the given coordinates.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("zoom", "10")

	places, err := c.fetch(ctx, "reverse", q, true)
	if err != nil {
		return Place{}, err
	}
	return places[0], nil
}

// ReverseOrCoordinates never fails: when the geocoder can't name the place it
// returns the coordinates as "lat, lon" with four decimals.
func (c *Client) ReverseOrCoordinates(ctx context.Context, lat, lon float64) string {
	p, err := c.Reverse(ctx, lat, lon)
	if err != nil || p.Name == "" {
		if err != nil {
			log.Printf("Geo: reverse geocoding failed, using coordinates: %v", err)
		}
		return Coordinates(lat, lon)
	}
	return p.Name
}

// Coordinates formats a position as "lat, lon".
func Coordinates(lat, lon float64) string {
	return fmt.Sprintf("%.4f, %.4f", lat, lon)
}

// Search returns up to DefaultLimit places matching query, for location autocomplete.
// An empty query returns nothing.
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(DefaultLimit))
	q.Set("addressdetails", "1")

	return c.fetch(ctx, "search", q, false)
}

type nominatimAddress struct {
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	Hamlet      string `json:"hamlet"`
	County      string `json:"county"`
	State       string `json:"state"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
}

type nominatimPlace struct {
	Lat         float64          `json:"lat,string"`
	Lon         float64          `json:"lon,string"`
	Name        string           `json:"name"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
	Error       string           `json:"error"`
}

func (n nominatimPlace) place() Place {
	return Place{Name: shortName(n), DisplayName: n.DisplayName, Lat: n.Lat, Lon: n.Lon}
}

// shortName builds "City, State" from the address, falling back to the
// geocoder's own names.
func shortName(n nominatimPlace) string {
	a := n.Address
	locality := firstNonEmpty(a.City, a.Town, a.Village, a.Hamlet, a.County, n.Name)
	region := firstNonEmpty(a.State, a.Country)
	switch {
	case locality != "" && region != "":
		return locality + ", " + region
	case locality != "":
		return locality
	case region != "":
		return region
	default:
		return n.DisplayName
	}
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}

func (c *Client) fetch(ctx context.Context, endpoint string, q url.Values, single bool) ([]Place, error) {
	key := endpoint + "?" + q.Encode()
	if places, ok := c.cache.Get(key); ok {
		log.Debugf("Geo: cache hit for %s", key)
		return places, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status: %d", resp.StatusCode)
	}

	var raw []nominatimPlace
	if single {
		var one nominatimPlace
		if err := json.NewDecoder(resp.Body).Decode(&one); err != nil {
			return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
		}
		if one.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrNoResult, one.Error)
		}
		raw = append(raw, one)
	} else if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}

	places := make([]Place, 0, len(raw))
	for _, r := range raw {
		places = append(places, r.place())
	}
	if single && len(places) == 0 {
		return nil, ErrNoResult
	}
	c.cache.Add(key, places)
	return places, nil
}
