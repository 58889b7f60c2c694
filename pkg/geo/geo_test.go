package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reverseBody = `{
	"lat": "40.5853", "lon": "-105.0844",
	"name": "Fort Collins",
	"display_name": "Fort Collins, Larimer County, Colorado, United States",
	"address": {"city": "Fort Collins", "county": "Larimer County", "state": "Colorado", "country": "United States", "country_code": "us"}
}`

const searchBody = `[
	{"lat": "39.7392", "lon": "-104.9903", "name": "Denver", "display_name": "Denver, Colorado, United States",
	 "address": {"city": "Denver", "state": "Colorado"}},
	{"lat": "39.7392", "lon": "-104.9903", "name": "Denver Tennis Park", "display_name": "Denver Tennis Park, Denver",
	 "address": {"hamlet": "", "state": ""}}
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.Client(), 1000, 16), &calls
}

func TestReverse(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "40.585300", r.URL.Query().Get("lat"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(reverseBody))
	})

	p, err := c.Reverse(context.Background(), 40.5853, -105.0844)
	require.NoError(t, err)
	assert.Equal(t, "Fort Collins, Colorado", p.Name)
	assert.InDelta(t, -105.0844, p.Lon, 1e-9)

	_, err = c.Reverse(context.Background(), 40.5853, -105.0844)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second lookup is served from cache")
}

func TestReverse_UnknownPlace(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "Unable to geocode"}`))
	})

	_, err := c.Reverse(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestReverseOrCoordinates(t *testing.T) {
	t.Run("named", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(reverseBody))
		})
		assert.Equal(t, "Fort Collins, Colorado", c.ReverseOrCoordinates(context.Background(), 40.5853, -105.0844))
	})

	t.Run("server error falls back", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		assert.Equal(t, "40.5853, -105.0844", c.ReverseOrCoordinates(context.Background(), 40.58531, -105.08444))
	})

	t.Run("errors are not cached", func(t *testing.T) {
		c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		c.ReverseOrCoordinates(context.Background(), 1, 2)
		c.ReverseOrCoordinates(context.Background(), 1, 2)
		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestSearch(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "denver", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(searchBody))
	})

	places, err := c.Search(context.Background(), "  denver ")
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "Denver, Colorado", places[0].Name)
	assert.Equal(t, "Denver Tennis Park", places[1].Name)

	none, err := c.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearch_BadJSON(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	_, err := c.Search(context.Background(), "x")
	assert.Error(t, err)
}

func TestRateLimitHonoursContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(searchBody))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, srv.Client(), 0.01, 16)

	_, err := c.Search(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Search(ctx, "second")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewClientLeavesCallerClientAlone(t *testing.T) {
	hc := &http.Client{}
	NewClient("http://example.invalid", hc, 1, 1)
	assert.Nil(t, hc.Transport)
}

func TestCoordinates(t *testing.T) {
	assert.Equal(t, "-33.8688, 151.2093", Coordinates(-33.86882, 151.20930))
}
