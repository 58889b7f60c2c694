package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dixieflatline76/courtside/pkg/crop"
	"github.com/dixieflatline76/courtside/pkg/geo"
	"github.com/dixieflatline76/courtside/pkg/profile"
	"github.com/dixieflatline76/courtside/pkg/timeline"
)

func newTestServer(t *testing.T) (*Server, *profile.Store) {
	t.Helper()
	store := profile.NewStore(nil)
	store.SetAsyncSave(false)
	s := NewServer(Options{Store: store})
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s, store
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, color.NRGBA{R: 200, G: 40, B: 40, A: 255}), imaging.PNG))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, path string, data []byte, mime string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="upload"`)
	if mime != "" {
		h.Set("Content-Type", mime)
	}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestNewServer(t *testing.T) {
	s := NewServer(Options{})
	assert.NotNil(t, s)
	assert.Equal(t, "127.0.0.1:49460", s.Addr())
	assert.False(t, s.Running())
}

func TestStopBeforeStart(t *testing.T) {
	s := NewServer(Options{Addr: "127.0.0.1:0"})

	require.NoError(t, s.Stop(context.Background()))
	assert.ErrorIs(t, s.Start(), http.ErrServerClosed)
}

func TestStartAndStop(t *testing.T) {
	s := NewServer(Options{Addr: "127.0.0.1:0"})
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()
	assert.Eventually(t, s.Running, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer(t)

	rr := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "running")
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	rr := serve(s, httptest.NewRequest(http.MethodOptions, "/profile", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestProfile_GetAndPut(t *testing.T) {
	s, store := newTestServer(t)

	rr := serve(s, httptest.NewRequest(http.MethodGet, "/profile", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got profile.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, profile.Default().Name, got.Name)

	rr = serve(s, httptest.NewRequest(http.MethodPut, "/profile",
		strings.NewReader(`{"name":"Ava Kim","location":"Boulder, CO","utrTrend":"negative"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Ava Kim", store.Get().Name)
	assert.Equal(t, "Boulder, CO", store.Get().Location)
	assert.Equal(t, profile.TrendNegative, store.Get().UTRTrend)
}

func TestProfile_PutRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"unknown field", `{"nickname":"ace"}`},
		{"bad birthday", `{"birthday":"15/03/2007"}`},
		{"empty name", `{"name":""}`},
		{"bad trend", `{"nslTrend":"flat"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store := newTestServer(t)
			before := store.Get()

			rr := serve(s, httptest.NewRequest(http.MethodPut, "/profile", strings.NewReader(tt.body)))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, before, store.Get())
		})
	}
}

func TestProfileImage_Avatar(t *testing.T) {
	s, store := newTestServer(t)

	rr := serve(s, uploadRequest(t, "/profile/avatar", pngBytes(t, 600, 600), "image/png",
		map[string]string{"zoom": "1", "box": "10,10"}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		DataURI  string `json:"dataUri"`
		Fallback bool   `json:"fallback"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Fallback)
	assert.True(t, strings.HasPrefix(resp.DataURI, "data:image/jpeg;base64,"))
	assert.Equal(t, resp.DataURI, store.Get().Avatar)

	mime, data, err := crop.ParseDataURI(resp.DataURI)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}

func TestProfileImage_CoverUsesAspect(t *testing.T) {
	s, store := newTestServer(t)

	rr := serve(s, uploadRequest(t, "/profile/cover", pngBytes(t, 1600, 800), "",
		map[string]string{"aspect": "4"}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	_, data, err := crop.ParseDataURI(store.Get().CoverImage)
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1200, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestProfileImage_RejectsBeforeCropping(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		data    []byte
		mime    string
		fields  map[string]string
		message string
	}{
		{
			name:    "ten megabyte upload",
			path:    "/profile/avatar",
			data:    bytes.Repeat([]byte{0xff}, 10*1024*1024),
			mime:    "image/jpeg",
			message: crop.ErrTooLarge.Error(),
		},
		{
			name:    "not an image",
			path:    "/profile/avatar",
			data:    []byte("hello"),
			mime:    "text/plain",
			message: crop.ErrNotImage.Error(),
		},
		{
			name: "undecodable image",
			path: "/profile/cover",
			data: []byte("definitely not a png"),
			mime: "image/png",
		},
		{
			name:   "bad aspect",
			path:   "/profile/cover",
			mime:   "image/png",
			fields: map[string]string{"aspect": "-2"},
		},
		{
			name:   "bad box",
			path:   "/profile/avatar",
			mime:   "image/png",
			fields: map[string]string{"box": "ten"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store := newTestServer(t)
			before := store.Get()
			data := tt.data
			if data == nil {
				data = pngBytes(t, 64, 64)
			}

			rr := serve(s, uploadRequest(t, tt.path, data, tt.mime, tt.fields))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			if tt.message != "" {
				assert.Contains(t, rr.Body.String(), tt.message)
			}
			assert.Equal(t, before, store.Get(), "a rejected upload leaves the profile unchanged")
		})
	}
}

func TestProfileImage_UnknownType(t *testing.T) {
	s, _ := newTestServer(t)
	rr := serve(s, uploadRequest(t, "/profile/banner", pngBytes(t, 10, 10), "image/png", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCropPreview(t *testing.T) {
	s, _ := newTestServer(t)

	rr := serve(s, uploadRequest(t, "/crop/preview?type=cover", pngBytes(t, 300, 300), "image/png",
		map[string]string{"rotate": "1"}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Header().Get("X-Crop-Box"))

	img, err := imaging.Decode(rr.Body)
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestTimelineLayout(t *testing.T) {
	s, _ := newTestServer(t)
	body := `{"tracks":[
		{"id":"me","name":"Me","isCurrentUser":true,"events":[
			{"id":"open","kind":"event","label":"Open","date":"2025-06-15"},
			{"id":"m1","kind":"match","label":"Ladder","date":"2025-05-01"}]},
		{"id":"zoe","name":"Zoe","events":[
			{"id":"open","kind":"event","label":"Open","date":"2025-06-15"}]}
	]}`

	rr := serve(s, httptest.NewRequest(http.MethodPost, "/timeline/layout", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var m timeline.Map
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	assert.Len(t, m.Lanes, 2)
	assert.Equal(t, []string{"open"}, m.Shared)
	assert.Len(t, m.Markers, 3)

	rr = serve(s, httptest.NewRequest(http.MethodPost, "/timeline/layout?format=svg", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/svg+xml", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "<svg")

	rr = serve(s, httptest.NewRequest(http.MethodPost, "/timeline/layout", strings.NewReader(`{"trax":[]}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestNewPlayer(t *testing.T) {
	s, _ := newTestServer(t)

	rr := serve(s, httptest.NewRequest(http.MethodPost, "/timeline/player?existing=2", strings.NewReader(`{"utr":6.5}`)))
	require.Equal(t, http.StatusCreated, rr.Code)

	var tr timeline.Track
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tr))
	assert.Equal(t, "Player 3", tr.Name)
	assert.Equal(t, 6.5, tr.UTR)
	assert.Len(t, tr.Events, 2)
}

func TestGeo(t *testing.T) {
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/reverse":
			_, _ = w.Write([]byte(`{"lat":"40.5","lon":"-105.1","address":{"city":"Fort Collins","state":"Colorado"}}`))
		case "/search":
			_, _ = w.Write([]byte(`[{"lat":"39.7","lon":"-104.9","address":{"city":"Denver","state":"Colorado"}}]`))
		}
	}))
	defer nominatim.Close()

	store := profile.NewStore(nil)
	s := NewServer(Options{Store: store, Geocoder: geo.NewClient(nominatim.URL, nominatim.Client(), 100, 8)})

	rr := serve(s, httptest.NewRequest(http.MethodGet, "/geo/reverse?lat=40.5&lon=-105.1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"location":"Fort Collins, Colorado"}`, rr.Body.String())

	rr = serve(s, httptest.NewRequest(http.MethodGet, "/geo/search?q=denver", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Denver, Colorado")

	rr = serve(s, httptest.NewRequest(http.MethodGet, "/geo/reverse?lat=north&lon=1", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = serve(s, httptest.NewRequest(http.MethodGet, "/geo/reverse?lat=91&lon=1", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGeo_WithoutGeocoder(t *testing.T) {
	s, _ := newTestServer(t)

	rr := serve(s, httptest.NewRequest(http.MethodGet, "/geo/reverse?lat=40.58531&lon=-105.08444", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"location":"40.5853, -105.0844"}`, rr.Body.String())

	rr = serve(s, httptest.NewRequest(http.MethodGet, "/geo/search?q=denver", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestWebSocket_GreetingAndBroadcast(t *testing.T) {
	s, store := newTestServer(t)
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	// Convert http:// to ws://
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer ws.Close()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))

	var greeting message
	require.NoError(t, ws.ReadJSON(&greeting))
	assert.Equal(t, msgProfile, greeting.Type)
	require.NotNil(t, greeting.Profile)
	assert.Equal(t, profile.Default().Name, greeting.Profile.Name)
	assert.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 10*time.Millisecond)

	name := "Ava Kim"
	store.Update(profile.Patch{Name: &name})

	var update message
	require.NoError(t, ws.ReadJSON(&update))
	assert.Equal(t, msgProfileUpdated, update.Type)
	require.NotNil(t, update.Profile)
	assert.Equal(t, "Ava Kim", update.Profile.Name)
}

func TestWebSocket_KeepaliveAndDisconnect(t *testing.T) {
	s, _ := newTestServer(t)
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	var greeting message
	require.NoError(t, ws.ReadJSON(&greeting))

	// Send Ping
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, ws.Close())
	assert.Eventually(t, func() bool { return s.Clients() == 0 }, time.Second, 10*time.Millisecond)
}
