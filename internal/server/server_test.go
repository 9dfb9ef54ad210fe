package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = "<html>\n<body>\n<h1>Tracker</h1>\n</body>\n</html>\n"

func writeSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sensors"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte(testPage), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sensors", "Camera.html"), []byte(testPage), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sensors", "Camera.png"), []byte("\x89PNG"), 0644))
	return root
}

func get(t *testing.T, client *http.Client, target string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(target)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestInjectReloadScript(t *testing.T) {
	injected := string(InjectReloadScript([]byte(testPage)))
	assert.Equal(t, "<html>\n<body>\n<h1>Tracker</h1>\n"+ReloadScript+"</body>\n</html>\n", injected)

	upper := string(InjectReloadScript([]byte("<P>x</P></BODY>")))
	assert.Equal(t, "<P>x</P>"+ReloadScript+"</BODY>", upper)

	fragment := string(InjectReloadScript([]byte("<p>x</p>")))
	assert.Equal(t, "<p>x</p>"+ReloadScript, fragment)

	assert.Contains(t, ReloadScript, LiveReloadPath)
}

func TestStaticFiles_WithLiveReload(t *testing.T) {
	root := writeSite(t)
	srv := New(Options{Host: "localhost", Root: root, LiveReload: true})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, body := get(t, ts.Client(), ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, ReloadScript)

	resp, body = get(t, ts.Client(), ts.URL+"/sensors/Camera.html")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, ReloadScript)

	resp, body = get(t, ts.Client(), ts.URL+"/sensors/Camera.png")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "\x89PNG", body)

	// Files on disk stay untouched.
	onDisk, err := os.ReadFile(filepath.Join(root, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, testPage, string(onDisk))
}

func TestStaticFiles_WithoutLiveReload(t *testing.T) {
	srv := New(Options{Host: "localhost", Root: writeSite(t)})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, body := get(t, ts.Client(), ts.URL+"/sensors/Camera.html")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, testPage, body)

	resp, _ = get(t, ts.Client(), ts.URL+LiveReloadPath)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStaticFiles_Errors(t *testing.T) {
	srv := New(Options{Host: "localhost", Root: writeSite(t), LiveReload: true})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, _ := get(t, ts.Client(), ts.URL+"/Missing.html")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := get(t, ts.Client(), ts.URL+"/../../etc/passwd.html")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotContains(t, body, "root:")

	noRedirect := *ts.Client()
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	resp, _ = get(t, &noRedirect, ts.URL+"/sensors")
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	assert.Equal(t, "/sensors/", resp.Header.Get("Location"))

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/index.html", strings.NewReader("x"))
	require.NoError(t, err)
	postResp, err := ts.Client().Do(req)
	require.NoError(t, err)
	postResp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, postResp.StatusCode)
}

func TestHealth(t *testing.T) {
	srv := New(Options{Host: "localhost", Root: writeSite(t), LiveReload: true})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	srv.Reload()

	resp, body := get(t, ts.Client(), ts.URL+"/_health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, true, health["live_reload"])
	assert.Equal(t, float64(0), health["clients"])
	assert.Contains(t, health, "last_reload")
}

func dialReload(ctx context.Context, t *testing.T, ts *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + LiveReloadPath
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.Dial(ctx, wsURL, &websocket.DialOptions{HTTPHeader: header})
}

func TestLiveReload_Broadcast(t *testing.T) {
	srv := New(Options{Host: "localhost", Root: writeSite(t), LiveReload: true})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	srv.Hub().AllowOrigins(u.Host)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go srv.Hub().Run(ctx)

	conn, _, err := dialReload(ctx, t, ts, ts.URL)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	srv.Reload()

	msgType, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, msgType)
	assert.Equal(t, ReloadMessage, string(data))

	conn.Close(websocket.StatusNormalClosure, "")
	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestLiveReload_RejectsForeignOrigin(t *testing.T) {
	srv := New(Options{Host: "localhost", Port: 8090, Root: writeSite(t), LiveReload: true})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go srv.Hub().Run(ctx)

	for _, origin := range []string{"", "http://evil.example", "file://localhost:8090"} {
		_, resp, err := dialReload(ctx, t, ts, origin)
		require.Error(t, err, origin)
		require.NotNil(t, resp, origin)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, origin)
	}
}

func TestHub_ClosesClientsOnShutdown(t *testing.T) {
	srv := New(Options{Host: "localhost", Root: writeSite(t), LiveReload: true})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	srv.Hub().AllowOrigins(u.Host)

	hubCtx, stopHub := context.WithCancel(context.Background())
	go srv.Hub().Run(hubCtx)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := dialReload(ctx, t, ts, ts.URL)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")
	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	stopHub()

	_, _, err = conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
	assert.Equal(t, 0, srv.Hub().ClientCount())
}

func TestServer_Start(t *testing.T) {
	srv := New(Options{Host: "127.0.0.1", Port: 0, Root: writeSite(t), LiveReload: true})
	require.NoError(t, srv.Listen())
	assert.True(t, strings.HasPrefix(srv.URL(), "http://127.0.0.1:"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	resp, body := get(t, http.DefaultClient, srv.URL()+"/index.html")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, ReloadScript)

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL(), "http")+LiveReloadPath,
		&websocket.DialOptions{HTTPHeader: http.Header{"Origin": []string{srv.URL()}}})
	require.NoError(t, err)
	conn.Close(websocket.StatusNormalClosure, "")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
