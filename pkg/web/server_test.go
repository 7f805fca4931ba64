package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-vector/pkg/camera"
	"github.com/teslashibe/go-vector/pkg/robot"
	"github.com/teslashibe/go-vector/pkg/session"
)

const ieAgent = "Mozilla/5.0 (Windows NT 6.1; Trident/7.0; rv:11.0) like Gecko"

func newTestServer(t *testing.T, attach bool) (*Server, *robot.Mock) {
	t.Helper()
	m := robot.NewMock(session.DefaultAnimationsForKeys[:]...)
	s := NewServer(Config{Version: "test"}, camera.NewFeed(camera.DefaultFeedConfig()), m)
	t.Cleanup(s.cancel)

	if attach {
		sess := session.New(m, session.NewCatalog(m.Animations))
		t.Cleanup(sess.Close)
		s.Attach(sess)
	}
	m.Reset()
	return s, m
}

func do(t *testing.T, s *Server, method, path, body string, header ...string) (*http.Response, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(data)
}

func TestServer_NoSessionIsNoop(t *testing.T) {
	s, m := newTestServer(t, false)

	routes := []struct {
		path string
		body string
	}{
		{"/keydown", `{"keyCode":87,"hasShift":false,"hasAlt":false}`},
		{"/keyup", `{"keyCode":87}`},
		{"/mousemove", `{"clientX":0.5,"clientY":0.5}`},
		{"/setMouseLookEnabled", `{"isMouseLookEnabled":true}`},
		{"/setTorchModeEnabled", `{"isTorchModeEnabled":true}`},
		{"/setFreeplayEnabled", `{"isFreeplayEnabled":true}`},
		{"/setExploreEnabled", `{"isExploreEnabled":true}`},
		{"/dropDownSelect", `{"itemName":"animSelector1","selectedIndex":0}`},
		{"/sayText", `{"textEntered":"hi"}`},
		{"/updateVector", ``},
		{"/keydown", `not json`},
	}
	for _, rt := range routes {
		resp, body := do(t, s, http.MethodPost, rt.path, rt.body)
		if resp.StatusCode != http.StatusOK || body != "" {
			t.Errorf("POST %s = %d %q, want 200 and empty body", rt.path, resp.StatusCode, body)
		}
	}
	if n := len(m.Calls()); n != 0 {
		t.Errorf("robot calls = %d, want 0", n)
	}
}

func TestServer_KeyDriving(t *testing.T) {
	s, m := newTestServer(t, true)

	resp, _ := do(t, s, http.MethodPost, "/keydown", `{"keyCode":87,"hasShift":true,"hasAlt":false}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	wheels := m.CallsTo("SetWheelMotors")
	if len(wheels) != 1 {
		t.Fatalf("SetWheelMotors calls = %d, want 1", len(wheels))
	}
	if got := wheels[0].Args[0].(float64); got != 150 {
		t.Errorf("left speed = %v, want 150", got)
	}

	resp, _ = do(t, s, http.MethodPost, "/keydown", `{"keyCode":`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d, want 400", resp.StatusCode)
	}
}

func TestServer_UpdateVectorRendersQueue(t *testing.T) {
	s, m := newTestServer(t, true)

	do(t, s, http.MethodPost, "/keyup", `{"keyCode":53}`)
	do(t, s, http.MethodPost, "/sayText", `{"textEntered":"beep boop"}`)
	do(t, s, http.MethodPost, "/keyup", `{"keyCode":32}`)

	_, body := do(t, s, http.MethodPost, "/updateVector", "")
	if want := "Action Queue:<br>1: say_text( beep boop )<br>\n"; body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
	anims := m.CallsTo("PlayAnimation")
	if len(anims) != 1 || anims[0].Args[0] != "anim_wakeword_groggyeyes_listenloop_01" {
		t.Errorf("PlayAnimation calls = %+v", anims)
	}

	_, body = do(t, s, http.MethodPost, "/updateVector", "")
	if body != "Action Queue:<br>\n" {
		t.Errorf("body = %q after draining", body)
	}
}

func TestServer_DropDownSelect(t *testing.T) {
	s, m := newTestServer(t, true)

	resp, _ := do(t, s, http.MethodPost, "/dropDownSelect", `{"itemName":"animSelector3","selectedIndex":0}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	do(t, s, http.MethodPost, "/keyup", `{"keyCode":51}`)
	do(t, s, http.MethodPost, "/updateVector", "")

	first := session.NewCatalog(m.Animations).Names()[0]
	anims := m.CallsTo("PlayAnimation")
	if len(anims) != 1 || anims[0].Args[0] != first {
		t.Errorf("PlayAnimation calls = %+v, want %q", anims, first)
	}

	resp, _ = do(t, s, http.MethodPost, "/dropDownSelect", `{"itemName":"animSelector12","selectedIndex":0}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("out of range slot status = %d, want 400", resp.StatusCode)
	}
	resp, _ = do(t, s, http.MethodPost, "/dropDownSelect", `{"itemName":"other","selectedIndex":0}`)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("unrelated dropdown status = %d, want 200", resp.StatusCode)
	}
}

func TestServer_AnimSelectors(t *testing.T) {
	s, _ := newTestServer(t, true)

	resp, body := do(t, s, http.MethodGet, "/animSelectors", "")
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.HasPrefix(body, `1: <select onchange="handleDropDownSelect(this)" name="animSelector1">`) {
		t.Errorf("body starts with %q", body[:min(len(body), 80)])
	}
	if i, j := strings.Index(body, "9: <select"), strings.Index(body, "0: <select"); i < 0 || j < i {
		t.Errorf("keys not in 1..9,0 order")
	}
	if got := strings.Count(body, `selected="selected"`); got != session.NumSlots {
		t.Errorf("selected options = %d, want %d", got, session.NumSlots)
	}
	if !strings.Contains(body, `selected="selected">anim_wakeword_groggyeyes_listenloop_01</option>`) {
		t.Error("key 5 default not selected")
	}
}

func TestServer_Telemetry(t *testing.T) {
	s, m := newTestServer(t, true)
	m.SetState(robot.State{
		LeftWheelSpeedMMPS: 12.5,
		BatteryLevel:       2,
		LiftHeightMM:       40,
		Faces: []robot.Face{
			{ID: 7, Name: "ada", IsVisible: true, Position: robot.Vec3{X: 1}},
		},
		Status: robot.StatusFlags{IsOnCharger: true},
	})

	_, body := do(t, s, http.MethodGet, "/updateVectorHud", "")
	var hud map[string]any
	if err := json.Unmarshal([]byte(body), &hud); err != nil {
		t.Fatal(err)
	}
	if hud["leftWheel"] != 12.5 || hud["liftHeightmm"] != 40.0 || hud["batteryLevel"] != 2.0 {
		t.Errorf("hud = %v", hud)
	}
	face, ok := hud["faces"].(map[string]any)["face7"].(map[string]any)
	if !ok || face["name"] != "ada" || face["isVisible"] != true {
		t.Errorf("faces = %v", hud["faces"])
	}

	_, body = do(t, s, http.MethodGet, "/updateVectorStats", "")
	var stats map[string]bool
	if err := json.Unmarshal([]byte(body), &stats); err != nil {
		t.Fatal(err)
	}
	if !stats["is_on_charger"] || stats["is_picked_up"] || len(stats) != 17 {
		t.Errorf("stats = %v", stats)
	}
}

func TestServer_SingleFrameForIncapableBrowser(t *testing.T) {
	s, _ := newTestServer(t, false)

	resp, body := do(t, s, http.MethodGet, "/vectorImage", "", "User-Agent", ieAgent)
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q, want image/png", ct)
	}
	img, err := camera.Decode([]byte(body))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 240 {
		t.Errorf("size = %dx%d, want 320x240", b.Dx(), b.Dy())
	}

	resp, _ = do(t, s, http.MethodPost, "/api/camera", `{"preset":"jpeg"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("camera config status = %d", resp.StatusCode)
	}
	resp, _ = do(t, s, http.MethodGet, "/vectorImage", "", "User-Agent", ieAgent)
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type after preset = %q, want image/jpeg", ct)
	}

	_, body = do(t, s, http.MethodGet, "/api/camera", "")
	var settings map[string]any
	if err := json.Unmarshal([]byte(body), &settings); err != nil {
		t.Fatal(err)
	}
	if settings["format"] != camera.FormatJPEG {
		t.Errorf("camera config = %v, want jpeg format", settings)
	}

	resp, _ = do(t, s, http.MethodPost, "/api/camera", `{"quality":500}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid quality status = %d, want 400", resp.StatusCode)
	}
}

func TestServer_StreamForCapableBrowser(t *testing.T) {
	s, _ := newTestServer(t, false)

	// End the stream shortly so the response completes.
	time.AfterFunc(150*time.Millisecond, s.cancel)

	resp, body := do(t, s, http.MethodGet, "/vectorImage", "", "User-Agent", "Mozilla/5.0 Chrome/120.0")
	if ct := resp.Header.Get("Content-Type"); ct != camera.StreamContentType {
		t.Fatalf("content type = %q", ct)
	}
	prefix := "--frame\r\nContent-Type: image/png\r\n\r\n"
	if !strings.HasPrefix(body, prefix) {
		t.Fatalf("body starts with %q", body[:min(len(body), len(prefix))])
	}
	if n := strings.Count(body, "--frame\r\n"); n < 1 {
		t.Errorf("parts = %d", n)
	}

	first := []byte(body[len(prefix):])
	if end := bytes.Index(first, []byte("\r\n--frame")); end >= 0 {
		first = first[:end]
	} else {
		first = bytes.TrimSuffix(first, []byte("\r\n"))
	}
	if _, err := camera.Decode(first); err != nil {
		t.Errorf("first part does not decode: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.feed.Streams() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream goroutine still running after response ended")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer(t, true)
	s.runCameraHub()
	time.Sleep(20 * time.Millisecond)

	_, body := do(t, s, http.MethodGet, "/health", "")
	var h map[string]any
	if err := json.Unmarshal([]byte(body), &h); err != nil {
		t.Fatal(err)
	}
	if h["status"] != "ok" || h["session"] != true || h["version"] != "test" || h["camera_streams"] != 0.0 {
		t.Errorf("health = %v", h)
	}

	_, body = do(t, s, http.MethodGet, "/metrics", "")
	for _, want := range []string{
		"vectorrc_camera_frames_published 0",
		"vectorrc_action_queue_depth 0",
		"vectorrc_camera_streams 0",
		"vectorrc_camera_relays 0",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q:\n%s", want, body)
		}
	}
}
