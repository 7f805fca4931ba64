package robot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// bridge is a fake robot bridge that records POSTed commands.
type bridge struct {
	mu       sync.Mutex
	posts    []string
	bodies   []map[string]any
	state    State
	failPath string
}

func (b *bridge) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		json.NewEncoder(w).Encode(b.state)
	})
	mux.HandleFunc("/api/anim/list", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"animations": []string{"anim_b", "anim_a"},
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)

		b.mu.Lock()
		b.posts = append(b.posts, r.URL.Path)
		b.bodies = append(b.bodies, body)
		fail := b.failPath == r.URL.Path
		b.mu.Unlock()

		if fail {
			http.Error(w, "busy", http.StatusConflict)
		}
	})
	return mux
}

func (b *bridge) postCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.posts)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestHTTPController_Connect(t *testing.T) {
	b := &bridge{state: State{HeadAngleRad: 0.25, BatteryLevel: 2}}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	r := NewHTTPController(srv.URL + "/")
	if err := r.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if r.HeadAngleRad() != 0.25 {
		t.Errorf("HeadAngleRad() = %v, want 0.25", r.HeadAngleRad())
	}
	if r.State().BatteryLevel != 2 {
		t.Errorf("BatteryLevel = %d, want 2", r.State().BatteryLevel)
	}
}

func TestHTTPController_ConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	r := NewHTTPController(srv.URL)
	err := r.Connect(context.Background())
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Connect() error = %v, want ErrNotConnected", err)
	}
}

func TestHTTPController_DispatchesInOrder(t *testing.T) {
	b := &bridge{}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	r := NewHTTPController(srv.URL)
	r.SetPollInterval(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	if err := r.SetWheelMotors(75, 75, 300, 300); err != nil {
		t.Fatalf("SetWheelMotors() error = %v", err)
	}
	r.SetHeadMotor(-1)
	r.SayText("Hi I'm Vector")

	waitFor(t, func() bool { return b.postCount() == 3 })

	b.mu.Lock()
	defer b.mu.Unlock()
	want := []string{"/api/motors/wheels", "/api/motors/head", "/api/say"}
	for i, p := range want {
		if b.posts[i] != p {
			t.Errorf("post[%d] = %s, want %s", i, b.posts[i], p)
		}
	}
	if b.bodies[0]["left_wheel_accel"] != 300.0 {
		t.Errorf("left_wheel_accel = %v, want 300", b.bodies[0]["left_wheel_accel"])
	}
	if b.bodies[2]["text"] != "Hi I'm Vector" {
		t.Errorf("text = %v", b.bodies[2]["text"])
	}
}

func TestHTTPController_CommandErrorsCounted(t *testing.T) {
	b := &bridge{failPath: "/api/anim/play"}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	r := NewHTTPController(srv.URL)
	r.SetPollInterval(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	// Dispatch succeeds from the caller's point of view.
	if err := r.PlayAnimation("anim_a"); err != nil {
		t.Fatalf("PlayAnimation() error = %v", err)
	}

	waitFor(t, func() bool {
		_, failed := r.Stats()
		return failed == 1
	})
}

func TestHTTPController_DropsActionsWhenFull(t *testing.T) {
	r := NewHTTPController("http://127.0.0.1:1")

	for i := 0; i < DefaultCommandBuffer; i++ {
		if err := r.SayText("hi"); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := r.SayText("hi"); !errors.Is(err, ErrCommandDropped) {
		t.Errorf("enqueue beyond buffer error = %v, want ErrCommandDropped", err)
	}

	// Setpoints are still accepted with the action buffer full.
	if err := r.SetWheelMotors(0, 0, 0, 0); err != nil {
		t.Errorf("SetWheelMotors() with full buffer error = %v", err)
	}
}

func TestHTTPController_SetpointsKeepNewest(t *testing.T) {
	r := NewHTTPController("http://127.0.0.1:1")

	r.SetLiftMotor(4)
	r.SayText("hi")
	r.SetLiftMotor(-4)
	r.SetHeadMotor(1)

	if got := r.Pending(); got != 3 {
		t.Fatalf("Pending() = %d, want 3", got)
	}
	want := []struct {
		path  string
		speed any
	}{
		{"/api/say", nil},
		{"/api/motors/lift", -4.0},
		{"/api/motors/head", 1.0},
	}
	for i, w := range want {
		cmd, ok := r.next()
		if !ok || cmd.path != w.path {
			t.Fatalf("next() #%d = %+v, want %s", i, cmd, w.path)
		}
		if w.speed != nil && cmd.payload.(map[string]float64)["speed"] != w.speed {
			t.Errorf("%s speed = %v, want %v", w.path, cmd.payload, w.speed)
		}
	}
}

func TestHTTPController_StopAfterBurstIsDelivered(t *testing.T) {
	b := &bridge{}
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	mux := http.NewServeMux()
	mux.Handle("/", b.handler())
	mux.HandleFunc("/api/motors/wheels", func(w http.ResponseWriter, req *http.Request) {
		first := false
		once.Do(func() { first = true })
		if first {
			close(entered)
			<-release
		}
		b.handler().ServeHTTP(w, req)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	defer close(release)

	r := NewHTTPController(srv.URL)
	r.SetPollInterval(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	r.SetWheelMotors(75, 75, 300, 300)
	<-entered

	for i := 0; i < DefaultCommandBuffer+1; i++ {
		r.SetWheelMotors(75, 75, 300, 300)
	}
	if err := r.SetWheelMotors(0, 0, 0, 0); err != nil {
		t.Fatalf("stop error = %v", err)
	}
	release <- struct{}{}

	waitFor(t, func() bool { return b.postCount() == 2 })

	b.mu.Lock()
	last := b.bodies[len(b.bodies)-1]
	b.mu.Unlock()
	if last["left_wheel_speed"] != 0.0 || last["right_wheel_speed"] != 0.0 {
		t.Errorf("last wheel command = %v, want stop", last)
	}

	time.Sleep(20 * time.Millisecond)
	if n := b.postCount(); n != 2 {
		t.Errorf("wheel posts = %d, want 2", n)
	}
}

func TestHTTPController_SlowTelemetryDoesNotBlockCommands(t *testing.T) {
	b := &bridge{}
	polled := make(chan struct{}, 1)
	unblock := make(chan struct{})

	mux := http.NewServeMux()
	mux.Handle("/", b.handler())
	mux.HandleFunc("/api/state", func(w http.ResponseWriter, req *http.Request) {
		select {
		case polled <- struct{}{}:
		default:
		}
		select {
		case <-unblock:
		case <-req.Context().Done():
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	defer close(unblock)

	r := NewHTTPController(srv.URL)
	r.SetPollInterval(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	<-polled
	r.SayText("still here")

	waitFor(t, func() bool { return b.postCount() == 1 })
}

func TestHTTPController_ListAnimations(t *testing.T) {
	b := &bridge{}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	names, err := NewHTTPController(srv.URL).ListAnimations(context.Background())
	if err != nil {
		t.Fatalf("ListAnimations() error = %v", err)
	}
	if len(names) != 2 || names[0] != "anim_b" {
		t.Errorf("ListAnimations() = %v", names)
	}
}

func TestAPIError(t *testing.T) {
	err := &APIError{StatusCode: 409, Path: "/api/anim/play", Message: "busy"}
	if !err.IsConflict() {
		t.Error("409 should be a conflict")
	}
	if err.IsServerError() {
		t.Error("409 is not a server error")
	}
	if err.Error() != "robot: /api/anim/play returned 409: busy" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestDegrees(t *testing.T) {
	if got := Degrees(0); got != 0 {
		t.Errorf("Degrees(0) = %v", got)
	}
	if got := Degrees(3.141592653589793); got < 179.999 || got > 180.001 {
		t.Errorf("Degrees(pi) = %v, want 180", got)
	}
}
