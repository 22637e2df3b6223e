package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"codeberg.org/snonux/bingobg/internal/announce"
	"codeberg.org/snonux/bingobg/internal/caller"
	"codeberg.org/snonux/bingobg/internal/game"
	"codeberg.org/snonux/bingobg/internal/testutil"
)

type fixture struct {
	server  *Server
	session *game.Session
	clock   *caller.ManualClock
	player  *testutil.MockPlayer
	http    *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := caller.NewManualClock(time.Unix(0, 0))
	cfg := caller.DefaultConfig()
	cfg.Clock = clock
	cfg.Seed = 7
	c, err := caller.New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("caller.New() error = %v", err)
	}

	player := &testutil.MockPlayer{}
	opts := announce.DefaultOptions()
	opts.ClipsDir = testutil.CreateClipsDirectory(t, []int{12}, nil)
	r := announce.NewResolver(opts, player, &testutil.MockSpeaker{}, &testutil.MockToneSink{}, zerolog.Nop())
	session := game.New(c, r, zerolog.Nop())

	s := New(Config{}, session, zerolog.Nop())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Close()
		ts.Close()
		session.Close()
	})

	return &fixture{server: s, session: session, clock: clock, player: player, http: ts}
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial(%s) error = %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type received struct {
	Type         string `json:"type"`
	State        string `json:"state"`
	Playing      bool   `json:"playing"`
	Cursor       int    `json:"cursor"`
	Current      int    `json:"current"`
	Countdown    int    `json:"countdown"`
	Drawn        []int  `json:"drawn"`
	Interval     int64  `json:"interval"`
	Total        int    `json:"total"`
	GameID       string `json:"game_id"`
	AudioBlocked bool   `json:"audio_blocked"`
	Event        string `json:"event"`
	Number       int    `json:"number"`
	Error        string `json:"error"`
	Intent       string `json:"intent"`
}

func read(t *testing.T, conn *websocket.Conn) received {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg received
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

// readUntil skips messages until match accepts one
func readUntil(t *testing.T, conn *websocket.Conn, match func(received) bool) received {
	t.Helper()

	for i := 0; i < 50; i++ {
		msg := read(t, conn)
		if match(msg) {
			return msg
		}
	}
	t.Fatal("expected message never arrived")
	return received{}
}

func TestStaticRoutes(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/", "text/html", "Бинго"},
		{"/app.js", "application/javascript", "start-pause"},
		{"/healthz", "text/plain", "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(f.http.URL + tt.path)
			if err != nil {
				t.Fatalf("GET %s error = %v", tt.path, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Errorf("status = %d, want 200", resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("content type = %q, want %q", ct, tt.contentType)
			}
			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), tt.contains) {
				t.Errorf("body does not contain %q", tt.contains)
			}
		})
	}
}

func TestStateAPI(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.http.URL + "/api/state")
	if err != nil {
		t.Fatalf("GET /api/state error = %v", err)
	}
	defer resp.Body.Close()

	var msg received
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if msg.Type != "state" || msg.State != "idle" || msg.Cursor != -1 {
		t.Errorf("state = %+v", msg)
	}
	if msg.Interval != 5000 || msg.Total != 90 || msg.GameID == "" {
		t.Errorf("state = %+v", msg)
	}
}

func TestWebsocketInitialState(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	msg := read(t, conn)
	if msg.Type != "state" || msg.State != "idle" {
		t.Errorf("initial message = %+v", msg)
	}
	if f.server.Clients() != 1 {
		t.Errorf("Clients() = %d, want 1", f.server.Clients())
	}
}

func TestWebsocketIntents(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	read(t, conn)

	// Step draws one number
	if err := conn.WriteJSON(Intent{Intent: IntentStep}); err != nil {
		t.Fatal(err)
	}
	msg := readUntil(t, conn, func(m received) bool { return m.Event == "draw" })
	if msg.Number != f.session.Caller.Order()[0] || len(msg.Drawn) != 1 {
		t.Errorf("draw message = %+v", msg)
	}

	// Interval change
	if err := conn.WriteJSON(Intent{Intent: IntentSetInterval, Value: 8000}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, func(m received) bool { return m.Interval == 8000 })
	if got := f.session.Caller.Interval(); got != 8*time.Second {
		t.Errorf("interval = %v, want 8s", got)
	}

	// Start resumes the drawn game
	if err := conn.WriteJSON(Intent{Intent: IntentStartPause}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, func(m received) bool { return m.Playing && m.State == "running" })

	// Reset
	if err := conn.WriteJSON(Intent{Intent: IntentReset}); err != nil {
		t.Fatal(err)
	}
	msg = readUntil(t, conn, func(m received) bool { return m.Event == "reset" })
	if msg.Cursor != -1 || msg.Playing {
		t.Errorf("reset message = %+v", msg)
	}
}

func TestWebsocketCellPreview(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	read(t, conn)

	if err := conn.WriteJSON(Intent{Intent: IntentCell, Value: 12}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(f.player.Calls()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if calls := f.player.Calls(); len(calls) != 1 || !strings.HasSuffix(calls[0], "12.mp3") {
		t.Errorf("played %v, want the clip of 12", calls)
	}
}

func TestWebsocketInvalidIntents(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	read(t, conn)

	tests := []struct {
		name string
		raw  string
	}{
		{"unknown", `{"intent":"shuffle"}`},
		{"missing", `{"value":3}`},
		{"bad interval", `{"intent":"set-interval","value":4000}`},
		{"cell too low", `{"intent":"cell","value":0}`},
		{"cell too high", `{"intent":"cell","value":91}`},
		{"not json", `start please`},
		{"wrong type", `{"intent":"cell","value":"seven"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(tt.raw)); err != nil {
				t.Fatal(err)
			}
			msg := read(t, conn)
			if msg.Type != "error" || msg.Error == "" {
				t.Errorf("reply = %+v, want an error", msg)
			}
		})
	}

	// The connection survives rejected intents
	if err := conn.WriteJSON(Intent{Intent: IntentStep}); err != nil {
		t.Fatal(err)
	}
	readUntil(t, conn, func(m received) bool { return m.Event == "draw" })
}

func TestStepWhilePlayingIsRejected(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	read(t, conn)

	if err := f.session.Caller.Start(); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(Intent{Intent: IntentStep}); err != nil {
		t.Fatal(err)
	}
	msg := readUntil(t, conn, func(m received) bool { return m.Type == "error" })
	if msg.Intent != IntentStep {
		t.Errorf("error for intent %q, want %q", msg.Intent, IntentStep)
	}
}

func TestIntentValidate(t *testing.T) {
	tests := []struct {
		in    Intent
		valid bool
	}{
		{Intent{Intent: IntentStartPause}, true},
		{Intent{Intent: IntentStep}, true},
		{Intent{Intent: IntentReset}, true},
		{Intent{Intent: IntentSetInterval, Value: 3000}, true},
		{Intent{Intent: IntentSetInterval, Value: 10000}, true},
		{Intent{Intent: IntentSetInterval, Value: 3}, false},
		{Intent{Intent: IntentCell, Value: 1}, true},
		{Intent{Intent: IntentCell, Value: 90}, true},
		{Intent{Intent: IntentCell, Value: 91}, false},
		{Intent{Intent: ""}, false},
		{Intent{Intent: "START"}, false},
	}

	for _, tt := range tests {
		err := tt.in.Validate()
		if (err == nil) != tt.valid {
			t.Errorf("Validate(%+v) = %v, valid %v", tt.in, err, tt.valid)
		}
		if err != nil && !errors.Is(err, ErrInvalidIntent) {
			t.Errorf("Validate(%+v) error %v does not wrap ErrInvalidIntent", tt.in, err)
		}
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	f := newFixture(t)

	s := New(Config{Bind: "127.0.0.1", Port: 0}, f.session, zerolog.Nop())
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	if strings.HasSuffix(s.Addr(), ":0") {
		t.Fatalf("Addr() = %s, want the picked port", s.Addr())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + s.Addr() + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never answered: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
