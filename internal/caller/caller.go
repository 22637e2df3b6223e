package caller

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"codeberg.org/snonux/bingobg/internal"
	"codeberg.org/snonux/bingobg/internal/draw"
	"codeberg.org/snonux/bingobg/internal/numbers"
	"github.com/rs/zerolog"
)

var (
	// ErrPlaying is returned by Step while the automatic draw is running
	ErrPlaying = errors.New("draw is running")
	// ErrFinished is returned once every number has been drawn
	ErrFinished = errors.New("all numbers have been drawn")
	// ErrInvalidInterval is returned for intervals outside Intervals
	ErrInvalidInterval = errors.New("invalid draw interval")
)

// Intervals are the selectable pauses between two draws
var Intervals = []time.Duration{
	3 * time.Second,
	5 * time.Second,
	8 * time.Second,
	10 * time.Second,
}

const (
	DefaultInterval      = 5 * time.Second
	DefaultCountdownFrom = 3
	DefaultCountdownStep = time.Second
	DefaultFrameInterval = 50 * time.Millisecond
)

// ValidInterval reports whether d is one of Intervals
func ValidInterval(d time.Duration) bool {
	for _, v := range Intervals {
		if d == v {
			return true
		}
	}
	return false
}

// Config holds scheduler settings
type Config struct {
	Interval      time.Duration
	CountdownFrom int
	CountdownStep time.Duration
	FrameInterval time.Duration
	Seed          int64
	Clock         Clock
}

// DefaultConfig returns the settings of a regular game
func DefaultConfig() Config {
	return Config{
		Interval:      DefaultInterval,
		CountdownFrom: DefaultCountdownFrom,
		CountdownStep: DefaultCountdownStep,
		FrameInterval: DefaultFrameInterval,
	}
}

// Caller is the draw scheduler. All methods are safe for concurrent use.
type Caller struct {
	cfg      Config
	clock    Clock
	shuffler *draw.Shuffler
	log      zerolog.Logger
	events   *dispatcher

	mu           sync.Mutex
	order        draw.Order
	gameID       string
	cursor       int
	playing      bool
	countdown    int
	interval     time.Duration
	linkInterval time.Duration
	baseline     time.Time
	seq          uint64
	closed       bool

	gen      uint64
	timer    Timer
	frameGen uint64
	frame    Timer

	resetHooks []func()
}

// New creates an idle scheduler with a freshly shuffled order
func New(cfg Config, log zerolog.Logger) (*Caller, error) {
	def := DefaultConfig()
	if cfg.Interval == 0 {
		cfg.Interval = def.Interval
	}
	if cfg.CountdownFrom <= 0 {
		cfg.CountdownFrom = def.CountdownFrom
	}
	if cfg.CountdownStep <= 0 {
		cfg.CountdownStep = def.CountdownStep
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = def.FrameInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock()
	}
	if !ValidInterval(cfg.Interval) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, cfg.Interval)
	}

	c := &Caller{
		cfg:      cfg,
		clock:    cfg.Clock,
		shuffler: draw.NewShuffler(cfg.Seed),
		log:      log.With().Str("component", "caller").Logger(),
		events:   newDispatcher(),
		cursor:   -1,
		interval: cfg.Interval,
	}
	c.order = c.shuffler.Next()
	c.gameID = internal.GenerateGameID(c.order)

	return c, nil
}

// Subscribe registers a listener and returns a function removing it.
// Listeners run on a single dispatch goroutine and must not call Sync.
func (c *Caller) Subscribe(l Listener) func() {
	return c.events.subscribe(l)
}

// OnReset registers a hook run synchronously at the end of every Reset
func (c *Caller) OnReset(hook func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetHooks = append(c.resetHooks, hook)
}

// Sync waits until all events produced so far have reached the listeners
func (c *Caller) Sync() {
	c.events.flush()
}

// Start begins the countdown, or resumes drawing when a number is already out
func (c *Caller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	if c.finished() {
		return ErrFinished
	}
	if c.playing {
		return nil
	}

	c.playing = true
	if c.cursor < 0 {
		c.countdown = c.cfg.CountdownFrom
		c.log.Debug().Int("countdown", c.countdown).Msg("Countdown started")
		c.armCountdown()
		c.emit(Event{Kind: EventCountdown}, Event{Kind: EventState})
		return nil
	}

	c.log.Debug().Int("cursor", c.cursor).Msg("Draw resumed")
	c.beginLink()
	c.emit(Event{Kind: EventState})
	return nil
}

// Pause stops the automatic draw. A countdown in progress is abandoned.
func (c *Caller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.playing {
		return
	}

	c.playing = false
	c.countdown = 0
	c.stopTimers()
	c.log.Debug().Int("cursor", c.cursor).Msg("Draw paused")
	c.emit(Event{Kind: EventState})
}

// TogglePlay pauses a playing scheduler and starts a stopped one
func (c *Caller) TogglePlay() error {
	c.mu.Lock()
	playing := c.playing
	c.mu.Unlock()

	if playing {
		c.Pause()
		return nil
	}
	return c.Start()
}

// Step draws the next number immediately
func (c *Caller) Step() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	if c.playing {
		return ErrPlaying
	}
	if c.finished() {
		return ErrFinished
	}

	c.advance()
	c.baseline = c.clock.Now()
	c.emit(Event{Kind: EventState})
	return nil
}

// Reset abandons the game and shuffles a new order
func (c *Caller) Reset() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.stopTimers()
	c.playing = false
	c.countdown = 0
	c.cursor = -1
	c.order = c.shuffler.Next()
	c.gameID = internal.GenerateGameID(c.order)
	c.log.Info().Str("game_id", c.gameID).Msg("New draw order")
	c.emit(Event{Kind: EventReset}, Event{Kind: EventState})

	hooks := append([]func(){}, c.resetHooks...)
	c.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
}

// SetInterval changes the pause between draws. A pending draw keeps its
// deadline; the new value applies from the next one on.
func (c *Caller) SetInterval(d time.Duration) error {
	if !ValidInterval(d) {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, d)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.interval == d {
		return nil
	}
	c.interval = d
	c.log.Debug().Dur("interval", d).Msg("Interval changed")
	c.emit(Event{Kind: EventState})
	return nil
}

// Interval returns the configured pause between draws
func (c *Caller) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// Progress is the fraction of the current link that has elapsed
func (c *Caller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progressLocked()
}

// Snapshot returns the current view of the scheduler
func (c *Caller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close cancels all timers. Callbacks firing afterwards are ignored.
func (c *Caller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.playing = false
	c.countdown = 0
	c.stopTimers()
	c.mu.Unlock()

	c.events.close()
}

// state derives the scheduler state; c.mu must be held
func (c *Caller) state() State {
	switch {
	case c.finished():
		return StateFinished
	case c.playing && c.countdown > 0:
		return StateCountdown
	case c.playing:
		return StateRunning
	case c.cursor >= 0:
		return StatePaused
	default:
		return StateIdle
	}
}

func (c *Caller) finished() bool {
	return c.cursor >= len(c.order)-1
}

func (c *Caller) progressLocked() float64 {
	if c.state() != StateRunning || c.linkInterval <= 0 {
		return 0
	}

	p := float64(c.clock.Now().Sub(c.baseline)) / float64(c.linkInterval)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

func (c *Caller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:     c.state(),
		Playing:   c.playing,
		Cursor:    c.cursor,
		Countdown: c.countdown,
		Drawn:     c.order.Drawn(c.cursor),
		Progress:  c.progressLocked(),
		Interval:  c.interval,
		Total:     len(c.order),
		Seq:       c.seq,
		GameID:    c.gameID,
	}
	if c.cursor >= 0 {
		s.Current = c.order[c.cursor]
	}
	return s
}

// emit stamps events with a snapshot and queues them; c.mu must be held
func (c *Caller) emit(events ...Event) {
	for i := range events {
		c.seq++
		events[i].Snapshot = c.snapshotLocked()
	}
	c.events.push(events...)
}

// advance draws the next number and finishes the game after the last one
func (c *Caller) advance() {
	c.cursor++
	n := c.order[c.cursor]
	c.log.Info().Int("number", n).Int("index", c.cursor).Msg("Number drawn")

	if !c.finished() {
		c.emit(Event{Kind: EventDraw, Number: n, Index: c.cursor})
		return
	}

	c.playing = false
	c.countdown = 0
	c.stopTimers()
	c.log.Info().Str("game_id", c.gameID).Msg("All numbers drawn")
	c.emit(Event{Kind: EventDraw, Number: n, Index: c.cursor}, Event{Kind: EventState})
}

func (c *Caller) armCountdown() {
	c.stopTimer()
	c.gen++
	gen := c.gen
	c.timer = c.clock.AfterFunc(c.cfg.CountdownStep, func() { c.countdownTick(gen) })
}

func (c *Caller) countdownTick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen || !c.playing || c.countdown == 0 {
		return
	}
	c.timer = nil

	if c.countdown > 1 {
		c.countdown--
		c.armCountdown()
		c.emit(Event{Kind: EventCountdown})
		return
	}

	c.countdown = 0
	c.advance()
	if c.playing {
		c.beginLink()
		c.emit(Event{Kind: EventState})
	}
}

// beginLink arms the next draw with the interval in effect right now
func (c *Caller) beginLink() {
	c.stopTimer()
	c.baseline = c.clock.Now()
	c.linkInterval = c.interval

	c.gen++
	gen := c.gen
	c.timer = c.clock.AfterFunc(c.linkInterval, func() { c.drawTick(gen) })
	c.startFrames()
}

func (c *Caller) drawTick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen || !c.playing || c.countdown > 0 || c.finished() {
		return
	}
	c.timer = nil

	c.advance()
	if c.playing {
		c.beginLink()
	}
}

func (c *Caller) startFrames() {
	c.stopFrames()
	c.frameGen++
	gen := c.frameGen
	c.frame = c.clock.AfterFunc(c.cfg.FrameInterval, func() { c.frameTick(gen) })
}

func (c *Caller) frameTick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.frameGen || c.state() != StateRunning {
		return
	}

	c.emit(Event{Kind: EventProgress})
	c.frame = c.clock.AfterFunc(c.cfg.FrameInterval, func() { c.frameTick(gen) })
}

func (c *Caller) stopTimer() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Caller) stopFrames() {
	c.frameGen++
	if c.frame != nil {
		c.frame.Stop()
		c.frame = nil
	}
}

func (c *Caller) stopTimers() {
	c.stopTimer()
	c.stopFrames()
}

// Order returns a copy of the current draw order
func (c *Caller) Order() draw.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(draw.Order(nil), c.order...)
}

// Drawn reports whether n has already been called in the current game
func (c *Caller) Drawn(n int) bool {
	if n < 1 || n > numbers.Max {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.IsDrawn(n, c.cursor)
}
