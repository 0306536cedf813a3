package hubspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"hubspace_bridge/internal/logger"
	"hubspace_bridge/internal/models"
)

// Default timeouts and freshness bounds. Each layer is bounded
// independently so a slow stage never cascades into the others.
const (
	defaultInitTimeout    = 20 * time.Second // session authentication
	defaultStartupWait    = 25 * time.Second // Start() wait for the ready latch
	defaultCommandTimeout = 10 * time.Second // sync-bridge wait per command
	defaultCloseTimeout   = 5 * time.Second  // session close on shutdown
	defaultCacheTTL       = 10 * time.Second // status cache freshness
)

// Config carries credentials, endpoints and timeout bounds for the bridge.
// Zero timeout fields fall back to the defaults above.
type Config struct {
	Email    string
	Password string
	BaseURL  string // direct REST endpoint, defaults to DefaultBaseURL
	AuthURL  string // token endpoint, defaults to DefaultAuthURL

	InitTimeout    time.Duration
	StartupWait    time.Duration
	CommandTimeout time.Duration
	CloseTimeout   time.Duration
	CacheTTL       time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.AuthURL == "" {
		c.AuthURL = DefaultAuthURL
	}
	if c.InitTimeout <= 0 {
		c.InitTimeout = defaultInitTimeout
	}
	if c.StartupWait <= 0 {
		c.StartupWait = defaultStartupWait
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = defaultCommandTimeout
	}
	if c.CloseTimeout <= 0 {
		c.CloseTimeout = defaultCloseTimeout
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}
	return c
}

// SessionFactory builds the platform session from configuration. The
// default is the minimal Afero session; tests and deployments with a full
// vendor SDK substitute their own.
type SessionFactory func(cfg Config, log *logger.Logger) Session

// TransportFactory builds the raw REST transport over an existing session.
type TransportFactory func(s Session, cfg Config) Transport

// commandResult carries a command's outcome back across the sync bridge.
type commandResult struct {
	value any
	err   error
}

// pendingCommand is one unit of work submitted to the worker. It is
// consumed exactly once; the buffered channel guarantees the worker never
// blocks handing the result back, even if the caller has timed out.
type pendingCommand struct {
	run  func(ctx context.Context) any
	done chan commandResult
}

// Bridge owns the persistent platform session, the device catalog and the
// status cache, all funneled through a single background goroutine.
// Synchronous callers submit work via RunBlocking; commands execute
// strictly one at a time in submission order.
type Bridge struct {
	cfg          Config
	log          *logger.Logger
	newSession   SessionFactory
	newTransport TransportFactory

	mu      sync.Mutex // guards started/cancel
	started bool
	cancel  context.CancelFunc

	ready    chan struct{} // latched (closed) once startup completes
	done     chan struct{} // closed when the worker exits
	commands chan *pendingCommand

	// connected flips to true once the session object exists. It stays
	// true even if initialization only partially succeeded, matching the
	// degraded-but-operable startup policy.
	connected atomic.Bool

	// session and transport are written by the worker before the ready
	// latch and only touched by the worker afterwards.
	session   Session
	transport Transport

	catalog *Catalog
	cache   *statusCache
}

// New builds a bridge with the default Afero session and transport.
func New(cfg Config, log *logger.Logger) *Bridge {
	return newBridge(cfg, log, NewAferoSession, NewRESTTransport)
}

func newBridge(cfg Config, log *logger.Logger, sf SessionFactory, tf TransportFactory) *Bridge {
	cfg = cfg.withDefaults()
	return &Bridge{
		cfg:          cfg,
		log:          log,
		newSession:   sf,
		newTransport: tf,
		ready:        make(chan struct{}),
		done:         make(chan struct{}),
		commands:     make(chan *pendingCommand),
		catalog:      NewCatalog(),
		cache:        newStatusCache(cfg.CacheTTL),
	}
}

// Start launches the background worker and blocks until startup (auth +
// discovery, success or definitive failure) completes, bounded by the
// startup wait. Idempotent: if the worker is already running it only waits
// on the ready latch.
func (b *Bridge) Start(ctx context.Context) {
	b.mu.Lock()
	if !b.started {
		b.started = true
		wctx, cancel := context.WithCancel(ctx)
		b.cancel = cancel
		go b.run(wctx)
	}
	b.mu.Unlock()

	select {
	case <-b.ready:
	case <-time.After(b.cfg.StartupWait):
		b.log.Warnw("hubspace_startup_wait_elapsed", "timeout", b.cfg.StartupWait)
	}
}

// Stop cancels the worker and waits for it to finish its bounded
// session-close sequence. Safe to call if Start never ran.
func (b *Bridge) Stop() {
	b.mu.Lock()
	cancel := b.cancel
	started := b.started
	b.mu.Unlock()
	if !started {
		return
	}
	cancel()
	<-b.done
}

// run is the worker: startup once, then host commands until cancellation.
func (b *Bridge) run(ctx context.Context) {
	defer close(b.done)
	b.startup(ctx)

	for {
		select {
		case <-ctx.Done():
			b.closeSession()
			return
		case cmd := <-b.commands:
			cmd.done <- b.execute(ctx, cmd)
		}
	}
}

// startup authenticates and discovers devices. Failures here are logged
// and non-fatal: the bridge stays up in a degraded state and individual
// commands report the failure instead.
func (b *Bridge) startup(ctx context.Context) {
	defer close(b.ready)

	if b.cfg.Email == "" || b.cfg.Password == "" {
		b.log.Infow("hubspace_no_credentials", "hint", "set HUBSPACE_EMAIL and HUBSPACE_PASSWORD")
		return
	}

	b.log.Infow("hubspace_connecting", "email", b.cfg.Email)
	b.session = b.newSession(b.cfg, b.log)
	b.transport = b.newTransport(b.session, b.cfg)
	b.connected.Store(true)

	initCtx, cancel := context.WithTimeout(ctx, b.cfg.InitTimeout)
	err := b.session.Initialize(initCtx)
	cancel()
	switch {
	case err == nil:
		b.log.Infow("hubspace_connected")
	case errors.Is(err, context.DeadlineExceeded):
		// Proceed with whatever partial state the session holds.
		b.log.Warnw("hubspace_init_timeout", "timeout", b.cfg.InitTimeout)
	default:
		b.log.Warnw("hubspace_init_error", "err", err)
	}

	b.discover()
	if b.catalog.Len() == 0 {
		b.log.Infow("hubspace_sdk_found_no_devices", "fallback", "direct api listing")
		b.discoverDirect(ctx)
	}
	b.log.Infow("hubspace_ready", "devices", b.catalog.Len())
}

// discover catalogs every device the session's per-class controllers hold.
func (b *Bridge) discover() {
	for _, pc := range []struct {
		class models.DeviceClass
		ctrl  Controller
	}{
		{models.ClassLight, b.session.Lights()},
		{models.ClassFan, b.session.Fans()},
		{models.ClassSwitch, b.session.Switches()},
	} {
		if pc.ctrl == nil {
			continue
		}
		for _, h := range pc.ctrl.Devices() {
			b.catalog.Add(models.Device{ID: h.ID, Name: h.Name, Class: pc.class})
			b.log.Infow("hubspace_device", "class", pc.class, "name", h.Name, "id", h.ID)
		}
	}
}

// discoverDirect is the one-shot fallback against the raw listing
// endpoint, filtering to entries that expose a power control.
func (b *Bridge) discoverDirect(ctx context.Context) {
	raws, err := b.transport.ListDevices(ctx)
	if err != nil {
		b.log.Warnw("hubspace_direct_discovery_failed", "err", err)
		return
	}
	for _, raw := range raws {
		if !raw.HasFunction(FunctionPower) {
			continue
		}
		name := raw.FriendlyName
		if name == "" {
			name = "unnamed"
		}
		b.catalog.Add(models.Device{ID: raw.ID, Name: name, Class: models.ClassLight})
		b.log.Infow("hubspace_device", "class", models.ClassLight, "name", name, "id", raw.ID)
	}
}

// closeSession closes the session with a bounded timeout, swallowing any
// close error.
func (b *Bridge) closeSession() {
	if b.session == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.CloseTimeout)
	defer cancel()
	if err := b.session.Close(ctx); err != nil {
		b.log.Debugw("hubspace_close_error", "err", err)
	}
}

// execute runs one command on the worker goroutine, converting a panic
// into an error result so nothing propagates past the bridge.
func (b *Bridge) execute(ctx context.Context, cmd *pendingCommand) (res commandResult) {
	defer func() {
		if r := recover(); r != nil {
			res = commandResult{err: fmt.Errorf("command panic: %v", r)}
		}
	}()
	return commandResult{value: cmd.run(ctx)}
}

// RunBlocking hands work to the background worker and blocks until it
// completes or the timeout elapses. If the session was never initialized
// it fails immediately without blocking. This is the only path through
// which synchronous callers touch the worker's state.
func (b *Bridge) RunBlocking(work func(ctx context.Context) any, timeout time.Duration) (any, error) {
	if !b.connected.Load() {
		return nil, ErrNotConnected
	}
	if timeout <= 0 {
		timeout = b.cfg.CommandTimeout
	}

	cmd := &pendingCommand{run: work, done: make(chan commandResult, 1)}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case b.commands <- cmd:
	case <-b.done:
		return nil, ErrNotConnected
	case <-timer.C:
		return nil, errCommandTimeout
	}

	select {
	case r := <-cmd.done:
		return r.value, r.err
	case <-b.done:
		return nil, ErrNotConnected
	case <-timer.C:
		return nil, errCommandTimeout
	}
}
