// Package capture manages the lifecycle of one speech-to-text capture
// session: start, stop, cancel, and the release of the underlying
// recognition stream on every exit path.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State of the capture session. Exactly one session is active at a time.
type State int

const (
	Idle State = iota
	AwaitingAuthorization
	Recording
	Finalizing
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingAuthorization:
		return "awaiting-authorization"
	case Recording:
		return "recording"
	case Finalizing:
		return "finalizing"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Capture failure reasons.
var (
	ErrPermissionDenied = errors.New("speech recognition permission denied")
	ErrUnavailable      = errors.New("speech recognizer unavailable")
	ErrEngineStart      = errors.New("recognition stream failed to start")
	ErrNotRecording     = errors.New("no recording in progress")
)

// Result is one transcription update from the engine. Partial results
// overwrite each other; a final result ends the stream.
type Result struct {
	Text  string
	Final bool
	Err   error
}

// Engine is the recognizer surface the session drives.
type Engine interface {
	// Available reports whether the recognizer can take a session now.
	Available() bool
	// Authorize requests speech permission. false with nil error means
	// the user denied it.
	Authorize(ctx context.Context) (bool, error)
	// Open acquires the audio input and starts a recognition stream.
	Open(ctx context.Context, locale string) (Stream, error)
}

// Stream is one open recognition request. The session owns it
// exclusively and closes it exactly once.
type Stream interface {
	Results() <-chan Result
	// EndAudio signals end of input; the final result follows.
	EndAudio() error
	// Close abandons the stream and releases audio resources.
	Close() error
}

// Snapshot is an observable view of the session for presentation.
type Snapshot struct {
	State State
	Text  string
	Err   error
}

// Session is the capture state machine. All transitions are serialized
// by its mutex; observers consume Snapshots from Updates.
type Session struct {
	engine Engine
	locale string

	mu         sync.Mutex
	state      State
	text       string
	lastErr    error
	authorized bool
	denied     bool
	stream     *ownedStream
	epoch      int
	final      chan struct{}

	updates chan Snapshot
}

// New creates an idle session over the given engine.
func New(engine Engine, locale string) *Session {
	return &Session{
		engine:  engine,
		locale:  locale,
		updates: make(chan Snapshot, 64),
	}
}

// Updates delivers state snapshots as they change. When the consumer
// lags, older snapshots are dropped; the latest always lands.
func (s *Session) Updates() <-chan Snapshot { return s.updates }

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{State: s.state, Text: s.text, Err: s.lastErr}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Text returns the latest partial (or committed) transcription.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Start begins a new capture. Any previous session is cancelled and
// released first. An unavailable recognizer fails immediately without
// acquiring anything; an unauthorized one goes through the permission
// prompt before recording.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stream != nil {
		s.teardownLocked()
		s.text = ""
	}
	s.lastErr = nil

	if !s.engine.Available() {
		s.failLocked(ErrUnavailable)
		s.mu.Unlock()
		return ErrUnavailable
	}
	if s.denied {
		s.failLocked(ErrPermissionDenied)
		s.mu.Unlock()
		return ErrPermissionDenied
	}

	if !s.authorized {
		s.state = AwaitingAuthorization
		s.pushLocked()
		s.mu.Unlock()

		granted, err := s.engine.Authorize(ctx)

		s.mu.Lock()
		if err != nil || !granted {
			// An explicit denial sticks for the process lifetime;
			// a transport error does not.
			s.denied = err == nil
			s.failLocked(ErrPermissionDenied)
			s.mu.Unlock()
			return ErrPermissionDenied
		}
		s.authorized = true
	}

	// Each start attempt claims its own epoch. A newer start, stop or
	// cancel moves the epoch on, so only the most recent opener adopts
	// its stream; slower ones close theirs.
	s.epoch++
	epoch := s.epoch
	s.mu.Unlock()

	raw, err := s.engine.Open(ctx, s.locale)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		// Superseded while the stream was opening: do not adopt it.
		if err == nil {
			raw.Close()
		}
		return nil
	}
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", ErrEngineStart, err)
		s.failLocked(wrapped)
		return wrapped
	}

	owned := &ownedStream{Stream: raw}
	s.stream = owned
	s.state = Recording
	s.text = ""
	s.final = make(chan struct{})
	go s.consume(owned, epoch)
	s.pushLocked()
	return nil
}

// Stop signals end-of-audio and waits for the final transcription. The
// last emitted text, partial or final, is the committed input text; the
// stream is released on every path out of here.
func (s *Session) Stop(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.state != Recording || s.stream == nil {
		text := s.text
		s.mu.Unlock()
		return text, ErrNotRecording
	}
	s.state = Finalizing
	st := s.stream
	final := s.final
	s.pushLocked()
	s.mu.Unlock()

	if err := st.EndAudio(); err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state == Finalizing {
			s.state = Idle
			s.teardownLocked()
			s.pushLocked()
		}
		return s.text, nil
	}

	select {
	case <-final:
	case <-ctx.Done():
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state == Finalizing {
			s.state = Idle
			s.teardownLocked()
			s.pushLocked()
		}
		return s.text, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text, nil
}

// Cancel abandons the in-flight recognition, discards partial text and
// releases audio resources.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
	s.text = ""
	s.lastErr = nil
	s.state = Idle
	s.pushLocked()
}

// consume applies stream results for the recording identified by epoch.
// Results arriving after a cancel or restart are stale and ignored.
func (s *Session) consume(st *ownedStream, epoch int) {
	for res := range st.Results() {
		s.mu.Lock()
		if s.epoch != epoch {
			s.mu.Unlock()
			return
		}
		switch {
		case res.Err != nil:
			if s.state == Finalizing {
				// The last partial stands as the committed text.
				s.state = Idle
			} else {
				s.state = Failed
				s.lastErr = res.Err
				s.text = ""
			}
			s.teardownLocked()
			s.pushLocked()
			s.mu.Unlock()
			return
		case res.Final:
			if res.Text != "" {
				s.text = res.Text
			}
			s.state = Idle
			s.teardownLocked()
			s.pushLocked()
			s.mu.Unlock()
			return
		default:
			s.text = res.Text
			s.pushLocked()
			s.mu.Unlock()
		}
	}

	// Stream ended without a final result.
	s.mu.Lock()
	if s.epoch == epoch {
		s.state = Idle
		s.teardownLocked()
		s.pushLocked()
	}
	s.mu.Unlock()
}

// teardownLocked releases the active stream exactly once, invalidates
// in-flight readers and wakes any waiter in Stop.
func (s *Session) teardownLocked() {
	if s.stream != nil {
		s.stream.Close()
		s.stream = nil
	}
	s.epoch++
	if s.final != nil {
		close(s.final)
		s.final = nil
	}
}

func (s *Session) failLocked(reason error) {
	s.state = Failed
	s.lastErr = reason
	s.pushLocked()
}

func (s *Session) pushLocked() {
	snap := Snapshot{State: s.state, Text: s.text, Err: s.lastErr}
	select {
	case s.updates <- snap:
	default:
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- snap:
		default:
		}
	}
}

// ownedStream guards the underlying stream so Close runs exactly once
// no matter how many exit paths reach it.
type ownedStream struct {
	Stream
	once sync.Once
	err  error
}

func (o *ownedStream) Close() error {
	o.once.Do(func() { o.err = o.Stream.Close() })
	return o.err
}
