package capture

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"remi/internal/recognizer"
)

// DaemonEngine drives the external recognizer daemon over its Unix
// socket. Each recording opens a command connection plus an event
// subscription, mirroring how the daemon expects to be spoken to.
type DaemonEngine struct {
	Socket string
}

// Available dials the daemon and asks for its status. Any failure to
// reach it counts as unavailable.
func (e *DaemonEngine) Available() bool {
	client, err := recognizer.Connect(e.Socket)
	if err != nil {
		return false
	}
	defer client.Close()

	resp, err := client.SendCommand(recognizer.Command{Cmd: "status"})
	if err != nil {
		return false
	}
	return resp.Available == nil || *resp.Available
}

// Authorize asks the daemon for speech permission. A daemon-reported
// refusal is a denial, not an error.
func (e *DaemonEngine) Authorize(ctx context.Context) (bool, error) {
	client, err := recognizer.Connect(e.Socket)
	if err != nil {
		return false, err
	}
	defer client.Close()

	resp, err := client.SendCommand(recognizer.Command{Cmd: "authorize"})
	if err != nil {
		var derr *recognizer.DaemonError
		if errors.As(err, &derr) {
			return false, nil
		}
		return false, err
	}
	return resp.Authorized == nil || *resp.Authorized, nil
}

// Open subscribes to transcription events and starts a recording.
func (e *DaemonEngine) Open(ctx context.Context, locale string) (Stream, error) {
	cmdClient, err := recognizer.Connect(e.Socket)
	if err != nil {
		return nil, err
	}
	evClient, err := recognizer.Connect(e.Socket)
	if err != nil {
		cmdClient.Close()
		return nil, err
	}
	// Subscribe before starting so no early partial is missed.
	if err := evClient.Subscribe("partial", "final", "error"); err != nil {
		evClient.Close()
		cmdClient.Close()
		return nil, err
	}
	if _, err := cmdClient.SendCommand(recognizer.Command{Cmd: "start", Locale: locale}); err != nil {
		evClient.Close()
		cmdClient.Close()
		return nil, err
	}

	st := &daemonStream{
		cmd:     cmdClient,
		events:  evClient,
		results: make(chan Result, 16),
		done:    make(chan struct{}),
	}
	go st.read()
	return st, nil
}

type daemonStream struct {
	cmd     *recognizer.Client
	events  *recognizer.Client
	results chan Result
	done    chan struct{}
}

func (st *daemonStream) Results() <-chan Result { return st.results }

func (st *daemonStream) EndAudio() error {
	_, err := st.cmd.SendCommand(recognizer.Command{Cmd: "stop"})
	return err
}

func (st *daemonStream) Close() error {
	close(st.done)
	// Best effort: the daemon may already be gone.
	if _, err := st.cmd.SendCommand(recognizer.Command{Cmd: "cancel"}); err != nil {
		log.Debug().Err(err).Msg("recognizer cancel failed")
	}
	st.events.Close()
	return st.cmd.Close()
}

func (st *daemonStream) read() {
	defer close(st.results)
	for {
		ev, err := st.events.ReadEvent()
		if err != nil {
			// Closed connection after cancel is the normal shutdown path.
			return
		}
		switch ev.Event {
		case "partial":
			st.deliver(Result{Text: ev.Text})
		case "final":
			st.deliver(Result{Text: ev.Text, Final: true})
			return
		case "error":
			st.deliver(Result{Err: errors.New(ev.Message)})
			return
		}
	}
}

// deliver sends without wedging: once the stream is closed, nobody is
// reading results anymore.
func (st *daemonStream) deliver(res Result) {
	select {
	case st.results <- res:
	case <-st.done:
	}
}
