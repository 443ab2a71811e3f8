package recognizer

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// DaemonError carries an error string reported by the daemon in a response.
type DaemonError struct {
	Message string
}

func (e *DaemonError) Error() string {
	return "recognizer daemon: " + e.Message
}

// SocketPath returns the default recognizer daemon socket path.
func SocketPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "remi", "recognizer.sock")
}

// Client communicates with the recognizer daemon over a Unix socket.
// A client is used either for commands or, after Subscribe, for events;
// mixing both on one connection races the response reader.
type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
	mu      sync.Mutex
}

// Connect dials the daemon Unix socket.
func Connect(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to recognizer: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB line limit

	log.Debug().Str("socket", socketPath).Msg("recognizer connected")
	return &Client{conn: conn, scanner: scanner}, nil
}

// Close shuts down the connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// SendCommand sends a command and reads one response line. A response
// with ok=false is returned alongside a DaemonError carrying its error
// string.
func (c *Client) SendCommand(cmd Command) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(cmd)
	if err != nil {
		return Response{}, fmt.Errorf("marshal command: %w", err)
	}

	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		return Response{}, fmt.Errorf("write command: %w", err)
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return Response{}, fmt.Errorf("read response: %w", err)
		}
		return Response{}, errors.New("connection closed")
	}

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return Response{}, fmt.Errorf("unmarshal response: %w", err)
	}

	log.Debug().Str("cmd", cmd.Cmd).Bool("ok", resp.OK).Msg("recognizer command")
	if !resp.OK {
		return resp, &DaemonError{Message: resp.Error}
	}
	return resp, nil
}

// Subscribe asks the daemon to stream the named event kinds (all kinds
// when none are given) on this connection. Use ReadEvent in a loop
// afterwards.
func (c *Client) Subscribe(events ...string) error {
	_, err := c.SendCommand(Command{Cmd: "subscribe", Events: events})
	return err
}

// ReadEvent reads the next NDJSON event line. Blocks until data arrives.
func (c *Client) ReadEvent() (Event, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return Event{}, fmt.Errorf("read event: %w", err)
		}
		return Event{}, errors.New("connection closed")
	}

	var ev Event
	if err := json.Unmarshal(c.scanner.Bytes(), &ev); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}

	return ev, nil
}
