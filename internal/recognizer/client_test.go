package recognizer

import (
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
)

// startMockDaemon creates a Unix socket that accepts one connection,
// reads a command, and writes back a canned response followed by any
// events.
func startMockDaemon(t *testing.T, response Response, events ...Event) (string, func()) {
	t.Helper()

	dir := t.TempDir()
	sockPath := filepath.Join(dir, "test.sock")

	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		buf := make([]byte, 4096)
		if _, err := conn.Read(buf); err != nil {
			return
		}

		data, _ := json.Marshal(response)
		data = append(data, '\n')
		conn.Write(data)

		for _, ev := range events {
			data, _ := json.Marshal(ev)
			data = append(data, '\n')
			conn.Write(data)
		}
	}()

	return sockPath, func() {
		ln.Close()
		os.Remove(sockPath)
	}
}

func TestConnectMissingSocket(t *testing.T) {
	_, err := Connect(filepath.Join(t.TempDir(), "absent.sock"))
	if err == nil {
		t.Fatal("expected error for missing socket")
	}
}

func TestSendCommand(t *testing.T) {
	sockPath, cleanup := startMockDaemon(t, Response{OK: true, SessionID: "sess-1", Status: "idle"})
	defer cleanup()

	client, err := Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	resp, err := client.SendCommand(Command{Cmd: "status"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !resp.OK {
		t.Error("response should be ok")
	}
	if resp.SessionID != "sess-1" {
		t.Errorf("sessionId = %q", resp.SessionID)
	}
}

func TestSendCommandDaemonError(t *testing.T) {
	sockPath, cleanup := startMockDaemon(t, Response{OK: false, Error: "microphone busy"})
	defer cleanup()

	client, err := Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	_, err = client.SendCommand(Command{Cmd: "start"})
	var derr *DaemonError
	if !errors.As(err, &derr) {
		t.Fatalf("err = %v, want DaemonError", err)
	}
	if derr.Message != "microphone busy" {
		t.Errorf("message = %q", derr.Message)
	}
}

func TestSubscribeAndReadEvents(t *testing.T) {
	final := true
	sockPath, cleanup := startMockDaemon(t, Response{OK: true},
		Event{Event: "partial", Text: "напомни"},
		Event{Event: "final", Text: "напомни позвонить маме", Final: &final},
	)
	defer cleanup()

	client, err := Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if err := client.Subscribe("partial", "final"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	ev, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Event != "partial" || ev.Text != "напомни" {
		t.Errorf("event = %+v", ev)
	}

	ev, err = client.ReadEvent()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Event != "final" || ev.Final == nil || !*ev.Final {
		t.Errorf("event = %+v", ev)
	}
}

func TestCommandOmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(Command{Cmd: "cancel"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if len(raw) != 1 {
		t.Errorf("extra fields serialized: %v", raw)
	}
	if raw["cmd"] != "cancel" {
		t.Errorf("cmd = %v", raw["cmd"])
	}
}
