// Package recognizer provides the client and protocol types for
// communicating with the speech recognizer daemon over a Unix socket
// using NDJSON.
package recognizer

// Command is sent from a client to the daemon.
type Command struct {
	Cmd    string   `json:"cmd"`
	Locale string   `json:"locale,omitempty"`
	Events []string `json:"events,omitempty"`
}

// Response is returned by the daemon after processing a command.
type Response struct {
	OK         bool   `json:"ok"`
	SessionID  string `json:"sessionId,omitempty"`
	Authorized *bool  `json:"authorized,omitempty"`
	Available  *bool  `json:"available,omitempty"`
	Recording  *bool  `json:"recording,omitempty"`
	Error      string `json:"error,omitempty"`
	Status     string `json:"status,omitempty"`
}

// Event is streamed from the daemon to subscribed clients.
type Event struct {
	Event     string   `json:"event"`
	Text      string   `json:"text,omitempty"`
	Final     *bool    `json:"final,omitempty"`
	SessionID string   `json:"sessionId,omitempty"`
	Level     *float32 `json:"level,omitempty"`
	Recording *bool    `json:"recording,omitempty"`
	Message   string   `json:"message,omitempty"`
	Transient *bool    `json:"transient,omitempty"`
}
