package app

import (
	"remi/internal/capture"
	"remi/internal/timeline"
)

// CaptureUpdateMsg wraps a snapshot streamed from the capture session.
type CaptureUpdateMsg struct {
	Snapshot capture.Snapshot
}

// CaptureStartedMsg is sent when a capture attempt resolved. Err is nil
// when recording actually began.
type CaptureStartedMsg struct {
	Err error
}

// CaptureStoppedMsg carries the committed transcript of a stopped
// capture. Text may be non-empty even when Err is set.
type CaptureStoppedMsg struct {
	Text string
	Err  error
}

// AssistantReplyMsg carries the assistant turn produced off-thread for
// a submitted message.
type AssistantReplyMsg struct {
	Message timeline.Message
}

// UtteranceSavedMsg reports the history write for a committed capture.
type UtteranceSavedMsg struct {
	Err error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
