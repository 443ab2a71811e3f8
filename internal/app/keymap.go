package app

// Key binding constants used in handleKey.
const (
	KeyCtrlC  = "ctrl+c"
	KeyCtrlR  = "ctrl+r"
	KeyEnter  = "enter"
	KeyEsc    = "esc"
	KeyTab    = "tab"
	KeyUp     = "up"
	KeyDown   = "down"
	KeyBacksp = "backspace"
	KeyCtrlU  = "ctrl+u"
)
