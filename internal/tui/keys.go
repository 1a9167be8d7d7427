package tui

// Key names as reported by tea.KeyMsg.String().
const (
	keyCtrlC    = "ctrl+c"
	keyCtrlR    = "ctrl+r"
	keyQuit     = "q"
	keyEsc      = "esc"
	keyEnter    = "enter"
	keyTab      = "tab"
	keyShiftTab = "shift+tab"
	keySpace    = " "
	keyLeft     = "left"
	keyRight    = "right"
	keyRetry    = "r"
	keyNext     = "n"
	keyPrev     = "p"
	keyFirst    = "g"
	keyLast     = "G"
)

// helpText is the key legend shown under the results.
const helpText = "tab: next field  ↑/↓: select  enter: details  n/p: next/prev page  g/G: first/last  1-9: page  r: retry  q: quit"
