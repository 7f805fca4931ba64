package session

// Browser keyCode values the controller reacts to. Letters arrive as their
// uppercase ASCII codes.
const (
	KeyForward   = 'W'
	KeyBack      = 'S'
	KeyLeft      = 'A'
	KeyRight     = 'D'
	KeyLiftUp    = 'R'
	KeyLiftDown  = 'F'
	KeyHeadUp    = 'T'
	KeyHeadDown  = 'G'
	KeyDock      = 'H'
	KeySpeak     = ' '
	KeyDigitZero = '0'
	KeyDigitNine = '9'
)

// isDigit reports whether code is one of the animation keys '0'..'9'.
func isDigit(code int) bool {
	return code >= KeyDigitZero && code <= KeyDigitNine
}
