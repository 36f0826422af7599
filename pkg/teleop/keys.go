package teleop

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Key is a key symbol as reported by the terminal, e.g. "w", " ", "up"
// or "ctrl+c".
type Key string

const (
	KeySpeedUp    Key = "+"
	KeySpeedUpAlt Key = "="
	KeySpeedDown  Key = "-"

	KeyForward  Key = "w"
	KeyBackward Key = "s"
	KeyLeft     Key = "a"
	KeyRight    Key = "d"
	KeyStop     Key = " "

	KeyCameraUp    Key = "up"
	KeyCameraDown  Key = "down"
	KeyCameraLeft  Key = "left"
	KeyCameraRight Key = "right"

	KeyPhoto      Key = "t"
	KeyMusic      Key = "m"
	KeyDirectives Key = "r"
	KeySpeech     Key = "k"

	KeyInterrupt Key = "ctrl+c"
)

// Normalize lower-cases single letters so controls ignore caps lock.
func (k Key) Normalize() Key {
	r, size := utf8.DecodeRuneInString(string(k))
	if size == len(k) && unicode.IsLetter(r) {
		return Key(strings.ToLower(string(k)))
	}
	return k
}

func (k Key) String() string {
	if k == KeyStop {
		return "space"
	}
	return string(k)
}

func (k Key) steers() bool {
	return k == KeyLeft || k == KeyRight
}
