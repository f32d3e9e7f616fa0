package color

import (
	"os"

	"github.com/muesli/termenv"
)

// ANSI palette indexes
const (
	Red       = "1"
	Green     = "2"
	Cyan      = "6"
	BrightRed = "9"
)

// diagnostics and headers go to stderr, so its capabilities decide
var profile = termenv.NewOutput(os.Stderr).EnvColorProfile()

// EnableColor turns colouring on or off. Turning it on still respects what
// the terminal and NO_COLOR allow.
func EnableColor(enable bool) {
	if !enable {
		profile = termenv.Ascii
		return
	}
	profile = termenv.NewOutput(os.Stderr).EnvColorProfile()
}

func IsColorEnabled() bool {
	return profile != termenv.Ascii
}

// Profile is the colour profile in use; the logger shares it
func Profile() termenv.Profile {
	return profile
}

func Colorize(color, text string) string {
	if !IsColorEnabled() {
		return text
	}
	return profile.String(text).Foreground(profile.Color(color)).String()
}

func RedText(text string) string {
	return Colorize(Red, text)
}

func BrightRedText(text string) string {
	return Colorize(BrightRed, text)
}

func GreenText(text string) string {
	return Colorize(Green, text)
}

func CyanText(text string) string {
	return Colorize(Cyan, text)
}
