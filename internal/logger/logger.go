package logger

import (
	"io"
	"os"

	"loxvm/pkg/color"

	"github.com/charmbracelet/log"
)

// Init initializes the logger. Logs go to w, or stderr when w is nil.
func Init(w io.Writer, debug, noColor bool) {
	if w == nil {
		w = os.Stderr
	}

	log.SetDefault(log.NewWithOptions(w,
		log.Options{
			ReportCaller:    true,
			ReportTimestamp: false, // runs are short and output is interleaved with program output
			Prefix:          "LOXVM",
		}))

	log.SetLevel(log.WarnLevel)
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	color.EnableColor(!noColor)
	log.SetColorProfile(color.Profile())
}
