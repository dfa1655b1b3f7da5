package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// formatter colors text unless color output is disabled, in which case the
// plain decoration is used.
type formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

func (f formatter) Sprint(a ...any) string {
	text := fmt.Sprint(a...)
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// noColor honors NO_COLOR (https://no-color.org/) as well as fatih/color's
// terminal detection and the --no-color flag.
func noColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	return color.NoColor
}

var (
	successStyle   = formatter{color.New(color.FgGreen), "", ""}
	errorStyle     = formatter{color.New(color.FgRed), "", ""}
	warningStyle   = formatter{color.New(color.FgYellow), "", ""}
	highlightStyle = formatter{color.New(color.FgCyan), "'", "'"}
	mutedStyle     = formatter{color.New(color.FgHiBlack), "(", ")"}
)
