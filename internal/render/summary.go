package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/coverage-cli/internal/coverage"
)

var statusPrinter = message.NewPrinter(language.AmericanEnglish)

// StatusLine renders a batch summary as a one-line human-readable
// status for terminals and the HTTP API.
func StatusLine(s coverage.Summary) string {
	if s.TotalStates == 0 {
		return "no regions analyzed"
	}
	line := statusPrinter.Sprintf("coverage in %d of %d states, %d features",
		s.StatesWithData, s.TotalStates, s.TotalFeatures)
	if s.FailedCount > 0 {
		line += statusPrinter.Sprintf(" (%d regions failed)", s.FailedCount)
	}
	return line
}
