// Package diag defines the shared diagnostic record used by the
// parser and the CLI, plus the colored terminal report format
// spec.md's error-handling design requires.
package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/tinylisp/lispc/internal/token"
)

// Kind distinguishes a hard parse error (aborts the pipeline before
// codegen) from a warning (global redefinition; never aborts).
type Kind int

const (
	ErrorKind Kind = iota
	WarningKind
)

func (k Kind) String() string {
	if k == WarningKind {
		return "Warning"
	}
	return "Error"
}

// Record is one diagnostic: its severity, the offending token, and a
// human-readable message.
type Record struct {
	Kind    Kind
	Token   token.Token
	Message string
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow, color.Bold)
	sourceColor  = color.New(color.Faint)
	caretColor   = color.New(color.FgRed)
	stageColor   = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
)

// Report writes every record to w using spec.md §7's three-line
// format:
//
//	<kind> [<line>,<col>]: <message>
//	<offending source line>
//	<spaces>^^^ (length = max(end_col-start_col, 1))
func Report(w io.Writer, source string, records []Record) {
	lines := strings.Split(source, "\n")
	for _, r := range records {
		kindColor := errorColor
		if r.Kind == WarningKind {
			kindColor = warnColor
		}
		kindColor.Fprintf(w, "%s ", r.Kind)
		fmt.Fprintf(w, "[%d,%d]: %s\n", r.Token.Loc.Start.Line, r.Token.Loc.Start.Col, r.Message)

		lineIdx := r.Token.Loc.Start.Line - 1
		if lineIdx >= 0 && lineIdx < len(lines) {
			sourceColor.Fprintln(w, lines[lineIdx])
		}

		caretLen := r.Token.Loc.End.Col - r.Token.Loc.Start.Col
		if caretLen < 1 {
			caretLen = 1
		}
		caretColor.Fprintln(w, strings.Repeat(" ", r.Token.Loc.Start.Col-1)+strings.Repeat("^", caretLen))
	}
}

// Stage prints a narration banner for one compiler stage, matching
// the original CLI's transcript style ("--- Parsing source code ---").
func Stage(w io.Writer, format string, args ...interface{}) {
	stageColor.Fprintf(w, "--- "+format+" ---\n", args...)
}

// Success prints a green completion banner.
func Success(w io.Writer, format string, args ...interface{}) {
	successColor.Fprintf(w, format+"\n", args...)
}

// HasErrors reports whether any record in records is an ErrorKind
// (warnings alone never abort the pipeline).
func HasErrors(records []Record) bool {
	for _, r := range records {
		if r.Kind == ErrorKind {
			return true
		}
	}
	return false
}
