// Package asmwriter buffers a generated NASM program's two sections
// and consolidates them into the final .asm file, grounded directly
// on the original compiler's two-temp-file-then-concatenate scheme.
package asmwriter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Writer owns a pair of temporary files for the "section .data" and
// "section .text" bodies of one compile, and produces the final
// assembly file on Consolidate.
type Writer struct {
	prefix string

	dataFile *os.File
	textFile *os.File

	dataFilename string
	textFilename string
}

// New creates the two temporary files backing prefix. The caller must
// eventually call Consolidate (success) or Close (failure cleanup).
func New(prefix string) (*Writer, error) {
	dataFilename := prefix + ".data.tmp.s"
	textFilename := prefix + ".text.tmp.s"

	dataFile, err := os.Create(dataFilename)
	if err != nil {
		return nil, fmt.Errorf("asmwriter: creating data temp file: %w", err)
	}
	textFile, err := os.Create(textFilename)
	if err != nil {
		dataFile.Close()
		os.Remove(dataFilename)
		return nil, fmt.Errorf("asmwriter: creating text temp file: %w", err)
	}

	return &Writer{
		prefix:       prefix,
		dataFile:     dataFile,
		textFile:     textFile,
		dataFilename: dataFilename,
		textFilename: textFilename,
	}, nil
}

// WriteText writes one formatted line to the .text buffer. Lines that
// don't open with '.' and don't contain ':' (i.e. anything but a
// directive or a label) are indented with a tab.
func (w *Writer) WriteText(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	if !strings.HasPrefix(line, ".") && !strings.Contains(line, ":") {
		fmt.Fprint(w.textFile, "\t")
	}
	fmt.Fprintln(w.textFile, line)
}

// WriteData writes one formatted line to the .data buffer, unindented.
func (w *Writer) WriteData(format string, args ...interface{}) {
	fmt.Fprintln(w.dataFile, fmt.Sprintf(format, args...))
}

// Consolidate flushes both temp files, concatenates them into
// "<prefix>.asm" under the documented section layout, and removes the
// temporary files.
func (w *Writer) Consolidate() error {
	if err := w.dataFile.Sync(); err != nil {
		return fmt.Errorf("asmwriter: flushing data file: %w", err)
	}
	if err := w.textFile.Sync(); err != nil {
		return fmt.Errorf("asmwriter: flushing text file: %w", err)
	}
	w.dataFile.Close()
	w.textFile.Close()

	finalFilename := w.prefix + ".asm"
	final, err := os.Create(finalFilename)
	if err != nil {
		return fmt.Errorf("asmwriter: creating final assembly file: %w", err)
	}
	defer final.Close()

	fmt.Fprintf(final, "; Generated Assembly File: %s\n\n", finalFilename)

	fmt.Fprintln(final, "section .data")
	if err := appendFile(final, w.dataFilename); err != nil {
		return err
	}

	fmt.Fprintln(final, "\nsection .text")
	fmt.Fprintln(final, "global _start")
	fmt.Fprintln(final)
	if err := appendFile(final, w.textFilename); err != nil {
		return err
	}

	os.Remove(w.dataFilename)
	os.Remove(w.textFilename)
	return nil
}

// Close discards the writer's temporary files without consolidating;
// used on a failed compile so no stray .tmp.s files are left behind.
func (w *Writer) Close() {
	w.dataFile.Close()
	w.textFile.Close()
	os.Remove(w.dataFilename)
	os.Remove(w.textFilename)
}

func appendFile(dest *os.File, filename string) error {
	src, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("asmwriter: opening %s for consolidation: %w", filename, err)
	}
	defer src.Close()

	buf := make([]byte, 4096)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := dest.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("asmwriter: writing consolidated output: %w", writeErr)
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return fmt.Errorf("asmwriter: reading %s for consolidation: %w", filename, readErr)
		}
	}
	return nil
}
