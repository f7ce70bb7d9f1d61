// Package urlfile reads batch input and writes batch results as plain,
// line-delimited text.
package urlfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sundayezeilo/shortenctl/internal/shortener"
)

// DefaultOutputName is the suggested file name for shortened URLs.
const DefaultOutputName = "shortened_urls.txt"

// maxLineSize bounds a single input line; URLs longer than this are rejected.
const maxLineSize = 64 * 1024

// ReadURLs returns one URL per non-blank line, trimmed, in file order.
func ReadURLs(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	var urls []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read urls: %w", err)
	}
	return urls, nil
}

// ReadURLsFile opens path and calls ReadURLs.
func ReadURLsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open urls file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return ReadURLs(f)
}

// WriteShortened writes only the successfully shortened URLs, one per line,
// with no trailing newline. It returns how many were written.
func WriteShortened(w io.Writer, outcomes []shortener.Outcome) (int, error) {
	short := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.OK() {
			short = append(short, o.ShortURL)
		}
	}
	if _, err := io.WriteString(w, strings.Join(short, "\n")); err != nil {
		return 0, fmt.Errorf("failed to write shortened urls: %w", err)
	}
	return len(short), nil
}

// WriteShortenedFile creates (or truncates) path and calls WriteShortened.
func WriteShortenedFile(path string, outcomes []shortener.Outcome) (n int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()
	return WriteShortened(f, outcomes)
}

// WriteReport writes a human-readable block per outcome:
//
//	Original: <url>
//	Shortened: <short url>     (or "Error: <message>")
//
// Blocks are separated by a blank line.
func WriteReport(w io.Writer, outcomes []shortener.Outcome) error {
	bw := bufio.NewWriter(w)
	for i, o := range outcomes {
		if i > 0 {
			_, _ = bw.WriteString("\n")
		}
		_, _ = fmt.Fprintf(bw, "Original: %s\n", o.URL)
		if o.OK() {
			_, _ = fmt.Fprintf(bw, "Shortened: %s\n", o.ShortURL)
		} else {
			_, _ = fmt.Fprintf(bw, "Error: %s\n", o.Message())
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
