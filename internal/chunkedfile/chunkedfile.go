// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chunkedfile provides utilities for testing that binding
// compilation errors are reported for the appropriate bindings.
//
// A chunked file consists of several chunks separated by "---" lines.
// Each line of a chunk is the source text of one binding. Lines
// starting with "%" are directives of the form "%key value" that apply
// to the whole chunk, such as the scope its bindings are compiled in.
// Blank lines and lines starting with "//" are ignored. Text following
// "###" on a binding line is a Go string literal denoting a regular
// expression that should match the failure message of that binding.
//
// Example:
//
//	%scope root
//	Title.ToUpper()
//	Math ### "parse ambiguity"
//	---
//	%scope customers
//	Name + " from " + Address.City
//	_collection ### "untranslatable"
//
// A client test compiles each line of each chunk, then calls
// chunk.GotError for each error that actually occurred, and finally
// chunk.Done. Any discrepancy between the actual and expected errors
// is reported using the client's reporter, which is typically a
// testing.T.
package chunkedfile // import "github.com/tomasmikes/dotvvm/internal/chunkedfile"

import (
	"os"
	"regexp"
	"strconv"
	"strings"
)

// A Line is one binding of a chunk.
type Line struct {
	Num  int    // 1-based line number in the file
	Text string // binding source text, without the expectation
}

// A Chunk is a portion of a chunked file.
// It contains a set of expected errors.
type Chunk struct {
	Directives map[string]string
	Lines      []Line

	filename string
	report   Reporter
	wantErrs map[int]*regexp.Regexp
}

// Reporter is implemented by *testing.T.
type Reporter interface {
	Errorf(format string, args ...any)
}

// Read parses a chunked file and returns its chunks.
// It reports failures using the reporter.
//
// Error messages of the form "file.txt:line: ..." are prefixed
// by a newline so that the Go source position added by (*testing.T).Errorf
// appears on a separate line so as not to confuse editors.
func Read(filename string, report Reporter) []Chunk {
	data, err := os.ReadFile(filename)
	if err != nil {
		report.Errorf("%s", err)
		return nil
	}
	return Parse(filename, data, report)
}

// Parse is like Read but takes the file contents as data.
func Parse(filename string, data []byte, report Reporter) []Chunk {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	var chunks []Chunk
	chunk := newChunk(filename, report)
	for i, line := range strings.Split(text, "\n") {
		num := i + 1
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "---":
			chunks = append(chunks, chunk)
			chunk = newChunk(filename, report)
			continue
		case trimmed == "", strings.HasPrefix(trimmed, "//"):
			continue
		case strings.HasPrefix(trimmed, "%"):
			key, value, _ := strings.Cut(trimmed[1:], " ")
			chunk.Directives[key] = strings.TrimSpace(value)
			continue
		}

		src, rest, found := strings.Cut(line, "###")
		if found {
			rest = strings.TrimSpace(rest)
			pattern, err := strconv.Unquote(rest)
			if err != nil {
				report.Errorf("\n%s:%d: not a quoted regexp: %s", filename, num, rest)
				continue
			}
			rx, err := regexp.Compile(pattern)
			if err != nil {
				report.Errorf("\n%s:%d: %v", filename, num, err)
				continue
			}
			chunk.wantErrs[num] = rx
		}
		chunk.Lines = append(chunk.Lines, Line{Num: num, Text: strings.TrimSpace(src)})
	}
	return append(chunks, chunk)
}

func newChunk(filename string, report Reporter) Chunk {
	return Chunk{
		Directives: make(map[string]string),
		filename:   filename,
		report:     report,
		wantErrs:   make(map[int]*regexp.Regexp),
	}
}

// WantsError reports whether an error is still expected at linenum.
func (chunk *Chunk) WantsError(linenum int) bool {
	_, ok := chunk.wantErrs[linenum]
	return ok
}

// GotError should be called by the client to report an error at a particular line.
// GotError reports unexpected errors to the chunk's reporter.
func (chunk *Chunk) GotError(linenum int, msg string) {
	if rx, ok := chunk.wantErrs[linenum]; ok {
		delete(chunk.wantErrs, linenum)
		if !rx.MatchString(msg) {
			chunk.report.Errorf("\n%s:%d: error %q does not match pattern %q", chunk.filename, linenum, msg, rx)
		}
	} else {
		chunk.report.Errorf("\n%s:%d: unexpected error: %v", chunk.filename, linenum, msg)
	}
}

// Done should be called by the client to indicate that the chunk has no more errors.
// Done reports expected errors that did not occur to the chunk's reporter.
func (chunk *Chunk) Done() {
	for linenum, rx := range chunk.wantErrs {
		chunk.report.Errorf("\n%s:%d: expected error matching %q", chunk.filename, linenum, rx)
	}
}
