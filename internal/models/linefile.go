package models

import (
	"bufio"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	fieldSeparator = ", "
	headerPrefix   = "# memoriesbot "

	// FormatVersion is the line format version written in every store header.
	FormatVersion = 1
)

// FileKind names the schema of a store file.
type FileKind string

const (
	KindChannels FileKind = "channels"
	KindPins     FileKind = "pins"
	KindRoles    FileKind = "roles"
)

// Header returns the version marker written as the first line of a store file.
func Header(kind FileKind) string {
	return headerPrefix + string(kind) + " v" + strconv.Itoa(FormatVersion)
}

// Line is one data line of a store file.
type Line struct {
	Number int
	Text   string
}

// ReadLines lazily yields the data lines of a store file. Blank lines and the
// version header are skipped. A missing file yields nothing. Every call reopens
// the file, so the sequence can be ranged over again.
func ReadLines(path string, kind FileKind) iter.Seq2[Line, error] {
	return func(yield func(Line, error) bool) {
		file, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return
			}
			yield(Line{}, err)
			return
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		number := 0
		seenData := false
		for scanner.Scan() {
			number++
			text := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
			if text == "" {
				continue
			}
			if !seenData && strings.HasPrefix(text, "#") {
				seenData = true
				if err := checkHeader(text, kind); err != nil {
					yield(Line{}, &MalformedRecordError{File: path, Line: number, Reason: err.Error()})
					return
				}
				continue
			}
			seenData = true
			if !yield(Line{Number: number, Text: text}, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(Line{}, fmt.Errorf("read %s: %w", path, err))
		}
	}
}

func checkHeader(text string, kind FileKind) error {
	rest, ok := strings.CutPrefix(text, headerPrefix)
	if !ok {
		return fmt.Errorf("unrecognised header %q", text)
	}
	gotKind, version, ok := strings.Cut(rest, " v")
	if !ok || FileKind(gotKind) != kind {
		return fmt.Errorf("header %q does not describe a %s file", text, kind)
	}
	if v, err := strconv.Atoi(version); err != nil || v != FormatVersion {
		return fmt.Errorf("unsupported format version %q", version)
	}
	return nil
}

// WriteLines atomically replaces path with the header followed by lines.
func WriteLines(path string, kind FileKind, lines []string) error {
	var sb strings.Builder
	sb.WriteString(Header(kind))
	sb.WriteByte('\n')
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmpFile := path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err = file.WriteString(sb.String()); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, path)
}

func splitFields(line string) []string {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

func parseID(name, value string) (uint64, error) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not an unsigned integer", name, value)
	}
	return id, nil
}
