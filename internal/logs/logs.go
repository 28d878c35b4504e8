// Package logs reads frame log files for the dashboard's log routes.
//
// Paths are confined to an optional root directory. Files that sniff as
// archives are refused rather than streamed as text.
package logs

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"
)

var (
	// ErrOutsideRoot is returned for paths that escape the configured root.
	ErrOutsideRoot = errors.New("path outside log root")
	// ErrArchive is returned when a log file is a compressed archive.
	ErrArchive = errors.New("log file is an archive")
	// ErrNoVersions is returned when no file matches a version lookup.
	ErrNoVersions = errors.New("no log versions found")
)

// sniffLen is how many leading bytes filetype needs to classify a file.
const sniffLen = 262

// Reader serves log files below Root. An empty Root allows any absolute path.
type Reader struct {
	Root string
}

// Resolve cleans path and checks it stays under the root.
func (r Reader) Resolve(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if r.Root == "" {
		return filepath.Abs(trimmed)
	}
	root, err := filepath.Abs(r.Root)
	if err != nil {
		return "", fmt.Errorf("resolve log root: %w", err)
	}
	if !filepath.IsAbs(trimmed) {
		trimmed = filepath.Join(root, trimmed)
	}
	cleaned := filepath.Clean(trimmed)
	rel, err := filepath.Rel(root, cleaned)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return cleaned, nil
}

// ReadLines returns lines start..end of the file, 1-based and inclusive.
// end <= 0 reads to the end of the file. A negative start returns the last
// -start lines instead.
func (r Reader) ReadLines(path string, start, end int) ([]string, error) {
	resolved, err := r.Resolve(path)
	if err != nil {
		return nil, err
	}
	file, err := openText(resolved)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if start < 0 {
		return tail(file, -start)
	}
	if start == 0 {
		start = 1
	}

	lines := []string{}
	scanner := newScanner(file)
	n := 0
	for scanner.Scan() {
		n++
		if n < start {
			continue
		}
		if end > 0 && n > end {
			break
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return lines, nil
}

// CountLines returns the number of lines in the file, or -1 when it does
// not exist.
func (r Reader) CountLines(path string) (int, error) {
	resolved, err := r.Resolve(path)
	if err != nil {
		return 0, err
	}
	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return -1, nil
		}
		return 0, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	count := 0
	scanner := newScanner(file)
	for scanner.Scan() {
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read log: %w", err)
	}
	return count, nil
}

// Versions lists filename and its rotated siblings (filename.1, ...) that are
// readable as text. The current file comes first, then rotations in order.
func (r Reader) Versions(filename string) ([]string, error) {
	resolved, err := r.Resolve(filename)
	if err != nil {
		return nil, err
	}
	dir, base := filepath.Split(resolved)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoVersions
		}
		return nil, fmt.Errorf("list log dir: %w", err)
	}

	var versions []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (name != base && !strings.HasPrefix(name, base+".")) {
			continue
		}
		full := filepath.Join(dir, name)
		if archived, err := isArchive(full); err != nil || archived {
			continue
		}
		versions = append(versions, full)
	}
	if len(versions) == 0 {
		return nil, ErrNoVersions
	}
	sort.Slice(versions, func(i, j int) bool {
		if len(versions[i]) != len(versions[j]) {
			return len(versions[i]) < len(versions[j])
		}
		return versions[i] < versions[j]
	})
	return versions, nil
}

func openText(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		file.Close()
		return nil, fmt.Errorf("read log: %w", err)
	}
	if filetype.IsArchive(head[:n]) {
		file.Close()
		return nil, ErrArchive
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("rewind log: %w", err)
	}
	return file, nil
}

func isArchive(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return filetype.IsArchive(head[:n]), nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}

// tail keeps the last maxLines lines in a ring buffer.
func tail(r io.Reader, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return []string{}, nil
	}
	ring := make([]string, maxLines)
	scanner := newScanner(r)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}
