package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
)

// DefaultPoll is how often Follow checks for appended lines.
const DefaultPoll = 250 * time.Millisecond

const maxLineSize = 1024 * 1024

// Filter keeps lines containing every term, case-insensitively. An empty
// filter keeps everything.
type Filter []string

// Match reports whether line passes the filter.
func (f Filter) Match(line string) bool {
	lower := strings.ToLower(line)
	return lo.EveryBy(f, func(term string) bool {
		return strings.Contains(lower, strings.ToLower(term))
	})
}

// Last returns up to limit trailing lines of path that pass filter, and the
// offset of the end of the file. A missing file yields no lines.
func Last(path string, limit int, filter Filter) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if info, err := file.Stat(); err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	} else if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}

	var ring []string
	scanner := newScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if !filter.Match(line) {
			continue
		}
		if limit <= 0 {
			continue
		}
		if len(ring) == limit {
			ring = ring[1:]
		}
		ring = append(ring, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}
	return ring, offset, nil
}

// Follow emits lines appended to path after offset until ctx is done. When
// the file shrinks below offset it is read again from the start. Follow
// returns nil on cancellation.
func Follow(ctx context.Context, path string, offset int64, poll time.Duration, filter Filter, emit func(string)) error {
	if poll <= 0 {
		poll = DefaultPoll
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		next, err := readFrom(path, offset, filter, emit)
		if err != nil {
			return err
		}
		offset = next

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func readFrom(path string, offset int64, filter Filter, emit func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			// A partial trailing line is left for the next poll.
			return offset, nil
		}
		if err != nil {
			return offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		line = strings.TrimRight(line, "\r\n")
		if filter.Match(line) {
			emit(line)
		}
	}
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return scanner
}
