package trace

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/Readm/pipeview/core"
)

// ParseMemoryDump reads the "<address> <value>" per-line memory image.
// Blank lines are skipped; any other line shape is malformed.
func ParseMemoryDump(raw []byte) ([]core.MemorySnapshot, error) {
	entries := make([]core.MemorySnapshot, 0)
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, malformed(line-1, "", "memory line %d: expected \"<address> <value>\", got %q", line, text)
		}
		entries = append(entries, core.MemorySnapshot{Address: fields[0], Value: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, malformed(-1, "", "%v", err)
	}
	return entries, nil
}
