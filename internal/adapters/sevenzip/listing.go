package sevenzip

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mcdonaldj/gunzip/internal/model"
)

// listingSeparator precedes the first entry block of "7z l -slt" output.
const listingSeparator = "----------"

// modifiedLayout is the timestamp format used by the Modified key. Newer
// releases append fractional seconds, which are ignored.
const modifiedLayout = "2006-01-02 15:04:05"

// ParseListing parses technical listing output into archive contents.
// Output without the separator line yields empty contents.
func ParseListing(r io.Reader) (*model.ArchiveContents, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var entries []model.ArchiveEntry
	found := false
	block := make(map[string]string)
	flush := func() {
		if entry, ok := entryFromBlock(block); ok {
			entries = append(entries, entry)
		}
		clear(block)
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !found {
			if strings.TrimSpace(line) == listingSeparator {
				found = true
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		block[strings.TrimSpace(key)] = strings.TrimPrefix(value, " ")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading listing: %w", err)
	}
	flush()

	return model.NewContents(entries), nil
}

// entryFromBlock converts one key/value block. Blocks without Path are dropped.
func entryFromBlock(block map[string]string) (model.ArchiveEntry, bool) {
	path, ok := block["Path"]
	if !ok || model.NormalizePath(path) == "" {
		return model.ArchiveEntry{}, false
	}

	isDir := block["Folder"] == "+"
	if _, hasFolder := block["Folder"]; !hasFolder {
		isDir = strings.HasPrefix(block["Attributes"], "D")
	}

	entry := model.NewEntry(path, isDir, parseSize(block["Size"]))
	if v, ok := block["Packed Size"]; ok && strings.TrimSpace(v) != "" {
		packed := parseSize(v)
		entry.PackedSize = &packed
	}
	if v := strings.TrimSpace(block["Modified"]); len(v) >= len(modifiedLayout) {
		if t, err := time.ParseInLocation(modifiedLayout, v[:len(modifiedLayout)], time.Local); err == nil {
			entry.ModTime = &t
		}
	}
	entry.Permissions = strings.TrimSpace(block["Attributes"])
	entry.Encrypted = block["Encrypted"] == "+"
	return entry, true
}

func parseSize(v string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
