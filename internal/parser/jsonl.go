package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/jeffbridwell/costmetrics/internal/model"
)

// Discard classifies why a line produced no usage record. The scan never
// aborts on a discard; the reason exists so the skip policy is testable.
type Discard int

const (
	// DiscardNone means the line yielded a record.
	DiscardNone Discard = iota
	// DiscardMalformed means the line was not valid JSON.
	DiscardMalformed
	// DiscardNoUsage means the record carries no usage block, e.g. a
	// user message. It contributes nothing and is not an error.
	DiscardNoUsage
)

// rawLine represents the raw JSON structure of one JSONL line.
type rawLine struct {
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
	Message   struct {
		Model string          `json:"model"`
		Usage json.RawMessage `json:"usage"`
	} `json:"message"`
}

type usageBlock struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
}

// ParseLine parses a single JSONL line into a usage record. The usage block
// must be present and non-empty; a block with explicit zero (or negative)
// token fields is kept as given.
func ParseLine(line []byte) (model.UsageRecord, Discard) {
	var raw rawLine
	if err := json.Unmarshal(line, &raw); err != nil {
		return model.UsageRecord{}, DiscardMalformed
	}

	u := bytes.TrimSpace(raw.Message.Usage)
	if len(u) == 0 || bytes.Equal(u, []byte("null")) || bytes.Equal(u, []byte("{}")) {
		return model.UsageRecord{}, DiscardNoUsage
	}

	var usage usageBlock
	if err := json.Unmarshal(u, &usage); err != nil {
		return model.UsageRecord{}, DiscardMalformed
	}

	return model.UsageRecord{
		Timestamp: raw.Timestamp,
		SessionID: raw.SessionID,
		Model:     raw.Message.Model,
		Usage: model.TokenUsage{
			InputTokens:              usage.InputTokens,
			OutputTokens:             usage.OutputTokens,
			CacheReadInputTokens:     usage.CacheReadInputTokens,
			CacheCreationInputTokens: usage.CacheCreationInputTokens,
		},
	}, DiscardNone
}

// Stats counts the lines a file scan discarded.
type Stats struct {
	Malformed int
	NoUsage   int
}

// ParseFile parses a single JSONL file, folding each line through ParseLine
// and dropping discarded lines.
func ParseFile(path string) ([]model.UsageRecord, Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, err
	}
	defer file.Close()

	var records []model.UsageRecord
	var stats Stats

	scanner := bufio.NewScanner(file)

	// Increase buffer size for large lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		rec, discard := ParseLine(line)
		switch discard {
		case DiscardMalformed:
			stats.Malformed++
		case DiscardNoUsage:
			stats.NoUsage++
		default:
			records = append(records, rec)
		}
	}

	return records, stats, scanner.Err()
}

// Scanner walks a projects directory and groups parsed records by role.
type Scanner struct {
	dir     string
	resolve func(path string) string
	log     logrus.FieldLogger
}

// NewScanner returns a scanner over dir. resolve maps a file path to its
// role label.
func NewScanner(dir string, resolve func(path string) string, log logrus.FieldLogger) *Scanner {
	return &Scanner{dir: dir, resolve: resolve, log: log}
}

// files finds all JSONL files under the projects directory. A missing or
// partially unreadable directory yields whatever was found before the
// problem.
func (s *Scanner) files() []string {
	var files []string
	_ = filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			s.log.WithError(err).WithField("path", path).Debug("skipping unreadable path")
			return nil
		}
		if !info.IsDir() && filepath.Ext(path) == ".jsonl" {
			files = append(files, path)
		}
		return nil
	})
	return files
}

// Groups parses every session file and returns the records grouped by role,
// sorted by role name so repeated runs see the same order. File-level
// failures are logged and skipped; Groups never fails.
func (s *Scanner) Groups() []model.SourceGroup {
	byRole := make(map[string][]model.UsageRecord)

	for _, path := range s.files() {
		role := s.resolve(path)
		records, stats, err := ParseFile(path)
		if err != nil {
			s.log.WithError(err).WithField("file", path).Warn("skipping session file")
			continue
		}
		if stats.Malformed > 0 {
			s.log.WithFields(logrus.Fields{
				"file":      path,
				"malformed": stats.Malformed,
			}).Debug("dropped malformed lines")
		}
		byRole[role] = append(byRole[role], records...)
	}

	roles := make([]string, 0, len(byRole))
	for role := range byRole {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	groups := make([]model.SourceGroup, 0, len(roles))
	for _, role := range roles {
		groups = append(groups, model.SourceGroup{Role: role, Records: byRole[role]})
	}
	return groups
}
