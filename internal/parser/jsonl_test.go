package parser

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffbridwell/costmetrics/internal/model"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantDiscard Discard
		wantRecord  model.UsageRecord
	}{
		{
			name: "assistant message with usage",
			line: `{"timestamp":"2025-08-14T09:31:02.123Z","sessionId":"s-1","message":{"model":"claude-sonnet-4-5","usage":{"input_tokens":100,"output_tokens":20,"cache_read_input_tokens":5,"cache_creation_input_tokens":3}}}`,
			wantRecord: model.UsageRecord{
				Timestamp: "2025-08-14T09:31:02.123Z",
				SessionID: "s-1",
				Model:     "claude-sonnet-4-5",
				Usage: model.TokenUsage{
					InputTokens:              100,
					OutputTokens:             20,
					CacheReadInputTokens:     5,
					CacheCreationInputTokens: 3,
				},
			},
		},
		{
			name:        "not json",
			line:        `{"timestamp": oops`,
			wantDiscard: DiscardMalformed,
		},
		{
			name:        "no usage block",
			line:        `{"timestamp":"2025-08-14T09:31:02Z","sessionId":"s-1","message":{"role":"user"}}`,
			wantDiscard: DiscardNoUsage,
		},
		{
			name:        "empty usage object",
			line:        `{"timestamp":"2025-08-14T09:31:02Z","sessionId":"s-1","message":{"usage":{}}}`,
			wantDiscard: DiscardNoUsage,
		},
		{
			name:        "null usage",
			line:        `{"timestamp":"2025-08-14T09:31:02Z","sessionId":"s-1","message":{"usage":null}}`,
			wantDiscard: DiscardNoUsage,
		},
		{
			name: "explicit zero tokens are a present usage block",
			line: `{"timestamp":"2025-08-14T09:31:02Z","sessionId":"s-1","message":{"usage":{"input_tokens":0}}}`,
			wantRecord: model.UsageRecord{
				Timestamp: "2025-08-14T09:31:02Z",
				SessionID: "s-1",
			},
		},
		{
			name: "negative tokens kept as given",
			line: `{"timestamp":"2025-08-14T09:31:02Z","sessionId":"s-1","message":{"usage":{"output_tokens":-7}}}`,
			wantRecord: model.UsageRecord{
				Timestamp: "2025-08-14T09:31:02Z",
				SessionID: "s-1",
				Usage:     model.TokenUsage{OutputTokens: -7},
			},
		},
		{
			name: "missing timestamp still parses",
			line: `{"sessionId":"s-1","message":{"usage":{"input_tokens":1}}}`,
			wantRecord: model.UsageRecord{
				SessionID: "s-1",
				Usage:     model.TokenUsage{InputTokens: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, discard := ParseLine([]byte(tt.line))
			assert.Equal(t, tt.wantDiscard, discard)
			if tt.wantDiscard == DiscardNone {
				assert.Equal(t, tt.wantRecord, rec)
			}
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFile(t *testing.T) {
	content := `{"timestamp":"2025-08-14T09:31:02Z","sessionId":"s-1","message":{"usage":{"input_tokens":100,"output_tokens":20}}}
not json at all

{"timestamp":"2025-08-14T10:00:00Z","sessionId":"s-1","message":{"role":"user"}}
{"timestamp":"2025-08-14T10:02:00Z","sessionId":"s-2","message":{"usage":{"input_tokens":50,"output_tokens":10}}}
`
	path := writeFile(t, t.TempDir(), "session.jsonl", content)

	records, stats, err := ParseFile(path)
	require.NoError(t, err)

	assert.Len(t, records, 2)
	assert.Equal(t, 1, stats.Malformed)
	assert.Equal(t, 1, stats.NoUsage)
	assert.Equal(t, "s-1", records[0].SessionID)
	assert.Equal(t, int64(50), records[1].Usage.InputTokens)
}

func TestParseFileMissing(t *testing.T) {
	_, _, err := ParseFile(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.Error(t, err)
}

func TestScannerGroups(t *testing.T) {
	dir := t.TempDir()
	line := `{"timestamp":"2025-08-14T09:31:02Z","sessionId":"s-1","message":{"usage":{"input_tokens":1}}}` + "\n"

	writeFile(t, dir, "home-user-architect/a/one.jsonl", line+line)
	writeFile(t, dir, "home-user-engineer/b/two.jsonl", line)
	writeFile(t, dir, "home-user-scratch/c/three.jsonl", line)
	writeFile(t, dir, "home-user-scratch/c/notes.txt", "not a session file")

	resolve := func(path string) string {
		switch {
		case strings.Contains(path, "-architect/"):
			return "silas"
		case strings.Contains(path, "-engineer/"):
			return "kade"
		default:
			return "other"
		}
	}

	groups := NewScanner(dir, resolve, testLogger()).Groups()

	require.Len(t, groups, 3)
	// Sorted by role name.
	assert.Equal(t, "kade", groups[0].Role)
	assert.Equal(t, "other", groups[1].Role)
	assert.Equal(t, "silas", groups[2].Role)
	assert.Len(t, groups[2].Records, 2)
	assert.Len(t, groups[0].Records, 1)
}

func TestScannerMissingDir(t *testing.T) {
	scanner := NewScanner(filepath.Join(t.TempDir(), "absent"), func(string) string { return "other" }, testLogger())
	assert.Empty(t, scanner.Groups())
}
