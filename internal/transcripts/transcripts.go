// Package transcripts sums estimated session costs out of the Clearing
// transcript store.
package transcripts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// transcript represents the slice of a transcript document we read.
type transcript struct {
	Session struct {
		EstimatedCost float64 `json:"estimatedCost"`
	} `json:"session"`
}

// Scan sums session.estimatedCost across transcript files written on or
// after billingStart (YYYY-MM-DD). Files are named with an ISO-like
// timestamp prefix (2025-08-14T09-31-02.json), so the name's date portion
// is the filter key and a file is only opened once it qualifies.
//
// A missing directory yields zeros; unreadable or malformed files are
// skipped. A parseable transcript without a cost field still counts as one
// session at zero cost.
func Scan(dir, billingStart string, log logrus.FieldLogger) (dollars float64, sessions int64) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.WithError(err).WithField("dir", dir).Debug("transcript directory unavailable")
		return 0, 0
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}

		prefix := name
		if len(prefix) > 10 {
			prefix = prefix[:10]
		}
		if prefix < billingStart {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.WithError(err).WithField("file", name).Debug("skipping unreadable transcript")
			continue
		}

		var doc transcript
		if err := json.Unmarshal(data, &doc); err != nil {
			log.WithError(err).WithField("file", name).Debug("skipping malformed transcript")
			continue
		}

		dollars += doc.Session.EstimatedCost
		sessions++
	}

	return dollars, sessions
}
