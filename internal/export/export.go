// Package export serializes the conversation history to CSV through a
// per-request transient file that is removed on every exit path.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nicofic01/chatbot-backend/internal/fault"
	"github.com/nicofic01/chatbot-backend/internal/logger"
	"github.com/nicofic01/chatbot-backend/internal/store"
)

// Filename is the download name presented to clients.
const Filename = "conversations.csv"

// header is the fixed column order. user_email is intentionally excluded
// from exports.
var header = []string{"id", "timestamp", "user_message", "ai_response"}

// Lister provides the snapshot an export serializes.
type Lister interface {
	List(ctx context.Context) ([]store.ConversationRecord, error)
}

// Job produces CSV exports of the full conversation history.
type Job struct {
	lister Lister
	dir    string
}

// NewJob creates an export job that snapshots via lister and stages files
// under the system temp directory.
func NewJob(lister Lister) *Job {
	return &Job{lister: lister, dir: os.TempDir()}
}

// WriteTo snapshots the store, serializes it to a uniquely named transient
// file and streams that file to w. The file is removed before WriteTo
// returns, whether the transfer succeeded or not. An empty store yields a
// *fault.NotFoundError and no file.
func (j *Job) WriteTo(ctx context.Context, w io.Writer) error {
	records, err := j.lister.List(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return &fault.NotFoundError{Resource: "conversations"}
	}

	// Unique name per request so concurrent exports never share a file.
	path := filepath.Join(j.dir, fmt.Sprintf("conversations-%s.csv", uuid.NewString()))
	if err := writeCSV(path, records); err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.L.Warn("failed to remove transient export file", "path", path, "error", rmErr)
		}
		return err
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			logger.L.Warn("failed to remove transient export file", "path", path, "error", err)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open transient export file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("stream export: %w", err)
	}
	return nil
}

func writeCSV(path string, records []store.ConversationRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create transient export file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Timestamp.Format(time.RFC3339),
			r.UserMessage,
			r.AIResponse,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
