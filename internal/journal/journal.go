// Package journal queues punch events that could not be published, so a
// broker outage never loses a clock action. Records are encrypted at rest;
// kiosks live in shared spaces.
package journal

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pontolabs/ponto-agent/internal/models"
	"github.com/pontolabs/ponto-agent/pkg/encryption"
	"github.com/pontolabs/ponto-agent/pkg/file"
	"github.com/rs/zerolog"
)

// Journal is an append-only file of sealed punch events, one per line.
type Journal struct {
	path    string
	fileOps file.FileOperations
	crypto  encryption.EncryptionManagerInterface
	logger  zerolog.Logger

	mu sync.Mutex
}

// New creates a journal at the given path.
func New(path string, fileOps file.FileOperations, crypto encryption.EncryptionManagerInterface, logger zerolog.Logger) *Journal {
	return &Journal{
		path:    path,
		fileOps: fileOps,
		crypto:  crypto,
		logger:  logger,
	}
}

// Append seals the event and writes it as one journal line.
func (j *Journal) Append(event models.PunchEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal punch event: %w", err)
	}

	sealed, err := j.crypto.Encrypt(payload)
	if err != nil {
		return fmt.Errorf("failed to encrypt punch event: %w", err)
	}

	line := make([]byte, base64.StdEncoding.EncodedLen(len(sealed)))
	base64.StdEncoding.Encode(line, sealed)

	if err := j.fileOps.AppendLine(j.path, line); err != nil {
		return fmt.Errorf("failed to append punch event: %w", err)
	}

	j.logger.Info().Str("punch_id", event.PunchID).Msg("Punch event journaled for later delivery")
	return nil
}

// Drain returns every queued event and truncates the journal. The caller is
// responsible for re-appending events it fails to deliver. Undecodable lines
// are logged and skipped rather than wedging the queue.
func (j *Journal) Drain() ([]models.PunchEvent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	lines, err := j.fileOps.ReadLines(j.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	if len(lines) == 0 {
		return nil, nil
	}

	events := make([]models.PunchEvent, 0, len(lines))
	for _, line := range lines {
		sealed := make([]byte, base64.StdEncoding.DecodedLen(len(line)))
		n, err := base64.StdEncoding.Decode(sealed, line)
		if err != nil {
			j.logger.Error().Err(err).Msg("Skipping malformed journal line")
			continue
		}

		payload, err := j.crypto.Decrypt(sealed[:n])
		if err != nil {
			j.logger.Error().Err(err).Msg("Skipping undecryptable journal line")
			continue
		}

		var event models.PunchEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			j.logger.Error().Err(err).Msg("Skipping unparsable journal line")
			continue
		}
		events = append(events, event)
	}

	if err := j.fileOps.Truncate(j.path); err != nil {
		return nil, fmt.Errorf("failed to truncate journal: %w", err)
	}
	return events, nil
}

// Pending reports how many events are queued.
func (j *Journal) Pending() (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	lines, err := j.fileOps.ReadLines(j.path)
	if err != nil {
		return 0, err
	}
	return len(lines), nil
}
