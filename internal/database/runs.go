package database

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/zeebo/blake3"
	"gorm.io/gorm"

	"github.com/mrlokans/bookclips/internal/entities"
)

// Digest returns the hex BLAKE3 digest of a clippings export.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func newRunID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// StartRun records the beginning of a pass over a clippings export.
func (d *Database) StartRun(clippingsPath, digest string) (*entities.ImportRun, error) {
	run := &entities.ImportRun{
		ID:              newRunID(),
		ClippingsPath:   clippingsPath,
		ClippingsDigest: digest,
		Status:          entities.RunStatusRunning,
		StartedAt:       time.Now(),
	}
	if err := d.DB.Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// FinishRun stores the outcome of a run. Warnings are kept as a JSON array.
func (d *Database) FinishRun(run *entities.ImportRun, warnings []string, runErr error) error {
	now := time.Now()
	run.CompletedAt = &now
	run.Status = entities.RunStatusCompleted
	if runErr != nil {
		run.Status = entities.RunStatusFailed
		warnings = append(warnings, runErr.Error())
	}
	if len(warnings) > 0 {
		if b, err := json.Marshal(warnings); err == nil {
			run.Errors = string(b)
		}
	}
	return d.DB.Save(run).Error
}

// LastCompletedRun returns the latest successful run over clippingsPath, or
// nil when there is none.
func (d *Database) LastCompletedRun(clippingsPath string) (*entities.ImportRun, error) {
	var run entities.ImportRun
	err := d.DB.Where("clippings_path = ? AND status = ?", clippingsPath, entities.RunStatusCompleted).
		Order("started_at DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
