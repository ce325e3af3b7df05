package processor

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
)

// ErrEmptySnapshot is returned when encoding a snapshot without rows
var ErrEmptySnapshot = errors.New("backup snapshot has no data")

// EncodeSnapshot serializes a backup snapshot to JSON and compresses it
func EncodeSnapshot(snapshot *models.BackupSnapshot) ([]byte, error) {
	if !snapshot.HasData() {
		return nil, ErrEmptySnapshot
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encoding backup snapshot: %w", err)
	}
	return CompressPayload(raw), nil
}

// DecodeSnapshot decompresses and parses a blob written by EncodeSnapshot
func DecodeSnapshot(blob []byte) (*models.BackupSnapshot, error) {
	raw, err := DecompressPayload(blob)
	if err != nil {
		return nil, err
	}
	var snapshot models.BackupSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decoding backup snapshot: %w", err)
	}
	return &snapshot, nil
}
