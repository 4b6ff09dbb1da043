// ABOUTME: Codec for persisted product embedding payloads
// ABOUTME: Accepts little-endian float64 BLOBs and JSON number arrays
package models

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrEmptyVector is returned when a payload decodes to zero components
var ErrEmptyVector = errors.New("embedding vector cannot be empty")

// EncodeVector converts a vector to a little-endian float64 BLOB
func EncodeVector(vector []float64) []byte {
	blob := make([]byte, len(vector)*8)
	for i, v := range vector {
		binary.LittleEndian.PutUint64(blob[i*8:], math.Float64bits(v))
	}
	return blob
}

// DecodeVector parses a persisted embedding payload.
// JSON arrays are detected by a leading '['; everything else must be a float64 BLOB.
func DecodeVector(payload []byte) ([]float64, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyVector
	}

	// A BLOB can start with the '[' byte too, so only trust JSON when it parses
	// or when the length rules out a BLOB.
	if trimmed := bytes.TrimSpace(payload); len(trimmed) > 0 && trimmed[0] == '[' {
		var vector []float64
		err := json.Unmarshal(trimmed, &vector)
		switch {
		case err == nil && len(vector) == 0:
			return nil, ErrEmptyVector
		case err == nil:
			return checkFinite(vector)
		case len(payload)%8 != 0:
			return nil, fmt.Errorf("invalid JSON embedding: %w", err)
		}
	}

	if len(payload)%8 != 0 {
		return nil, fmt.Errorf("invalid embedding blob: length %d is not a multiple of 8", len(payload))
	}
	count := len(payload) / 8
	vector := make([]float64, count)
	for i := 0; i < count; i++ {
		vector[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[i*8:]))
	}
	return checkFinite(vector)
}

func checkFinite(vector []float64) ([]float64, error) {
	for i, v := range vector {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid embedding: component %d is not finite", i)
		}
	}
	return vector, nil
}
