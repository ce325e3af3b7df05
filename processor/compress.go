package processor

import (
	"fmt"

	"github.com/golang/snappy"
)

// CompressPayload compresses a payload with snappy block encoding
func CompressPayload(data []byte) []byte {
	return snappy.Encode(nil, data)
}

// DecompressPayload reverses CompressPayload
func DecompressPayload(data []byte) ([]byte, error) {
	decompressed, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("decompressing payload: %w", err)
	}
	return decompressed, nil
}
