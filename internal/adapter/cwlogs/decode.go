// Package cwlogs unpacks CloudWatch Logs subscription payloads.
package cwlogs

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/couchcryptid/cloudlogs-streamer/internal/domain"
	"github.com/klauspost/compress/gzip"
)

// maxInflated caps the decompressed size of one payload.
const maxInflated = 64 << 20

var gzipMagic = []byte{0x1f, 0x8b}

// Decode accepts the three shapes a subscription payload arrives in:
// base64 of gzip (Lambda awslogs.data), raw gzip (Kinesis or a broker) and
// plain JSON.
func Decode(payload []byte) (domain.LogBatch, error) {
	data := bytes.TrimSpace(payload)
	if len(data) == 0 {
		return domain.LogBatch{}, fmt.Errorf("%w: empty", domain.ErrMalformedPayload)
	}

	if !bytes.HasPrefix(data, gzipMagic) && data[0] != '{' {
		decoded := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
		n, err := base64.StdEncoding.Decode(decoded, data)
		if err != nil {
			return domain.LogBatch{}, fmt.Errorf("%w: base64: %v", domain.ErrMalformedPayload, err)
		}
		data = decoded[:n]
	}

	if bytes.HasPrefix(data, gzipMagic) {
		inflated, err := gunzip(data)
		if err != nil {
			return domain.LogBatch{}, fmt.Errorf("%w: gzip: %v", domain.ErrMalformedPayload, err)
		}
		data = inflated
	}

	var batch domain.LogBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		return domain.LogBatch{}, fmt.Errorf("%w: json: %v", domain.ErrMalformedPayload, err)
	}
	if batch.MessageType == "" {
		return domain.LogBatch{}, fmt.Errorf("%w: missing messageType", domain.ErrMalformedPayload)
	}
	return batch, nil
}

// Encode is the inverse of Decode for the Lambda shape: gzip, then base64.
func Encode(batch domain.LogBatch) (string, error) {
	raw, err := json.Marshal(batch)
	if err != nil {
		return "", fmt.Errorf("marshal batch: %w", err)
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return "", fmt.Errorf("compress batch: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress batch: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, maxInflated+1))
	if err != nil {
		return nil, err
	}
	if len(out) > maxInflated {
		return nil, fmt.Errorf("inflated payload exceeds %d bytes", maxInflated)
	}
	return out, nil
}
