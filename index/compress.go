package index

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression names accepted in Options and recorded in artifact headers.
const (
	CompressionNone = "none"
	CompressionLZ4  = "lz4"
	CompressionZstd = "zstd"
)

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("index: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("index: zstd decoder initialization failed: " + err.Error())
	}
}

// compressPayload compresses data with the named codec. It returns the
// codec actually used: lz4 falls back to none when the block does not
// shrink.
func compressPayload(data []byte, name string) ([]byte, string, error) {
	switch name {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionZstd:
		return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/2)), CompressionZstd, nil
	case CompressionLZ4:
		destination := make([]byte, lz4.CompressBlockBound(len(data)))
		written, err := lz4.CompressBlock(data, destination, nil)
		if err != nil {
			return nil, "", fmt.Errorf("lz4 compress: %w", err)
		}
		if written == 0 || written >= len(data) {
			return data, CompressionNone, nil
		}
		return destination[:written], CompressionLZ4, nil
	default:
		return nil, "", fmt.Errorf("unsupported compression: %q", name)
	}
}

// decompressPayload reverses compressPayload and checks the result is
// exactly rawSize bytes.
func decompressPayload(data []byte, name string, rawSize int) ([]byte, error) {
	var out []byte
	switch name {
	case CompressionNone:
		out = data
	case CompressionZstd:
		decoded, err := zstdDecoder.DecodeAll(data, make([]byte, 0, rawSize))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		out = decoded
	case CompressionLZ4:
		destination := make([]byte, rawSize)
		read, err := lz4.UncompressBlock(data, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		out = destination[:read]
	default:
		return nil, fmt.Errorf("unsupported compression: %q", name)
	}
	if len(out) != rawSize {
		return nil, fmt.Errorf("%s payload: got %d bytes, expected %d", name, len(out), rawSize)
	}
	return out, nil
}
