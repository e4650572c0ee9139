package index

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/richinex/toolpilot/internal/codec"
	"github.com/richinex/toolpilot/model"
)

// The vector artifact is:
//
//	magic "TPVX" | CBOR header | payload
//
// where payload is the row-major little-endian float32 matrix, compressed
// as the header says. The header carries the blake3 digest of the
// metadata artifact, which binds the two files together: a vector file
// paired with metadata from another build fails the digest check.
var vectorMagic = []byte("TPVX")

const formatVersion = 1

type vectorHeader struct {
	Version        int    `cbor:"version"`
	Count          int    `cbor:"count"`
	Dim            int    `cbor:"dim"`
	Compression    string `cbor:"compression"`
	RawSize        int    `cbor:"raw_size"`
	MetadataDigest []byte `cbor:"metadata_digest"`
}

// writePair persists records and matrix. Both artifacts are fully
// written and synced to temp files before either is renamed into place,
// so a failure up to that point leaves the previous pair untouched.
func writePair(opts Options, records []model.ToolRecord, matrix []float32, dim int) error {
	if records == nil {
		records = []model.ToolRecord{}
	}
	metadata, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	digest := blake3.Sum256(metadata)

	raw := make([]byte, 4*len(matrix))
	for i, v := range matrix {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}
	payload, used, err := compressPayload(raw, opts.Compression)
	if err != nil {
		return err
	}

	header, err := codec.Marshal(vectorHeader{
		Version:        formatVersion,
		Count:          len(records),
		Dim:            dim,
		Compression:    used,
		RawSize:        len(raw),
		MetadataDigest: digest[:],
	})
	if err != nil {
		return fmt.Errorf("encode vector header: %w", err)
	}

	vectors := make([]byte, 0, len(vectorMagic)+len(header)+len(payload))
	vectors = append(vectors, vectorMagic...)
	vectors = append(vectors, header...)
	vectors = append(vectors, payload...)

	vecTmp, err := writeTemp(opts.IndexPath, vectors)
	if err != nil {
		return err
	}
	metaTmp, err := writeTemp(opts.MetadataPath, metadata)
	if err != nil {
		os.Remove(vecTmp)
		return err
	}

	if err := os.Rename(vecTmp, opts.IndexPath); err != nil {
		os.Remove(vecTmp)
		os.Remove(metaTmp)
		return fmt.Errorf("renaming vectors to %s: %w", opts.IndexPath, err)
	}
	if err := os.Rename(metaTmp, opts.MetadataPath); err != nil {
		os.Remove(metaTmp)
		return fmt.Errorf("renaming metadata to %s: %w", opts.MetadataPath, err)
	}
	return nil
}

// writeTemp writes data to a synced temp file next to finalPath and
// returns its path.
func writeTemp(finalPath string, data []byte) (string, error) {
	dir := filepath.Dir(finalPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(finalPath)+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file for %s: %w", finalPath, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("syncing %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing %s: %w", tmpPath, err)
	}
	return tmpPath, nil
}

// readPair loads and cross-checks both artifacts.
func readPair(opts Options) ([]model.ToolRecord, []float32, int, error) {
	vectors, err := readArtifact(opts.IndexPath)
	if err != nil {
		return nil, nil, 0, err
	}
	metadata, err := readArtifact(opts.MetadataPath)
	if err != nil {
		return nil, nil, 0, err
	}

	if !bytes.HasPrefix(vectors, vectorMagic) {
		return nil, nil, 0, &model.CorruptIndexError{Reason: "vector artifact has no header"}
	}
	var header vectorHeader
	payload, err := codec.UnmarshalFirst(vectors[len(vectorMagic):], &header)
	if err != nil {
		return nil, nil, 0, &model.CorruptIndexError{Reason: "unreadable vector header: " + err.Error()}
	}
	if header.Version != formatVersion {
		return nil, nil, 0, &model.CorruptIndexError{Reason: fmt.Sprintf("unsupported format version %d", header.Version)}
	}

	digest := blake3.Sum256(metadata)
	if !bytes.Equal(digest[:], header.MetadataDigest) {
		return nil, nil, 0, &model.CorruptIndexError{Reason: "metadata does not belong to this vector artifact"}
	}

	var records []model.ToolRecord
	if err := json.Unmarshal(metadata, &records); err != nil {
		return nil, nil, 0, &model.CorruptIndexError{Reason: "unreadable metadata: " + err.Error()}
	}
	if len(records) != header.Count {
		return nil, nil, 0, &model.CorruptIndexError{
			Reason: fmt.Sprintf("metadata has %d records, vectors have %d", len(records), header.Count),
		}
	}
	if header.Dim <= 0 || header.RawSize != 4*header.Count*header.Dim {
		return nil, nil, 0, &model.CorruptIndexError{
			Reason: fmt.Sprintf("payload size %d does not match %dx%d", header.RawSize, header.Count, header.Dim),
		}
	}

	raw, err := decompressPayload(payload, header.Compression, header.RawSize)
	if err != nil {
		return nil, nil, 0, &model.CorruptIndexError{Reason: err.Error()}
	}
	matrix := make([]float32, header.Count*header.Dim)
	for i := range matrix {
		matrix[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return records, matrix, header.Dim, nil
}

func readArtifact(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
