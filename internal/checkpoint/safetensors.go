package checkpoint

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/born-ml/makemore/internal/tensor"
)

// SafeTensors layout:
// [8 bytes: header_size (uint64 LE)]
// [header_size bytes: JSON header]
// [tensor data: raw little-endian bytes, tensors in name order]

// Validation limits.
const (
	MaxHeaderSize    = 100 * 1024 * 1024
	MaxTensorNameLen = 4096
)

const (
	metadataKey = "__metadata__"
	checksumKey = "sha256"
)

// TensorInfo describes a tensor in the JSON header.
type TensorInfo struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"` // [start, end) within the data section
}

// File is a decoded SafeTensors file.
type File struct {
	Metadata map[string]string
	Tensors  map[string]*tensor.RawTensor
}

// Encode writes tensors and metadata in the SafeTensors layout.
//
// Tensors are written in alphabetical order by name. A SHA-256 of the data
// section is added to the metadata under "sha256" and checked by Decode.
func Encode(w io.Writer, tensors map[string]*tensor.RawTensor, metadata map[string]string) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		if err := validateName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(names)+1)
	var data bytes.Buffer
	for _, name := range names {
		raw := tensors[name]
		dtype, err := dtypeToSafeTensors(raw.DType())
		if err != nil {
			return fmt.Errorf("tensor %s: %w", name, err)
		}

		start := int64(data.Len())
		writeRaw(&data, raw)

		shape := make([]int64, len(raw.Shape()))
		for i, dim := range raw.Shape() {
			shape[i] = int64(dim)
		}
		header[name] = TensorInfo{
			DType:       dtype,
			Shape:       shape,
			DataOffsets: [2]int64{start, int64(data.Len())},
		}
	}

	meta := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	sum := sha256.Sum256(data.Bytes())
	meta[checksumKey] = hex.EncodeToString(sum[:])
	header[metadataKey] = meta

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(data.Bytes()); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

func writeRaw(buf *bytes.Buffer, raw *tensor.RawTensor) {
	var word [4]byte
	switch raw.DType() {
	case tensor.Float32:
		for _, v := range raw.AsFloat32() {
			binary.LittleEndian.PutUint32(word[:], math.Float32bits(v))
			buf.Write(word[:])
		}
	case tensor.Int32:
		for _, v := range raw.AsInt32() {
			binary.LittleEndian.PutUint32(word[:], uint32(v)) //nolint:gosec // bit-preserving reinterpretation
			buf.Write(word[:])
		}
	}
}

// Decode reads a SafeTensors file, validating the header and the checksum.
func Decode(r io.Reader) (*File, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(headerBytes, &rawMap); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	f := &File{Metadata: map[string]string{}, Tensors: map[string]*tensor.RawTensor{}}
	infos := make(map[string]TensorInfo, len(rawMap))
	for key, value := range rawMap {
		if key == metadataKey {
			if err := json.Unmarshal(value, &f.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
			continue
		}
		if err := validateName(key); err != nil {
			return nil, err
		}
		var info TensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tensor %s: %w", key, err)
		}
		infos[key] = info
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if err := validateOffsets(infos, int64(len(data))); err != nil {
		return nil, err
	}

	if stored, ok := f.Metadata[checksumKey]; ok {
		sum := sha256.Sum256(data)
		if !strings.EqualFold(stored, hex.EncodeToString(sum[:])) {
			return nil, ErrChecksumMismatch
		}
	}

	for name, info := range infos {
		raw, err := decodeTensor(name, info, data)
		if err != nil {
			return nil, err
		}
		f.Tensors[name] = raw
	}
	return f, nil
}

func decodeTensor(name string, info TensorInfo, data []byte) (*tensor.RawTensor, error) {
	dtype, err := safeTensorsToDType(info.DType)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}

	chunk := data[info.DataOffsets[0]:info.DataOffsets[1]]

	// The element count is checked against the stored bytes before anything
	// is allocated, so a forged shape can neither overflow nor exhaust memory.
	have := int64(len(chunk))
	count := int64(1)
	shape := make(tensor.Shape, len(info.Shape))
	for i, dim := range info.Shape {
		if dim <= 0 {
			return nil, &ValidationError{
				Type:    "invalid_shape",
				Tensor:  name,
				Details: fmt.Sprintf("dimension %d is %d", i, dim),
			}
		}
		if count > have/dim {
			return nil, &ValidationError{
				Type:    "size_mismatch",
				Tensor:  name,
				Details: fmt.Sprintf("shape %v exceeds the %d stored bytes", info.Shape, have),
			}
		}
		count *= dim
		shape[i] = int(dim)
	}
	if want := count * int64(dtype.Size()); want != have {
		return nil, &ValidationError{
			Type:    "size_mismatch",
			Tensor:  name,
			Details: fmt.Sprintf("shape %v needs %d bytes, got %d", info.Shape, want, have),
		}
	}

	raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}

	switch dtype {
	case tensor.Float32:
		out := raw.AsFloat32()
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(chunk[4*i:]))
		}
	case tensor.Int32:
		out := raw.AsInt32()
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(chunk[4*i:])) //nolint:gosec // bit-preserving reinterpretation
		}
	}
	return raw, nil
}

// validateOffsets checks for negative, out-of-bounds and overlapping regions.
func validateOffsets(infos map[string]TensorInfo, dataSize int64) error {
	type region struct {
		name       string
		start, end int64
	}
	regions := make([]region, 0, len(infos))
	for name, info := range infos {
		regions = append(regions, region{name, info.DataOffsets[0], info.DataOffsets[1]})
	}
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].start != regions[j].start {
			return regions[i].start < regions[j].start
		}
		return regions[i].name < regions[j].name
	})

	for i, r := range regions {
		if r.start < 0 || r.end < r.start {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  r.name,
				Details: fmt.Sprintf("offsets [%d, %d]", r.start, r.end),
				Err:     ErrNegativeOffset,
			}
		}
		if r.end > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  r.name,
				Details: fmt.Sprintf("end %d > data_size %d", r.end, dataSize),
				Err:     ErrOutOfBounds,
			}
		}
		if i < len(regions)-1 && r.end > regions[i+1].start {
			next := regions[i+1]
			return &ValidationError{
				Type:    "offset_overlap",
				Tensor:  r.name,
				Tensor2: next.name,
				Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap", r.start, r.end, next.start, next.end),
				Err:     ErrOffsetOverlap,
			}
		}
	}
	return nil
}

// validateName rejects empty, oversized and path-like tensor names.
func validateName(name string) error {
	var details string
	switch {
	case name == "":
		details = "empty name"
	case len(name) > MaxTensorNameLen:
		details = fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen)
	case strings.Contains(name, ".."):
		details = "contains '..'"
	case strings.ContainsAny(name, "/\\\x00"):
		details = "contains a path separator or null byte"
	default:
		return nil
	}
	return &ValidationError{Type: "invalid_name", Tensor: name, Details: details, Err: ErrInvalidTensorName}
}

func dtypeToSafeTensors(dt tensor.DataType) (string, error) {
	switch dt {
	case tensor.Float32:
		return "F32", nil
	case tensor.Int32:
		return "I32", nil
	default:
		return "", fmt.Errorf("unsupported dtype %s", dt)
	}
}

func safeTensorsToDType(s string) (tensor.DataType, error) {
	switch s {
	case "F32":
		return tensor.Float32, nil
	case "I32":
		return tensor.Int32, nil
	default:
		return 0, fmt.Errorf("unsupported safetensors dtype %q", s)
	}
}
