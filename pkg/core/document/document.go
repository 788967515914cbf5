package document

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

var (
	// ErrBufferTooSmall is returned when a buffer cannot hold a full encoded document
	ErrBufferTooSmall = errors.New("buffer too small to decode document")
)

// Document represents a single indexed item: a numeric identifier, a
// fixed-length feature vector, and an optional name used only for reporting.
// The search structures never inspect Name.
type Document struct {
	ID       int       // Unique identifier
	Features []float32 // Feature vector components
	Name     string    // Optional label (e.g. source file name)
}

// New creates a new document with the specified ID, feature vector and name.
func New(id int, features []float32, name string) *Document {
	return &Document{
		ID:       id,
		Features: features,
		Name:     name,
	}
}

// Dimensions returns the length of the feature vector.
func (d *Document) Dimensions() int {
	return len(d.Features)
}

// Copy creates a deep copy of the document.
func (d *Document) Copy() *Document {
	features := make([]float32, len(d.Features))
	copy(features, d.Features)
	return &Document{
		ID:       d.ID,
		Features: features,
		Name:     d.Name,
	}
}

// Random creates a document whose features are uniformly distributed in
// [0, 1). If r is nil a time-seeded generator is used; tests and benchmarks
// pass their own generator for reproducibility.
func Random(id int, dimension int, r *rand.Rand) *Document {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	features := make([]float32, dimension)
	for i := 0; i < dimension; i++ {
		features[i] = float32(r.Float64())
	}
	return &Document{
		ID:       id,
		Features: features,
		Name:     "",
	}
}

// Encode serializes the document to a byte slice.
// Layout: ID (8 bytes) | name length (4 bytes) | name | dimension (4 bytes) | values (4 bytes each).
func (d *Document) Encode() []byte {
	nameBytes := []byte(d.Name)
	bufSize := 8 + 4 + len(nameBytes) + 4 + 4*len(d.Features)
	buf := make([]byte, bufSize)

	binary.LittleEndian.PutUint64(buf[0:], uint64(d.ID))

	binary.LittleEndian.PutUint32(buf[8:], uint32(len(nameBytes)))
	copy(buf[12:], nameBytes)

	offset := 12 + len(nameBytes)
	binary.LittleEndian.PutUint32(buf[offset:], uint32(len(d.Features)))
	offset += 4

	for i, val := range d.Features {
		binary.LittleEndian.PutUint32(buf[offset+i*4:], math.Float32bits(val))
	}

	return buf
}

// Decode deserializes a document from a byte slice.
func Decode(buf []byte) (*Document, error) {
	if len(buf) < 16 {
		return nil, ErrBufferTooSmall
	}

	id := int(binary.LittleEndian.Uint64(buf[0:]))

	nameLen := int(binary.LittleEndian.Uint32(buf[8:]))
	if 16+nameLen > len(buf) {
		return nil, fmt.Errorf("buffer too small to decode document name, expected %d bytes", 16+nameLen)
	}
	name := string(buf[12 : 12+nameLen])

	offset := 12 + nameLen
	dim := int(binary.LittleEndian.Uint32(buf[offset:]))
	offset += 4

	if offset+dim*4 > len(buf) {
		return nil, fmt.Errorf("buffer too small to decode document features, expected %d bytes", offset+dim*4)
	}

	features := make([]float32, dim)
	for i := 0; i < dim; i++ {
		bits := binary.LittleEndian.Uint32(buf[offset+i*4:])
		features[i] = math.Float32frombits(bits)
	}

	return &Document{
		ID:       id,
		Features: features,
		Name:     name,
	}, nil
}
