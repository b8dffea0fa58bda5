package protocol

import (
	snaperrors "github.com/snapwire/snapwire/internal/errors"
)

// Vec3 is a three-component vector.
type Vec3 [3]float32

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float32 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

// QuantizeDir returns the index of the table normal closest to dir, which
// is treated as already normalized. A nil dir quantizes to 0.
func QuantizeDir(dir *Vec3) int {
	if dir == nil {
		return 0
	}

	var bestd float32
	best := 0
	for i := range vertexNormals {
		d := dir.Dot(vertexNormals[i])
		if d > bestd {
			bestd = d
			best = i
		}
	}
	return best
}

// DequantizeDir returns the table normal at index.
func DequantizeDir(index int) (Vec3, error) {
	if index < 0 || index >= NumVertexNormals {
		return Vec3{}, snaperrors.New("P002").Wrap(ErrDirOutOfRange).WithDetailf("index %d", index)
	}
	return vertexNormals[index], nil
}

// WriteDir appends dir as a one-byte table index.
func (e *Encoder) WriteDir(dir *Vec3) error {
	return e.WriteUint8(QuantizeDir(dir))
}

// ReadDir reads a one-byte table index and returns its normal. Reading past
// the end is soft. An index outside the table is fatal: the stream is corrupt.
func (d *Decoder) ReadDir() (Vec3, error) {
	index := d.ReadUint8()
	if d.Overrun() {
		return Vec3{}, newUnexpectedEnd("dir")
	}
	return DequantizeDir(index)
}
