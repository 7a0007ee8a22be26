package vectorindex

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
)

// On-disk layout, little endian:
//
//	magic "JRIX" | version u16 | kind u8 | fingerprint (u16 len + bytes) | dim u32 | rows u32
//	flat: rows*dim f32
//	pq:   m u32 | ksub u32 | m*ksub*dsub f32 centroids | rows*m u8 codes
//	crc32 (IEEE) of everything above
var indexMagic = [4]byte{'J', 'R', 'I', 'X'}

const codecVersion uint16 = 1

var ErrCorruptIndex = errors.New("corrupt index file")

const (
	kindByteFlat uint8 = 1
	kindBytePQ   uint8 = 2
)

// EncodeIndex serialises idx together with the fingerprint of the data it was built from.
func EncodeIndex(idx Index, fingerprint string) ([]byte, error) {
	if len(fingerprint) > math.MaxUint16 {
		return nil, fmt.Errorf("fingerprint too long: %d bytes", len(fingerprint))
	}

	var buf bytes.Buffer
	w := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }

	buf.Write(indexMagic[:])
	w(codecVersion)
	switch t := idx.(type) {
	case *Flat:
		w(kindByteFlat)
		writeHeader(&buf, fingerprint, t.dim, t.Len())
		w(t.data)
	case *PQ:
		w(kindBytePQ)
		writeHeader(&buf, fingerprint, t.dim, t.Len())
		w(uint32(t.m))
		w(uint32(t.ksub))
		for _, c := range t.centroids {
			w(c)
		}
		buf.Write(t.codes)
	default:
		return nil, fmt.Errorf("cannot encode index of type %T", idx)
	}

	w(crc32.ChecksumIEEE(buf.Bytes()))
	return buf.Bytes(), nil
}

func writeHeader(buf *bytes.Buffer, fingerprint string, dim, rows int) {
	_ = binary.Write(buf, binary.LittleEndian, uint16(len(fingerprint)))
	buf.WriteString(fingerprint)
	_ = binary.Write(buf, binary.LittleEndian, uint32(dim))
	_ = binary.Write(buf, binary.LittleEndian, uint32(rows))
}

// DecodeIndex parses data written by EncodeIndex. Any structural problem is reported
// as ErrCorruptIndex.
func DecodeIndex(data []byte) (Index, string, error) {
	if len(data) < len(indexMagic)+4 {
		return nil, "", fmt.Errorf("%w: %d bytes", ErrCorruptIndex, len(data))
	}
	body, trailer := data[:len(data)-4], data[len(data)-4:]
	if crc32.ChecksumIEEE(body) != binary.LittleEndian.Uint32(trailer) {
		return nil, "", fmt.Errorf("%w: checksum mismatch", ErrCorruptIndex)
	}

	r := bytes.NewReader(body)
	var (
		magic   [4]byte
		version uint16
		kind    uint8
		fpLen   uint16
	)
	if err := readAll(r, &magic, &version, &kind, &fpLen); err != nil {
		return nil, "", err
	}
	if magic != indexMagic {
		return nil, "", fmt.Errorf("%w: bad magic", ErrCorruptIndex)
	}
	if version != codecVersion {
		return nil, "", fmt.Errorf("%w: unsupported version %d", ErrCorruptIndex, version)
	}
	fp := make([]byte, fpLen)
	if _, err := io.ReadFull(r, fp); err != nil {
		return nil, "", fmt.Errorf("%w: fingerprint: %v", ErrCorruptIndex, err)
	}
	var dim, rows uint32
	if err := readAll(r, &dim, &rows); err != nil {
		return nil, "", err
	}
	if dim == 0 {
		return nil, "", fmt.Errorf("%w: zero dimension", ErrCorruptIndex)
	}

	var idx Index
	switch kind {
	case kindByteFlat:
		if uint64(r.Len()) != uint64(dim)*uint64(rows)*4 {
			return nil, "", fmt.Errorf("%w: flat payload size", ErrCorruptIndex)
		}
		f := &Flat{dim: int(dim), data: make([]float32, int(dim)*int(rows))}
		if err := readAll(r, f.data); err != nil {
			return nil, "", err
		}
		idx = f
	case kindBytePQ:
		var m, ksub uint32
		if err := readAll(r, &m, &ksub); err != nil {
			return nil, "", err
		}
		if m == 0 || dim%m != 0 || ksub == 0 || ksub > maxCentroids {
			return nil, "", fmt.Errorf("%w: pq shape m=%d ksub=%d", ErrCorruptIndex, m, ksub)
		}
		dsub := dim / m
		want := uint64(m)*uint64(ksub)*uint64(dsub)*4 + uint64(rows)*uint64(m)
		if uint64(r.Len()) != want {
			return nil, "", fmt.Errorf("%w: pq payload size", ErrCorruptIndex)
		}
		p := &PQ{dim: int(dim), m: int(m), dsub: int(dsub), ksub: int(ksub), centroids: make([][]float32, m)}
		for j := range p.centroids {
			p.centroids[j] = make([]float32, int(ksub*dsub))
			if err := readAll(r, p.centroids[j]); err != nil {
				return nil, "", err
			}
		}
		p.codes = make([]uint8, int(rows*m))
		if _, err := io.ReadFull(r, p.codes); err != nil {
			return nil, "", fmt.Errorf("%w: codes: %v", ErrCorruptIndex, err)
		}
		for _, c := range p.codes {
			if uint32(c) >= ksub {
				return nil, "", fmt.Errorf("%w: code %d out of range", ErrCorruptIndex, c)
			}
		}
		idx = p
	default:
		return nil, "", fmt.Errorf("%w: unknown kind %d", ErrCorruptIndex, kind)
	}
	return idx, string(fp), nil
}

func readAll(r io.Reader, vs ...any) error {
	for _, v := range vs {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptIndex, err)
		}
	}
	return nil
}
