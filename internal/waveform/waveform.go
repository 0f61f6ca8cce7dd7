// Package waveform decodes the overview waveform blobs stored with each analysed track.
//
// A blob is a 4-byte big-endian length of the uncompressed data followed by a zlib
// stream. The uncompressed data holds one (low, mid, high) amplitude triplet per time
// slice. Previews are reduced to at most [MaxBars] triplets.
package waveform

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
)

// MaxBars is the number of bars in a preview.
const MaxBars = 60

const (
	headerSize = 4
	// maxPayload bounds decompression of a hostile or corrupt blob.
	maxPayload = 64 << 20
	// preallocLimit caps the buffer reserved from the header's claimed size.
	preallocLimit = 1 << 20
)

// Bar is the amplitude of one time slice per frequency band.
type Bar struct {
	Low  uint8 `json:"low"`
	Mid  uint8 `json:"mid"`
	High uint8 `json:"high"`
}

// Decode returns the preview bars of blob, or nil when the blob is absent or cannot be decoded.
//
// Every max(1, n/MaxBars)-th of the n triplets is kept, up to MaxBars of them.
func Decode(blob []byte) []Bar {
	data, err := decompress(blob)
	if err != nil {
		return nil
	}

	count := len(data) / 3
	if count == 0 {
		return nil
	}
	step := max(1, count/MaxBars)

	bars := make([]Bar, 0, min(count, MaxBars))
	for i := 0; i < count && len(bars) < MaxBars; i += step {
		t := data[i*3 : i*3+3]
		bars = append(bars, Bar{Low: t[0], Mid: t[1], High: t[2]})
	}
	return bars
}

func decompress(blob []byte) ([]byte, error) {
	if len(blob) <= headerSize {
		return nil, io.ErrUnexpectedEOF
	}
	size := binary.BigEndian.Uint32(blob[:headerSize])

	r, err := zlib.NewReader(bytes.NewReader(blob[headerSize:]))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var buf bytes.Buffer
	buf.Grow(int(min(size, preallocLimit)))
	if _, err := io.Copy(&buf, io.LimitReader(r, maxPayload)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode compresses raw triplet data into the blob format read by [Decode].
func Encode(raw []byte) []byte {
	var buf bytes.Buffer
	header := make([]byte, headerSize)
	binary.BigEndian.PutUint32(header, uint32(len(raw)))
	buf.Write(header)

	w := zlib.NewWriter(&buf)
	w.Write(raw)
	w.Close()
	return buf.Bytes()
}
