package imagemeta

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
)

// Dims holds pixel dimensions extracted from an image header.
type Dims struct {
	Width  int
	Height int
}

// headLen is the fixed probe size read before format dispatch. Every
// supported magic number fits inside it.
const headLen = 24

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Sniff opens path and reports its pixel dimensions. Files that are missing,
// truncated, or not a recognized image container report ok == false.
func Sniff(path string) (Dims, bool) {
	f, err := os.Open(path)
	if err != nil {
		return Dims{}, false
	}
	defer f.Close()
	return Dimensions(f)
}

// Dimensions extracts (width, height) from the header of a PNG, JPEG, GIF,
// BMP, WEBP, or TIFF stream. Only a small bounded prefix and a handful of
// seeks are read; pixel data is never decoded. Malformed or truncated input
// reports ok == false, never an error.
func Dimensions(r io.ReadSeeker) (Dims, bool) {
	var head [headLen]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Dims{}, false
	}

	var (
		d  Dims
		ok bool
	)
	switch {
	case bytes.HasPrefix(head[:], pngMagic):
		d, ok = pngDims(r)
	case head[0] == 0xff && head[1] == 0xd8:
		d, ok = jpegDims(r)
	case bytes.HasPrefix(head[:], []byte("GIF87a")) || bytes.HasPrefix(head[:], []byte("GIF89a")):
		d = Dims{
			Width:  int(binary.LittleEndian.Uint16(head[6:8])),
			Height: int(binary.LittleEndian.Uint16(head[8:10])),
		}
		ok = true
	case head[0] == 'B' && head[1] == 'M':
		d, ok = bmpDims(r)
	case bytes.HasPrefix(head[:], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WEBP")):
		d, ok = webpDims(r, head[12:16])
	case (head[0] == 'I' && head[1] == 'I') || (head[0] == 'M' && head[1] == 'M'):
		d, ok = tiffDims(r, head[0] == 'M')
	}
	if !ok || d.Width <= 0 || d.Height <= 0 {
		return Dims{}, false
	}
	return d, true
}

// pngDims reads the IHDR width/height fields. IHDR is always the first chunk,
// so the fields sit at fixed file offsets 16 and 20.
func pngDims(r io.ReadSeeker) (Dims, bool) {
	buf, ok := readAt(r, 16, 8)
	if !ok {
		return Dims{}, false
	}
	return Dims{
		Width:  int(binary.BigEndian.Uint32(buf[0:4])),
		Height: int(binary.BigEndian.Uint32(buf[4:8])),
	}, true
}

// jpegDims walks marker segments until it finds a start-of-frame marker.
// Markers 0xC4, 0xC8, and 0xCC share the SOF numeric range but are not
// frame headers.
func jpegDims(r io.ReadSeeker) (Dims, bool) {
	if _, err := r.Seek(2, io.SeekStart); err != nil {
		return Dims{}, false
	}
	var one [1]byte
	readByte := func() (byte, bool) {
		_, err := io.ReadFull(r, one[:])
		return one[0], err == nil
	}

	for {
		b, ok := readByte()
		if !ok {
			return Dims{}, false
		}
		for b != 0xff {
			if b, ok = readByte(); !ok {
				return Dims{}, false
			}
		}
		// Skip 0xff fill bytes preceding the marker value.
		for b == 0xff {
			if b, ok = readByte(); !ok {
				return Dims{}, false
			}
		}
		marker := b

		var lenBuf [2]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return Dims{}, false
		}
		segLen := int(binary.BigEndian.Uint16(lenBuf[:])) - 2
		if segLen < 0 {
			return Dims{}, false
		}

		if marker >= 0xc0 && marker <= 0xcf && marker != 0xc4 && marker != 0xc8 && marker != 0xcc {
			if segLen < 5 {
				return Dims{}, false
			}
			var frame [5]byte // precision, height, width
			if _, err := io.ReadFull(r, frame[:]); err != nil {
				return Dims{}, false
			}
			return Dims{
				Width:  int(binary.BigEndian.Uint16(frame[3:5])),
				Height: int(binary.BigEndian.Uint16(frame[1:3])),
			}, true
		}

		if _, err := r.Seek(int64(segLen), io.SeekCurrent); err != nil {
			return Dims{}, false
		}
	}
}

// bmpDims reads the signed little-endian dimensions from the info header.
// A negative height marks a top-down bitmap; the magnitude is the height.
func bmpDims(r io.ReadSeeker) (Dims, bool) {
	buf, ok := readAt(r, 18, 8)
	if !ok {
		return Dims{}, false
	}
	w := int32(binary.LittleEndian.Uint32(buf[0:4]))
	h := int32(binary.LittleEndian.Uint32(buf[4:8]))
	if h < 0 {
		h = -h
	}
	if w < 0 {
		w = -w
	}
	return Dims{Width: int(w), Height: int(h)}, true
}

func webpDims(r io.ReadSeeker, chunkTag []byte) (Dims, bool) {
	switch {
	case bytes.Equal(chunkTag, []byte("VP8 ")):
		buf, ok := readAt(r, 26, 4)
		if !ok {
			return Dims{}, false
		}
		return Dims{
			Width:  int(binary.LittleEndian.Uint16(buf[0:2]) & 0x3fff),
			Height: int(binary.LittleEndian.Uint16(buf[2:4]) & 0x3fff),
		}, true
	case bytes.Equal(chunkTag, []byte("VP8L")):
		buf, ok := readAt(r, 21, 4)
		if !ok {
			return Dims{}, false
		}
		bits := binary.LittleEndian.Uint32(buf)
		return Dims{
			Width:  int(bits&0x3fff) + 1,
			Height: int((bits>>14)&0x3fff) + 1,
		}, true
	case bytes.Equal(chunkTag, []byte("VP8X")):
		buf, ok := readAt(r, 24, 6)
		if !ok {
			return Dims{}, false
		}
		w := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16
		h := uint32(buf[3]) | uint32(buf[4])<<8 | uint32(buf[5])<<16
		return Dims{Width: int(w) + 1, Height: int(h) + 1}, true
	}
	return Dims{}, false
}

// tiffDims scans the first image file directory for the ImageWidth (256) and
// ImageLength (257) tags. The byte-order mark selects endianness for every
// subsequent read.
func tiffDims(r io.ReadSeeker, bigEndian bool) (Dims, bool) {
	var order binary.ByteOrder = binary.LittleEndian
	if bigEndian {
		order = binary.BigEndian
	}

	buf, ok := readAt(r, 4, 4)
	if !ok {
		return Dims{}, false
	}
	ifdOffset := order.Uint32(buf)
	if _, err := r.Seek(int64(ifdOffset), io.SeekStart); err != nil {
		return Dims{}, false
	}

	var countBuf [2]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return Dims{}, false
	}
	numTags := int(order.Uint16(countBuf[:]))

	var d Dims
	for i := 0; i < numTags; i++ {
		var entry [12]byte
		if _, err := io.ReadFull(r, entry[:]); err != nil {
			return Dims{}, false
		}
		tag := order.Uint16(entry[0:2])
		value := order.Uint32(entry[8:12])
		switch tag {
		case 256:
			d.Width = int(value)
		case 257:
			d.Height = int(value)
		}
		if d.Width > 0 && d.Height > 0 {
			return d, true
		}
	}
	return Dims{}, false
}

func readAt(r io.ReadSeeker, offset int64, n int) ([]byte, bool) {
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, false
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, false
	}
	return buf, true
}
