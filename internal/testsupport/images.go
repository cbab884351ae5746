package testsupport

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// PNGBytes returns a minimal PNG header carrying the given dimensions in its
// IHDR chunk. Only the header region is valid; pixel data is absent.
func PNGBytes(width, height int) []byte {
	buf := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	buf = append(buf, 0, 0, 0, 13) // IHDR length
	buf = append(buf, 'I', 'H', 'D', 'R')
	buf = appendUint32BE(buf, uint32(width))
	buf = appendUint32BE(buf, uint32(height))
	buf = append(buf, 8, 2, 0, 0, 0) // bit depth, color type, methods
	buf = append(buf, 0, 0, 0, 0)    // CRC placeholder, never verified
	return buf
}

// JPEGBytes returns a JPEG stream with an APP0 segment followed by a SOF0
// frame header carrying the given dimensions.
func JPEGBytes(width, height int) []byte {
	buf := []byte{0xff, 0xd8}
	// APP0, 16-byte segment.
	buf = append(buf, 0xff, 0xe0, 0x00, 0x10)
	buf = append(buf, 'J', 'F', 'I', 'F', 0)
	buf = append(buf, make([]byte, 9)...)
	// SOF0, 17-byte segment: precision, height, width, components.
	buf = append(buf, 0xff, 0xc0, 0x00, 0x11, 8)
	buf = appendUint16BE(buf, uint16(height))
	buf = appendUint16BE(buf, uint16(width))
	buf = append(buf, 3)
	buf = append(buf, make([]byte, 9)...)
	buf = append(buf, 0xff, 0xd9)
	return buf
}

// GIFBytes returns a GIF89a header with the given logical screen dimensions.
func GIFBytes(width, height int) []byte {
	buf := []byte("GIF89a")
	buf = appendUint16LE(buf, uint16(width))
	buf = appendUint16LE(buf, uint16(height))
	buf = append(buf, make([]byte, 16)...)
	return buf
}

// BMPBytes returns a BMP file header plus info header with the given signed
// dimensions. Pass a negative height to simulate a top-down bitmap.
func BMPBytes(width, height int32) []byte {
	buf := []byte{'B', 'M'}
	buf = append(buf, make([]byte, 12)...) // size, reserved, data offset
	buf = appendUint32LE(buf, 40)          // info header size
	buf = appendUint32LE(buf, uint32(width))
	buf = appendUint32LE(buf, uint32(height))
	buf = append(buf, make([]byte, 8)...)
	return buf
}

// WEBPVP8Bytes returns a lossy WEBP header with the given dimensions.
func WEBPVP8Bytes(width, height int) []byte {
	buf := riffHeader("VP8 ")
	buf = append(buf, 0x00, 0x00, 0x00) // frame tag
	buf = append(buf, 0x9d, 0x01, 0x2a) // start code
	buf = appendUint16LE(buf, uint16(width)&0x3fff)
	buf = appendUint16LE(buf, uint16(height)&0x3fff)
	return buf
}

// WEBPVP8LBytes returns a lossless WEBP header with the given dimensions.
func WEBPVP8LBytes(width, height int) []byte {
	buf := riffHeader("VP8L")
	buf = append(buf, 0x2f) // signature byte
	bits := uint32(width-1) | uint32(height-1)<<14
	buf = appendUint32LE(buf, bits)
	return buf
}

// WEBPVP8XBytes returns an extended WEBP header with the given dimensions.
func WEBPVP8XBytes(width, height int) []byte {
	buf := riffHeader("VP8X")
	buf = append(buf, make([]byte, 4)...) // feature flags + reserved
	buf = appendUint24LE(buf, uint32(width-1))
	buf = appendUint24LE(buf, uint32(height-1))
	return buf
}

// TIFFBytes returns a TIFF header whose first IFD carries ImageWidth and
// ImageLength tags. bigEndian selects the MM byte order.
func TIFFBytes(width, height int, bigEndian bool) []byte {
	var order binary.AppendByteOrder = binary.LittleEndian
	buf := []byte{'I', 'I'}
	if bigEndian {
		order = binary.BigEndian
		buf = []byte{'M', 'M'}
	}
	buf = order.AppendUint16(buf, 42)
	buf = order.AppendUint32(buf, 8) // first IFD offset
	buf = order.AppendUint16(buf, 2) // tag count
	buf = appendTIFFTag(buf, order, 256, uint32(width))
	buf = appendTIFFTag(buf, order, 257, uint32(height))
	buf = order.AppendUint32(buf, 0) // next IFD offset
	return buf
}

func appendTIFFTag(buf []byte, order binary.AppendByteOrder, tag uint16, value uint32) []byte {
	buf = order.AppendUint16(buf, tag)
	buf = order.AppendUint16(buf, 3) // SHORT
	buf = order.AppendUint32(buf, 1)
	buf = order.AppendUint32(buf, value)
	return buf
}

func riffHeader(chunkTag string) []byte {
	buf := []byte("RIFF")
	buf = appendUint32LE(buf, 0x100) // chunk size, ignored by the sniffer
	buf = append(buf, "WEBP"...)
	buf = append(buf, chunkTag...)
	buf = appendUint32LE(buf, 0x80) // sub-chunk size, ignored
	return buf
}

func appendUint16BE(buf []byte, v uint16) []byte { return binary.BigEndian.AppendUint16(buf, v) }

func appendUint32BE(buf []byte, v uint32) []byte { return binary.BigEndian.AppendUint32(buf, v) }

func appendUint16LE(buf []byte, v uint16) []byte { return binary.LittleEndian.AppendUint16(buf, v) }

func appendUint32LE(buf []byte, v uint32) []byte { return binary.LittleEndian.AppendUint32(buf, v) }

func appendUint24LE(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16))
}

// WriteFile writes data to path, creating parent directories as needed.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
