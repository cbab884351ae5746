// Package imagemeta extracts pixel dimensions from image file headers by
// parsing raw bytes. It recognizes PNG, JPEG, GIF, BMP, WEBP (VP8, VP8L,
// VP8X), and TIFF containers, reads only small header regions, and reports
// "unknown" for anything malformed instead of returning errors.
package imagemeta
