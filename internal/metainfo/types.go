// Package metainfo decodes bencoded torrent metainfo files and
// reconstructs per-piece file geometry. The metainfo wire format only
// carries the total piece count and concatenated piece hashes; the
// (file, offset, length) slices each piece covers are derived here, never
// transcribed.
package metainfo

import "strings"

// DigestLength is the length in bytes of a single piece hash (SHA-1).
const DigestLength = 20

// Digest is a piece hash, compared byte-wise for equality.
type Digest [DigestLength]byte

// File is a torrent-declared file: a byte length and an ordered,
// non-empty sequence of relative path components.
type File struct {
	Length int64
	Path   []string
}

// RelPath joins the file's path components with "/", the canonical form
// used as a map key throughout this module (independent of OS separator).
func (f File) RelPath() string {
	return strings.Join(f.Path, "/")
}

// FileSlice is the portion of a single file contained in one piece.
// Offset+Length never exceeds the declaring file's length.
type FileSlice struct {
	Path   []string
	Offset int64
	Length int64
}

// RelPath joins the slice's path components, matching File.RelPath.
func (s FileSlice) RelPath() string {
	return strings.Join(s.Path, "/")
}

// Piece is one cryptographic piece: a declared hash and the ordered
// slices whose concatenated bytes that hash covers.
type Piece struct {
	Hash   Digest
	Slices []FileSlice
}

// Info is the decoded info dictionary of a torrent, with piece geometry
// already reconstructed.
type Info struct {
	IsSingleFile bool
	Files        []File
	PieceLength  int64
	Pieces       []Piece
	Name         string
}

// Torrent is a fully decoded metainfo file.
type Torrent struct {
	Announce string
	Info     Info
}
