package metainfo

import (
	"fmt"
	"os"

	"github.com/anacrolix/torrent/bencode"
)

// rawFile and rawInfo mirror only the bencode wire shape; geometry
// reconstruction happens in fromRaw, never during unmarshalling.
type rawFile struct {
	Length int64    `bencode:"length"`
	Path   []string `bencode:"path"`
}

type rawInfo struct {
	Name        string    `bencode:"name"`
	PieceLength int64     `bencode:"piece length"`
	Pieces      []byte    `bencode:"pieces"`
	Length      int64     `bencode:"length,omitempty"`
	Files       []rawFile `bencode:"files,omitempty"`
}

type rawMetaInfo struct {
	Announce string  `bencode:"announce"`
	Info     rawInfo `bencode:"info"`
}

// DecodeFile reads and decodes a metainfo file at path.
func DecodeFile(path string) (*Torrent, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metainfo file: %w", err)
	}
	return Decode(buf)
}

// Decode parses a bencoded metainfo buffer and reconstructs piece
// geometry. It fails on an empty name, a non-positive piece length, an
// empty pieces string or one whose length is not a multiple of
// DigestLength, a file entry with a non-positive length or empty path,
// neither length nor files present, or file bytes inconsistent with the
// piece count.
func Decode(buf []byte) (*Torrent, error) {
	var raw rawMetaInfo
	if err := bencode.Unmarshal(buf, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal bencoded metainfo: %w", err)
	}
	return fromRaw(&raw)
}

func fromRaw(raw *rawMetaInfo) (*Torrent, error) {
	ri := raw.Info

	if ri.Name == "" {
		return nil, fmt.Errorf("metainfo: info.name is empty")
	}
	if ri.PieceLength <= 0 {
		return nil, fmt.Errorf("metainfo: piece length must be positive, got %d", ri.PieceLength)
	}
	if len(ri.Pieces) == 0 {
		return nil, fmt.Errorf("metainfo: pieces is empty")
	}
	if len(ri.Pieces)%DigestLength != 0 {
		return nil, fmt.Errorf("metainfo: pieces length %d is not a multiple of %d", len(ri.Pieces), DigestLength)
	}

	var files []File
	isSingleFile := false
	switch {
	case len(ri.Files) > 0:
		files = make([]File, len(ri.Files))
		for i, f := range ri.Files {
			if f.Length < 1 {
				return nil, fmt.Errorf("metainfo: file %v has non-positive length %d", f.Path, f.Length)
			}
			if len(f.Path) == 0 {
				return nil, fmt.Errorf("metainfo: file entry %d has an empty path", i)
			}
			files[i] = File{Length: f.Length, Path: append([]string(nil), f.Path...)}
		}
	case ri.Length > 0:
		isSingleFile = true
		files = []File{{Length: ri.Length, Path: []string{ri.Name}}}
	default:
		return nil, fmt.Errorf("metainfo: neither info.length nor info.files is present")
	}

	pieces, err := reconstructGeometry(files, ri.PieceLength, ri.Pieces)
	if err != nil {
		return nil, err
	}

	return &Torrent{
		Announce: raw.Announce,
		Info: Info{
			IsSingleFile: isSingleFile,
			Files:        files,
			PieceLength:  ri.PieceLength,
			Pieces:       pieces,
			Name:         ri.Name,
		},
	}, nil
}

// reconstructGeometry walks files in declared order with a running
// cursor, emitting the (file, offset, length) slices each piece covers.
// This is the derivation spec §4.A describes: piece count and hashes are
// given, but slice geometry must be computed.
func reconstructGeometry(files []File, pieceLength int64, hashes []byte) ([]Piece, error) {
	numPieces := len(hashes) / DigestLength

	var total int64
	for _, f := range files {
		total += f.Length
	}

	expectedFullPieces := int64(numPieces - 1)
	if numPieces > 0 {
		fullBytes := expectedFullPieces * pieceLength
		if total <= fullBytes {
			return nil, fmt.Errorf("metainfo: total file bytes %d too small for %d pieces of length %d", total, numPieces, pieceLength)
		}
		lastPieceLen := total - fullBytes
		if lastPieceLen > pieceLength {
			return nil, fmt.Errorf("metainfo: total file bytes %d inconsistent with %d pieces of length %d", total, numPieces, pieceLength)
		}
	}

	pieces := make([]Piece, 0, numPieces)
	fileIdx := 0
	fileRemaining := files[0].Length
	remaining := total

	for p := 0; p < numPieces; p++ {
		if remaining == 0 {
			return nil, fmt.Errorf("metainfo: remaining pieces but all file bytes already consumed")
		}

		pieceRemaining := pieceLength
		if remaining < pieceRemaining {
			pieceRemaining = remaining
		}

		var slices []FileSlice
		for pieceRemaining > 0 {
			if fileIdx >= len(files) {
				return nil, fmt.Errorf("metainfo: remaining hashes but all files already consumed")
			}
			cur := files[fileIdx]
			n := fileRemaining
			if pieceRemaining < n {
				n = pieceRemaining
			}
			slices = append(slices, FileSlice{
				Path:   cur.Path,
				Offset: cur.Length - fileRemaining,
				Length: n,
			})
			if n >= fileRemaining {
				fileIdx++
				if fileIdx < len(files) {
					fileRemaining = files[fileIdx].Length
				} else {
					fileRemaining = 0
				}
			} else {
				fileRemaining -= n
			}
			remaining -= n
			pieceRemaining -= n
		}

		var digest Digest
		copy(digest[:], hashes[p*DigestLength:(p+1)*DigestLength])
		pieces = append(pieces, Piece{Hash: digest, Slices: slices})
	}

	if remaining != 0 {
		return nil, fmt.Errorf("metainfo: %d file bytes left over after consuming all pieces", remaining)
	}
	if fileIdx != len(files) {
		return nil, fmt.Errorf("metainfo: %d file(s) left unconsumed by pieces", len(files)-fileIdx)
	}

	return pieces, nil
}
