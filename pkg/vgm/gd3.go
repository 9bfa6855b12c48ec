package vgm

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

const gd3Version = 0x100

var gd3Ident = [4]byte{'G', 'd', '3', ' '}

// Tag is the GD3 metadata block. Japanese fields are left empty.
type Tag struct {
	Track   string `json:"track" yaml:"track"`
	Game    string `json:"game,omitempty" yaml:"game,omitempty"`
	System  string `json:"system,omitempty" yaml:"system,omitempty"`
	Author  string `json:"author,omitempty" yaml:"author,omitempty"`
	Date    string `json:"date,omitempty" yaml:"date,omitempty"`
	Creator string `json:"creator,omitempty" yaml:"creator,omitempty"`
	Notes   string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// fields returns the eleven GD3 strings in file order.
func (t *Tag) fields() [11]string {
	return [11]string{t.Track, "", t.Game, "", t.System, "", t.Author, "", t.Date, t.Creator, t.Notes}
}

func (t *Tag) encode() []byte {
	var strs []byte
	for _, s := range t.fields() {
		for _, u := range utf16.Encode([]rune(s)) {
			strs = binary.LittleEndian.AppendUint16(strs, u)
		}
		strs = append(strs, 0, 0)
	}
	out := make([]byte, 0, 12+len(strs))
	out = append(out, gd3Ident[:]...)
	out = binary.LittleEndian.AppendUint32(out, gd3Version)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(strs)))
	return append(out, strs...)
}

func decodeTag(p []byte) (*Tag, error) {
	if len(p) < 12 || [4]byte(p[:4]) != gd3Ident {
		return nil, fmt.Errorf("%w: bad GD3 header", ErrMalformed)
	}
	n := int(binary.LittleEndian.Uint32(p[8:]))
	if n > len(p)-12 {
		return nil, fmt.Errorf("%w: GD3 length %d exceeds file", ErrMalformed, n)
	}
	p = p[12 : 12+n]

	var strs []string
	var cur []uint16
	for i := 0; i+1 < len(p) && len(strs) < 11; i += 2 {
		u := binary.LittleEndian.Uint16(p[i:])
		if u == 0 {
			strs = append(strs, string(utf16.Decode(cur)))
			cur = cur[:0]
			continue
		}
		cur = append(cur, u)
	}
	for len(strs) < 11 {
		strs = append(strs, "")
	}
	return &Tag{
		Track:   strs[0],
		Game:    strs[2],
		System:  strs[4],
		Author:  strs[6],
		Date:    strs[8],
		Creator: strs[9],
		Notes:   strs[10],
	}, nil
}
