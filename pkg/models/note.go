package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// BlockType discriminates the kinds of content a note body holds
type BlockType string

const (
	BlockText  BlockType = "text"
	BlockImage BlockType = "image"
	BlockAudio BlockType = "audio"
	BlockVideo BlockType = "video"
)

// MediaKinds lists the block types that carry a MediaRef
var MediaKinds = []BlockType{BlockImage, BlockAudio, BlockVideo}

// IsMedia reports whether blocks of this type carry a MediaRef
func (t BlockType) IsMedia() bool {
	switch t {
	case BlockImage, BlockAudio, BlockVideo:
		return true
	}
	return false
}

// Valid reports whether t is a known block type
func (t BlockType) Valid() bool {
	return t == BlockText || t.IsMedia()
}

// Note represents a note as exchanged with the note API
type Note struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	Contents  []Block   `json:"contents"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Clone returns a deep copy of the note
func (n *Note) Clone() *Note {
	c := *n
	c.Contents = CloneBlocks(n.Contents)
	return &c
}

// SourceFile is the raw file picked by the user
type SourceFile struct {
	Name     string
	MimeType string
	Data     []byte
}

// MediaRef is an attachment value. It is built once when the file is
// selected and never modified afterwards.
type MediaRef struct {
	Name        string      `json:"name,omitempty"`
	PreviewURL  string      `json:"preview"`
	ContentType string      `json:"contentType"`
	Size        int64       `json:"size,omitempty"`
	Source      *SourceFile `json:"-"`
}

// Block is one entry of a note body. Text blocks use Text, media blocks
// use Media.
type Block struct {
	Type  BlockType
	Text  string
	Media *MediaRef
}

// TextBlock creates a text block
func TextBlock(value string) Block {
	return Block{Type: BlockText, Text: value}
}

// MediaBlock creates a media block of the given kind
func MediaBlock(kind BlockType, ref *MediaRef) Block {
	return Block{Type: kind, Media: ref}
}

// HasValue reports whether the block carries content worth persisting
func (b Block) HasValue() bool {
	if b.Type == BlockText {
		return b.Text != ""
	}
	return b.Media != nil
}

// CloneBlocks copies a block slice. MediaRefs are shared since they are
// immutable.
func CloneBlocks(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	copy(out, blocks)
	return out
}

type wireBlock struct {
	Type  BlockType       `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the block as {"type": ..., "value": ...}
func (b Block) MarshalJSON() ([]byte, error) {
	var value interface{}
	switch {
	case b.Type == BlockText:
		value = b.Text
	case b.Type.IsMedia():
		value = b.Media
	default:
		return nil, fmt.Errorf("unknown block type %q", b.Type)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireBlock{Type: b.Type, Value: raw})
}

// UnmarshalJSON decodes the {"type": ..., "value": ...} form
func (b *Block) UnmarshalJSON(data []byte) error {
	var w wireBlock
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if !w.Type.Valid() {
		return fmt.Errorf("unknown block type %q", w.Type)
	}

	*b = Block{Type: w.Type}
	if len(w.Value) == 0 || bytes.Equal(w.Value, []byte("null")) {
		return nil
	}

	if w.Type == BlockText {
		return json.Unmarshal(w.Value, &b.Text)
	}

	var ref MediaRef
	if err := json.Unmarshal(w.Value, &ref); err != nil {
		return fmt.Errorf("decode %s value: %w", w.Type, err)
	}
	b.Media = &ref
	return nil
}
