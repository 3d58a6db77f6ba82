package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// BlockError reports a block that failed to decode within a collection.
type BlockError struct {
	Index int
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %d: %v", e.Index, e.Err)
}

// Unwrap returns the decode error.
func (e *BlockError) Unwrap() error { return e.Err }

// DecodeAll decodes every map independently. Blocks that fail leave a nil
// at their index and contribute a *BlockError to the joined error, so one
// bad block never corrupts its siblings. Callers choose whether to drop
// the failures or abandon the collection.
func DecodeAll(maps []map[string]any) ([]Block, error) {
	blocks := make([]Block, len(maps))
	var errs []error
	for i, m := range maps {
		b, err := FromMap(m)
		if err != nil {
			errs = append(errs, &BlockError{Index: i, Err: err})
			continue
		}
		blocks[i] = b
	}
	return blocks, errors.Join(errs...)
}

// Encode returns the plain-data form of each block.
func Encode(blocks []Block) []map[string]any {
	out := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		if b == nil {
			continue
		}
		out = append(out, b.ToMap())
	}
	return out
}

// MarshalBlocks encodes blocks as a JSON array.
func MarshalBlocks(blocks []Block) ([]byte, error) {
	return json.Marshal(Encode(blocks))
}

// UnmarshalBlocks decodes a JSON array of blocks with DecodeAll semantics.
func UnmarshalBlocks(data []byte) ([]Block, error) {
	var maps []map[string]any
	if err := json.Unmarshal(data, &maps); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBlock, err)
	}
	return DecodeAll(maps)
}

// Compact returns blocks without nil entries.
func Compact(blocks []Block) []Block {
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}

// RenderAll renders blocks in order and joins the non-empty results with a
// blank line.
func RenderAll(ctx context.Context, blocks []Block, store MediaStore) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b == nil {
			continue
		}
		if s := b.Render(ctx, store); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// RenderText joins the plain-text renderings of blocks.
func RenderText(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b == nil {
			continue
		}
		if s := b.RenderText(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}
