package editor

import "notedit/pkg/models"

// withSlot returns a copy of blocks followed by the empty text slot
func withSlot(blocks []models.Block) []models.Block {
	out := make([]models.Block, 0, len(blocks)+1)
	out = append(out, blocks...)
	return append(out, models.TextBlock(""))
}

// insertMedia keeps the blocks that still carry a value, appends b and
// then a fresh empty slot. Stale empty blocks left behind by earlier
// deletes are dropped on the way.
func insertMedia(blocks []models.Block, b models.Block) []models.Block {
	out := valued(blocks)
	out = append(out, b)
	return append(out, models.TextBlock(""))
}

// removeAt deletes blocks[i]. If that leaves no trailing text block, a new
// empty slot is appended.
func removeAt(blocks []models.Block, i int) []models.Block {
	out := make([]models.Block, 0, len(blocks))
	out = append(out, blocks[:i]...)
	out = append(out, blocks[i+1:]...)

	if len(out) == 0 || out[len(out)-1].Type != models.BlockText {
		out = append(out, models.TextBlock(""))
	}
	return out
}

// valued returns the blocks that would be persisted
func valued(blocks []models.Block) []models.Block {
	out := make([]models.Block, 0, len(blocks))
	for _, b := range blocks {
		if b.HasValue() {
			out = append(out, b)
		}
	}
	return out
}
