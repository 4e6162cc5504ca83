package rowstore

import (
	"context"
	"fmt"
	"io"
	"strings"
)

const describeIndent = "    "

// Describe writes the structure of the tree, one node or key per line,
// indented by depth. Keys of an internal node are printed on the node's own
// level between the subtrees they separate.
func (t *Table) Describe(ctx context.Context, w io.Writer) error {
	return t.describePage(ctx, w, t.RootPageIdx, 0)
}

func (t *Table) describePage(ctx context.Context, w io.Writer, pageIdx uint32, level int) error {
	if level > maxTreeDepth {
		return fmt.Errorf("describe: %w", ErrCorruptFile)
	}

	aPage, err := t.readPage(ctx, pageIdx)
	if err != nil {
		return fmt.Errorf("describe: %w", err)
	}

	indent := strings.Repeat(describeIndent, level)

	if aPage.LeafNode != nil {
		if _, err := fmt.Fprintf(w, "%sleaf (size %d)\n", indent, len(aPage.LeafNode.Cells)); err != nil {
			return err
		}
		for _, key := range aPage.LeafNode.Keys() {
			if _, err := fmt.Fprintf(w, "%s%s%d\n", indent, describeIndent, key); err != nil {
				return err
			}
		}
		return nil
	}

	aNode := aPage.InternalNode
	if _, err := fmt.Fprintf(w, "%sinternal (size %d)\n", indent, len(aNode.ICells)); err != nil {
		return err
	}
	for _, aCell := range aNode.ICells {
		if err := t.describePage(ctx, w, aCell.Child, level+1); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%skey %d\n", indent, aCell.Key); err != nil {
			return err
		}
	}
	if aNode.Header.RightChild == RIGHT_CHILD_NOT_SET {
		return nil
	}
	return t.describePage(ctx, w, aNode.Header.RightChild, level+1)
}
