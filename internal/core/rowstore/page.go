package rowstore

import (
	"fmt"
)

// Page is a single node of the tree, identified by its page index.
// Relations between pages are page indexes resolved through the pager.
type Page struct {
	Index        uint32
	InternalNode *InternalNode
	LeafNode     *LeafNode
}

func (p *Page) Clone() *Page {
	aCopy := &Page{Index: p.Index}
	if p.LeafNode != nil {
		aCopy.LeafNode = p.LeafNode.Clone()
	}
	if p.InternalNode != nil {
		aCopy.InternalNode = p.InternalNode.Clone()
	}
	return aCopy
}

func (p *Page) IsRoot() bool {
	if p.LeafNode != nil {
		return p.LeafNode.Header.IsRoot
	}
	return p.InternalNode.Header.IsRoot
}

func (p *Page) setRoot(isRoot bool) {
	if p.LeafNode != nil {
		p.LeafNode.Header.IsRoot = isRoot
	} else if p.InternalNode != nil {
		p.InternalNode.Header.IsRoot = isRoot
	}
}

func (p *Page) Parent() uint32 {
	if p.LeafNode != nil {
		return p.LeafNode.Header.Parent
	}
	return p.InternalNode.Header.Parent
}

func (p *Page) setParent(parentIdx uint32) {
	if p.LeafNode != nil {
		p.LeafNode.Header.Parent = parentIdx
	} else if p.InternalNode != nil {
		p.InternalNode.Header.Parent = parentIdx
	}
}

func marshalPage(aPage *Page, buf []byte) ([]byte, error) {
	clear(buf)
	if aPage.LeafNode != nil {
		data, err := aPage.LeafNode.Marshal(buf)
		if err != nil {
			return nil, fmt.Errorf("error marshaling leaf node: %w", err)
		}
		return data, nil
	} else if aPage.InternalNode != nil {
		data, err := aPage.InternalNode.Marshal(buf)
		if err != nil {
			return nil, fmt.Errorf("error marshaling internal node: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("page %d is neither internal nor leaf node", aPage.Index)
}

func unmarshalPage(pageIdx uint32, buf []byte) (*Page, error) {
	aPage := &Page{Index: pageIdx}
	if buf[0] == PageTypeInternal {
		aPage.InternalNode = NewInternalNode()
		if _, err := aPage.InternalNode.Unmarshal(buf); err != nil {
			return nil, fmt.Errorf("page %d: %w", pageIdx, err)
		}
		return aPage, nil
	}

	aPage.LeafNode = NewLeafNode()
	if _, err := aPage.LeafNode.Unmarshal(buf); err != nil {
		return nil, fmt.Errorf("page %d: %w", pageIdx, err)
	}
	return aPage, nil
}
