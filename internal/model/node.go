package model

import (
	"gorm.io/datatypes"
)

// Node is one row per visited document tree element.
// The root of a tree is the only row with a nil ParentRowID.
type Node struct {
	RowID       int64           `gorm:"column:rowId;primaryKey;autoIncrement"`
	Kind        string          `gorm:"column:name"`
	ParentRowID *int64          `gorm:"column:parentRowId"`
	Parent      *Node           `gorm:"foreignKey:ParentRowID;references:RowID;constraint:OnDelete:CASCADE"`
	Attributes  *datatypes.JSON `gorm:"column:attributes"` // NULL when there are no attributes
	Content     *string         `gorm:"column:content"`
}

func (Node) TableName() string {
	return "nodes"
}

// AttributeJSON returns the attributes object, empty when there are none.
func (n *Node) AttributeJSON() string {
	if n.Attributes == nil {
		return ""
	}
	return string(*n.Attributes)
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool {
	return n.ParentRowID == nil
}

// Offset returns a copy of the node with its row id and parent row id shifted by delta.
// A nil parent stays nil.
func (n *Node) Offset(delta int64) *Node {
	moved := &Node{
		RowID:      n.RowID + delta,
		Kind:       n.Kind,
		Attributes: n.Attributes,
		Content:    n.Content,
	}
	if n.ParentRowID != nil {
		parent := *n.ParentRowID + delta
		moved.ParentRowID = &parent
	}

	return moved
}
