package model

// NodeID binds a symbolic identifier to the node that owns it.
// One node may carry many identifiers; uniqueness is not enforced.
type NodeID struct {
	RowID     int64  `gorm:"column:rowId;primaryKey;autoIncrement"`
	ID        string `gorm:"column:id;not null"`
	NodeRowID int64  `gorm:"column:nodeRowId;not null"`
	Node      *Node  `gorm:"foreignKey:NodeRowID;references:RowID;constraint:OnDelete:CASCADE"`
}

func (NodeID) TableName() string {
	return "nodeIds"
}
