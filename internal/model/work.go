package model

// Work is one logical document family.
type Work struct {
	RowID int64  `gorm:"column:rowId;primaryKey;autoIncrement"`
	ID    string `gorm:"column:id"`
	Title string `gorm:"column:title"`
}

func (Work) TableName() string {
	return "works"
}

// Variant is one translated or edited instantiation of a Work.
// Its row is written last and marks the store as complete.
type Variant struct {
	RowID     int64  `gorm:"column:rowId;primaryKey;autoIncrement"`
	ID        string `gorm:"column:id"`
	Title     string `gorm:"column:title"`
	Language  string `gorm:"column:language"`
	Version   string `gorm:"column:version"`
	WorkRowID int64  `gorm:"column:workRowId"`
	Work      *Work  `gorm:"foreignKey:WorkRowID;references:RowID"`
	// WorkID is resolved to WorkRowID at insert time.
	WorkID string `gorm:"-"`
}

func (Variant) TableName() string {
	return "variants"
}
