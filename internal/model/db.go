package model

import "gorm.io/gorm"

const (
	IndexNodesParentRowID = "idx_nodes_parentRowId"
	IndexNodeIDsID        = "idx_nodes_id"
	IndexNodesName        = "idx_nodes_name"
)

// Migrate creates the tables. Lookup indexes are deferred to CreateIndexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Work{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&Variant{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&Node{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&NodeID{}); err != nil {
		return err
	}

	return nil
}

// Drop removes every table created by Migrate.
func Drop(db *gorm.DB) error {
	return db.Migrator().DropTable(&NodeID{}, &Node{}, &Variant{}, &Work{})
}

// CreateIndexes builds the read-side lookup indexes in one transaction.
func CreateIndexes(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		stmts := []string{
			`CREATE INDEX IF NOT EXISTS ` + IndexNodesParentRowID + ` ON nodes ("parentRowId")`,
			`CREATE INDEX IF NOT EXISTS ` + IndexNodeIDsID + ` ON "nodeIds" ("id")`,
			`CREATE INDEX IF NOT EXISTS ` + IndexNodesName + ` ON nodes ("name")`,
		}
		for _, stmt := range stmts {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
