package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/emrgen/docseed/internal/model"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const copyBatchSize = 500

var _ Store = (*GormStore)(nil)

// GormStore is the only holder of a database handle.
// Transaction copies share the write lock and lifecycle state of their origin.
type GormStore struct {
	db    *gorm.DB
	cfg   Config
	mu    *sync.Mutex
	state *storeState
}

type storeState struct {
	finalized bool
	closed    bool
}

// Open creates a fresh store, destroying any store already present at the configured location.
func Open(cfg Config) (*GormStore, error) {
	cfg.applyDefaults()

	if cfg.Driver == DriverSqlite {
		if err := removeSqliteFiles(cfg.Path); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrStoreInit, cfg.Path, err)
		}
		if err := os.MkdirAll(filepath.Dir(cfg.Path), os.ModePerm); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrStoreInit, cfg.Path, err)
		}
	}

	s, err := connect(cfg, false)
	if err != nil {
		return nil, err
	}

	if cfg.Driver == DriverPostgres {
		if err := model.Drop(s.db); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("%w: drop tables: %w", ErrStoreInit, err)
		}
	}

	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: migrate: %w", ErrStoreInit, err)
	}

	logrus.Infof("created store %s", cfg)

	return s, nil
}

// OpenExisting connects to a store without destroying its content.
func OpenExisting(cfg Config) (*GormStore, error) {
	cfg.applyDefaults()

	if cfg.Driver == DriverSqlite {
		if _, err := os.Stat(cfg.Path); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreInit, err)
		}
	}

	s, err := connect(cfg, false)
	if err != nil {
		return nil, err
	}

	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: migrate: %w", ErrStoreInit, err)
	}

	return s, nil
}

// OpenReadOnly connects to a published store for reading. The schema is not migrated,
// no pragma is changed and every write fails.
func OpenReadOnly(cfg Config) (*GormStore, error) {
	cfg.applyDefaults()

	if cfg.Driver == DriverSqlite {
		if _, err := os.Stat(cfg.Path); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreInit, err)
		}
	}

	return connect(cfg, true)
}

func connect(cfg Config, readOnly bool) (*GormStore, error) {
	var dialector gorm.Dialector
	switch {
	case cfg.Driver == DriverSqlite && readOnly:
		dialector = sqlite.Open(fmt.Sprintf("file:%s?mode=ro", cfg.Path))
	case cfg.Driver == DriverSqlite:
		dialector = sqlite.Open(cfg.Path)
	case cfg.Driver == DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", ErrStoreInit, cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStoreInit, cfg, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStoreInit, cfg, err)
	}

	if cfg.Driver == DriverSqlite && !readOnly {
		// one connection keeps inserts in call order
		sqlDB.SetMaxOpenConns(1)

		pragmas := []string{
			"PRAGMA journal_mode = WAL",
			fmt.Sprintf("PRAGMA journal_size_limit = %d", cfg.JournalSizeLimit),
		}
		for _, pragma := range pragmas {
			if err := db.Exec(pragma).Error; err != nil {
				_ = sqlDB.Close()
				return nil, fmt.Errorf("%w: %s: %w", ErrStoreInit, cfg, err)
			}
		}
	}

	return &GormStore{
		db:    db,
		cfg:   cfg,
		mu:    &sync.Mutex{},
		state: &storeState{},
	}, nil
}

// Path returns the sqlite file backing the store, empty for postgres.
func (g *GormStore) Path() string {
	return g.cfg.Path
}

func (g *GormStore) String() string {
	return g.cfg.String()
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

// Finalize builds the lookup indexes and compacts the store.
// It must run once, after the last insert.
func (g *GormStore) Finalize(ctx context.Context) error {
	if g.state.closed {
		return ErrStoreClosed
	}
	if g.state.finalized {
		return ErrAlreadyFinalized
	}

	db := g.db.WithContext(ctx)
	if err := model.CreateIndexes(db); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}

	if err := db.Exec("VACUUM").Error; err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}

	if g.cfg.Driver == DriverSqlite {
		if err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)").Error; err != nil {
			return fmt.Errorf("checkpoint: %w", err)
		}
		// a finished store is a single file that read-only clients open without journal files
		if err := db.Exec("PRAGMA journal_mode = DELETE").Error; err != nil {
			return fmt.Errorf("journal mode: %w", err)
		}
	}

	g.state.finalized = true
	logrus.Infof("finalized store %s", g.cfg)

	return nil
}

// Close releases the database handle. Closing twice is a no-op.
func (g *GormStore) Close() error {
	if g.state.closed {
		return nil
	}
	g.state.closed = true

	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func (g *GormStore) InsertNode(ctx context.Context, node *model.Node) (int64, error) {
	if g.state.closed {
		return 0, ErrStoreClosed
	}

	db := g.db.WithContext(ctx)
	if node.ParentRowID == nil {
		var roots int64
		if err := db.Model(&model.Node{}).Where(`"parentRowId" IS NULL`).Count(&roots).Error; err != nil {
			return 0, err
		}
		if roots > 0 {
			return 0, fmt.Errorf("insert %s: %w", node.Kind, ErrDuplicateRoot)
		}
	}

	if err := db.Omit(clause.Associations).Create(node).Error; err != nil {
		return 0, err
	}

	return node.RowID, nil
}

func (g *GormStore) InsertIdentifier(ctx context.Context, id string, nodeRowID int64) error {
	if g.state.closed {
		return ErrStoreClosed
	}

	return g.db.WithContext(ctx).Omit(clause.Associations).Create(&model.NodeID{
		ID:        id,
		NodeRowID: nodeRowID,
	}).Error
}

func (g *GormStore) CopyNodes(ctx context.Context, nodes []*model.Node) error {
	if len(nodes) == 0 {
		return nil
	}

	db := g.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).CreateInBatches(nodes, copyBatchSize).Error; err != nil {
		return err
	}

	if g.cfg.Driver == DriverPostgres {
		// explicit row ids do not advance the serial sequence
		return db.Exec(`SELECT setval(pg_get_serial_sequence('nodes', 'rowId'), (SELECT COALESCE(MAX("rowId"), 1) FROM nodes))`).Error
	}

	return nil
}

func (g *GormStore) CopyNodeIDs(ctx context.Context, ids []*model.NodeID) error {
	if len(ids) == 0 {
		return nil
	}

	rows := make([]*model.NodeID, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, &model.NodeID{ID: id.ID, NodeRowID: id.NodeRowID})
	}

	return g.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(rows, copyBatchSize).Error
}

func (g *GormStore) MaxNodeRowID(ctx context.Context) (int64, error) {
	var max int64
	err := g.db.WithContext(ctx).Model(&model.Node{}).Select(`COALESCE(MAX("rowId"), 0)`).Scan(&max).Error
	return max, err
}

func (g *GormStore) GetNode(ctx context.Context, rowID int64) (*model.Node, error) {
	var node model.Node
	err := g.db.WithContext(ctx).Where(`"rowId" = ?`, rowID).First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, rowID)
	}
	if err != nil {
		return nil, err
	}

	return &node, nil
}

func (g *GormStore) ListNodes(ctx context.Context, after int64, limit int) ([]*model.Node, error) {
	var nodes []*model.Node
	err := g.db.WithContext(ctx).Where(`"rowId" > ?`, after).Order(`"rowId"`).Limit(limit).Find(&nodes).Error
	return nodes, err
}

func (g *GormStore) ListChildren(ctx context.Context, parentRowID int64) ([]*model.Node, error) {
	var nodes []*model.Node
	err := g.db.WithContext(ctx).Where(`"parentRowId" = ?`, parentRowID).Order(`"rowId"`).Find(&nodes).Error
	return nodes, err
}

func (g *GormStore) ListNodeIDs(ctx context.Context, after int64, limit int) ([]*model.NodeID, error) {
	var ids []*model.NodeID
	err := g.db.WithContext(ctx).Where(`"rowId" > ?`, after).Order(`"rowId"`).Limit(limit).Find(&ids).Error
	return ids, err
}

// ResolveIdentifier picks the earliest registration when several nodes share an identifier.
func (g *GormStore) ResolveIdentifier(ctx context.Context, id string) (int64, error) {
	var ident model.NodeID
	err := g.db.WithContext(ctx).Where("id = ?", id).Order(`"rowId"`).First(&ident).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("%w: %s", ErrIdentifierNotFound, id)
	}
	if err != nil {
		return 0, err
	}

	return ident.NodeRowID, nil
}

func (g *GormStore) InsertWork(ctx context.Context, work *model.Work) (int64, error) {
	if g.state.closed {
		return 0, ErrStoreClosed
	}

	if err := g.db.WithContext(ctx).Create(work).Error; err != nil {
		return 0, err
	}

	return work.RowID, nil
}

func (g *GormStore) GetWork(ctx context.Context, id string) (*model.Work, error) {
	var work model.Work
	err := g.db.WithContext(ctx).Where("id = ?", id).Order(`"rowId"`).First(&work).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrWorkNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return &work, nil
}

func (g *GormStore) ListWorks(ctx context.Context) ([]*model.Work, error) {
	var works []*model.Work
	err := g.db.WithContext(ctx).Order(`"rowId"`).Find(&works).Error
	return works, err
}

// InsertVariant resolves the work foreign key by symbolic id and inserts nothing when it is missing.
func (g *GormStore) InsertVariant(ctx context.Context, variant *model.Variant) (int64, error) {
	if g.state.closed {
		return 0, ErrStoreClosed
	}

	work, err := g.GetWork(ctx, variant.WorkID)
	if errors.Is(err, ErrWorkNotFound) {
		return 0, fmt.Errorf("%w: variant %s references work %s", ErrDanglingForeignKey, variant.ID, variant.WorkID)
	}
	if err != nil {
		return 0, err
	}

	variant.WorkRowID = work.RowID
	if err := g.db.WithContext(ctx).Omit(clause.Associations).Create(variant).Error; err != nil {
		return 0, err
	}

	return variant.RowID, nil
}

func (g *GormStore) ListVariants(ctx context.Context) ([]*model.Variant, error) {
	var variants []*model.Variant
	err := g.db.WithContext(ctx).Preload("Work").Order(`"rowId"`).Find(&variants).Error
	if err != nil {
		return nil, err
	}

	for _, variant := range variants {
		if variant.Work != nil {
			variant.WorkID = variant.Work.ID
		}
	}

	return variants, nil
}

func (g *GormStore) Stats(ctx context.Context) (*Stats, error) {
	db := g.db.WithContext(ctx)
	stats := &Stats{Kinds: make(map[string]int64)}

	if err := db.Model(&model.Node{}).Count(&stats.Nodes).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.NodeID{}).Count(&stats.Identifiers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Work{}).Count(&stats.Works).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Variant{}).Count(&stats.Variants).Error; err != nil {
		return nil, err
	}

	var kinds []struct {
		Name  string
		Count int64
	}
	if err := db.Model(&model.Node{}).Select("name, count(*) as count").Group("name").Scan(&kinds).Error; err != nil {
		return nil, err
	}
	for _, kind := range kinds {
		stats.Kinds[kind.Name] = kind.Count
	}

	return stats, nil
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	if g.state.closed {
		return ErrStoreClosed
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx, cfg: g.cfg, mu: g.mu, state: g.state})
	})
}

func (g *GormStore) Exclusive(ctx context.Context, f func(tx Store) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.Transaction(ctx, f)
}

// removeSqliteFiles deletes a sqlite database file together with its journal siblings.
func removeSqliteFiles(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}
