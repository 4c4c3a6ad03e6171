package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/emrgen/docseed/internal/compress"
	"github.com/emrgen/docseed/internal/doctree"
	"github.com/emrgen/docseed/internal/encoder"
	"github.com/emrgen/docseed/internal/jobs"
	"github.com/emrgen/docseed/internal/merge"
	"github.com/emrgen/docseed/internal/model"
	"github.com/emrgen/docseed/internal/normalize"
	"github.com/emrgen/docseed/internal/store"
	"github.com/emrgen/docseed/internal/version"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Options configures a Seeder.
type Options struct {
	WorksDir    string
	DistDir     string
	Concurrency int
	// Codec packages finished stores; nil or compress.Nop leaves them as they are.
	Codec compress.Compress
	// Store selects the backend of merged work stores. Variant stores are always sqlite.
	Store store.Config
	// Versions overrides the version.json lookup under WorksDir.
	Versions version.Lookup
}

// Report describes one seeded variant.
type Report struct {
	WorkID    string
	VariantID string
	Path      string
	Artifact  string
	Result    *encoder.Result
}

// WorkReport describes a seeded work.
type WorkReport struct {
	WorkID   string
	Variants []*Report
	// Merged is the consolidated store, empty when no merge was requested.
	Merged string
	Merge  *merge.Result
}

// NewSeeder creates a Seeder reading works from opts.WorksDir and writing stores to opts.DistDir.
func NewSeeder(opts Options) *Seeder {
	if opts.Codec == nil {
		opts.Codec = compress.NewNop()
	}
	if opts.Versions == nil {
		opts.Versions = version.NewFileLookup(opts.WorksDir)
	}

	return &Seeder{
		opts:     opts,
		provider: store.NewDistProvider(opts.DistDir, store.Config{JournalSizeLimit: opts.Store.JournalSizeLimit}),
		versions: opts.Versions,
		encoder:  encoder.New(),
		merger:   merge.New(),
		runner:   jobs.NewRunner(opts.Concurrency),
	}
}

// Seeder turns parsed work variants into relational stores.
type Seeder struct {
	opts     Options
	provider store.StoreProvider
	versions version.Lookup
	encoder  *encoder.Encoder
	merger   *merge.Merger
	runner   *jobs.Runner
}

// ParseVariantPath splits "<work-id>/<variant-id>".
func ParseVariantPath(path string) (string, string, error) {
	parts := strings.Split(strings.Trim(filepath.ToSlash(path), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidVariantPath, path)
	}

	return parts[0], parts[1], nil
}

// SeedVariant encodes the variant addressed by variantPath into its own store.
func (s *Seeder) SeedVariant(ctx context.Context, variantPath string) (*Report, error) {
	workID, variantID, err := ParseVariantPath(variantPath)
	if err != nil {
		return nil, err
	}

	var report *Report
	err = s.runner.Run(ctx, jobs.Func{
		Name: workID + "/" + variantID,
		Fn: func(ctx context.Context) error {
			r, err := s.seed(ctx, workID, variantID)
			report = r
			return err
		},
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

// SeedWork encodes the given variants of a work concurrently, every variant of the work when
// none are given. With consolidate set the variant stores are then merged into one work store.
func (s *Seeder) SeedWork(ctx context.Context, workID string, variantIDs []string, consolidate bool) (*WorkReport, error) {
	if len(variantIDs) == 0 {
		found, err := s.Variants(workID)
		if err != nil {
			return nil, err
		}
		variantIDs = found
	}

	var mu sync.Mutex
	reports := make(map[string]*Report, len(variantIDs))
	tasks := make([]jobs.Job, 0, len(variantIDs))
	for _, variantID := range variantIDs {
		tasks = append(tasks, jobs.Func{
			Name: workID + "/" + variantID,
			Fn: func(ctx context.Context) error {
				report, err := s.seed(ctx, workID, variantID)
				if err != nil {
					return err
				}

				mu.Lock()
				defer mu.Unlock()
				reports[variantID] = report

				return nil
			},
		})
	}

	if err := s.runner.Run(ctx, tasks...); err != nil {
		return nil, err
	}

	res := &WorkReport{WorkID: workID}
	sources := make([]string, 0, len(variantIDs))
	for _, variantID := range variantIDs {
		res.Variants = append(res.Variants, reports[variantID])
		sources = append(sources, reports[variantID].Path)
	}

	if !consolidate {
		return res, nil
	}

	merged, mres, err := s.MergeStores(ctx, workID, sources)
	if err != nil {
		return nil, err
	}
	res.Merged = merged
	res.Merge = mres

	return res, nil
}

// Variants lists the variant directories of a work.
func (s *Seeder) Variants(workID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.opts.WorksDir, workID))
	if err != nil {
		return nil, err
	}

	var variants []string
	for _, entry := range entries {
		if entry.IsDir() {
			variants = append(variants, entry.Name())
		}
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoVariants, workID)
	}

	return variants, nil
}

// seed runs one encoding into a staging store that is published only when every row landed.
func (s *Seeder) seed(ctx context.Context, workID, variantID string) (*Report, error) {
	// version metadata is checked before any row is written
	ver, err := s.versions.Version(workID, variantID)
	if err != nil {
		return nil, err
	}

	workTree, err := doctree.LoadFile(filepath.Join(s.opts.WorksDir, workID, workID+".json"))
	if err != nil {
		return nil, fmt.Errorf("load work %s: %w", workID, err)
	}

	tree, err := doctree.LoadFile(filepath.Join(s.opts.WorksDir, workID, variantID, variantID+".json"))
	if err != nil {
		return nil, fmt.Errorf("load variant %s/%s: %w", workID, variantID, err)
	}

	staged, err := s.provider.Provide(variantID)
	if err != nil {
		return nil, err
	}

	var result *encoder.Result
	err = staged.Transaction(ctx, func(tx store.Store) error {
		work := &model.Work{ID: workID, Title: normalize.Text(workTree.Title())}
		if _, err := tx.InsertWork(ctx, work); err != nil {
			return err
		}

		result, err = s.encoder.Encode(ctx, tx, tree, encoder.VariantInfo{
			WorkID:    workID,
			VariantID: variantID,
			Version:   ver,
		})
		return err
	})
	if err != nil {
		return nil, errors.Join(err, staged.Discard())
	}

	if err := staged.Commit(ctx); err != nil {
		return nil, err
	}

	report := &Report{
		WorkID:    workID,
		VariantID: variantID,
		Path:      staged.Final(),
		Result:    result,
	}

	report.Artifact, err = s.Package(report.Path)
	if err != nil {
		return nil, err
	}

	return report, nil
}

// MergeStores merges the sqlite stores at sources into a fresh store named name and returns
// where it was published. With the postgres driver the merged store is the configured database.
func (s *Seeder) MergeStores(ctx context.Context, name string, sources []string) (string, *merge.Result, error) {
	aux := make([]store.Store, 0, len(sources))
	for _, source := range sources {
		a, err := store.OpenReadOnly(store.SqliteConfig(source))
		if err != nil {
			return "", nil, err
		}
		defer a.Close()
		aux = append(aux, a)
	}

	if s.opts.Store.Driver == store.DriverPostgres {
		return s.mergePostgres(ctx, aux)
	}

	main, err := s.provider.Provide(name)
	if err != nil {
		return "", nil, err
	}

	res, err := s.merger.Merge(ctx, main, aux...)
	if err != nil {
		return "", nil, errors.Join(err, main.Discard())
	}

	if err := main.Commit(ctx); err != nil {
		return "", nil, err
	}

	if _, err := s.Package(main.Final()); err != nil {
		return "", nil, err
	}

	return main.Final(), res, nil
}

func (s *Seeder) mergePostgres(ctx context.Context, aux []store.Store) (string, *merge.Result, error) {
	main, err := store.Open(s.opts.Store)
	if err != nil {
		return "", nil, err
	}
	defer main.Close()

	res, err := s.merger.Merge(ctx, main, aux...)
	if err != nil {
		return "", nil, err
	}

	if err := main.Finalize(ctx); err != nil {
		return "", nil, err
	}

	return main.String(), res, nil
}

// Package writes a compressed copy of a finished store next to it and returns its path.
// Without a codec the store itself is the artifact.
func (s *Seeder) Package(path string) (string, error) {
	ext := s.opts.Codec.Ext()
	if ext == "" {
		return path, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	packed, err := s.opts.Codec.Encode(data)
	if err != nil {
		return "", fmt.Errorf("package %s: %w", path, err)
	}

	artifact := path + ext
	tmp := fmt.Sprintf("%s.%s.tmp", artifact, uuid.NewString())
	if err := os.WriteFile(tmp, packed, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, artifact); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}

	logrus.Infof("packaged %s (%d -> %d bytes)", artifact, len(data), len(packed))

	return artifact, nil
}
