package snapshot

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	pdberrors "scifind-backend/internal/errors"
)

// Database wraps the snapshot's GORM handle. A build opens it read-write
// to populate the schema; serve opens the same file read-only, since
// snapshot entities are immutable for the life of a build (§3.2).
type Database struct {
	*gorm.DB
	logger *slog.Logger
}

// OpenForBuild opens (or creates) a snapshot database file for writing.
// The caller is expected to run the whole build inside one transaction.
func OpenForBuild(path string, logger *slog.Logger) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:      newGormLogger(logger),
		NowFunc:     func() time.Time { return time.Now().UTC() },
		PrepareStmt: true,
	})
	if err != nil {
		return nil, pdberrors.NewDatabaseError("open_for_build", err)
	}
	return &Database{DB: db, logger: logger}, nil
}

// OpenReadOnly opens an existing snapshot database for serving. GORM's
// sqlite driver is pointed at a DSN with mode=ro so no write lock is ever
// taken, matching the read-only contract serve-time components must honor.
func OpenReadOnly(path string, logger *slog.Logger) (*Database, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_query_only=true", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: newGormLogger(logger),
	})
	if err != nil {
		return nil, pdberrors.NewDatabaseError("open_read_only", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, pdberrors.NewDatabaseError("connection_pool", err)
	}
	sqlDB.SetMaxOpenConns(16)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return &Database{DB: db, logger: logger}, nil
}

func newGormLogger(logger *slog.Logger) gormlogger.Interface {
	return gormlogger.New(slogWriter{logger: logger}, gormlogger.Config{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      gormlogger.Warn,
	})
}

type slogWriter struct{ logger *slog.Logger }

func (w slogWriter) Printf(format string, args ...interface{}) {
	w.logger.Warn(fmt.Sprintf(format, args...))
}

// Migrate creates every relational table. FTS5 virtual tables are created
// separately via raw SQL since GORM cannot express virtual tables.
func (d *Database) Migrate() error {
	tables := []interface{}{
		&Paper{},
		&PaperKeyAlias{},
		&FacetValue{},
		&PaperFacet{},
		&RelationshipCountCache{},
		&BibTeXEntry{},
		&SnapshotBuild{},
		&BuildDiagnostic{},
	}
	for _, t := range tables {
		if err := d.AutoMigrate(t); err != nil {
			return fmt.Errorf("migrating %T: %w", t, err)
		}
	}
	if err := d.createIndexes(); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}
	return d.createFTSTables()
}

func (d *Database) createIndexes() error {
	stmts := []string{
		"CREATE INDEX IF NOT EXISTS idx_papers_doi ON papers (doi)",
		"CREATE INDEX IF NOT EXISTS idx_papers_title ON papers (title)",
		"CREATE INDEX IF NOT EXISTS idx_paper_facets_value ON paper_facets (facet_value_id)",
	}
	for _, s := range stmts {
		if err := d.Exec(s).Error; err != nil {
			return err
		}
	}
	return nil
}

// createFTSTables creates the two FTS5 virtual tables the query engine
// depends on: the full unicode-word-tokenized corpus, and a trigram index
// restricted to title and venue for typo-tolerant lookups.
func (d *Database) createFTSTables() error {
	stmts := []string{
		`CREATE VIRTUAL TABLE IF NOT EXISTS papers_fts USING fts5(
			paper_id UNINDEXED,
			title,
			authors,
			venue,
			keywords,
			institutions,
			year,
			summary_text,
			source_text,
			translated_text,
			tokenize = 'unicode61 remove_diacritics 2'
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS papers_trgm USING fts5(
			paper_id UNINDEXED,
			title,
			venue,
			tokenize = 'trigram'
		)`,
	}
	for _, s := range stmts {
		if err := d.Exec(s).Error; err != nil {
			return err
		}
	}
	return nil
}
