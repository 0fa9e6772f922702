package database

import (
	"errors"
	"time"

	"github.com/draftroomhq/draftroom/backend/internal/documents"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationBackfillCommentBaselines = "2026-07-21_backfill_comment_baselines"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillCommentBaselines, apply: backfillCommentBaselines},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// backfillCommentBaselines copies the current snapshot into the previous slot
// for documents that predate baseline tracking. Without a baseline the first
// save after upgrade would treat every stored comment as new and re-notify
// everyone.
func backfillCommentBaselines(db *gorm.DB) error {
	const statement = `
		INSERT INTO document_meta (document_id, meta_key, payload_json, updated_at_s)
		SELECT live.document_id, ?, live.payload_json, live.updated_at_s
		FROM document_meta AS live
		WHERE live.meta_key = ?
		  AND NOT EXISTS (
			SELECT 1 FROM document_meta AS baseline
			WHERE baseline.document_id = live.document_id
			  AND baseline.meta_key = ?
		  );`
	return db.Exec(
		statement,
		documents.MetaKeyCommentsPrevious,
		documents.MetaKeyCommentsCurrent,
		documents.MetaKeyCommentsPrevious,
	).Error
}
