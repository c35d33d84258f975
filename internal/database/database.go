package database

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookclips/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Annotation{},
		&entities.ImportRun{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveBook upserts a book by canonical id and appends the annotations whose
// text is not stored for that book yet. It returns how many annotations were
// written and how many were already present.
func (d *Database) SaveBook(book *entities.Book) (written, skipped int, err error) {
	err = d.DB.Transaction(func(tx *gorm.DB) error {
		var existing entities.Book
		result := tx.Preload("Annotations").Where("canonical_id = ?", book.CanonicalID).First(&existing)

		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			total := len(book.Annotations)
			book.Annotations = uniqueAnnotations(book.Annotations)
			written = len(book.Annotations)
			skipped = total - written
			return tx.Create(book).Error
		}
		if result.Error != nil {
			return result.Error
		}

		seen := make(map[string]struct{}, len(existing.Annotations))
		for _, a := range existing.Annotations {
			seen[annotationKey(a)] = struct{}{}
		}

		var fresh []entities.Annotation
		for _, a := range book.Annotations {
			if _, ok := seen[annotationKey(a)]; ok {
				skipped++
				continue
			}
			seen[annotationKey(a)] = struct{}{}
			a.BookID = existing.ID
			fresh = append(fresh, a)
		}

		book.ID = existing.ID
		book.CreatedAt = existing.CreatedAt
		if err := tx.Omit("Annotations").Save(book).Error; err != nil {
			return fmt.Errorf("failed to update book %s: %w", book.CanonicalID, err)
		}
		if len(fresh) > 0 {
			if err := tx.Create(&fresh).Error; err != nil {
				return fmt.Errorf("failed to add annotations to %s: %w", book.CanonicalID, err)
			}
		}
		written = len(fresh)
		book.Annotations = append(existing.Annotations, fresh...)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return written, skipped, nil
}

// annotationKey identifies an annotation within a book. Bookmarks carry no
// text, so their location stands in for it.
func annotationKey(a entities.Annotation) string {
	if a.Kind == entities.AnnotationKindBookmark {
		return fmt.Sprintf("bookmark@%d", a.LocationStart)
	}
	return a.Text
}

func uniqueAnnotations(annotations []entities.Annotation) []entities.Annotation {
	seen := make(map[string]struct{}, len(annotations))
	out := annotations[:0]
	for _, a := range annotations {
		if _, ok := seen[annotationKey(a)]; ok {
			continue
		}
		seen[annotationKey(a)] = struct{}{}
		out = append(out, a)
	}
	return out
}

func (d *Database) GetBookByCanonicalID(canonicalID string) (*entities.Book, error) {
	var book entities.Book
	err := d.DB.Preload("Annotations", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Where("canonical_id = ?", canonicalID).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (d *Database) GetStats() (totalBooks int64, totalAnnotations int64, err error) {
	err = d.DB.Model(&entities.Book{}).Count(&totalBooks).Error
	if err != nil {
		return
	}
	err = d.DB.Model(&entities.Annotation{}).Count(&totalAnnotations).Error
	return
}
