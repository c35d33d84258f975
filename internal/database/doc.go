// Package database stores processed books and their annotations in SQLite
// through gorm.
//
// Books are keyed by canonical id and annotations are unique by text within
// a book, so saving the same book twice never duplicates anything. Every pass
// over a clippings export is recorded as an ImportRun carrying the BLAKE3
// digest of the export, which lets callers skip exports that have not
// changed since the last successful run.
//
//	db, err := database.NewDatabase("./bookclips.db")
//	written, skipped, err := db.SaveBook(&book)
package database
