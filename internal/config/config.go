package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultClippingsPath = "/Volumes/Kindle/documents/My Clippings.txt"
	DefaultBackupPath    = "kindle-clippings.txt"
	DefaultDatabasePath  = "./bookclips.db"
)

type (
	Config struct {
		Clippings
		Output
		Database
		Anchor
		Calibre
		Watch
		Tasks
	}

	Clippings struct {
		Path       string
		BackupPath string
		Backup     bool // Copy the export to BackupPath before reading it
	}
	Output struct {
		Dir     string // Markdown files, one per book
		TextDir string // Plain-text renditions used for anchors
	}
	Database struct {
		Path string // Empty disables the database sink
	}
	Anchor struct {
		Workers int
		Timeout time.Duration // Per book, 0 for no limit
	}
	Calibre struct {
		MetaBin    string
		ConvertBin string
	}
	Watch struct {
		Schedule string // Cron format: "*/30 * * * *" = every 30 minutes
	}
	Tasks struct {
		Workers int
	}
)

// NewConfig reads the configuration from the environment. A .env file in the
// working directory is loaded first if present; variables already set in
// the environment win over it.
func NewConfig() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("clippings_path", DefaultClippingsPath)
	v.SetDefault("clippings_backup_path", DefaultBackupPath)
	v.SetDefault("clippings_backup", true)
	v.SetDefault("output_dir", "./clippings")
	v.SetDefault("text_dir", "./texts")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("anchor_workers", 4)
	v.SetDefault("anchor_timeout", "2m")
	v.SetDefault("ebook_meta_bin", "ebook-meta")
	v.SetDefault("ebook_convert_bin", "ebook-convert")
	v.SetDefault("watch_schedule", "*/30 * * * *")
	v.SetDefault("task_workers", 2)

	return &Config{
		Clippings: Clippings{
			Path:       v.GetString("CLIPPINGS_PATH"),
			BackupPath: v.GetString("CLIPPINGS_BACKUP_PATH"),
			Backup:     v.GetBool("CLIPPINGS_BACKUP"),
		},
		Output: Output{
			Dir:     v.GetString("OUTPUT_DIR"),
			TextDir: v.GetString("TEXT_DIR"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Anchor: Anchor{
			Workers: v.GetInt("ANCHOR_WORKERS"),
			Timeout: v.GetDuration("ANCHOR_TIMEOUT"),
		},
		Calibre: Calibre{
			MetaBin:    v.GetString("EBOOK_META_BIN"),
			ConvertBin: v.GetString("EBOOK_CONVERT_BIN"),
		},
		Watch: Watch{
			Schedule: v.GetString("WATCH_SCHEDULE"),
		},
		Tasks: Tasks{
			Workers: v.GetInt("TASK_WORKERS"),
		},
	}
}
