package main

import (
	"fmt"
	"os"

	"github.com/mrlokans/bookclips/internal/cli"
	"github.com/mrlokans/bookclips/internal/config"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

type command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	cfg := config.NewConfig()

	// Without a command name the arguments go to clips.
	name, args := "clips", os.Args[1:]
	if len(args) > 0 {
		if _, known := commands[args[0]]; known || isHelp(args[0]) || args[0] == "version" {
			name, args = args[0], args[1:]
		}
	}

	if isHelp(name) {
		printUsage()
		return
	}
	if name == "version" {
		fmt.Printf("bookclips %s (%s)\n", Version, Commit)
		return
	}

	cmd := commands[name](cfg)
	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var commands = map[string]func(*config.Config) command{
	"clips":  func(cfg *config.Config) command { return cli.NewClipsCommand(cfg) },
	"bibid":  func(cfg *config.Config) command { return cli.NewBibIDCommand(cfg) },
	"titles": func(cfg *config.Config) command { return cli.NewTitlesCommand(cfg) },
	"watch":  func(cfg *config.Config) command { return cli.NewWatchCommand(cfg) },
}

func isHelp(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  clips    Write book clippings to markdown and the database (default)\n")
	fmt.Fprintf(os.Stderr, "  bibid    Print the canonical id or BibTeX entry of books\n")
	fmt.Fprintf(os.Stderr, "  titles   List the book titles in the clippings file\n")
	fmt.Fprintf(os.Stderr, "  watch    Re-run clips on a schedule\n")
	fmt.Fprintf(os.Stderr, "  version  Print the version\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
