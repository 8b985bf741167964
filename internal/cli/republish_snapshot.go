package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/ponmiso/tsundoku-server/internal/config"
	"github.com/ponmiso/tsundoku-server/internal/database"
	"github.com/ponmiso/tsundoku-server/internal/database/books"
	"github.com/ponmiso/tsundoku-server/internal/database/settings"
	"github.com/ponmiso/tsundoku-server/internal/snapshot"
)

// RepublishSnapshotCommand rebuilds the unread snapshot from the books table.
// Useful after restoring a database backup or editing rows by hand.
type RepublishSnapshotCommand struct {
	DatabasePath string
}

func NewRepublishSnapshotCommand() *RepublishSnapshotCommand {
	return &RepublishSnapshotCommand{}
}

func (cmd *RepublishSnapshotCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("republish-snapshot", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s republish-snapshot [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Recompute the unread snapshot from the current books table.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *RepublishSnapshotCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	bookRepo := books.NewRepository(db.DB)
	settingsRepo := settings.NewRepository(db.DB)
	publisher := snapshot.NewPublisher(settingsRepo)

	allBooks, err := bookRepo.GetAllBooks()
	if err != nil {
		return fmt.Errorf("load books: %w", err)
	}

	if err := publisher.Publish(allBooks); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}

	unread := 0
	for i := range allBooks {
		if allBooks[i].IsUnread() {
			unread++
		}
	}
	fmt.Printf("Republished snapshot: %d unread of %d books\n", unread, len(allBooks))
	return nil
}
