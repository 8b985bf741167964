package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ponmiso/tsundoku-server/internal/config"
	"github.com/ponmiso/tsundoku-server/internal/isbn"
	"github.com/ponmiso/tsundoku-server/internal/metadata"
)

type LookupCommand struct {
	Code    string
	BaseURL string
	AsJSON  bool
	Timeout time.Duration
}

func NewLookupCommand() *LookupCommand {
	return &LookupCommand{}
}

func (cmd *LookupCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)

	fs.StringVar(&cmd.Code, "isbn", "", "ISBN-13 barcode to look up (required)")
	fs.StringVar(&cmd.BaseURL, "base-url", config.DefaultOpenBDBaseURL, "openBD API base URL")
	fs.BoolVar(&cmd.AsJSON, "json", false, "Print the result as JSON")
	fs.DurationVar(&cmd.Timeout, "timeout", 15*time.Second, "Lookup timeout")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s lookup [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Look up book metadata for an ISBN-13 via the openBD API.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s lookup -isbn 9784780802047\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s lookup -isbn 9784780802047 -json\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Code == "" {
		fs.Usage()
		return fmt.Errorf("isbn is required")
	}

	return nil
}

func (cmd *LookupCommand) Run() error {
	isbn13, err := isbn.Validate(cmd.Code)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	client := metadata.NewOpenBDClient(cmd.BaseURL)
	md, err := client.Resolve(ctx, isbn13)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", isbn13, err)
	}

	if cmd.AsJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(md)
	}

	fmt.Printf("Title:     %s\n", md.Title)
	if len(md.Authors) > 0 {
		fmt.Printf("Authors:   %s\n", strings.Join(md.Authors, ", "))
	}
	if md.Publisher != "" {
		fmt.Printf("Publisher: %s\n", md.Publisher)
	}
	if md.Label != "" {
		fmt.Printf("Label:     %s\n", md.Label)
	}
	if md.PublishDate != nil {
		fmt.Printf("Published: %s\n", md.PublishDate.Format("2006-01-02"))
	}
	if md.PageCount != nil {
		fmt.Printf("Pages:     %d\n", *md.PageCount)
	}
	if md.CoverURL != "" {
		fmt.Printf("Cover:     %s\n", md.CoverURL)
	}
	if md.Description != "" {
		fmt.Printf("\n%s\n", md.Description)
	}
	return nil
}
