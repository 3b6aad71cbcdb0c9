package main

import (
	"chat-relay/infrastructure/storage"
	"chat-relay/internal"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/pflag"
)

type options struct {
	dbPath string
	prefix string
	limit  int
	serve  bool
	port   int
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "inspect: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	db, err := openDB(opts.dbPath)
	if err != nil {
		return fmt.Errorf("opening badger: %w", err)
	}
	defer db.Close()

	if opts.serve {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(out, "Inspector started at http://localhost:%d/inspect\n", opts.port)
		go database.StartDebugServer(db, opts.port, "/inspect", internal.InspectMapper)
		<-ctx.Done()
		return nil
	}

	return render(db, opts, out)
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	fs.StringVar(&opts.dbPath, "db", database.DefaultPath, "path to the badger directory")
	fs.StringVar(&opts.prefix, "prefix", "", "only keys starting with this prefix (msg:, user:id:, post:id:)")
	fs.IntVar(&opts.limit, "limit", 0, "maximum number of rows, 0 for all")
	fs.BoolVar(&opts.serve, "serve", false, "serve the web inspector instead of printing a table")
	fs.IntVar(&opts.port, "port", 8081, "web inspector port")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.limit < 0 {
		return options{}, fmt.Errorf("--limit must be positive, got %d", opts.limit)
	}
	return opts, nil
}

func render(db *badger.DB, opts options, out io.Writer) error {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Key", "Kind", "Created", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows := 0
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(opts.prefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if opts.limit > 0 && rows >= opts.limit {
				return nil
			}
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				record := storage.Inspect(key, v)
				created := ""
				if !record.CreatedAt.IsZero() {
					created = record.CreatedAt.Format("2006-01-02 15:04:05")
				}
				table.Append([]string{shorten(key, 48), record.Kind, created, shorten(record.Detail, 80)})
				return nil
			})
			if err != nil {
				return err
			}
			rows++
		}
		return nil
	})
	if err != nil {
		return err
	}

	table.Render()
	fmt.Fprintf(out, "%d entries\n", rows)
	return nil
}

func shorten(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// openDB opens the store read-only next to a running relay.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
