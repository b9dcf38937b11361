package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	ferrors "git.home.luguber.info/inful/commentlink/internal/foundation/errors"
	"git.home.luguber.info/inful/commentlink/internal/reportstore"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit      int    `short:"n" default:"10" help:"Number of scans to list"`
	Unresolved bool   `short:"u" help:"Only show unresolved links of the selected scan"`
	Prune      int    `help:"Delete all but the newest N scans" placeholder:"N"`
	JSON       bool   `help:"Print JSON instead of text"`
	ScanID     string `arg:"" optional:"" help:"Show the results of one scan"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if !cfg.Store.Enabled {
		return ferrors.ConfigError("scan history is disabled; set store.enabled in the configuration").Build()
	}
	store, err := reportstore.Open(storePath(cfg, root.Config))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if h.Prune > 0 {
		n, err := store.Prune(ctx, h.Prune)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d scan%s\n", n, plural(n))
		return nil
	}
	if h.ScanID != "" {
		return h.showScan(ctx, os.Stdout, store)
	}

	scans, err := store.ListScans(ctx, h.Limit)
	if err != nil {
		return err
	}
	if h.JSON {
		return writeJSON(os.Stdout, scans)
	}
	if len(scans) == 0 {
		fmt.Println("No scans recorded")
		return nil
	}
	for _, s := range scans {
		kind := "files"
		if s.Full {
			kind = "full"
		}
		fmt.Printf("%s  %s  %-5s  %d links, %d unresolved  %s\n",
			s.ID, s.StartedAt.Local().Format("2006-01-02 15:04:05"), kind, s.Links, s.Unresolved, s.WorkspaceRoot)
	}
	return nil
}

func (h *HistoryCmd) showScan(ctx context.Context, w io.Writer, store *reportstore.SQLiteStore) error {
	rec, err := store.Scan(ctx, h.ScanID)
	if err != nil {
		return err
	}
	results, err := store.Results(ctx, h.ScanID, h.Unresolved)
	if err != nil {
		return err
	}
	if h.JSON {
		return writeJSON(w, struct {
			Scan    reportstore.ScanRecord     `json:"scan"`
			Results []reportstore.ResultRecord `json:"results"`
		}{rec, results})
	}
	fmt.Fprintf(w, "Scan %s of %s: %d links, %d unresolved\n", rec.ID, rec.WorkspaceRoot, rec.Links, rec.Unresolved)
	for _, r := range results {
		fmt.Fprintf(w, "  %s:%d:%d [%s](%s) %s", r.File, r.Line, r.Column, r.Label, r.Target, r.Status)
		if r.Reason != "" {
			fmt.Fprintf(w, ": %s", r.Reason)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
