package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ironsheep/labelscan/internal/imaging"
	"github.com/ironsheep/labelscan/internal/pubchem"
	"github.com/ironsheep/labelscan/internal/session"
)

func newScanCmd(load loader) *cobra.Command {
	var (
		region  imaging.Region
		asJSON  bool
		textOut bool
	)

	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Extract and look up the ingredients of one label photo",
		Long: `Run the whole pipeline once on an image file. The crop box is given in
source pixels; without one the detected text block is used, or the whole
image when no text block is found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, os.Stderr)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open image: %w", err)
			}
			defer f.Close()

			snap, err := a.svc.Scan(cmd.Context(), f, region)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			case textOut:
				_, err := fmt.Fprintln(out, snap.Text)
				return err
			default:
				return printResults(out, snap)
			}
		},
	}

	f := cmd.Flags()
	f.IntVar(&region.Left, "left", 0, "crop box left edge in source pixels")
	f.IntVar(&region.Top, "top", 0, "crop box top edge in source pixels")
	f.IntVar(&region.Width, "width", 0, "crop box width in source pixels")
	f.IntVar(&region.Height, "height", 0, "crop box height in source pixels")
	f.BoolVar(&asJSON, "json", false, "print the full result as JSON")
	f.BoolVar(&textOut, "text", false, "print only the recognized text")
	f.String("ocr-language", "eng", "Tesseract language code")
	return cmd
}

func printResults(w io.Writer, snap session.Snapshot) error {
	if snap.Region != nil {
		fmt.Fprintf(w, "region: %s\n\n", snap.Region)
	}
	if len(snap.Results) == 0 {
		_, err := fmt.Fprintln(w, "no ingredients found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INGREDIENT\tSTATUS\tCID\tFORMULA\tNAME")
	for _, r := range snap.Results {
		cid, formula, name := "-", "-", "-"
		switch r.Status {
		case pubchem.StatusFound:
			cid = fmt.Sprint(r.Compound.CID)
			formula = r.Compound.MolecularFormula
			name = r.Compound.Title
		case pubchem.StatusFailed:
			name = r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Candidate.Original, r.Status, cid, formula, name)
	}
	return tw.Flush()
}
