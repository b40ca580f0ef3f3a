package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"healthtrends/internal/healthexport"
	"healthtrends/internal/transform"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <export.zip|export.xml>",
	Short: "Extract and type an export without writing anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		batch, err := extractFile(args[0])
		if err != nil {
			return err
		}
		tables := transform.Build(batch, transform.Stamp{UpdatedBy: "inspect", At: time.Now().UTC()})

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "TABLE\tINPUT\tKEPT\tDROPPED\tWARNINGS")
		for _, r := range tables.Reports {
			fmt.Fprintf(out, "%s\t%d\t%d\t%d\t%d\n", r.Table, r.Input, r.Kept, r.Dropped, len(r.Warnings))
		}
		return nil
	},
}

func extractFile(path string) (*healthexport.Batch, error) {
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return healthexport.ExtractAll(f)
	}

	archive, err := healthexport.OpenArchive(path)
	if err != nil {
		return nil, err
	}
	defer archive.Close()
	return archive.Extract()
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
