package cmd

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/sourcegraph/conc/iter"
	"github.com/spf13/cobra"

	"github.com/redcode-editor/redcode/internal/errors"
	"github.com/redcode-editor/redcode/internal/language"
	"github.com/redcode-editor/redcode/internal/storage"
)

var detectCmd = &cobra.Command{
	Use:   "detect <file>...",
	Short: "Print the language redcode detects for each file",
	Long: `Print the language redcode would assign to each file, using the same
rules as the editor: file extension first, then shebang and content hints.

Missing or unreadable files are reported and skipped; the command exits
non-zero if any file failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().Bool("mime", false, "print the MIME type instead of the language name")
}

type detection struct {
	file string
	lang language.Language
	err  error
}

func runDetect(cmd *cobra.Command, args []string) error {
	showMIME, _ := cmd.Flags().GetBool("mime")
	store := storage.NewOSFS()
	ctx := cmd.Context()

	results := iter.Map(args, func(arg *string) detection {
		path, err := filepath.Abs(*arg)
		if err != nil {
			return detection{file: *arg, err: err}
		}
		data, err := store.Read(ctx, path)
		if err != nil {
			return detection{file: *arg, err: err}
		}
		text, err := storage.DecodeText(data)
		if err != nil {
			return detection{file: *arg, err: err}
		}
		return detection{file: *arg, lang: language.Classify(filepath.Base(path), text)}
	})

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	var errs []error
	for _, r := range results {
		if r.err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.file, r.err)
			errs = append(errs, r.err)
			continue
		}
		label := r.lang.DisplayName()
		if showMIME {
			label = r.lang.MIMEType()
		}
		fmt.Fprintf(w, "%s\t%s\n", r.file, label)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return errors.Join(errs...)
}
