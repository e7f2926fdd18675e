package cli

import (
	"fmt"

	"github.com/pfrederiksen/pcjc-awards/internal/award"
	"github.com/pfrederiksen/pcjc-awards/internal/listing"
	"github.com/spf13/cobra"
)

var flagListKind string

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <listing-file>",
		Short: "Print the award references found in a directory listing",
		Long: `Walk a recursive directory listing (as produced by "ls -R") and print
every award page and photo it names. Use "-" to read the listing from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: runList,
	}
	cmd.Flags().StringVar(&flagListKind, "kind", "all", "Reference kind to print: html, image or all")
	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	keep, err := kindFilter(flagListKind)
	if err != nil {
		return err
	}

	in, err := openInput(cmd, args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	lines, err := listing.ReadLines(in)
	if err != nil {
		return err
	}

	var refs []award.Reference
	for ref := range listing.WalkLines(lines) {
		if keep(ref) {
			refs = append(refs, ref)
		}
	}

	if err := WriteReferences(cmd.OutOrStdout(), refs, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func kindFilter(kind string) (func(award.Reference) bool, error) {
	switch kind {
	case "all", "":
		return func(award.Reference) bool { return true }, nil
	case "html", "image":
		var want award.Kind
		if err := want.UnmarshalText([]byte(kind)); err != nil {
			return nil, err
		}
		return func(r award.Reference) bool { return r.Kind == want }, nil
	default:
		return nil, fmt.Errorf("invalid kind: %s (must be 'html', 'image' or 'all')", kind)
	}
}
