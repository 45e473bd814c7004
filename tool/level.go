// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/driverlev/lev/blockkind"
	"github.com/driverlev/lev/internal/base"
	"github.com/driverlev/lev/internal/binfmt"
	"github.com/driverlev/lev/levfile"
	"github.com/driverlev/lev/objstorage"
	"github.com/kr/pretty"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// levelT implements level-file tools, including both configuration state and
// the commands themselves.
type levelT struct {
	Layout  *cobra.Command
	Check   *cobra.Command
	Extract *cobra.Command
	Rewrite *cobra.Command
	Kinds   *cobra.Command

	// Configuration and state.
	opts *levfile.Options

	// Flags.
	optionsPath string
	selection   mask
	strict      bool
	verbose     bool
	raw         bool
	concurrency int
	output      string
	dump        bool
	format      format
	alignment   int
}

func newLevel(opts *levfile.Options) *levelT {
	l := &levelT{opts: opts}

	l.Layout = &cobra.Command{
		Use:   "layout <files>",
		Short: "print level file block layout",
		Long: `
Print the layout of the level files: the header format, the presence mask and
the byte range of every block. The -v flag additionally prints an annotated
dump of the header, and --raw prints the decoded descriptor table.
`,
		Args: cobra.MinimumNArgs(1),
		Run:  l.runLayout,
	}
	l.Check = &cobra.Command{
		Use:   "check <files>",
		Short: "verify level file headers and block ranges",
		Long: `
Verify the level files: decode the header, check that every present block
lies within the file and can be read, and report stray handles and
overlapping blocks. Files are checked concurrently; results are printed in
command line order.
`,
		Args: cobra.MinimumNArgs(1),
		Run:  l.runCheck,
	}
	l.Extract = &cobra.Command{
		Use:   "extract <file> <kind>",
		Short: "extract the data of a block",
		Long: `
Write the data of one block to stdout, or to the file named by -o. The --dump
flag prints a hex dump instead, with offsets relative to the start of the
level file.
`,
		Args: cobra.ExactArgs(2),
		Run:  l.runExtract,
	}
	l.Rewrite = &cobra.Command{
		Use:   "rewrite <src> <dst>",
		Short: "rewrite a level file",
		Long: `
Copy the selected blocks of a level file into a new level file, optionally
changing the header format or the block alignment. Reserved mask bits are
preserved.
`,
		Args: cobra.ExactArgs(2),
		Run:  l.runRewrite,
	}
	l.Kinds = &cobra.Command{
		Use:   "kinds",
		Short: "list the block kinds",
		Args:  cobra.NoArgs,
		Run:   l.runKinds,
	}

	for _, cmd := range []*cobra.Command{l.Layout, l.Check, l.Extract, l.Rewrite} {
		cmd.Flags().StringVar(
			&l.optionsPath, "options", "", "path to an options file")
		cmd.Flags().BoolVar(
			&l.strict, "strict", false, "fail on stray handles in the header")
	}
	for _, cmd := range []*cobra.Command{l.Check, l.Extract, l.Rewrite} {
		cmd.Flags().Var(
			&l.selection, "selection", "blocks to load (e.g. \"textures|world\", \"traffic\", 0x5)")
	}
	l.Layout.Flags().BoolVarP(
		&l.verbose, "verbose", "v", false, "verbose output")
	l.Layout.Flags().BoolVar(
		&l.raw, "raw", false, "print the decoded descriptor table")
	l.Check.Flags().IntVarP(
		&l.concurrency, "concurrency", "c", 4, "number of files checked concurrently")
	l.Extract.Flags().StringVarP(
		&l.output, "output", "o", "", "write the block to this file")
	l.Extract.Flags().BoolVar(
		&l.dump, "dump", false, "print a hex dump of the block")
	l.Rewrite.Flags().Var(
		&l.format, "format", "header format of the new file (legacy or v2)")
	l.Rewrite.Flags().IntVar(
		&l.alignment, "alignment", 0, "block alignment of the new file")

	return l
}

// readerOptions returns the reader options for cmd: the options file (or the
// tool defaults), overridden by any flags that were set.
func (l *levelT) readerOptions(cmd *cobra.Command, logger base.Logger) (levfile.Options, error) {
	opts := *l.opts
	if l.optionsPath != "" {
		data, err := os.ReadFile(l.optionsPath)
		if err != nil {
			return opts, err
		}
		if err := opts.Parse(string(data)); err != nil {
			return opts, errors.Wrapf(err, "%s", l.optionsPath)
		}
	}
	if cmd.Flags().Changed("strict") {
		opts.Reader.Strict = l.strict
	}
	if f := cmd.Flags().Lookup("selection"); f != nil && f.Changed {
		opts.Reader.Selection = blockkind.Mask(l.selection)
	}
	opts.Reader.Logger = logger
	return opts, nil
}

func (l *levelT) runLayout(cmd *cobra.Command, args []string) {
	opts, err := l.readerOptions(cmd, stderrLogger{})
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	ctx := context.Background()
	for _, arg := range args {
		func() {
			fmt.Fprintf(stdout, "%s\n", arg)
			r, err := levfile.OpenFile(ctx, arg, opts.Reader)
			if err != nil {
				fmt.Fprintf(stdout, "%s\n", err)
				return
			}
			defer r.Close()

			r.Layout().Describe(stdout, l.verbose, r.HeaderData())
			if l.raw {
				pretty.Fprintf(stdout, "%# v\n", r.Table())
			}
		}()
	}
}

func (l *levelT) runCheck(cmd *cobra.Command, args []string) {
	opts, err := l.readerOptions(cmd, base.NoopLogger{})
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		osExit(1)
		return
	}

	results := make([]string, len(args))
	failed := make([]bool, len(args))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(l.concurrency, 1))
	for i, arg := range args {
		g.Go(func() error {
			var buf strings.Builder
			if err := checkFile(ctx, &buf, arg, opts.Reader); err != nil {
				fmt.Fprintf(&buf, "%s: %s\n", arg, err)
				failed[i] = true
			}
			results[i] = buf.String()
			return nil
		})
	}
	_ = g.Wait()

	var anyFailed bool
	for i := range args {
		fmt.Fprint(stdout, results[i])
		anyFailed = anyFailed || failed[i]
	}
	if anyFailed {
		osExit(1)
	}
}

// checkFile verifies a single level file, writing warnings and a summary line
// to w.
func checkFile(ctx context.Context, w *strings.Builder, path string, o levfile.ReaderOptions) error {
	readable, err := objstorage.OpenFile(path)
	if err != nil {
		return err
	}
	r, err := levfile.NewReader(ctx, readable, o)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, err := range r.Inconsistencies() {
		fmt.Fprintf(w, "%s: WARNING: %s\n", path, err)
	}
	for _, ov := range r.Layout().Overlaps() {
		fmt.Fprintf(w, "%s: WARNING: blocks %s and %s overlap\n", path, ov.A, ov.B)
	}
	selected := r.Selected()
	for _, d := range selected {
		if _, err := r.ReadBlock(ctx, d.Kind); err != nil {
			return err
		}
	}

	summary := []string{fmt.Sprintf("%d blocks", len(selected)), r.Format().String()}
	if r.HasTraffic() {
		summary = append(summary, "traffic")
	}
	fmt.Fprintf(w, "%s: OK (%s)\n", path, strings.Join(summary, ", "))
	return nil
}

func (l *levelT) runExtract(cmd *cobra.Command, args []string) {
	path, name := args[0], args[1]
	k, ok := blockkind.Parse(name)
	if !ok {
		fmt.Fprintf(stderr, "unknown block kind %q\n", name)
		return
	}
	opts, err := l.readerOptions(cmd, stderrLogger{})
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}

	ctx := context.Background()
	r, err := levfile.OpenFile(ctx, path, opts.Reader)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	defer r.Close()

	data, err := r.ReadBlock(ctx, k)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %s\n", path, err)
		return
	}
	switch {
	case l.dump:
		h, _ := r.Table().ByteRange(k)
		binfmt.FHexDump(stdout, data, int64(h.Offset), 16, true)
	case l.output != "":
		if err := os.WriteFile(l.output, data, 0644); err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	default:
		_, _ = stdout.Write(data)
	}
}

func (l *levelT) runRewrite(cmd *cobra.Command, args []string) {
	src, dst := args[0], args[1]
	opts, err := l.readerOptions(cmd, stderrLogger{})
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	if err := rewrite(src, dst, opts, levfile.Format(l.format), l.alignment); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
	}
}

func rewrite(src, dst string, opts levfile.Options, f levfile.Format, alignment int) error {
	ctx := context.Background()
	r, err := levfile.OpenFile(ctx, src, opts.Reader)
	if err != nil {
		return err
	}
	defer r.Close()

	wo := opts.Writer
	if f != levfile.FormatUnspecified {
		wo.Format = f
	} else {
		wo.Format = r.Format()
	}
	if alignment != 0 {
		wo.Alignment = alignment
	}
	writable, err := objstorage.CreateFile(dst)
	if err != nil {
		return err
	}
	meta, err := copyBlocks(ctx, r, writable, wo)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s (%d blocks, %s, %d bytes)\n",
		dst, meta.Table.Mask().Count(), meta.Format, meta.Size)
	return nil
}

// copyBlocks writes the selected blocks of r, and its reserved mask bits, to
// writable. On error the writable is aborted.
func copyBlocks(
	ctx context.Context, r *levfile.Reader, writable objstorage.Writable, wo levfile.WriterOptions,
) (*levfile.WriterMetadata, error) {
	w := levfile.NewWriter(writable, wo)
	w.SetReserved(r.Table().Mask())
	for _, d := range r.Selected() {
		data, err := r.ReadBlock(ctx, d.Kind)
		if err != nil {
			w.Abort()
			return nil, err
		}
		if err := w.Add(d.Kind, data); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return w.Metadata()
}

func (l *levelT) runKinds(cmd *cobra.Command, args []string) {
	tw := tabwriter.NewWriter(stdout, 2, 1, 2, ' ', 0)
	fmt.Fprintf(tw, "slot\tkind\tflag\n")
	for slot := 0; slot < blockkind.NumberOfBlocks; slot++ {
		k, ok := blockkind.AtSlot(slot)
		if !ok {
			fmt.Fprintf(tw, "%d\t(reserved)\t-\n", slot)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t0x%08x\n", slot, k, uint32(k.Flag()))
	}
	_ = tw.Flush()
	fmt.Fprintf(stdout, "traffic: %s\n", blockkind.Traffic)
}
