// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/driverlev/lev/blockkind"
	"github.com/driverlev/lev/levfile"
	"github.com/driverlev/lev/objstorage"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// writeFixtures writes the level files used by the tool tests to dir.
func writeFixtures(t *testing.T, dir string) {
	build := func(opts levfile.WriterOptions, blocks map[blockkind.Kind]string) []byte {
		var writable objstorage.MemWritable
		w := levfile.NewWriter(&writable, opts)
		for k, data := range blocks {
			require.NoError(t, w.Add(k, []byte(data)))
		}
		require.NoError(t, w.Close())
		return writable.Data()
	}
	write := func(name string, data []byte) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
	}
	// Offset of the offset field of the handle in slot s of a legacy header.
	slotOffset := func(s int) int { return 4 + 8*s }

	basic := build(levfile.WriterOptions{}, map[blockkind.Kind]string{
		blockkind.Textures: "tex",
		blockkind.World:    "world!",
		blockkind.Lamps:    "",
	})
	write("basic.lev", basic)
	write("traffic.lev", build(levfile.WriterOptions{Format: levfile.FormatV2}, map[blockkind.Kind]string{
		blockkind.Intersections: "ix",
		blockkind.RoadSections:  "rs",
	}))

	stray := bytes.Clone(basic)
	binary.LittleEndian.PutUint32(stray[slotOffset(blockkind.TextureDefinitions.Slot()):], 100)
	write("stray.lev", stray)

	overlap := bytes.Clone(basic)
	binary.LittleEndian.PutUint32(overlap[slotOffset(blockkind.World.Slot()):], 173)
	write("overlap.lev", overlap)

	write("broken.lev", basic[:100])
	write("strict.ini", []byte("[Reader]\n  strict=true\n"))
}

// runTool runs the tool with args, returning everything written to stdout
// and stderr along with any exit code.
func runTool(t *testing.T, args ...string) string {
	var buf bytes.Buffer
	stdout = &buf
	stderr = &buf
	osExit = func(code int) { fmt.Fprintf(&buf, "exit %d\n", code) }
	defer func() {
		stdout = os.Stdout
		stderr = os.Stderr
		osExit = os.Exit
	}()

	c := &cobra.Command{}
	c.AddCommand(New().Commands...)
	c.SetArgs(args)
	c.SetOut(&buf)
	c.SetErr(&buf)
	if err := c.Execute(); err != nil {
		return err.Error()
	}
	return buf.String()
}

func TestLevelTool(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	datadriven.RunTest(t, "testdata/level", func(t *testing.T, td *datadriven.TestData) string {
		args := []string{td.Cmd}
		for _, arg := range td.CmdArgs {
			args = append(args, strings.ReplaceAll(arg.String(), "$TMP", dir))
		}
		for _, f := range strings.Fields(td.Input) {
			args = append(args, strings.ReplaceAll(f, "$TMP", dir))
		}
		return strings.ReplaceAll(runTool(t, args...), dir, "$TMP")
	})
}

func TestLayoutCommand(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	out := runTool(t, "layout", filepath.Join(dir, "basic.lev"), filepath.Join(dir, "broken.lev"))
	require.Contains(t, out, "format: legacy\n")
	require.Contains(t, out, "mask: 0x00080005 textures|world|lamps\n")
	require.Contains(t, out, "(reserved)")
	require.Contains(t, out, "unaccounted: 3 bytes\n")
	require.Contains(t, out, "invalid level file (file size 100 is too small)")
	require.NotContains(t, out, "header:")

	out = runTool(t, "layout", "-v", "--raw", filepath.Join(dir, "stray.lev"))
	require.Contains(t, out, "blocktable: ignoring stray handle: slot 5 (texture-definitions)")
	require.Contains(t, out, "header:\n")
	require.Contains(t, out, "# 100: slot 5 (texture-definitions) offset")
	require.Contains(t, out, "blocktable.Table{")

	out = runTool(t, "layout", filepath.Join(dir, "overlap.lev"))
	require.Contains(t, out, "overlap: textures and world\n")
}

func TestExtractToFile(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	out := filepath.Join(dir, "textures.bin")
	require.Equal(t, "", runTool(t, "extract", "-o", out, filepath.Join(dir, "basic.lev"), "textures"))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "tex", string(data))
}

func TestMaskFlag(t *testing.T) {
	var m mask
	require.NoError(t, m.Set("textures|world"))
	require.Equal(t, blockkind.MaskTextures|blockkind.MaskWorld, blockkind.Mask(m))
	require.Equal(t, "textures|world", m.String())
	require.NoError(t, m.Set("0x30300"))
	require.Equal(t, blockkind.Traffic, blockkind.Mask(m))
	require.Error(t, m.Set("bogus"))
	require.ErrorContains(t, m.Set("none"), "selects no blocks")
	require.ErrorContains(t, m.Set("0x8"), "selects no blocks")
	require.Equal(t, blockkind.Traffic, blockkind.Mask(m))

	var f format
	require.Equal(t, "", f.String())
	require.NoError(t, f.Set("v2"))
	require.Equal(t, levfile.FormatV2, levfile.Format(f))
	require.Error(t, f.Set("v3"))
}

// failingReadable fails every read at or past failOffset.
type failingReadable struct {
	objstorage.BytesReadable
	failOffset int64
}

func (r failingReadable) ReadAt(ctx context.Context, p []byte, off int64) error {
	if off >= r.failOffset {
		return errors.New("injected read error")
	}
	return r.BytesReadable.ReadAt(ctx, p, off)
}

func TestRewriteRemovesDestinationOnReadError(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	data, err := os.ReadFile(filepath.Join(dir, "basic.lev"))
	require.NoError(t, err)

	ctx := context.Background()
	readable := failingReadable{BytesReadable: data, failOffset: int64(levfile.FormatLegacy.HeaderLen())}
	r, err := levfile.NewReader(ctx, readable, levfile.ReaderOptions{})
	require.NoError(t, err)
	defer r.Close()

	dst := filepath.Join(dir, "dst.lev")
	writable, err := objstorage.CreateFile(dst)
	require.NoError(t, err)
	_, err = copyBlocks(ctx, r, writable, levfile.WriterOptions{})
	require.ErrorContains(t, err, "injected read error")
	_, err = os.Stat(dst)
	require.True(t, os.IsNotExist(err))
}
