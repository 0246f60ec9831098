package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jp2kit/go-jp2-codec/codec"
	"github.com/jp2kit/go-jp2-codec/jp2"
	"github.com/jp2kit/go-jp2-codec/jpeg2000/codestream"
	"github.com/jp2kit/go-jp2-codec/pgx"
)

// NewRoot builds the jp2dec command tree.
func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jp2dec",
		Short: "decode JPEG 2000 Part 1 images",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFile, _ := cmd.Flags().GetString("log-file")

			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
				level = slog.LevelInfo
			}

			var out io.Writer = os.Stderr
			if logFile != "" {
				out = &lumberjack.Logger{
					Filename:   logFile,
					MaxSize:    20, // megabytes
					MaxBackups: 3,
				}
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		newVersionCmd(gitsha),
		newDecodeCmd(ctx),
		newInfoCmd(ctx),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-file", "", "log to a rotated file instead of stderr")
	return cmd
}

func newVersionCmd(gitsha string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(gitsha)
		},
	}
}

func newDecodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <input.jp2|input.j2k>",
		Short: "decode to one PGX file per component",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, _ := cmd.Flags().GetString("out")

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			dec, err := codec.Detect(data)
			if err != nil {
				return fmt.Errorf("%s: unrecognized format", args[0])
			}

			res, err := dec.Decode(data)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			for i, plane := range res.Planes {
				name := filepath.Join(outDir, fmt.Sprintf("%s_%d.pgx", base, i))
				f, err := os.Create(name)
				if err != nil {
					return err
				}
				if err := pgx.Write(f, plane); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				slog.Info("wrote component", "path", name,
					"size", fmt.Sprintf("%dx%d", plane.Width, plane.Height),
					"bits", plane.BitDepth)
			}
			return nil
		},
	}
	cmd.Flags().StringP("out", "o", ".", "output directory for PGX files")
	return cmd
}

func newInfoCmd(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "info <input.jp2|input.j2k>",
		Short: "dump main-header parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			stream, err := extractCodestream(data)
			if err != nil {
				return err
			}
			cs, err := codestream.NewParser(stream).Parse()
			if err != nil {
				return err
			}

			siz := cs.SIZ
			fmt.Printf("grid: %dx%d offset (%d,%d)\n", siz.Xsiz, siz.Ysiz, siz.XOsiz, siz.YOsiz)
			fmt.Printf("tiles: %dx%d of %dx%d\n", siz.NumTilesX(), siz.NumTilesY(), siz.XTsiz, siz.YTsiz)
			fmt.Printf("components: %d\n", siz.Csiz)
			for i, c := range siz.Components {
				sign := "unsigned"
				if c.IsSigned() {
					sign = "signed"
				}
				fmt.Printf("  [%d] %d-bit %s, sub-sampling %dx%d\n", i, c.BitDepth(), sign, c.XRsiz, c.YRsiz)
			}
			cod := cs.COD
			filter := "9-7 irreversible"
			if cod.Reversible() {
				filter = "5-3 reversible"
			}
			cbw, cbh := cod.CodeBlockSize()
			fmt.Printf("coding: %d levels, %s, %d layer(s), code-blocks %dx%d, progression %d\n",
				cod.NumberOfDecompositionLevels, filter, cod.NumberOfLayers, cbw, cbh, cod.ProgressionOrder)
			fmt.Printf("tile-parts: %d\n", countTileParts(cs))
			return nil
		},
	}
}

func countTileParts(cs *codestream.Codestream) int {
	n := 0
	for _, t := range cs.Tiles {
		n += len(t.Parts)
	}
	return n
}

// extractCodestream unwraps a JP2 file or passes a raw codestream through.
func extractCodestream(data []byte) ([]byte, error) {
	if jp2.IsRawCodestream(data) {
		return data, nil
	}
	f, err := jp2.ReadFile(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return f.Codestreams[0], nil
}
