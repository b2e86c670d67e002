package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gallerize/internal/config"
	"gallerize/internal/logging"
	"gallerize/internal/pipeline"
	"gallerize/internal/transform"

	"github.com/spf13/cobra"
)

const (
	exitFatal = 1
	exitUsage = 2
)

func main() {
	cfg := config.Default()
	var configFile string
	var noDownload, noSort, noOrient, quiet bool

	root := &cobra.Command{
		Use:   "gallerize <input-dir> <output-dir> [album-name]",
		Short: "Generate a static photo and video gallery",
		Long: `gallerize reads the media files of one directory and produces a
self-contained static gallery: scaled previews, cropped thumbnails, blurred
placeholders, streaming video derivatives, a downloadable archive of
retained originals, and the data.json manifest describing them all.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.RangeArgs(2, 3)(cmd, args); err != nil {
				return fmt.Errorf("%w: %v", config.ErrUsage, err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if quiet {
				logging.SetLevel(logging.LevelWarn)
			}
			if configFile != "" {
				if err := cfg.MergeFile(configFile, cmd.Flags().Changed); err != nil {
					return err
				}
			}
			cfg.InputDir = args[0]
			cfg.OutputDir = args[1]
			if len(args) > 2 {
				cfg.AlbumName = args[2]
			}
			// The negative flags override whatever the config file said,
			// but only when actually given on the command line.
			if cmd.Flags().Changed("no-download") {
				cfg.Download = !noDownload
			}
			if cmd.Flags().Changed("no-sort") {
				cfg.TimeSort = !noSort
			}
			if cmd.Flags().Changed("no-orient") {
				cfg.AutoOrient = !noOrient
			}
			if err := cfg.Finalize(); err != nil {
				return err
			}

			transform.InitVips()
			defer transform.ShutdownVips()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return pipeline.New(cfg).Run(ctx)
		},
	}

	flags := root.Flags()
	flags.StringVar(&configFile, "config", "", "TOML configuration file")
	flags.IntVarP(&cfg.Workers, "jobs", "j", cfg.Workers, "concurrent workers (0 = one per CPU)")
	flags.IntVarP(&cfg.Quality, "quality", "q", cfg.Quality, "JPEG quality of generated images (1-100)")
	flags.StringVar(&cfg.MinThumbStr, "min-thumb", cfg.MinThumbStr, "minimum thumbnail size (WxH)")
	flags.StringVar(&cfg.MaxThumbStr, "max-thumb", cfg.MaxThumbStr, "maximum thumbnail size (WxH)")
	flags.StringVar(&cfg.MaxFullStr, "max-full", cfg.MaxFullStr, "maximum full preview size (WxH)")
	flags.BoolVarP(&cfg.Slim, "slim", "s", cfg.Slim, "skip alternate video formats")
	flags.BoolVarP(&cfg.KeepOrig, "keep-orig", "k", cfg.KeepOrig, "keep every original for download")
	flags.BoolVar(&cfg.DiscardOrig, "discard-orig", cfg.DiscardOrig, "discard every original")
	flags.Float64Var(&cfg.PanoramaRatio, "panorama-ratio", cfg.PanoramaRatio, "aspect ratio above which originals are kept")
	flags.BoolVarP(&cfg.Reverse, "reverse", "r", cfg.Reverse, "reverse the gallery order")
	flags.BoolVarP(&cfg.FaceDetect, "faces", "f", cfg.FaceDetect, "bias thumbnail crops toward detected faces")
	flags.StringVar(&cfg.FaceTool, "face-tool", cfg.FaceTool, "face detection command")
	flags.BoolVarP(&noDownload, "no-download", "d", false, "do not build the download archive")
	flags.BoolVar(&noSort, "no-sort", false, "keep discovery order instead of sorting by time")
	flags.BoolVar(&noOrient, "no-orient", false, "disable lossless JPEG auto-orientation")
	flags.BoolVar(&quiet, "quiet", false, "only log warnings and errors")

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", config.ErrUsage, err)
	})

	if err := root.Execute(); err != nil {
		code := exitFatal
		if errors.Is(err, config.ErrUsage) {
			code = exitUsage
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			fmt.Fprintf(os.Stderr, "run %q for usage\n", "gallerize --help")
		} else {
			logging.Error("%v", err)
		}
		os.Exit(code)
	}
}
