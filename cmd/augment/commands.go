package main

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	augmentor "github.com/Skryldev/image-augmentor"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// saturationFlag returns the --saturation value only when the user set it.
func saturationFlag(cmd *cobra.Command, v float64) *float64 {
	if !cmd.Flags().Changed("saturation") {
		return nil
	}
	return &v
}

func (a *app) convertCommand() *cobra.Command {
	var (
		out        string
		preset     string
		saturation float64
	)
	cmd := &cobra.Command{
		Use:   "convert <file>...",
		Short: "Write one augmented copy of every file into a new output directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.engine.ResolveOptions(preset)
			if err != nil {
				return err
			}

			files := make([]augmentor.FileInput, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					// Unreadable files are counted as failures, like undecodable ones.
					a.log.Sugar().Warnw("read input", "path", path, "error", err)
				}
				files = append(files, augmentor.FileInput{Name: path, Bytes: data})
			}

			res, err := a.engine.ConvertAll(cmd.Context(), opts, files, out, saturationFlag(cmd, saturation))
			if err != nil {
				return err
			}
			a.log.Debug("metrics", zap.Any("snapshot", a.engine.Metrics()))
			return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output root (default from config)")
	cmd.Flags().StringVar(&preset, "preset", "", "named preset to use instead of the configured defaults")
	cmd.Flags().Float64Var(&saturation, "saturation", 1, "saturation multiplier applied after augmentation")
	return cmd
}

func (a *app) previewCommand() *cobra.Command {
	var (
		out        string
		preset     string
		saturation float64
	)
	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Render a bounded PNG preview of the augmentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.engine.ResolveOptions(preset)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			png, err := a.engine.GeneratePreview(cmd.Context(), opts, data, saturationFlag(cmd, saturation))
			if err != nil {
				return err
			}
			if out == "-" {
				_, err = cmd.OutOrStdout().Write(png)
				return err
			}
			return os.WriteFile(out, png, 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "preview.png", `output file, "-" for stdout`)
	cmd.Flags().StringVar(&preset, "preset", "", "named preset to use instead of the configured defaults")
	cmd.Flags().Float64Var(&saturation, "saturation", 1, "saturation multiplier applied after augmentation")
	return cmd
}

func (a *app) presetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage named option presets",
	}

	var from string
	save := &cobra.Command{
		Use:   "save <name>",
		Short: "Save options as a preset; unspecified options come from --from or the defaults",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.engine.ResolveOptions(from)
			if err != nil {
				return err
			}
			applyOptionFlags(cmd.Flags(), &opts)
			if err := a.engine.SavePreset(args[0], opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved preset %q\n", args[0])
			return nil
		},
	}
	save.Flags().StringVar(&from, "from", "", "start from an existing preset")
	addOptionFlags(save.Flags())

	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a preset as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.engine.LoadPreset(args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(opts, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := a.engine.PresetNames()
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}

	cmd.AddCommand(save, show, list)
	return cmd
}

// addOptionFlags registers one flag per augmentation option. Defaults shown
// in help are the stock values; only flags the user sets are applied.
func addOptionFlags(fs *pflag.FlagSet) {
	d := augmentor.DefaultOptions()
	fs.Float64("resize-min", d.ResizeMin, "minimum scale factor")
	fs.Float64("resize-max", d.ResizeMax, "maximum scale factor")
	fs.Float64("rotate-max-deg", d.RotateMaxDeg, "maximum rotation in degrees")
	fs.Float64("brightness-range", d.BrightnessRange, "maximum brightness shift")
	fs.Float64("contrast-range", d.ContrastRange, "maximum contrast shift")
	fs.Float64("noise-sigma", d.NoiseSigma, "uniform noise amplitude")
	fs.Int("jpeg-quality", d.JPEGQuality, "JPEG quality (1-100)")
	fs.Int("webp-quality", d.WebPQuality, "WebP quality (1-100)")
	fs.Bool("strip-exif", d.StripEXIF, "strip metadata from outputs")
}

func applyOptionFlags(fs *pflag.FlagSet, o *augmentor.Options) {
	floats := map[string]*float64{
		"resize-min":       &o.ResizeMin,
		"resize-max":       &o.ResizeMax,
		"rotate-max-deg":   &o.RotateMaxDeg,
		"brightness-range": &o.BrightnessRange,
		"contrast-range":   &o.ContrastRange,
		"noise-sigma":      &o.NoiseSigma,
	}
	for name, dst := range floats {
		if fs.Changed(name) {
			*dst, _ = fs.GetFloat64(name)
		}
	}
	if fs.Changed("jpeg-quality") {
		o.JPEGQuality, _ = fs.GetInt("jpeg-quality")
	}
	if fs.Changed("webp-quality") {
		o.WebPQuality, _ = fs.GetInt("webp-quality")
	}
	if fs.Changed("strip-exif") {
		o.StripEXIF, _ = fs.GetBool("strip-exif")
	}
}
