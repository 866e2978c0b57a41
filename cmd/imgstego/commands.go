package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"imgstego-backend/audio"
	"imgstego-backend/imaging"
	"imgstego-backend/logging"
	"imgstego-backend/models"
	"imgstego-backend/stego"
	"imgstego-backend/storage"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zeebo/blake3"
)

func (f *globalFlags) logger() *logrus.Logger {
	return logging.New(f.logLevel, f.logFormat)
}

func (f *globalFlags) options() (stego.Options, error) {
	return stego.OptionsFromConfig(&models.StegoConfig{
		TagChannel: f.tagChannel,
		Alignment:  f.alignment,
	})
}

func newHideCommand(flags *globalFlags) *cobra.Command {
	var (
		audioPath string
		outDir    string
	)

	cmd := &cobra.Command{
		Use:   "hide --audio <file> [images...]",
		Short: "Hide an audio file in PNG images",
		Long: `Hide a WAV or MP3 file in the given PNG images, in the order given.
Encoded images are written to the output directory as encoded_image_<n>.png.
Images left over once the audio fits are not written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := flags.logger()
			opts, err := flags.options()
			if err != nil {
				return err
			}

			audioData, err := os.ReadFile(audioPath)
			if err != nil {
				return fmt.Errorf("failed to read audio: %v", err)
			}
			clip, err := audio.NewAudioDecoder().Decode(audioData)
			if err != nil {
				return fmt.Errorf("failed to decode audio: %v", err)
			}

			carriers, err := loadCarriers(args)
			if err != nil {
				return err
			}

			sink, err := storage.NewDirSink(outDir)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			result, err := stego.Encode(ctx, *clip, carriers, sink, opts)
			if err != nil {
				if cerr := sink.Cleanup(); cerr != nil {
					logger.WithError(cerr).Warn("failed to remove partial output")
				}
				var capErr *stego.CapacityError
				if errors.As(err, &capErr) && capErr.ImagesHint > 0 {
					logger.Infof("approximately %d more image(s) of the last size are needed", capErr.ImagesHint)
				}
				return err
			}

			logger.WithFields(logrus.Fields{
				"images_used":     len(result.Encoded),
				"images_supplied": len(carriers),
				"container_bytes": result.ContainerBytes,
				"duration":        clip.Duration(),
			}).Info("audio hidden")
			for _, path := range sink.Written() {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&audioPath, "audio", "a", "", "WAV or MP3 file to hide")
	cmd.Flags().StringVarP(&outDir, "output", "o", "encoded", "Directory for encoded images")
	_ = cmd.MarkFlagRequired("audio")

	return cmd
}

func newExtractCommand(flags *globalFlags) *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "extract [images or zips...]",
		Short: "Rebuild audio from encoded images",
		Long: `Rebuild the hidden audio from encoded PNG images, in any order. Zip
archives produced by the HTTP API are accepted alongside loose images.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := flags.logger()
			opts, err := flags.options()
			if err != nil {
				return err
			}

			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(output), ".")
			}
			if format != "wav" && format != "mp3" {
				return fmt.Errorf("output format must be wav or mp3, got %q", format)
			}

			carriers, err := loadCarriers(args)
			if err != nil {
				return err
			}

			clip, warning, err := stego.Decode(carriers, opts)
			if err != nil {
				return err
			}
			if warning != nil {
				logger.Warn(warning.String())
			}

			ad := audio.NewAudioDecoder()
			var out []byte
			if format == "mp3" {
				out, err = ad.EncodeMP3(clip, &models.AudioTags{Title: "extracted audio"})
			} else {
				out, err = ad.EncodeWAV(clip)
			}
			if err != nil {
				return fmt.Errorf("failed to export audio: %v", err)
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %v", output, err)
			}

			logger.WithFields(logrus.Fields{
				"images_supplied": len(carriers),
				"frame_rate":      clip.FrameRate,
				"channels":        clip.Channels,
				"duration":        clip.Duration(),
			}).Infof("audio written to %s", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "extracted_audio.wav", "Output audio file")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format (wav, mp3); defaults to the output extension")

	return cmd
}

func newCapacityCommand() *cobra.Command {
	var width, height int

	cmd := &cobra.Command{
		Use:   "capacity <audio>",
		Short: "Show how many carrier pixels an audio file needs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audioData, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read audio: %v", err)
			}
			clip, err := audio.NewAudioDecoder().Decode(audioData)
			if err != nil {
				return fmt.Errorf("failed to decode audio: %v", err)
			}

			out := cmd.OutOrStdout()
			plan := stego.Plan(stego.ContainerSize(len(clip.Samples)), width, height)
			fmt.Fprintf(out, "Container:       %d bytes (%d bits)\n", plan.ContainerBytes, plan.RequiredBits)
			fmt.Fprintf(out, "Payload pixels:  %d\n", plan.RequiredPixels)
			fmt.Fprintln(out, "Single image:")
			for _, d := range plan.Suggestions {
				fmt.Fprintf(out, "  %dx%d\n", d.Width, d.Height)
			}

			if plan.ImagesNeeded > stego.MaxCarriers {
				fmt.Fprintf(out, "%dx%d images: %d needed, over the limit of %d\n", width, height, plan.ImagesNeeded, stego.MaxCarriers)
			} else if plan.ImagesNeeded > 0 {
				fmt.Fprintf(out, "%dx%d images: %d needed (%d pixels)\n", width, height, plan.ImagesNeeded, plan.TotalPixels)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 0, "Carrier width to plan for")
	cmd.Flags().IntVar(&height, "height", 0, "Carrier height to plan for")

	return cmd
}

func newVerifyCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <audio> [images or zips...]",
		Short: "Check that encoded images hold an audio file",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := flags.logger()
			opts, err := flags.options()
			if err != nil {
				return err
			}

			audioData, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read audio: %v", err)
			}
			want, err := audio.NewAudioDecoder().Decode(audioData)
			if err != nil {
				return fmt.Errorf("failed to decode audio: %v", err)
			}

			carriers, err := loadCarriers(args[1:])
			if err != nil {
				return err
			}
			got, _, err := stego.Decode(carriers, opts)
			if err != nil {
				return err
			}

			wantSum := blake3.Sum256(want.Samples)
			gotSum := blake3.Sum256(got.Samples)
			if wantSum != gotSum {
				return fmt.Errorf("digest mismatch: audio %x, images %x", wantSum[:8], gotSum[:8])
			}
			if want.FrameRate != got.FrameRate || want.SampleWidth != got.SampleWidth || want.Channels != got.Channels {
				return fmt.Errorf("format mismatch: audio %d Hz %d ch %d-byte, images %d Hz %d ch %d-byte",
					want.FrameRate, want.Channels, want.SampleWidth, got.FrameRate, got.Channels, got.SampleWidth)
			}

			logger.WithField("digest", fmt.Sprintf("%x", gotSum)).Info("images match audio")
			return nil
		},
	}

	return cmd
}

// loadCarriers reads PNG paths and zip archives of PNGs, in argument order.
func loadCarriers(paths []string) ([]*image.NRGBA, error) {
	var carriers []*image.NRGBA
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %v", path, err)
		}

		if strings.EqualFold(filepath.Ext(path), ".zip") {
			files, names, err := storage.ReadZipPNGs(data)
			if err != nil {
				return nil, fmt.Errorf("invalid archive %s: %v", path, err)
			}
			for _, name := range names {
				c, err := imaging.LoadPNG(files[name])
				if err != nil {
					return nil, fmt.Errorf("invalid image %s in %s: %v", name, path, err)
				}
				carriers = append(carriers, c)
			}
			continue
		}

		c, err := imaging.LoadPNG(data)
		if err != nil {
			return nil, fmt.Errorf("invalid image %s: %v", path, err)
		}
		carriers = append(carriers, c)
	}
	return carriers, nil
}
