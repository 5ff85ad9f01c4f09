package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"menubard/internal/bridge"
	"menubard/internal/logging"
	"menubard/internal/model"
	"menubard/internal/platform"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture a menu bar item window to an image",
	Long: `Capture a menu bar item window to png or jpg bytes. Explicit bounds are
required by the capture path; without --bbox the window's current frame is
used.

Examples:
  menubard capture --window-id 4421 --out item.png
  menubard capture --window-id 4421 --image-format jpg --quality 60 --scale 0.5`,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().Uint32("window-id", 0, "Window ID to capture (required)")
	captureCmd.Flags().String("bbox", "", "Capture bounds as x,y,w,h (default: the window's frame)")
	captureCmd.Flags().String("image-format", "png", "Image format: png, jpg")
	captureCmd.Flags().Int("quality", 80, "JPEG quality 1-100")
	captureCmd.Flags().Float64("scale", 1.0, "Scale factor 0.1-1.0")
	captureCmd.Flags().String("out", "", "Output file (default: stdout)")
	captureCmd.MarkFlagRequired("window-id")
}

func runCapture(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	initLogging(settings, false)
	defer logging.Close()

	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}
	b := bridge.New(provider.WindowServer)

	rawID, _ := cmd.Flags().GetUint32("window-id")
	id := model.WindowID(rawID)

	var bounds *model.Rect
	if raw, _ := cmd.Flags().GetString("bbox"); raw != "" {
		bounds, err = platform.ParseBBox(raw)
		if err != nil {
			return err
		}
	} else {
		frame, ok := b.WindowFrame(id)
		if !ok {
			return fmt.Errorf("window %d has no frame; pass --bbox explicitly", id)
		}
		bounds = &frame
	}

	format, _ := cmd.Flags().GetString("image-format")
	quality, _ := cmd.Flags().GetInt("quality")
	scale, _ := cmd.Flags().GetFloat64("scale")

	data, err := b.CaptureWindow(id, bounds, platform.CaptureOptions{
		Format:  format,
		Quality: quality,
		Scale:   scale,
	})
	if err != nil {
		return err
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("write capture: %w", err)
		}
		fmt.Fprintf(os.Stderr, "wrote %d bytes to %s\n", len(data), out)
		return nil
	}
	_, err = os.Stdout.Write(data)
	return err
}
