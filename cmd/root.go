/*
Copyright © 2022 Daniils Petrovs <thedanpetrov@gmail.com>

*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/DaniruKun/invisibility-cloak/imgproc"
	"github.com/DaniruKun/invisibility-cloak/preset"
	"github.com/DaniruKun/invisibility-cloak/session"
	"github.com/DaniruKun/invisibility-cloak/threshold"
)

const controlsHelp = `Controls:
'a' - Capture background
'r' - Recalibrate background
's' - Save current HSV values as preset
'1-5' - Switch between presets (1:black, 2:green, 3:yellow, 4:blue, 5:red)
'q' - Quit`

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "invisibility-cloak",
	Short: "Invisibility Cloak",
	Long: `A webcam demo that replaces every pixel inside an HSV color range with a
previously captured background, making anything of that color look invisible.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := configFromFlags(cmd)
		if err != nil {
			return err
		}

		logger := NewLogger(os.Stderr, config.Debug)
		return run(config, logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", r)
			os.Exit(1)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	defaults := imgproc.DefaultConfig()
	rootCmd.Flags().IntP("device", "d", defaults.DeviceIndex, "Camera device index")
	rootCmd.Flags().StringP("presets", "p", defaults.PresetPath, "JSON file HSV presets are loaded from and saved to")
	rootCmd.Flags().Int("delay", defaults.KeyDelay, "Milliseconds to wait for a key on every frame")
	rootCmd.Flags().Bool("overlay", defaults.ShowOverlay, "Draw the active preset and its color on the output")
	rootCmd.Flags().Bool("debug", defaults.Debug, "Enable debug logging")
}

func configFromFlags(cmd *cobra.Command) (imgproc.Config, error) {
	config := imgproc.DefaultConfig()
	flags := cmd.Flags()

	var err error
	if config.DeviceIndex, err = flags.GetInt("device"); err != nil {
		return config, err
	}
	if config.PresetPath, err = flags.GetString("presets"); err != nil {
		return config, err
	}
	if config.KeyDelay, err = flags.GetInt("delay"); err != nil {
		return config, err
	}
	if config.ShowOverlay, err = flags.GetBool("overlay"); err != nil {
		return config, err
	}
	if config.Debug, err = flags.GetBool("debug"); err != nil {
		return config, err
	}
	if config.KeyDelay < 1 {
		config.KeyDelay = 1
	}
	return config, nil
}

func run(config imgproc.Config, logger zerolog.Logger) error {
	camera, err := session.OpenCamera(config.DeviceIndex)
	if err != nil {
		return err
	}

	store := preset.NewStore(config.PresetPath, logger)
	// A broken preset file is logged and the defaults stay in place.
	_ = store.Load()

	controller := threshold.NewController(logger)
	controller.Select(preset.Black, store.Table())

	windows := session.NewWindows()
	controller.Attach(windows)

	printControls(os.Stdout)

	s := session.New(config, camera, windows, session.NewLinePrompter(os.Stdin, os.Stdout), store, controller, logger)
	if err := s.Run(); err != nil && !errors.Is(err, session.ErrCameraRead) {
		return err
	}
	return nil
}

func printControls(w io.Writer) {
	fmt.Fprintln(w, controlsHelp)
}
