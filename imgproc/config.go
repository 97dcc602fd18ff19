package imgproc

type Config struct {
	DeviceIndex int    // Camera device index opened at startup
	PresetPath  string // JSON file the HSV presets are loaded from and saved to
	KeyDelay    int    // Milliseconds each tick waits for a keystroke
	Debug       bool   // Toggles debug logging
	ShowOverlay bool   // Draw the active preset name and swatch on the output view
}

// DefaultConfig returns the configuration the cloak runs with when no flags are given.
func DefaultConfig() Config {
	return Config{
		DeviceIndex: 1,
		PresetPath:  "color_presets.json",
		KeyDelay:    1,
	}
}
