package utils

import (
	"errors"

	"github.com/DaniruKun/invisibility-cloak/preset"
)

var slotPresets = map[int]string{
	'1': preset.Black,
	'2': preset.Green,
	'3': preset.Yellow,
	'4': preset.Blue,
	'5': preset.Red,
}

// Returns the name of the preset a digit key selects
func GetSlotPreset(key int) (string, error) {
	if name, ok := slotPresets[key]; ok {
		return name, nil
	}
	return "", errors.New("unknown preset slot: " + string(rune(key)))
}
