// Package media plays music, sound effects and speech, and drives the
// camera, by calling out to the audio and camera tools on the car.
package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var ErrMissingFile = errors.New("file is missing")

// Config holds the command lines used for each media action. Arguments
// may contain {path}, {text} and {volume} placeholders; when an action's
// placeholder is absent the value is appended as the last argument.
type Config struct {
	MusicCommand  []string `json:"musicCommand" mapstructure:"musicCommand"`
	SoundCommand  []string `json:"soundCommand" mapstructure:"soundCommand"`
	SpeechCommand []string `json:"speechCommand" mapstructure:"speechCommand"`
	PhotoCommand  []string `json:"photoCommand" mapstructure:"photoCommand"`
	StreamCommand []string `json:"streamCommand" mapstructure:"streamCommand"`
	PhotoDir      string   `json:"photoDir" mapstructure:"photoDir"`
	Volume        int      `json:"volume" mapstructure:"volume"`
}

const photoTimeFormat = "2006-01-02-15-04-05"

// PhotoName returns the file name of a photo taken at t.
func PhotoName(t time.Time) string {
	return "photo_" + t.Format(photoTimeFormat) + ".jpg"
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingFile, path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrMissingFile, path)
	}
	return nil
}

// expand substitutes placeholders in a command line. If key does not
// occur in any argument, value is appended.
func expand(command []string, key, value string, volume int) []string {
	out := make([]string, 0, len(command)+1)
	placeholder := "{" + key + "}"
	found := false
	for _, arg := range command {
		if strings.Contains(arg, placeholder) {
			found = true
			arg = strings.ReplaceAll(arg, placeholder, value)
		}
		out = append(out, strings.ReplaceAll(arg, "{volume}", strconv.Itoa(volume)))
	}
	if !found && key != "" {
		out = append(out, value)
	}
	return out
}
