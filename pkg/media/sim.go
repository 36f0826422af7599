package media

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/sasha-s/go-deadlock"
)

// Sim logs media actions instead of running them. Missing audio files are
// still reported so the announcement path can be exercised without a car.
type Sim struct {
	log      zerolog.Logger
	photoDir string

	mu      deadlock.Mutex
	playing string
}

// NewSim returns a log-only player. Photo paths point into photoDir.
func NewSim(photoDir string, log zerolog.Logger) *Sim {
	return &Sim{
		log:      log.With().Str("component", "sim-media").Logger(),
		photoDir: ExpandHome(photoDir),
	}
}

// StartStream logs the stream start.
func (s *Sim) StartStream(context.Context) error {
	s.log.Info().Msg("camera stream started")
	return nil
}

// PlayMusic records path as the current track.
func (s *Sim) PlayMusic(_ context.Context, path string) error {
	if err := checkFile(path); err != nil {
		return err
	}
	s.mu.Lock()
	s.playing = path
	s.mu.Unlock()
	s.log.Info().Str("path", path).Msg("playing music")
	return nil
}

// StopMusic clears the current track.
func (s *Sim) StopMusic() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing != "" {
		s.log.Info().Str("path", s.playing).Msg("music stopped")
		s.playing = ""
	}
	return nil
}

// Playing returns the track currently playing, or "".
func (s *Sim) Playing() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// PlaySound checks that path exists and logs it.
func (s *Sim) PlaySound(_ context.Context, path string) error {
	if err := checkFile(path); err != nil {
		return err
	}
	s.log.Info().Str("path", path).Msg("playing sound")
	return nil
}

// Speak logs text.
func (s *Sim) Speak(_ context.Context, text string) error {
	s.log.Info().Str("text", text).Msg("text-to-speech")
	return nil
}

// TakePhoto returns the path a photo taken now would get.
func (s *Sim) TakePhoto(context.Context) (string, error) {
	return filepath.Join(s.photoDir, PhotoName(time.Now())), nil
}

// Close stops the music.
func (s *Sim) Close() error {
	err := s.StopMusic()
	s.log.Info().Msg("camera released")
	return err
}
