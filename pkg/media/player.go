package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/sasha-s/go-deadlock"
)

// waitDelay bounds how long a cancelled command may keep its pipes open.
const waitDelay = 200 * time.Millisecond

// Player runs external commands for each media action.
type Player struct {
	cfg Config
	log zerolog.Logger
	now func() time.Time

	mu        deadlock.Mutex
	music     *exec.Cmd
	musicDone chan struct{}
	stream    *exec.Cmd
}

// NewPlayer creates a player. No process is started until an action runs.
func NewPlayer(cfg Config, log zerolog.Logger) *Player {
	cfg.PhotoDir = ExpandHome(cfg.PhotoDir)
	return &Player{
		cfg: cfg,
		log: log.With().Str("component", "media").Logger(),
		now: time.Now,
	}
}

func (p *Player) command(ctx context.Context, args []string) (*exec.Cmd, error) {
	if len(args) == 0 {
		return nil, errors.New("no command configured")
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	// Children of a killed command may hold its output open.
	cmd.WaitDelay = waitDelay
	return cmd, nil
}

// StartStream starts the camera stream command, if one is configured.
func (p *Player) StartStream(ctx context.Context) error {
	if len(p.cfg.StreamCommand) == 0 {
		return nil
	}
	cmd, err := p.command(ctx, p.cfg.StreamCommand)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start camera stream: %w", err)
	}

	p.mu.Lock()
	p.stream = cmd
	p.mu.Unlock()

	p.log.Info().Strs("cmd", p.cfg.StreamCommand).Msg("camera stream started")
	go cmd.Wait()
	return nil
}

// PlayMusic starts the music track in the background, replacing any
// track already playing.
func (p *Player) PlayMusic(ctx context.Context, path string) error {
	if err := checkFile(path); err != nil {
		return err
	}
	if err := p.StopMusic(); err != nil {
		p.log.Warn().Err(err).Msg("stop previous track")
	}

	cmd, err := p.command(ctx, expand(p.cfg.MusicCommand, "path", path, p.cfg.Volume))
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("play music %s: %w", path, err)
	}

	done := make(chan struct{})
	p.mu.Lock()
	p.music, p.musicDone = cmd, done
	p.mu.Unlock()

	go func() {
		defer close(done)
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			p.log.Debug().Err(err).Str("path", path).Msg("music player exited")
		}
		p.mu.Lock()
		if p.music == cmd {
			p.music, p.musicDone = nil, nil
		}
		p.mu.Unlock()
	}()

	p.log.Info().Str("path", path).Msg("playing music")
	return nil
}

// StopMusic stops the current track, if any.
func (p *Player) StopMusic() error {
	p.mu.Lock()
	cmd, done := p.music, p.musicDone
	p.music, p.musicDone = nil, nil
	p.mu.Unlock()

	if cmd == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("stop music: %w", err)
	}
	<-done
	return nil
}

// PlaySound plays a sound effect and waits for it to finish.
func (p *Player) PlaySound(ctx context.Context, path string) error {
	if err := checkFile(path); err != nil {
		return err
	}
	cmd, err := p.command(ctx, expand(p.cfg.SoundCommand, "path", path, p.cfg.Volume))
	if err != nil {
		return err
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("play sound %s: %w: %s", path, err, out)
	}
	return nil
}

// Speak reads text aloud and waits for it to finish.
func (p *Player) Speak(ctx context.Context, text string) error {
	p.log.Info().Str("text", text).Msg("text-to-speech")
	cmd, err := p.command(ctx, expand(p.cfg.SpeechCommand, "text", text, p.cfg.Volume))
	if err != nil {
		return err
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("speak: %w: %s", err, out)
	}
	return nil
}

// TakePhoto captures a still into the photo directory and returns its path.
func (p *Player) TakePhoto(ctx context.Context) (string, error) {
	if err := os.MkdirAll(p.cfg.PhotoDir, 0o755); err != nil {
		return "", fmt.Errorf("create photo dir: %w", err)
	}
	path := filepath.Join(p.cfg.PhotoDir, PhotoName(p.now()))

	cmd, err := p.command(ctx, expand(p.cfg.PhotoCommand, "path", path, p.cfg.Volume))
	if err != nil {
		return "", err
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("take photo: %w: %s", err, out)
	}
	return path, nil
}

// Close stops the music and releases the camera stream.
func (p *Player) Close() error {
	musicErr := p.StopMusic()

	p.mu.Lock()
	stream := p.stream
	p.stream = nil
	p.mu.Unlock()

	var streamErr error
	if stream != nil {
		if err := stream.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			streamErr = fmt.Errorf("release camera: %w", err)
		} else {
			p.log.Info().Msg("camera released")
		}
	}
	return errors.Join(musicErr, streamErr)
}
