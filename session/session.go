// Package session runs the capture, composite and display loop of the cloak.
package session

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/DaniruKun/invisibility-cloak/imgproc"
	"github.com/DaniruKun/invisibility-cloak/preset"
	"github.com/DaniruKun/invisibility-cloak/threshold"
	"github.com/DaniruKun/invisibility-cloak/utils"
)

var (
	ErrCameraOpen = errors.New("could not open camera")
	ErrCameraRead = errors.New("failed to capture frame")
)

// Keyboard commands, compared against the low byte of WaitKey.
const (
	KeyCapture     = 'a'
	KeyRecalibrate = 'r'
	KeySave        = 's'
	KeyQuit        = 'q'
)

const promptText = "Press 'a' to capture the background"

// State enumerates the phases of a session.
type State int

const (
	AwaitingBackground State = iota
	Active
	Stopped
)

func (s State) String() string {
	switch s {
	case AwaitingBackground:
		return "awaiting_background"
	case Active:
		return "active"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Listener is called after every state change.
type Listener func(prev, next State)

type Session struct {
	config     imgproc.Config
	camera     Camera
	display    Display
	prompter   Prompter
	store      *preset.Store
	controller *threshold.Controller
	logger     zerolog.Logger

	state      State
	background *gocv.Mat
	listeners  []Listener
}

// New returns a session waiting for its background. It takes ownership of
// camera and display and releases both when Run returns.
func New(config imgproc.Config, camera Camera, display Display, prompter Prompter, store *preset.Store, controller *threshold.Controller, logger zerolog.Logger) *Session {
	return &Session{
		config:     config,
		camera:     camera,
		display:    display,
		prompter:   prompter,
		store:      store,
		controller: controller,
		logger:     logger,
		state:      AwaitingBackground,
	}
}

func (s *Session) AddListener(l Listener) {
	s.listeners = append(s.listeners, l)
}

func (s *Session) State() State {
	return s.state
}

// Run reads frames until the quit key is pressed or the camera fails. A
// camera failure is returned as ErrCameraRead.
func (s *Session) Run() error {
	defer s.release()

	frame := gocv.NewMat()
	defer frame.Close()
	mirrored := gocv.NewMat()
	defer mirrored.Close()

	for s.state != Stopped {
		if err := s.step(&frame, &mirrored); err != nil {
			return err
		}
	}
	return nil
}

// step performs one tick: a blocking frame read followed by one key poll.
func (s *Session) step(frame, mirrored *gocv.Mat) error {
	if ok := s.camera.Read(frame); !ok || frame.Empty() {
		s.logger.Error().Msg("Failed to capture frame")
		s.transition(Stopped)
		return ErrCameraRead
	}
	imgproc.Mirror(*frame, mirrored)

	switch s.state {
	case AwaitingBackground:
		s.awaitBackground(*mirrored)
	case Active:
		s.cloak(*mirrored)
	}
	return nil
}

func (s *Session) awaitBackground(frame gocv.Mat) {
	view := frame.Clone()
	defer view.Close()
	imgproc.DrawLabel(&view, promptText)
	s.display.Show(PromptView, view)

	if s.pollKey() == KeyCapture {
		s.captureBackground(frame)
		s.transition(Active)
	}
}

func (s *Session) cloak(frame gocv.Mat) {
	r := s.controller.Current()

	output, mask, err := imgproc.Composite(frame, *s.background, r)
	if err != nil {
		// The camera changed resolution under us; the background is unusable.
		s.logger.Error().Err(err).Msg("Cannot composite frame, recapture the background")
		s.clearBackground()
		s.transition(AwaitingBackground)
		return
	}
	defer output.Close()
	defer mask.Close()

	if s.config.ShowOverlay {
		imgproc.DrawLabel(&output, s.controller.Active())
		imgproc.DrawSwatch(&output, r)
	}
	s.display.Show(OutputView, output)
	s.display.Show(MaskView, mask)

	switch key := s.pollKey(); key {
	case KeyQuit:
		s.transition(Stopped)
	case KeyCapture:
		s.captureBackground(frame)
	case KeyRecalibrate:
		s.clearBackground()
		s.transition(AwaitingBackground)
	case KeySave:
		s.savePreset()
	default:
		if name, err := utils.GetSlotPreset(key); err == nil {
			s.controller.Select(name, s.store.Table())
		}
	}
}

func (s *Session) pollKey() int {
	return s.display.WaitKey(s.config.KeyDelay) & 0xFF
}

func (s *Session) captureBackground(frame gocv.Mat) {
	s.clearBackground()
	background := frame.Clone()
	s.background = &background
	s.logger.Info().Int("width", background.Cols()).Int("height", background.Rows()).Msg("Background captured")
}

func (s *Session) clearBackground() {
	if s.background != nil {
		s.background.Close()
		s.background = nil
	}
}

// savePreset blocks the loop until a preset name has been entered.
func (s *Session) savePreset() {
	name, err := s.prompter.Prompt("Enter preset name: ")
	if err != nil {
		s.logger.Error().Err(err).Msg("Could not read preset name")
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		s.logger.Warn().Msg("Empty preset name, nothing saved")
		return
	}
	// Failures are logged by the store and the table keeps the new entry.
	_ = s.store.SaveNamed(name, s.controller.Current())
}

func (s *Session) transition(next State) {
	prev := s.state
	if prev == next {
		return
	}
	s.state = next
	s.logger.Debug().Stringer("from", prev).Stringer("to", next).Msg("session state transition")
	for _, l := range s.listeners {
		l(prev, next)
	}
}

func (s *Session) release() {
	s.clearBackground()
	if err := s.camera.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Error releasing camera")
	}
	if err := s.display.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Error closing windows")
	}
}
