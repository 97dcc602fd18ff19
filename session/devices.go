package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"gocv.io/x/gocv"

	"github.com/DaniruKun/invisibility-cloak/threshold"
)

// Camera delivers frames with a blocking read.
type Camera interface {
	Read(m *gocv.Mat) bool
	Close() error
}

// Display shows frames and polls the keyboard.
type Display interface {
	Show(v View, img gocv.Mat)
	WaitKey(delay int) int
	Close() error
}

// Prompter reads one line of operator input.
type Prompter interface {
	Prompt(msg string) (string, error)
}

// View identifies one of the output windows.
type View int

const (
	PromptView View = iota
	OutputView
	MaskView
)

const ControlsTitle = "HSV Controls"

func (v View) Title() string {
	switch v {
	case PromptView:
		return promptText
	case OutputView:
		return "Invisible Cloak"
	case MaskView:
		return "Mask"
	default:
		return "unknown"
	}
}

// OpenCamera opens the capture device at index.
func OpenCamera(index int) (*gocv.VideoCapture, error) {
	webcam, err := gocv.VideoCaptureDevice(index)
	if err != nil {
		return nil, fmt.Errorf("%w %d, check that it is connected: %v", ErrCameraOpen, index, err)
	}
	if !webcam.IsOpened() {
		webcam.Close()
		return nil, fmt.Errorf("%w %d, check that it is connected", ErrCameraOpen, index)
	}
	return webcam, nil
}

// Windows is a Display backed by highgui windows. The controls window hosts
// the threshold sliders; the output windows are opened on first use.
type Windows struct {
	views    map[View]*gocv.Window
	controls *gocv.Window
}

func NewWindows() *Windows {
	return &Windows{
		views:    make(map[View]*gocv.Window),
		controls: gocv.NewWindow(ControlsTitle),
	}
}

func (w *Windows) Show(v View, img gocv.Mat) {
	window, ok := w.views[v]
	if !ok {
		window = gocv.NewWindow(v.Title())
		w.views[v] = window
	}
	window.IMShow(img)
}

func (w *Windows) WaitKey(delay int) int {
	return gocv.WaitKey(delay)
}

// Bind implements threshold.Surface.
func (w *Windows) Bind(name string, value *int, max int) threshold.Slider {
	return w.controls.CreateTrackbarWithValue(name, value, max)
}

func (w *Windows) Close() error {
	var errs []error
	for v, window := range w.views {
		if err := window.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %q: %w", v.Title(), err))
		}
		delete(w.views, v)
	}
	if err := w.controls.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing %q: %w", ControlsTitle, err))
	}
	return errors.Join(errs...)
}

// LinePrompter writes a prompt and reads the answer up to the next newline.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

func (p *LinePrompter) Prompt(msg string) (string, error) {
	if _, err := fmt.Fprint(p.out, msg); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var (
	_ Display           = (*Windows)(nil)
	_ threshold.Surface = (*Windows)(nil)
	_ Prompter          = (*LinePrompter)(nil)
	_ Camera            = (*gocv.VideoCapture)(nil)
)
