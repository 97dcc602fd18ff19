package session

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/DaniruKun/invisibility-cloak/imgproc"
	"github.com/DaniruKun/invisibility-cloak/preset"
	"github.com/DaniruKun/invisibility-cloak/threshold"
)

const noKey = -1

// fakeCamera hands out copies of its frames, then fails.
type fakeCamera struct {
	frames []gocv.Mat
	reads  int
	closed bool
}

func (c *fakeCamera) Read(m *gocv.Mat) bool {
	if c.reads >= len(c.frames) {
		return false
	}
	c.frames[c.reads].CopyTo(m)
	c.reads++
	return true
}

func (c *fakeCamera) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	for i := range c.frames {
		c.frames[i].Close()
	}
	return nil
}

// fakeDisplay returns scripted keys and records the views shown.
type fakeDisplay struct {
	keys   []int
	shown  []View
	closed bool
}

func (d *fakeDisplay) Show(v View, img gocv.Mat) {
	d.shown = append(d.shown, v)
}

func (d *fakeDisplay) WaitKey(delay int) int {
	if len(d.keys) == 0 {
		return noKey
	}
	key := d.keys[0]
	d.keys = d.keys[1:]
	return key
}

func (d *fakeDisplay) Close() error {
	d.closed = true
	return nil
}

type fakePrompter struct {
	answers []string
	err     error
	asked   int
}

func (p *fakePrompter) Prompt(msg string) (string, error) {
	p.asked++
	if p.err != nil {
		return "", p.err
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

// newFrame builds a 1x2 BGR frame with distinct left and right pixels.
func newFrame(t *testing.T, left, right []byte) gocv.Mat {
	t.Helper()

	tmp, err := gocv.NewMatFromBytes(1, 2, gocv.MatTypeCV8UC3, append(append([]byte{}, left...), right...))
	if err != nil {
		t.Fatalf("building frame: %v", err)
	}
	defer tmp.Close()
	return tmp.Clone()
}

type fixture struct {
	session    *Session
	camera     *fakeCamera
	display    *fakeDisplay
	prompter   *fakePrompter
	store      *preset.Store
	controller *threshold.Controller
}

func newFixture(t *testing.T, frames int, keys ...int) *fixture {
	t.Helper()

	camera := &fakeCamera{}
	for i := 0; i < frames; i++ {
		camera.frames = append(camera.frames, newFrame(t, []byte{10, 20, 30}, []byte{40, 50, 60}))
	}
	display := &fakeDisplay{keys: keys}
	prompter := &fakePrompter{}
	store := preset.NewStore(filepath.Join(t.TempDir(), preset.DefaultPath), zerolog.Nop())
	controller := threshold.NewController(zerolog.Nop())
	controller.Select(preset.Black, store.Table())

	s := New(imgproc.DefaultConfig(), camera, display, prompter, store, controller, zerolog.Nop())
	t.Cleanup(s.release)

	return &fixture{session: s, camera: camera, display: display, prompter: prompter, store: store, controller: controller}
}

// tick runs one loop iteration with fresh buffers.
func (f *fixture) tick(t *testing.T) error {
	t.Helper()

	frame := gocv.NewMat()
	defer frame.Close()
	mirrored := gocv.NewMat()
	defer mirrored.Close()
	return f.session.step(&frame, &mirrored)
}

func TestCaptureStoresMirroredFrame(t *testing.T) {
	f := newFixture(t, 2, noKey, KeyCapture)

	if err := f.tick(t); err != nil {
		t.Fatal(err)
	}
	if f.session.State() != AwaitingBackground || f.session.background != nil {
		t.Fatalf("expected to keep waiting without a key, got %v", f.session.State())
	}

	if err := f.tick(t); err != nil {
		t.Fatal(err)
	}
	if f.session.State() != Active {
		t.Fatalf("expected active, got %v", f.session.State())
	}
	if f.session.background == nil {
		t.Fatal("expected a background")
	}

	want := []byte{40, 50, 60, 10, 20, 30}
	if got := f.session.background.ToBytes(); !bytes.Equal(got, want) {
		t.Errorf("got background %v, want mirrored %v", got, want)
	}
	for _, v := range f.display.shown {
		if v != PromptView {
			t.Errorf("expected only the prompt view while waiting, got %v", v)
		}
	}
}

func TestIrrelevantKeyKeepsWaiting(t *testing.T) {
	f := newFixture(t, 3, 'x', KeyQuit, KeyRecalibrate)

	for i := 0; i < 3; i++ {
		if err := f.tick(t); err != nil {
			t.Fatal(err)
		}
		if f.session.State() != AwaitingBackground {
			t.Fatalf("tick %d: expected awaiting background, got %v", i, f.session.State())
		}
	}
}

func TestActiveShowsOutputAndMask(t *testing.T) {
	f := newFixture(t, 2, KeyCapture, noKey)

	for i := 0; i < 2; i++ {
		if err := f.tick(t); err != nil {
			t.Fatal(err)
		}
	}

	want := []View{PromptView, OutputView, MaskView}
	if len(f.display.shown) != len(want) {
		t.Fatalf("got views %v, want %v", f.display.shown, want)
	}
	for i := range want {
		if f.display.shown[i] != want[i] {
			t.Errorf("view %d: got %v, want %v", i, f.display.shown[i], want[i])
		}
	}
}

func TestRunQuits(t *testing.T) {
	f := newFixture(t, 5, KeyCapture, noKey, KeyQuit)

	var transitions []State
	f.session.AddListener(func(prev, next State) { transitions = append(transitions, next) })

	if err := f.session.Run(); err != nil {
		t.Fatalf("expected clean quit, got %v", err)
	}
	if f.camera.reads != 3 {
		t.Errorf("expected 3 reads, got %d", f.camera.reads)
	}
	if !f.camera.closed || !f.display.closed {
		t.Error("expected camera and display to be released")
	}
	if f.session.background != nil {
		t.Error("expected background to be released")
	}
	if len(transitions) != 2 || transitions[0] != Active || transitions[1] != Stopped {
		t.Errorf("got transitions %v", transitions)
	}
}

func TestRunStopsOnCameraFailure(t *testing.T) {
	f := newFixture(t, 2, KeyCapture)

	err := f.session.Run()
	if !errors.Is(err, ErrCameraRead) {
		t.Fatalf("expected ErrCameraRead, got %v", err)
	}
	if f.session.State() != Stopped {
		t.Errorf("expected stopped, got %v", f.session.State())
	}
	if !f.camera.closed || !f.display.closed {
		t.Error("expected camera and display to be released")
	}
}

func TestRecaptureAndRecalibrate(t *testing.T) {
	f := newFixture(t, 3, KeyCapture, KeyCapture, KeyRecalibrate)

	f.tick(t)
	first := f.session.background

	if err := f.tick(t); err != nil {
		t.Fatal(err)
	}
	if f.session.State() != Active || f.session.background == nil || f.session.background == first {
		t.Fatal("expected a fresh background while staying active")
	}

	if err := f.tick(t); err != nil {
		t.Fatal(err)
	}
	if f.session.State() != AwaitingBackground || f.session.background != nil {
		t.Errorf("expected recalibrate to clear the background, got %v", f.session.State())
	}
}

func TestDigitKeysSelectPresets(t *testing.T) {
	var tests = []struct {
		key  int
		want string
	}{
		{'1', preset.Black},
		{'2', preset.Green},
		{'3', preset.Yellow},
		{'4', preset.Blue},
		{'5', preset.Red},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			f := newFixture(t, 2, KeyCapture, tt.key)
			f.controller.Apply(imgproc.Range{})

			f.tick(t)
			if err := f.tick(t); err != nil {
				t.Fatal(err)
			}

			want, _ := f.store.Table().Get(tt.want)
			if f.controller.Active() != tt.want || f.controller.Current() != want {
				t.Errorf("got %q %v, want %q %v", f.controller.Active(), f.controller.Current(), tt.want, want)
			}
		})
	}
}

func TestDigitKeyUsesOverriddenPreset(t *testing.T) {
	f := newFixture(t, 2, KeyCapture, '2')
	custom := imgproc.Range{Lower: imgproc.Triple{40, 50, 60}, Upper: imgproc.Triple{70, 200, 200}}
	f.store.Table().Set(preset.Green, custom)

	f.tick(t)
	f.tick(t)

	if got := f.controller.Current(); got != custom {
		t.Errorf("got %v, want overridden green %v", got, custom)
	}
}

func TestSaveKeyStoresCurrentRange(t *testing.T) {
	f := newFixture(t, 2, KeyCapture, KeySave)
	f.prompter.answers = []string{"  cape  "}
	f.controller.Apply(imgproc.Range{Lower: imgproc.Triple{1, 2, 3}, Upper: imgproc.Triple{4, 5, 6}})

	f.tick(t)
	if err := f.tick(t); err != nil {
		t.Fatal(err)
	}

	got, ok := f.store.Table().Get("cape")
	if !ok {
		t.Fatalf("expected preset cape, table has %v", f.store.Table().Names())
	}
	if got != f.controller.Current() {
		t.Errorf("got %v, want %v", got, f.controller.Current())
	}

	reloaded := preset.NewStore(f.store.Path(), zerolog.Nop())
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	if persisted, _ := reloaded.Table().Get("cape"); persisted != got {
		t.Errorf("got persisted %v, want %v", persisted, got)
	}
}

func TestSaveKeyIgnoresBlankOrFailedInput(t *testing.T) {
	f := newFixture(t, 3, KeyCapture, KeySave, KeySave)
	f.prompter.answers = []string{"   "}

	f.tick(t)
	f.tick(t)
	f.prompter.err = io.ErrUnexpectedEOF
	f.tick(t)

	if f.prompter.asked != 2 {
		t.Errorf("expected two prompts, got %d", f.prompter.asked)
	}
	if got := f.store.Table().Len(); got != 5 {
		t.Errorf("expected only built-in presets, got %v", f.store.Table().Names())
	}
	if f.session.State() != Active {
		t.Errorf("expected to stay active, got %v", f.session.State())
	}
}

func TestLinePrompter(t *testing.T) {
	var tests = []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"newline", "teal\n", "teal", false},
		{"crlf", "teal\r\n", "teal", false},
		{"no newline", "teal", "teal", false},
		{"empty input", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewLinePrompter(strings.NewReader(tt.input), &out)

			got, err := p.Prompt("Enter preset name: ")
			if (err != nil) != tt.wantErr {
				t.Fatalf("got error %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if out.String() != "Enter preset name: " {
				t.Errorf("got prompt %q", out.String())
			}
		})
	}
}

func TestStateString(t *testing.T) {
	var tests = []struct {
		state State
		want  string
	}{
		{AwaitingBackground, "awaiting_background"},
		{Active, "active"},
		{Stopped, "stopped"},
		{State(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}
