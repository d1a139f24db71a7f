// video_presenter.go - frame presentation (spec.md §7 domain stack).
//
// Grounded on _teacher_ref/video_interface.go's VideoOutput contract
// (trimmed to the lifecycle + frame-delivery + vsync methods every
// console's scheduler actually calls — PaletteCapable/TextureCapable/
// SpriteCapable/ScanlineAware/KeyboardInput are the teacher's terminal-
// emulator-specific extensions and have no home in this spec) and
// _teacher_ref/video_backend_ebiten.go / video_backend_headless.go for
// the two concrete backends. The clipboard-paste and ANSI-terminal
// keyboard-forwarding path in the teacher's Ebiten backend is out of
// scope here (spec.md's domain is console video output, not a terminal
// emulator) and was not carried over.
package main

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"
)

// PixelSurface is the raw RGBA frame a VideoPresenter is handed each
// vsync tick, produced by a console's PPU/VDP adaptation layer.
type PixelSurface struct {
	Pixels []byte // tightly packed RGBA8888
	Width  int
	Height int
}

// VideoPresenter is the minimal surface every backend implements,
// trimmed from the teacher's VideoOutput down to what spec.md §7's
// scheduler drives each frame.
type VideoPresenter interface {
	Start() error
	Stop() error
	Present(surface PixelSurface) error
	WaitForVSync() error
	FrameCount() uint64
	// ConsumeResize reports whether the host window has moved, resized,
	// or changed scale factor since the last call, clearing the flag —
	// the scheduler polls this once per host iteration (spec.md §4.5
	// step 1) and requests an audio resync when it's true.
	ConsumeResize() bool
}

// HeadlessPresenter discards frames but records a count, for running a
// console under test or in a CI/benchmark harness with no display.
type HeadlessPresenter struct {
	started bool
	frames  uint64
	last    PixelSurface
}

func NewHeadlessPresenter() *HeadlessPresenter { return &HeadlessPresenter{} }

func (h *HeadlessPresenter) Start() error { h.started = true; return nil }
func (h *HeadlessPresenter) Stop() error  { h.started = false; return nil }
func (h *HeadlessPresenter) Present(surface PixelSurface) error {
	h.last = surface
	h.frames++
	return nil
}
func (h *HeadlessPresenter) WaitForVSync() error  { return nil }
func (h *HeadlessPresenter) FrameCount() uint64    { return h.frames }
func (h *HeadlessPresenter) LastFrame() PixelSurface { return h.last }

// ConsumeResize is always false: a headless presenter has no host
// window to move or resize.
func (h *HeadlessPresenter) ConsumeResize() bool { return false }

// EbitenPresenter is the windowed backend, adapted from the teacher's
// EbitenOutput: integer-scaled window sizing and SetVsyncEnabled(true)
// kept, but the keyboard/clipboard forwarding path dropped entirely.
type EbitenPresenter struct {
	scale          int
	fullscreen     bool
	image          *ebiten.Image
	surface        PixelSurface
	frameCount     uint64
	started        bool
	title          string
	resized        atomic.Bool
	lastOutsideW   int
	lastOutsideH   int
}

func NewEbitenPresenter(title string, scale int, fullscreen bool) *EbitenPresenter {
	if scale < 1 {
		scale = 1
	}
	if scale > 4 {
		scale = 4
	}
	return &EbitenPresenter{title: title, scale: scale, fullscreen: fullscreen}
}

func (e *EbitenPresenter) Start() error {
	ebiten.SetWindowTitle(e.title)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)
	if e.fullscreen {
		ebiten.SetFullscreen(true)
	}
	e.started = true
	go func() {
		if err := ebiten.RunGame(e); err != nil {
			fmt.Println("presenter stopped:", err)
		}
	}()
	return nil
}

func (e *EbitenPresenter) Stop() error { e.started = false; return nil }

// Present stores the surface and, the first time a frame of a given
// size arrives, sizes the window to surface dimensions times scale —
// mirroring the teacher's SetDisplayConfig-driven window sizing without
// carrying over its full DisplayConfig struct (this repo has one scale
// knob, not the teacher's broader format/vsync/fullscreen config set).
func (e *EbitenPresenter) Present(surface PixelSurface) error {
	if e.image == nil || e.image.Bounds().Dx() != surface.Width || e.image.Bounds().Dy() != surface.Height {
		e.image = ebiten.NewImage(surface.Width, surface.Height)
		ebiten.SetWindowSize(surface.Width*e.scale, surface.Height*e.scale)
	}
	e.image.WritePixels(surface.Pixels)
	e.surface = surface
	e.frameCount++
	return nil
}

func (e *EbitenPresenter) WaitForVSync() error { return nil }
func (e *EbitenPresenter) FrameCount() uint64  { return e.frameCount }

// ConsumeResize reports and clears the resize flag Layout sets whenever
// Ebiten reports a new outside (host window) size — the only move/
// resize/rescale signal Ebiten's Game interface surfaces to us.
func (e *EbitenPresenter) ConsumeResize() bool { return e.resized.Swap(false) }

// Update/Draw/Layout implement ebiten.Game so RunGame can drive the
// actual OS window; the upscale from native console resolution to the
// window's integer-scaled size goes through golang.org/x/image/draw
// (present in the examples pack but unused by the teacher directly —
// adopted here since the teacher's own backend has no scaling path and
// this spec's consoles run at several different native resolutions).
func (e *EbitenPresenter) Update() error { return nil }

func (e *EbitenPresenter) Draw(screen *ebiten.Image) {
	if e.image == nil {
		return
	}
	dst := image.NewRGBA(screen.Bounds())
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), e.image, e.image.Bounds(), draw.Over, nil)
	screen.WritePixels(dst.Pix)
}

func (e *EbitenPresenter) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != e.lastOutsideW || outsideHeight != e.lastOutsideH {
		if e.lastOutsideW != 0 || e.lastOutsideH != 0 {
			e.resized.Store(true)
		}
		e.lastOutsideW, e.lastOutsideH = outsideWidth, outsideHeight
	}
	if e.surface.Width == 0 {
		return 1, 1
	}
	return e.surface.Width * e.scale, e.surface.Height * e.scale
}
