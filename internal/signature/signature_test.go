package signature

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/image/font/gofont/goitalic"

	"github.com/local/pdfsigner/internal/apperr"
)

func testFonts(t *testing.T) *FontBank {
	t.Helper()
	fb, err := NewFontBank("", 48)
	if err != nil {
		t.Fatalf("NewFontBank: %v", err)
	}
	return fb
}

func newTestAcquirer(t *testing.T) (*Acquirer, *clockwork.FakeClock) {
	t.Helper()
	fc := clockwork.NewFakeClock()
	a := NewAcquirer(Config{
		CharLimit:    25,
		Debounce:     50 * time.Millisecond,
		InvalidFlash: 300 * time.Millisecond,
		PadWidth:     500,
		PadHeight:    200,
	}, testFonts(t), fc)
	t.Cleanup(a.Close)
	return a, fc
}

func waitUpdated(t *testing.T, in *TypedInput) {
	t.Helper()
	select {
	case <-in.Updated():
	case <-time.After(2 * time.Second):
		t.Fatal("suggestions were not rendered")
	}
}

func hasInk(img *image.RGBA) bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			return true
		}
	}
	return false
}

func TestDebouncerRunsOncePerBurst(t *testing.T) {
	fc := clockwork.NewFakeClock()
	fired := make(chan struct{}, 4)
	d := NewDebouncer(fc, 50*time.Millisecond, func() { fired <- struct{}{} })

	d.Trigger()
	fc.Advance(20 * time.Millisecond)
	d.Trigger()
	fc.Advance(20 * time.Millisecond)
	d.Trigger()
	fc.Advance(49 * time.Millisecond)
	select {
	case <-fired:
		t.Fatal("fired before the quiet period")
	default:
	}

	fc.Advance(time.Millisecond)
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("never fired")
	}
	select {
	case <-fired:
		t.Fatal("fired twice")
	case <-time.After(50 * time.Millisecond):
	}
	if d.Stop() {
		t.Fatal("Stop reported a pending run after firing")
	}
}

func TestFontBankBuiltins(t *testing.T) {
	fb := testFonts(t)
	if got := strings.Join(fb.Styles(), ","); got != "Gluten,Kalam,Courgette" {
		t.Fatalf("styles = %s", got)
	}
}

func TestFontBankDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Alpha.ttf"), goitalic.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	fb, err := NewFontBank(dir, 48)
	if err != nil {
		t.Fatalf("NewFontBank: %v", err)
	}
	if got := strings.Join(fb.Styles(), ","); got != "Alpha" {
		t.Fatalf("styles = %s", got)
	}

	empty, err := NewFontBank(t.TempDir(), 48)
	if err != nil || empty.Len() != 3 {
		t.Fatalf("empty dir: %v, %d styles", err, empty.Len())
	}
}

func TestTextToImage(t *testing.T) {
	fb := testFonts(t)
	img, err := fb.TextToImage("Jane Doe", 0)
	if err != nil {
		t.Fatalf("TextToImage: %v", err)
	}
	b := img.Bounds()
	if b.Dy() != 70 || b.Dx() <= 20 {
		t.Fatalf("bounds = %v", b)
	}
	if !hasInk(img) {
		t.Fatal("no text drawn")
	}
	if img.RGBAAt(0, 0).A != 0 {
		t.Fatal("background is not transparent")
	}
	if _, err := fb.TextToImage("x", 7); err == nil {
		t.Fatal("expected error for unknown style")
	}
}

func TestPad(t *testing.T) {
	p := NewPad(100, 50)
	if !p.IsEmpty() || hasInk(p.Image()) {
		t.Fatal("new pad not empty")
	}
	p.AddStroke(nil)
	if !p.IsEmpty() {
		t.Fatal("empty stroke counted")
	}
	p.AddStroke([]Point{{X: 10, Y: 25}, {X: 90, Y: 25}})
	img := p.Image()
	if p.IsEmpty() || img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
		t.Fatal("stroke not recorded")
	}
	if img.RGBAAt(50, 25).A == 0 {
		t.Fatal("stroke not rasterized")
	}
	if img.RGBAAt(50, 5).A != 0 {
		t.Fatal("ink far from the stroke")
	}
	p.Clear()
	if !p.IsEmpty() {
		t.Fatal("Clear left strokes")
	}
}

func TestSetTextTruncatesAndFlashes(t *testing.T) {
	a, fc := newTestAcquirer(t)
	in := a.Typed()
	if !in.SetText(strings.Repeat("a", 30)) {
		t.Fatal("30 characters not reported as truncated")
	}
	if got := len([]rune(in.Text())); got != 25 {
		t.Fatalf("text length = %d, want 25", got)
	}
	if !in.State().Invalid {
		t.Fatal("no invalid-input signal")
	}

	fc.Advance(300 * time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for in.State().Invalid {
		if time.Now().After(deadline) {
			t.Fatal("invalid-input signal never cleared")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSetTextCountsRunes(t *testing.T) {
	a, _ := newTestAcquirer(t)
	name := strings.Repeat("é", 25)
	if a.Typed().SetText(name) {
		t.Fatal("25 runes truncated")
	}
	if a.Typed().Text() != name {
		t.Fatal("text changed")
	}
}

func TestSuggestionsAreDebounced(t *testing.T) {
	a, fc := newTestAcquirer(t)
	in := a.Typed()
	for _, s := range []string{"J", "Ja", "Jan", "Jane"} {
		in.SetText(s)
		fc.Advance(10 * time.Millisecond)
	}
	if st := in.State(); st.RenderCount != 0 || !st.Pending {
		t.Fatalf("rendered during the burst: %+v", st)
	}
	fc.Advance(40 * time.Millisecond)
	waitUpdated(t, in)

	st := in.State()
	if st.RenderCount != 1 || !st.Visible || len(st.Styles) != 3 || st.Selected != -1 {
		t.Fatalf("state = %+v", st)
	}
	if !in.Select(1) || in.State().Selected != 1 {
		t.Fatal("Select(1) failed")
	}
	if !in.Select(2) || in.State().Selected != 2 {
		t.Fatal("selection is not exclusive")
	}
	if in.Select(3) {
		t.Fatal("selected a missing suggestion")
	}

	in.SetText("Jane D")
	fc.Advance(50 * time.Millisecond)
	waitUpdated(t, in)
	if st := in.State(); st.Selected != -1 || st.RenderCount != 2 {
		t.Fatalf("re-render kept selection: %+v", st)
	}

	in.SetText("   ")
	fc.Advance(50 * time.Millisecond)
	waitUpdated(t, in)
	if st := in.State(); st.Visible || len(st.Styles) != 0 {
		t.Fatalf("blank text shows suggestions: %+v", st)
	}
}

func TestSaveTypedJaneDoe(t *testing.T) {
	a, fc := newTestAcquirer(t)
	if a.ToggleTyping() != ModeType {
		t.Fatal("toggle did not enter type mode")
	}
	in := a.Typed()
	if in.SetText("Jane Doe") {
		t.Fatal("Jane Doe truncated")
	}
	fc.Advance(50 * time.Millisecond)
	waitUpdated(t, in)
	if !in.Select(0) {
		t.Fatal("Select(0) failed")
	}

	img, err := a.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	want, _ := testFonts(t).TextToImage("Jane Doe", 0)
	if img.Bounds() != want.Bounds() {
		t.Fatalf("bounds = %v, want %v", img.Bounds(), want.Bounds())
	}
	if st := in.State(); st.Text != "" || st.Visible || st.Invalid {
		t.Fatalf("typed input not cleared after save: %+v", st)
	}
}

func TestSaveValidationOrder(t *testing.T) {
	a, fc := newTestAcquirer(t)

	_, err := a.Save()
	if apperr.KindOf(err) != apperr.KindInvalidInput || apperr.Message(err) != "Please provide a signature first." {
		t.Fatalf("draw: %v", err)
	}

	a.ToggleTyping()
	_, err = a.Save()
	if apperr.Message(err) != "Please select a font style." {
		t.Fatalf("type without font: %v", err)
	}

	a.Typed().SetText("Jane")
	fc.Advance(50 * time.Millisecond)
	waitUpdated(t, a.Typed())
	a.Typed().Select(0)
	// blank text before the debounced re-render clears the selection
	a.Typed().SetText("  ")
	_, err = a.Save()
	if apperr.Message(err) != "Please type your signature." {
		t.Fatalf("type without text: %v", err)
	}

	a.SelectMode(ModeImage)
	if _, err = a.Save(); apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("image without upload: %v", err)
	}
}

func TestSaveDrawn(t *testing.T) {
	a, _ := newTestAcquirer(t)
	a.Pad().AddStroke([]Point{{X: 10, Y: 10}, {X: 200, Y: 100}})
	img, err := a.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if img.Bounds().Dx() != 500 || img.Bounds().Dy() != 200 || !hasInk(img) {
		t.Fatalf("drawn signature = %v", img.Bounds())
	}
}

func TestImageMode(t *testing.T) {
	a, _ := newTestAcquirer(t)
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 20))); err != nil {
		t.Fatal(err)
	}
	if err := a.SetImage(buf.Bytes()); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	if a.Mode() != ModeImage {
		t.Fatalf("mode = %s", a.Mode())
	}
	img, err := a.Save()
	if err != nil || img.Bounds().Dx() != 40 || img.Bounds().Dy() != 20 {
		t.Fatalf("Save = %v, %v", img.Bounds(), err)
	}

	if err := a.SetImage([]byte("%PDF-1.4 not an image")); apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("SetImage(pdf) = %v", err)
	}
}

func TestClearOnlyActiveMode(t *testing.T) {
	a, _ := newTestAcquirer(t)
	a.Pad().AddStroke([]Point{{X: 1, Y: 1}})
	a.ToggleTyping()
	a.Typed().SetText("Jane")
	a.Clear()
	if a.Typed().Text() != "" {
		t.Fatal("typed text kept")
	}
	if a.Pad().IsEmpty() {
		t.Fatal("pad cleared from type mode")
	}

	if a.ToggleTyping() != ModeDraw {
		t.Fatal("toggle did not return to draw")
	}
	a.Clear()
	if !a.Pad().IsEmpty() {
		t.Fatal("pad kept")
	}
}

func TestToggleClearsTyped(t *testing.T) {
	a, _ := newTestAcquirer(t)
	a.ToggleTyping()
	a.Typed().SetText("Jane")
	a.ToggleTyping()
	if a.Typed().Text() != "" || a.Typed().State().Visible {
		t.Fatal("toggle kept typed text")
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("type"); err != nil || m != ModeType {
		t.Fatalf("ParseMode = %v %v", m, err)
	}
	if _, err := ParseMode("voice"); err == nil {
		t.Fatal("expected error")
	}
}
