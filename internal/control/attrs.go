package control

import (
	"fmt"
	"time"

	"github.com/mixcore/core/internal/mediaplayer"
	"github.com/mixcore/core/internal/source"
)

// attrHandler applies one per-source attribute command to src.
type attrHandler func(src *source.Source, args []any) error

var attrTable = map[string]attrHandler{
	"name":   attrRename,
	"rename": attrRename,
	"alpha":  func(s *source.Source, a []any) error { return attrFloat(s, a, s.SetAlpha) },
	"transparency": func(s *source.Source, a []any) error {
		return attrFloat(s, a, func(v float64) { s.SetAlpha(1 - v) })
	},
	"depth": func(s *source.Source, a []any) error { return attrFloat(s, a, s.SetDepth) },
	"lock": func(s *source.Source, a []any) error {
		return attrBool(s, a, func(locked bool) {
			if locked {
				s.SetMode(source.ModeVisible)
			}
		})
	},
	"play":    attrPlay,
	"pause":   func(s *source.Source, a []any) error { s.Play(false); return nil },
	"replay":  func(s *source.Source, a []any) error { s.Replay(); return nil },
	"reload":  attrReload,
	"seek":    attrSeek,
	"ffwd":    attrFfwd,
	"speed":   attrSpeed,
	"position":          func(s *source.Source, a []any) error { return attrVec2(s, a, func(x, y float64) { s.View.TranslateX, s.View.TranslateY = x, y }) },
	"size":              func(s *source.Source, a []any) error { return attrVec2(s, a, func(x, y float64) { s.View.ScaleX, s.View.ScaleY = x, y }) },
	"angle":             func(s *source.Source, a []any) error { return attrFloat(s, a, func(v float64) { s.View.Rotation = v }) },
	"turn":              func(s *source.Source, a []any) error { return attrFloat(s, a, func(v float64) { s.View.Rotation += v }) },
	"grab":              func(s *source.Source, a []any) error { return attrVec2(s, a, func(dx, dy float64) { s.View.TranslateX += dx; s.View.TranslateY += dy }) },
	"resize":            func(s *source.Source, a []any) error { return attrVec2(s, a, func(dx, dy float64) { s.View.ScaleX += dx; s.View.ScaleY += dy }) },
	"corner":            func(s *source.Source, a []any) error { return attrVec2(s, a, func(x, y float64) { s.View.ScaleX, s.View.ScaleY = x, y }) },
	"reset":             func(s *source.Source, a []any) error { s.View = source.DefaultTransform(); return nil },
	"crop":              func(s *source.Source, a []any) error { return attrVec2(s, a, func(x, y float64) { s.Crop.ScaleX, s.Crop.ScaleY = x, y }) },
	"texture_position":  func(s *source.Source, a []any) error { return attrVec2(s, a, func(x, y float64) { s.Crop.TranslateX, s.Crop.TranslateY = x, y }) },
	"texture_size":      func(s *source.Source, a []any) error { return attrVec2(s, a, func(x, y float64) { s.Crop.ScaleX, s.Crop.ScaleY = x, y }) },
	"texture_angle":     func(s *source.Source, a []any) error { return attrFloat(s, a, func(v float64) { s.Crop.Rotation = v }) },
	"brightness":        func(s *source.Source, a []any) error { return attrFloat(s, a, func(v float64) { s.Processing.Brightness = v }) },
	"contrast":          func(s *source.Source, a []any) error { return attrFloat(s, a, func(v float64) { s.Processing.Contrast = v }) },
	"saturation":        func(s *source.Source, a []any) error { return attrFloat(s, a, func(v float64) { s.Processing.Saturation = v }) },
	"hue":               func(s *source.Source, a []any) error { return attrFloat(s, a, func(v float64) { s.Processing.Hue = v }) },
	"threshold":         func(s *source.Source, a []any) error { return attrFloat(s, a, func(v float64) { s.Processing.Threshold = v }) },
	"gamma":             func(s *source.Source, a []any) error { return attrFloat(s, a, func(v float64) { s.Processing.Gamma = v }) },
	"color":             attrColor,
	"posterize":         func(s *source.Source, a []any) error { return attrInt(s, a, func(v int) { s.Processing.Posterize = v }) },
	"invert":            func(s *source.Source, a []any) error { return attrBool(s, a, func(v bool) { s.Processing.Invert = v }) },
	"correction":        func(s *source.Source, a []any) error { return attrVec2(s, a, func(gamma, _ float64) { s.Processing.Gamma = gamma }) },
	"loom":              func(s *source.Source, a []any) error { return nil }, // GUI-layer gesture overlay; no core state
	"alias":             func(s *source.Source, a []any) error { return nil }, // alias bookkeeping is a GUI/recent-files concern
	"uniform":           func(s *source.Source, a []any) error { return nil }, // shader uniforms belong to the GUI's scene graph
	"filter":            func(s *source.Source, a []any) error { return nil }, // pixel shaders belong to the GUI's scene graph
	"blending":          func(s *source.Source, a []any) error { return nil }, // blend-mode enum lives in the (out-of-scope) scene graph
}

func (r *Router) applyAttrToTargets(attr string, args []any, targets []*source.Source) error {
	handler, ok := attrTable[attr]
	if !ok {
		return fmt.Errorf("control: unknown attribute %q", attr)
	}
	var firstErr error
	for _, src := range targets {
		if err := handler(src, args); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("control: attribute %q on source %d: %w", attr, src.ID, err)
		}
	}
	return firstErr
}

func attrFloat(src *source.Source, args []any, apply func(float64)) error {
	v, ok := argFloatAny(args, 0)
	if !ok {
		return fmt.Errorf("expected 1 float argument")
	}
	apply(v)
	return nil
}

func attrInt(src *source.Source, args []any, apply func(int)) error {
	v, ok := argIntAny(args, 0)
	if !ok {
		return fmt.Errorf("expected 1 int argument")
	}
	apply(v)
	return nil
}

func attrBool(src *source.Source, args []any, apply func(bool)) error {
	v, ok := argIntAny(args, 0)
	if !ok {
		return fmt.Errorf("expected 1 int (0/1) argument")
	}
	apply(v != 0)
	return nil
}

func attrVec2(src *source.Source, args []any, apply func(x, y float64)) error {
	x, ok1 := argFloatAny(args, 0)
	y, ok2 := argFloatAny(args, 1)
	if !ok1 || !ok2 {
		return fmt.Errorf("expected 2 float arguments")
	}
	apply(x, y)
	return nil
}

func attrColor(src *source.Source, args []any) error {
	r, ok1 := argFloatAny(args, 0)
	g, ok2 := argFloatAny(args, 1)
	b, ok3 := argFloatAny(args, 2)
	if !ok1 || !ok2 || !ok3 {
		return fmt.Errorf("expected 3 float arguments")
	}
	src.Processing.Color = [3]float64{r, g, b}
	return nil
}

func attrRename(src *source.Source, args []any) error {
	name, ok := argStringAny(args, 0)
	if !ok {
		return fmt.Errorf("expected 1 string argument")
	}
	src.SetName(name)
	return nil
}

func attrPlay(src *source.Source, args []any) error {
	on := true
	if v, ok := argIntAny(args, 0); ok {
		on = v != 0
	}
	src.Play(on)
	return nil
}

func mediaPlayer(src *source.Source) (*mediaplayer.Player, bool) {
	mv, ok := src.Variant().(*source.MediaVariant)
	if !ok {
		return nil, false
	}
	return mv.Player, true
}

func attrReload(src *source.Source, args []any) error {
	p, ok := mediaPlayer(src)
	if !ok {
		return nil // reload is a no-op for non-media variants
	}
	p.Reload()
	return nil
}

func attrSeek(src *source.Source, args []any) error {
	p, ok := mediaPlayer(src)
	if !ok {
		return fmt.Errorf("not seekable: not a media source")
	}
	ms, ok := argFloatAny(args, 0)
	if !ok {
		return fmt.Errorf("expected 1 float argument (milliseconds)")
	}
	if !p.GoTo(time.Duration(ms) * time.Millisecond) {
		return fmt.Errorf("not seekable")
	}
	return nil
}

func attrFfwd(src *source.Source, args []any) error {
	p, ok := mediaPlayer(src)
	if !ok {
		return nil
	}
	stepMs := int64(1000)
	if v, ok := argFloatAny(args, 0); ok {
		stepMs = int64(v)
	}
	p.Jump(stepMs)
	return nil
}

func attrSpeed(src *source.Source, args []any) error {
	p, ok := mediaPlayer(src)
	if !ok {
		return fmt.Errorf("speed control requires a media source")
	}
	v, ok := argFloatAny(args, 0)
	if !ok {
		return fmt.Errorf("expected 1 float argument")
	}
	return p.SetPlaySpeed(v)
}

func argFloatAny(args []any, i int) (float64, bool) {
	if i >= len(args) {
		return 0, false
	}
	switch v := args[i].(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case int32:
		return float64(v), true
	}
	return 0, false
}

func argIntAny(args []any, i int) (int, bool) {
	if i >= len(args) {
		return 0, false
	}
	switch v := args[i].(type) {
	case int32:
		return int(v), true
	case float32:
		return int(v), true
	}
	return 0, false
}

func argStringAny(args []any, i int) (string, bool) {
	if i >= len(args) {
		return "", false
	}
	s, ok := args[i].(string)
	return s, ok
}
