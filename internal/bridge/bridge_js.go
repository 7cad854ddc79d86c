//go:build js && wasm

package bridge

import (
	"fmt"
	"syscall/js"

	"github.com/gabrielcapilla/viewplay/internal/logger"
	"github.com/gabrielcapilla/viewplay/internal/player"
	"github.com/gabrielcapilla/viewplay/internal/ports"
)

func kindOf(v js.Value) Kind {
	switch v.Type() {
	case js.TypeString:
		return KindString
	case js.TypeNumber:
		return KindNumber
	case js.TypeBoolean:
		return KindBool
	}
	return KindOther
}

func errValue(err error) any {
	if err != nil {
		return err.Error()
	}
	return nil
}

// method wraps fn so that a call only reaches it with the arguments its
// signature asks for, and a panic inside it is reported to the caller.
func method(name string, fn func(args []js.Value) any) js.Func {
	return js.FuncOf(func(this js.Value, args []js.Value) (result any) {
		kinds := make([]Kind, len(args))
		for i, a := range args {
			kinds[i] = kindOf(a)
		}
		if err := checkArgs(name, kinds); err != nil {
			logger.Log.Warn().Err(err).Str("method", name).Msg("Rejected player call")
			return err.Error()
		}
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Error().Interface("panic", r).Str("method", name).Msg("Player call failed")
				result = fmt.Sprintf("%s failed: %v", name, r)
			}
		}()
		return fn(args)
	})
}

// Bind returns a JavaScript object with the controls of c. destroy closes
// the controller and releases every bound function.
func Bind(c *player.Controller) js.Value {
	obj := js.Global().Get("Object").New()
	funcs := map[string]func(args []js.Value) any{
		"load":             func(args []js.Value) any { return errValue(c.Load(args[0].String())) },
		"play":             func(args []js.Value) any { return errValue(c.Play()) },
		"pause":            func(args []js.Value) any { return errValue(c.Pause()) },
		"resize":           func(args []js.Value) any { return errValue(c.Resize(args[0].Int(), args[1].Int())) },
		"getWidth":         func(args []js.Value) any { return c.Width() },
		"getHeight":        func(args []js.Value) any { return c.Height() },
		"setAutoplay":      func(args []js.Value) any { return errValue(c.SetAutoplay(args[0].Bool())) },
		"setVolume":        func(args []js.Value) any { return errValue(c.SetVolume(args[0].Float())) },
		"getVolume":        func(args []js.Value) any { return c.Volume() },
		"setMute":          func(args []js.Value) any { return errValue(c.SetMute(args[0].Bool())) },
		"getMute":          func(args []js.Value) any { return c.Muted() },
		"getDuration":      func(args []js.Value) any { return c.Duration() },
		"setFullscreen":    func(args []js.Value) any { return errValue(c.SetFullscreen(args[0].Bool())) },
		"getPlaybackState": func(args []js.Value) any { return c.PlaybackState().String() },
		"getViewability":   func(args []js.Value) any { return c.Viewability() },
	}

	var released []js.Func
	for name, fn := range funcs {
		f := method(name, fn)
		released = append(released, f)
		obj.Set(name, f)
	}

	var destroy js.Func
	destroy = js.FuncOf(func(this js.Value, args []js.Value) any {
		err := c.Close()
		for _, f := range released {
			f.Release()
		}
		destroy.Release()
		return errValue(err)
	})
	obj.Set("destroy", destroy)
	return obj
}

// Create returns the create(containerId, width, height) function. Bad
// arguments yield an error string rather than a player object.
func Create(host ports.Host, observer ports.VisibilityObserver) js.Func {
	return method("create", func(args []js.Value) any {
		c := player.New(host, args[0].String(), args[1].Int(), args[2].Int(), player.WithVisibility(observer))
		return Bind(c)
	})
}
