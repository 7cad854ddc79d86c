//go:build js && wasm

// Command viewplay-wasm embeds the player in a web page. It exposes a
// global viewplay.create(containerId, width, height) that returns an
// object with the player controls.
package main

import (
	"syscall/js"
	"time"

	"github.com/gabrielcapilla/viewplay/internal/bridge"
	"github.com/gabrielcapilla/viewplay/internal/domain"
	"github.com/gabrielcapilla/viewplay/internal/logger"
	"github.com/gabrielcapilla/viewplay/internal/player"
	"github.com/gabrielcapilla/viewplay/internal/services/surface"
)

func main() {
	host := surface.NewDOMHost()
	observer := surface.NewDOMObserver()

	create := bridge.Create(host, observer)

	api := js.Global().Get("Object").New()
	api.Set("create", create)
	js.Global().Set("viewplay", api)

	// Mirror the polling pattern when the page asks for it with
	// data-viewplay-demo on the container.
	if el := js.Global().Get("document").Call("querySelector", "[data-viewplay-demo]"); !el.IsNull() {
		c := player.New(host, el.Get("id").String(), 1000, 600, player.WithVisibility(observer))
		c.Load(el.Get("dataset").Get("viewplayDemo").String())
		c.SetVolume(50)
		go func() {
			var last domain.PlaybackState
			for range time.Tick(200 * time.Millisecond) {
				if st := c.PlaybackState(); st != last {
					logger.Log.Info().Str("state", st.String()).Int("viewability", c.Viewability()).Msg("Playback state")
					last = st
				}
			}
		}()
	}

	select {}
}
