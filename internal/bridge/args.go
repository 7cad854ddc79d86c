// Package bridge exposes a player controller to JavaScript. Calls with
// missing or mistyped arguments are answered with an error string instead
// of reaching the controller.
package bridge

import (
	"errors"
	"fmt"
)

var ErrBadArguments = errors.New("bad arguments")

type Kind int

const (
	KindOther Kind = iota
	KindString
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	}
	return "other"
}

// signatures lists the arguments every bound method needs. Methods missing
// from the table take none.
var signatures = map[string][]Kind{
	"create":        {KindString, KindNumber, KindNumber},
	"load":          {KindString},
	"resize":        {KindNumber, KindNumber},
	"setAutoplay":   {KindBool},
	"setVolume":     {KindNumber},
	"setMute":       {KindBool},
	"setFullscreen": {KindBool},
}

// checkArgs reports whether got satisfies the signature of method. Extra
// arguments are ignored, as JavaScript does.
func checkArgs(method string, got []Kind) error {
	want := signatures[method]
	if len(got) < len(want) {
		return fmt.Errorf("%w: %s expects %d argument(s), got %d", ErrBadArguments, method, len(want), len(got))
	}
	for i, k := range want {
		if got[i] != k {
			return fmt.Errorf("%w: %s argument %d must be a %s, got %s", ErrBadArguments, method, i+1, k, got[i])
		}
	}
	return nil
}
