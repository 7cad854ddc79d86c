package domain

import "errors"

var (
	ErrRegionNotFound = errors.New("host region not found")
	ErrDetached       = errors.New("player has no playback surface")
	ErrInvalidVolume  = errors.New("volume is not a number")
)
