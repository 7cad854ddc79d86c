package ui

import (
	"time"

	"github.com/gabrielcapilla/viewplay/internal/domain"
)

type tickMsg time.Time
type snapshotMsg struct{ snap domain.Snapshot }
type commandErrMsg struct{ err error }
