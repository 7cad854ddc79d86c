package ports

import "github.com/gabrielcapilla/viewplay/internal/domain"

type ConfigService interface {
	Load() (domain.Config, error)
}
