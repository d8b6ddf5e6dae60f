package port

import "docrag/internal/domain"

// StageListener receives one event per pipeline stage as it completes.
type StageListener func(event domain.StageEvent)
