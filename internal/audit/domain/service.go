package domain

import (
	"context"
	"errors"
)

type Service interface {
	Record(ctx context.Context, actorType ActorType, actorID, action, targetType, targetID string, metadata map[string]any) error
}

var (
	ErrInvalidAction = errors.New("invalid_action")
)
