// Package services – ConnectionService
//
// This file implements the ConnectionService, which maintains the WebSocket
// connection registry across the $connect, $disconnect and register routes.
package services

import (
	"context"

	"github.com/rs/zerolog/log"
)

// ConnectionRegistry defines the registry contract required by
// ConnectionService.
type ConnectionRegistry interface {
	// Put registers (or replaces) the live connection for a user.
	Put(ctx context.Context, userID, connectionID string) error
	// DeleteByConnection removes every record bound to a connection id and
	// returns the affected user ids.
	DeleteByConnection(ctx context.Context, connectionID string) ([]string, error)
}

// ConnectionService manages the WebSocket connect/disconnect/register
// lifecycle.
type ConnectionService struct {
	// Connections is the registry store.
	Connections ConnectionRegistry
}

// NewConnectionService constructs a ConnectionService.
func NewConnectionService(connections ConnectionRegistry) *ConnectionService {
	return &ConnectionService{Connections: connections}
}

// Connect handles $connect. A connection that arrives without a user_id is
// accepted but not registered; the client can register later through the
// register route.
func (s *ConnectionService) Connect(ctx context.Context, connectionID, userID string) error {
	if userID == "" {
		log.Info().Str("connection_id", connectionID).Msg("connection accepted without user_id")
		return nil
	}
	if err := s.Connections.Put(ctx, userID, connectionID); err != nil {
		return err
	}
	log.Info().Str("user_id", userID).Str("connection_id", connectionID).Msg("user connected")
	return nil
}

// Disconnect handles $disconnect, removing every registry record bound to
// the closing connection.
func (s *ConnectionService) Disconnect(ctx context.Context, connectionID string) error {
	_, err := s.Connections.DeleteByConnection(ctx, connectionID)
	return err
}

// Register handles an explicit register message carrying the user_id in the
// body. Unlike Connect, the user_id is mandatory here.
func (s *ConnectionService) Register(ctx context.Context, connectionID, userID string) error {
	if userID == "" {
		return ErrMissingUserID
	}
	if err := s.Connections.Put(ctx, userID, connectionID); err != nil {
		return err
	}
	log.Info().Str("user_id", userID).Str("connection_id", connectionID).Msg("user registered")
	return nil
}
