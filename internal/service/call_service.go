package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/sip-gateway/internal/aeims"
	"github.com/spec-kit/sip-gateway/internal/domain"
	"github.com/spec-kit/sip-gateway/internal/relay"
)

// CallUpstream is the slice of the gateway facade used for call commands.
type CallUpstream interface {
	InitiateCall(ctx context.Context, req aeims.CallRequest) (*aeims.CallSession, error)
	HangupCall(ctx context.Context, callID string) (*aeims.CallSession, error)
	TransferCall(ctx context.Context, callID, destination string) (*aeims.CallSession, error)
	MuteCall(ctx context.Context, callID, participant string) (*aeims.CallSession, error)
	UnmuteCall(ctx context.Context, callID, participant string) (*aeims.CallSession, error)
	ExecuteCommand(ctx context.Context, req aeims.CommandRequest) (*aeims.CommandResult, error)
	CreateCallFile(ctx context.Context, req aeims.CallFileRequest) (*aeims.CallFile, error)
	CreateConference(ctx context.Context, req aeims.ConferenceRequest) (*aeims.Conference, error)
	JoinConference(ctx context.Context, conferenceID string, req aeims.JoinRequest) (*aeims.Conference, error)
	LeaveConference(ctx context.Context, conferenceID, participantID string) (*aeims.Conference, error)
}

// CallService issues call commands against the platform and notifies the
// issuing operator's realtime subscribers. Authoritative state stays with
// the platform: its webhooks close the loop for every state change.
type CallService struct {
	upstream CallUpstream
	relay    *relay.Relay
	logger   *zap.Logger
}

// NewCallService builds the service.
func NewCallService(upstream CallUpstream, r *relay.Relay, logger *zap.Logger) *CallService {
	return &CallService{upstream: upstream, relay: r, logger: logger}
}

// Initiate places an outbound call with audit metadata attached.
func (s *CallService) Initiate(ctx context.Context, identity *domain.Identity, from, to string) (*aeims.CallSession, error) {
	req := aeims.CallRequest{
		From:             from,
		To:               to,
		InitiatedBy:      identity.SubjectID,
		InitiatedByEmail: identity.Email,
	}

	session, err := s.upstream.InitiateCall(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("call initiated",
		zap.String("by", identity.Email),
		zap.String("from", from),
		zap.String("to", to),
		zap.String("call_id", session.CallID),
	)
	s.notify(identity, "call-initiated", map[string]any{
		"callId": session.CallID,
		"from":   from,
		"to":     to,
	})
	return session, nil
}

// Hangup terminates a call. Hanging up is also the only compensating
// action for an in-flight command: there is no cancellation API against
// the platform.
func (s *CallService) Hangup(ctx context.Context, identity *domain.Identity, callID string) (*aeims.CallSession, error) {
	session, err := s.upstream.HangupCall(ctx, callID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("call hung up", zap.String("by", identity.Email), zap.String("call_id", callID))
	s.notify(identity, "call-ended", map[string]any{
		"callId": callID,
		"reason": "hangup",
	})
	return session, nil
}

// Transfer redirects a call.
func (s *CallService) Transfer(ctx context.Context, identity *domain.Identity, callID, destination string) (*aeims.CallSession, error) {
	session, err := s.upstream.TransferCall(ctx, callID, destination)
	if err != nil {
		return nil, err
	}

	s.logger.Info("call transferred",
		zap.String("by", identity.Email),
		zap.String("call_id", callID),
		zap.String("destination", destination),
	)
	s.notify(identity, "call-transferred", map[string]any{
		"callId":      callID,
		"destination": destination,
	})
	return session, nil
}

// Mute mutes a call or one participant.
func (s *CallService) Mute(ctx context.Context, identity *domain.Identity, callID, participant string) (*aeims.CallSession, error) {
	session, err := s.upstream.MuteCall(ctx, callID, participant)
	if err != nil {
		return nil, err
	}
	s.notify(identity, "call-muted", map[string]any{
		"callId":      callID,
		"participant": participant,
	})
	return session, nil
}

// Unmute unmutes a call or one participant.
func (s *CallService) Unmute(ctx context.Context, identity *domain.Identity, callID, participant string) (*aeims.CallSession, error) {
	session, err := s.upstream.UnmuteCall(ctx, callID, participant)
	if err != nil {
		return nil, err
	}
	s.notify(identity, "call-unmuted", map[string]any{
		"callId":      callID,
		"participant": participant,
	})
	return session, nil
}

// ExecuteCommand runs a raw switch command, logged for audit.
func (s *CallService) ExecuteCommand(ctx context.Context, identity *domain.Identity, command string, args []string) (*aeims.CommandResult, error) {
	result, err := s.upstream.ExecuteCommand(ctx, aeims.CommandRequest{Command: command, Args: args})
	if err != nil {
		return nil, err
	}
	s.logger.Info("switch command executed",
		zap.String("by", identity.Email),
		zap.String("command", command),
		zap.Strings("args", args),
	)
	return result, nil
}

// CreateCallFile queues an automated call with audit metadata attached.
func (s *CallService) CreateCallFile(ctx context.Context, identity *domain.Identity, req aeims.CallFileRequest) (*aeims.CallFile, error) {
	req.CreatedBy = identity.SubjectID
	req.CreatedByEmail = identity.Email

	file, err := s.upstream.CreateCallFile(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("call file created",
		zap.String("by", identity.Email),
		zap.String("channel", req.Channel),
		zap.String("extension", req.Extension),
	)
	return file, nil
}

// CreateConference creates a conference room moderated by the caller.
func (s *CallService) CreateConference(ctx context.Context, identity *domain.Identity, name string) (*aeims.Conference, error) {
	conf, err := s.upstream.CreateConference(ctx, aeims.ConferenceRequest{
		Name:        name,
		ModeratorID: identity.SubjectID,
	})
	if err != nil {
		return nil, err
	}
	s.notify(identity, "conference-created", map[string]any{
		"conferenceId": conf.ConferenceID,
		"name":         name,
	})
	return conf, nil
}

// JoinConference adds a participant to a conference.
func (s *CallService) JoinConference(ctx context.Context, conferenceID string, req aeims.JoinRequest) (*aeims.Conference, error) {
	return s.upstream.JoinConference(ctx, conferenceID, req)
}

// LeaveConference removes a participant from a conference.
func (s *CallService) LeaveConference(ctx context.Context, conferenceID, participantID string) (*aeims.Conference, error) {
	return s.upstream.LeaveConference(ctx, conferenceID, participantID)
}

// notify pushes a command acknowledgement to the operator's subscribers.
func (s *CallService) notify(identity *domain.Identity, eventType string, data map[string]any) {
	if s.relay == nil {
		return
	}
	s.relay.PushToSubject(identity.SubjectID, relay.Envelope{
		Channel: relay.ChannelCall,
		Type:    eventType,
		Data:    data,
	})
}
