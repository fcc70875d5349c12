package services

import (
	"time"

	"github.com/codesurge/hackathon/pkg/logger"
)

// EventType names a notification the platform sends to a team.
type EventType string

const (
	EventUserRegistered     EventType = "user_registered"
	EventHackathonStarted   EventType = "hackathon_started"
	EventHackathonScheduled EventType = "hackathon_scheduled"
	EventProblemSelected    EventType = "problem_selected"
	EventSolutionSubmitted  EventType = "solution_submitted"
	EventHackathonEnded     EventType = "hackathon_ended"
)

// NotificationEvent is the payload queued for delivery. Fields that do not
// apply to an event type are left empty.
type NotificationEvent struct {
	Type          EventType  `json:"type"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	TeamName      string     `json:"team_name"`
	HackathonID   string     `json:"hackathon_id,omitempty"`
	HackathonName string     `json:"hackathon_name,omitempty"`
	ProblemTitle  string     `json:"problem_title,omitempty"`
	GithubURL     string     `json:"github_url,omitempty"`
	HostedURL     string     `json:"hosted_url,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// Notifier hands events to the delivery pipeline. Delivery failures are
// logged and never reported back to the caller.
type Notifier interface {
	Notify(event *NotificationEvent)
}

// NotificationService queues email delivery and mirrors lifecycle events to
// live SSE subscribers.
type NotificationService struct {
	queue TaskQueue
	hub   *SSEHub
}

func NewNotificationService(queue TaskQueue, hub *SSEHub) *NotificationService {
	return &NotificationService{queue: queue, hub: hub}
}

func (s *NotificationService) Notify(event *NotificationEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if s.hub != nil && event.Type != EventUserRegistered {
		s.hub.Publish(newHackathonEvent(event))
	}

	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(&NotificationTask{Event: *event}); err != nil {
		logger.Warn().Err(err).
			Str("type", string(event.Type)).
			Str("team", event.TeamName).
			Msg("[Notification] Failed to enqueue notification")
	}
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) Notify(*NotificationEvent) {}
