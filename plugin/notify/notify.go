// Package notify dispatches match suggestions to configured channels.
// Delivery is best effort: a channel failure is logged and never reaches
// the intake path that produced the suggestion.
package notify

import (
	"context"
	"log/slog"

	"github.com/JaCARYK/beartracks/store"
)

// Event is one auto-suggested match, rendered for external consumers.
type Event struct {
	MatchID    string  `json:"match_id"`
	Score      float64 `json:"score"`
	LostID     string  `json:"lost_id"`
	LostTitle  string  `json:"lost_title"`
	FoundID    string  `json:"found_id"`
	FoundTitle string  `json:"found_title"`
	Category   string  `json:"category"`
}

// Channel delivers one event to one destination.
type Channel interface {
	Name() string
	Send(ctx context.Context, event *Event) error
}

// Dispatcher fans events out to every configured channel.
type Dispatcher struct {
	channels []Channel
}

func NewDispatcher(channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels}
}

func (d *Dispatcher) HasChannels() bool {
	return len(d.channels) > 0
}

// DispatchAsync sends the event on every channel in the background.
func (d *Dispatcher) DispatchAsync(event *Event) {
	for _, channel := range d.channels {
		go func(channel Channel) {
			if err := channel.Send(context.Background(), event); err != nil {
				slog.Warn("failed to dispatch match suggestion",
					slog.String("channel", channel.Name()),
					slog.String("match", event.MatchID),
					slog.Any("err", err))
			}
		}(channel)
	}
}

// EventFromMatch renders a suggestion into the wire shape.
func EventFromMatch(match *store.Match, lost *store.LostItem, found *store.FoundItem) *Event {
	return &Event{
		MatchID:    match.ID,
		Score:      match.Score,
		LostID:     lost.ID,
		LostTitle:  lost.Title,
		FoundID:    found.ID,
		FoundTitle: found.Title,
		Category:   found.Category,
	}
}
