package subscriber

import (
	"context"
	"strings"
)

// StaticSource is a fixed list of opted-in addresses.
type StaticSource struct {
	subscribers []Subscriber
}

// NewStatic returns a source where every non-blank address is subscribed.
func NewStatic(emails ...string) *StaticSource {
	s := &StaticSource{subscribers: make([]Subscriber, 0, len(emails))}
	for _, e := range emails {
		if e = strings.TrimSpace(e); e != "" {
			s.subscribers = append(s.subscribers, Subscriber{Email: e, Subscribed: true})
		}
	}
	return s
}

// Subscribers returns a copy of the list.
func (s *StaticSource) Subscribers(_ context.Context) ([]Subscriber, error) {
	out := make([]Subscriber, len(s.subscribers))
	copy(out, s.subscribers)
	return out, nil
}
