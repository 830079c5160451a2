// Package feed broadcasts "something changed" notices between service
// instances. Events carry no state; receivers refetch what they show.
package feed

import (
	"context"
	"time"
)

type Kind string

const (
	KindCompletion    Kind = "completion"
	KindTransferEvent Kind = "transfer_event"
	KindKitLocation   Kind = "kit_location"
)

type Event struct {
	OrganizationID  string    `json:"organization_id"`
	Kind            Kind      `json:"kind"`
	ScenarioID      string    `json:"scenario_id,omitempty"`
	KitNumber       int       `json:"kit_number,omitempty"`
	PerformanceDate time.Time `json:"performance_date,omitempty"`
	At              time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscriber delivers events until ctx ends, then closes the channel.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Event, error)
}

type PubSub interface {
	Publisher
	Subscriber
}

const subscriberBuffer = 64
