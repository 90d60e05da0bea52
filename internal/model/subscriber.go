// internal/model/subscriber.go
package model

import "time"

const (
	SubscriberSubscribed   = "subscribed"
	SubscriberUnsubscribed = "unsubscribed"
)

// Subscriber is a standing mailing-list member, independent of any campaign.
type Subscriber struct {
	ID        int       `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Tags      string    `db:"tags" json:"tags,omitempty"`
	ListRef   string    `db:"list_ref" json:"list_ref,omitempty"`
	Status    string    `db:"status" json:"status"`
	Origin    string    `db:"origin" json:"origin,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
