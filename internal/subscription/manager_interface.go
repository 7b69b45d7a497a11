package subscription

// Manager is the fan-out the gateway publishes through.
type Manager interface {
	Register(id string) (*Subscriber, func())
	Subscribe(sub *Subscriber, postID string)
	Unsubscribe(sub *Subscriber, postID string)
	Publish(postID string, payload []byte) int
	SendTo(sub *Subscriber, payload []byte) bool
	Close()
}

var _ Manager = (*SubscriptionManager)(nil)
