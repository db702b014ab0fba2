package events

import (
	evbus "github.com/asaskevich/EventBus"
)

// Bus carries change notifications between writers of the same persisted
// slots inside one process: the store publishes after every write-through and
// the backup service publishes after a restore so live slots re-hydrate.
type Bus struct {
	bus evbus.Bus
}

func NewBus() *Bus {
	return &Bus{bus: evbus.New()}
}

func (b *Bus) Publish(topic string, payload []byte) {
	b.bus.Publish(topic, payload)
}

func (b *Bus) Subscribe(topic string, fn func(payload []byte)) error {
	return b.bus.Subscribe(topic, fn)
}
