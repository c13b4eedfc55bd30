package queue

import "MonikaNotify/storage/mq"

const (
	NotifyExchange          = "notify.events"
	NotifyOutcomeRoutingKey = "notify.outcome"
	NotifyOutcomeQueue      = "notify.outcome"
)

// NotifyOutcomeTopology notify.events(topic) -> notify.outcome
var NotifyOutcomeTopology = mq.Topology{
	Exchange:   NotifyExchange,
	Queue:      NotifyOutcomeQueue,
	RoutingKey: NotifyOutcomeRoutingKey,
}

// DeclareTopology 生产端和消费端启动时都会调用，声明是幂等的
func DeclareTopology() error {
	return mq.Declare(NotifyOutcomeTopology)
}
