package kafka

import (
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// controllerAddr builds the dial address for a broker; the controller may
// listen on a non-default port.
func controllerAddr(b kafka.Broker) string {
	return net.JoinHostPort(b.Host, strconv.Itoa(b.Port))
}

// EnsureTopicExists creates the settled-event topic when the broker does not
// auto-create topics. Safe to call on every startup.
func EnsureTopicExists(brokers []string, topic string) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", controllerAddr(controller))
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil && err.Error() == "kafka server: topic already exists" {
		return nil
	}
	return err
}
