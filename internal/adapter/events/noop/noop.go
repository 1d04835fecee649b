// Package noop is the event bus used when no external bus is
// configured. Every capability check reports the bus as absent, which
// keeps delivery in-process on a single instance.
package noop

import (
	"errors"
	"io"
)

type Bus struct{}

func New() *Bus {
	return &Bus{}
}

func (*Bus) Enabled() bool {
	return false
}

func (*Bus) Connect() error {
	return nil
}

func (*Bus) Connected() bool {
	return false
}

func (*Bus) Publish(string, []byte) error {
	return errors.New("bus disabled")
}

func (*Bus) Subscribe(string, func(data []byte)) (io.Closer, error) {
	return nopCloser{}, nil
}

func (*Bus) Close() error {
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error {
	return nil
}
