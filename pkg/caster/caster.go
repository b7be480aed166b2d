package caster

import "encoding/json"

// ChannelCaster converts the values flowing through a pubsub topic to and
// from the text frames written on a websocket.
type ChannelCaster[T any] interface {
	From([]byte) (T, error)
	To(T) ([]byte, error)
}

type JSONChannelCaster[T any] struct{}

func (jc JSONChannelCaster[T]) From(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

func (jc JSONChannelCaster[T]) To(v T) ([]byte, error) {
	return json.Marshal(v)
}
