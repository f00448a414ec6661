package broker

import "errors"

var (
	ErrTopicExists    = errors.New("topic already exists")
	ErrTopicNotFound  = errors.New("topic not found")
	ErrEmptyTopicName = errors.New("topic name is required")
	ErrSlowConsumer   = errors.New("subscriber queue overflow")
	ErrInvalidConfig  = errors.New("invalid broker configuration")
)
