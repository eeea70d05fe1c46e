package redis

import "errors"

var (
	ErrFailedToParseRedisConnString = errors.New("redis.invalid_connection_url")
	ErrRedisNotReady                = errors.New("redis.not_ready")
	ErrEmptyConnectionURL           = errors.New("redis.empty_connection_url")
	ErrHealthcheckFailed            = errors.New("redis.healthcheck_failed")
	ErrSubscribeFailed              = errors.New("redis.subscribe_failed")
	ErrPublishFailed                = errors.New("redis.publish_failed")
)
