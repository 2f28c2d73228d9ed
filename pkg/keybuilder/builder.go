package keybuilder

import "fmt"

const (
	Redis      string = "redis"
	Pending    string = "pending"
	Feed       string = "feed"
	Permission string = "permission"
)

// RedisPendingScheduleKey is the sorted set of pending handles scored by fire time.
func RedisPendingScheduleKey() string {
	return fmt.Sprintf("%s:%s:schedule", Redis, Pending)
}

// RedisPendingPayloadKey holds the fact id behind a pending handle.
func RedisPendingPayloadKey(handle string) string {
	return fmt.Sprintf("%s:%s:payload:%s", Redis, Pending, handle)
}

// RedisFeedKey caches the shown-facts feed per language.
func RedisFeedKey(language string) string {
	return fmt.Sprintf("%s:%s:%s", Redis, Feed, language)
}

// RedisPermissionKey holds the notifications opt-in flag.
func RedisPermissionKey() string {
	return fmt.Sprintf("%s:%s:flag", Redis, Permission)
}
