package utils

import "fmt"

const (
	PendingQueueKey = "offline:pending"
	CredentialKey   = "auth:credential"
)

func CacheEntryName(key string) string {
	return fmt.Sprintf("offline:cache:%s", key)
}

// EventChannel is the redis pub/sub channel for one notify action.
func EventChannel(service, action string) string {
	return fmt.Sprintf("crowelm-%s-%s", service, action)
}
