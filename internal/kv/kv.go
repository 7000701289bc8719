// Package kv defines the key-value document contract the capsule subsystem is
// built on. Keys are namespaced strings ("capsule:<id>"); values are opaque
// JSON documents. The production implementation lives in infrastructure/dynamo.
package kv

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when no document exists under the key.
var ErrNotFound = errors.New("kv: key not found")

// Store is the minimal key-value contract. Mutation discipline is
// read-modify-write on whole documents with last-writer-wins; callers accept
// the possibility of lost updates under concurrent writers to the same key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	GetByPrefix(ctx context.Context, prefix string) ([][]byte, error)
}

// Document keys used by the capsule subsystem. Stable across reads and writes.
const (
	ScheduledIndexKey = "scheduled_capsules_global"

	capsulePrefix      = "capsule:"
	capsuleMediaPrefix = "capsule_media:"
	userReceivedPrefix = "user_received:"
	notificationPrefix = "notifications:"
	profilePrefix      = "profile:"
	pendingClaimPrefix = "pending_claims:"
	achievementPrefix  = "achievements:"
	mediaPrefix        = "media:"
)

func CapsuleKey(capsuleID string) string      { return capsulePrefix + capsuleID }
func CapsuleMediaKey(capsuleID string) string { return capsuleMediaPrefix + capsuleID }
func ReceivedKey(userID string) string        { return userReceivedPrefix + userID }
func NotificationsKey(userID string) string   { return notificationPrefix + userID }
func ProfileKey(userID string) string         { return profilePrefix + userID }
func PendingClaimKey(email string) string     { return pendingClaimPrefix + email }
func AchievementsKey(userID string) string    { return achievementPrefix + userID }
func MediaKey(mediaID string) string          { return mediaPrefix + mediaID }

// CapsulePrefix is the prefix covering all capsule documents.
func CapsulePrefix() string { return capsulePrefix }

// Split separates a key into its namespace and remainder. A key without a
// separator is its own namespace with an "_" remainder, so singleton keys
// such as ScheduledIndexKey still map onto a (partition, sort) pair.
func Split(key string) (ns, rest string) {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i], key[i+1:]
	}
	return key, "_"
}

// Join is the inverse of Split.
func Join(ns, rest string) string {
	if rest == "_" {
		return ns
	}
	return ns + ":" + rest
}
