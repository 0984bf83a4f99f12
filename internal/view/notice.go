package view

import "github.com/gofrs/uuid/v5"

// NoticeKind distinguishes transient success banners from persistent errors.
type NoticeKind int

const (
	// NoticeSuccess self-clears after the controller's TTL.
	NoticeSuccess NoticeKind = iota
	// NoticeError persists until dismissed or a later action succeeds.
	NoticeError
)

// Notice is a single banner message. The ID ties a scheduled expiry to the
// notice it was armed for, so an expiry never clears a newer banner.
type Notice struct {
	ID   uuid.UUID
	Kind NoticeKind
	Text string
}

// IsError reports whether the notice is a persistent error banner.
func (n Notice) IsError() bool { return n.Kind == NoticeError }
