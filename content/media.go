package content

import "context"

// MediaSource is the media to persist: raw bytes or a remote URL.
type MediaSource struct {
	Data []byte
	URL  string
	// Filename is a hint for the stored name; stores may ignore it.
	Filename string
}

// MediaMeta describes persisted media.
type MediaMeta struct {
	Title       string
	Description string
	Caption     string
}

// MediaRef is a stable reference to persisted media.
type MediaRef struct {
	ID  int64
	URL string
}

// MediaStore persists media for image blocks. A nil reference with a nil
// error means the store declined the media.
type MediaStore interface {
	Save(ctx context.Context, src MediaSource, meta MediaMeta) (*MediaRef, error)
}

// MediaStoreFunc adapts a function to MediaStore.
type MediaStoreFunc func(ctx context.Context, src MediaSource, meta MediaMeta) (*MediaRef, error)

// Save calls f.
func (f MediaStoreFunc) Save(ctx context.Context, src MediaSource, meta MediaMeta) (*MediaRef, error) {
	return f(ctx, src, meta)
}
