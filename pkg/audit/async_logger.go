package audit

import "context"

// NewAsyncLogger returns a Logger writing through an AsyncStorage over bs,
// and the function that flushes and stops it.
func NewAsyncLogger(bs BatchStorage, async AsyncOptions, opts ...Option) (*Logger, func(context.Context) error) {
	storage := NewAsyncStorage(bs, async)
	return NewLogger(storage, opts...), storage.Close
}
