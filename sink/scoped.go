package sink

import (
	"context"

	"github.com/cockroachdb/errors"
)

// With opens the sink, runs fn and then closes the sink, even if fn panics
//
// The returned error combines errors from fn and Close. A panic is re-raised after closing.
func With(ctx context.Context, sink *BufferedLogSink, fn func(sink *BufferedLogSink) error) (err error) {
	if err := sink.Open(ctx); err != nil {
		return errors.CombineErrors(err, sink.Close())
	}
	defer func() {
		closeErr := sink.Close()
		if r := recover(); r != nil {
			if closeErr != nil {
				sink.logger.Errorf("failed to close sink after panic: %s", closeErr.Error())
			}
			panic(r)
		}
		err = errors.CombineErrors(err, closeErr)
	}()
	return fn(sink)
}
