package usage

import (
	"context"
	"errors"

	"github.com/petal-labs/scribe/core"
)

// Multi appends every record to each recorder in turn. All recorders are
// attempted; their failures are joined.
type Multi []core.UsageRecorder

// Append writes rec to each recorder.
func (m Multi) Append(ctx context.Context, rec core.UsageRecord) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Append(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ core.UsageRecorder = Multi(nil)
