// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package parkinguc

import (
	"context"
	"log/slog"

	"github.com/cenkalti/backoff/v5"
	"github.com/momeni/parking/pkg/core/cerr"
	"github.com/momeni/parking/pkg/core/log"
)

// retry runs f at most uc.maxAttempts times as long as it fails with
// transient errors. Other errors stop the loop immediately. The last
// error is returned if all attempts fail.
func retry[T any](
	ctx context.Context,
	uc *UseCase,
	op string,
	f func(ctx context.Context) (T, error),
) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = uc.retryDelay
	bo.MaxInterval = 10 * uc.retryDelay
	attempt := 0
	return backoff.Retry(ctx, func() (T, error) {
		attempt++
		v, err := f(ctx)
		if err == nil {
			return v, nil
		}
		if !cerr.IsTransient(err) {
			return v, backoff.Permanent(err)
		}
		if attempt < uc.maxAttempts {
			uc.recorder.Retry(op)
			log.Warn(
				ctx, "retrying after a transient error",
				slog.String("op", op),
				slog.Int("attempt", attempt),
				log.Err("err", err),
			)
		}
		return v, err
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(uc.maxAttempts)),
	)
}
