package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/efreitasn/simtrade/internal/engine"
	"github.com/efreitasn/simtrade/internal/metrics"
	"github.com/efreitasn/simtrade/internal/store"
)

// Publisher receives the result of every simulator call that changed
// something, in call order per account.
type Publisher interface {
	Publish(ctx context.Context, account string, res engine.Result) error
}

// Publishers fans a result out to several publishers.
type Publishers []Publisher

// Publish calls every publisher and joins their errors.
func (ps Publishers) Publish(ctx context.Context, account string, res engine.Result) error {
	var errs []error
	for _, p := range ps {
		if err := p.Publish(ctx, account, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// runner executes simulator calls under the account lock and reports each
// outcome to the publisher and the metrics.
type runner struct {
	pub     Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func newRunner(pub Publisher, m *metrics.Metrics, logger *slog.Logger) runner {
	if pub == nil {
		pub = Publishers(nil)
	}
	if m == nil {
		m = metrics.Nop()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return runner{pub: pub, metrics: m, logger: logger}
}

// run calls fn with the account's simulator while holding its lock. The
// result is published before the lock is released, so subscribers see the
// results of an account in call order.
func (r runner) run(
	ctx context.Context,
	e *store.AccountEntry,
	aid string,
	fn func(sim *engine.Simulator) (engine.Result, error),
) (engine.Result, error) {
	e.Mu.Lock()
	defer e.Mu.Unlock()

	start := time.Now()
	res, err := fn(e.Sim)
	r.metrics.ObserveCommand(aid, start, err)
	if err != nil {
		return engine.Result{}, err
	}
	r.metrics.ObserveOrders(res.OrderEvents)

	if !res.Empty() {
		if perr := r.pub.Publish(ctx, e.Key, res); perr != nil {
			r.logger.Warn("publishing result failed",
				slog.String("account", e.Key),
				slog.String("aid", aid),
				slog.String("error", perr.Error()),
			)
		}
	}
	return res, nil
}
