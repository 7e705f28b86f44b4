package runner

import (
	"context"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/tabfetch/packages/dispatch"
	"github.com/abdul-hamid-achik/tabfetch/packages/http"
	"github.com/abdul-hamid-achik/tabfetch/packages/output"
	"github.com/abdul-hamid-achik/tabfetch/packages/request"
	"github.com/rs/zerolog"
)

// SendingStatus is shown while an exchange is in flight.
const SendingStatus = "Sending…"

type Composer interface {
	Compose(ctx context.Context, in request.Fields) (*request.Descriptor, error)
}

type Executor interface {
	Execute(ctx context.Context, d *request.Descriptor, mode dispatch.Mode) (*http.Response, error)
}

type Runner struct {
	mu       sync.Mutex
	composer Composer
	executor Executor
	surface  output.Surface
}

func NewRunner(composer Composer, executor Executor, surface output.Surface) *Runner {
	return &Runner{
		composer: composer,
		executor: executor,
		surface:  surface,
	}
}

// Submit runs one submission. The surface is cleared first; a composition
// error is shown and returned without any exchange being attempted.
func (r *Runner) Submit(ctx context.Context, in request.Fields) (*http.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger := zerolog.Ctx(ctx)
	r.surface.Reset()

	d, err := r.composer.Compose(ctx, in)
	if err != nil {
		logger.Debug().Err(err).Msg("Submission rejected")
		r.surface.Status(err.Error(), true)
		return nil, err
	}

	mode := dispatch.ModeFor(in.RunInTab)
	r.surface.Status(SendingStatus, false)

	start := time.Now()
	resp, err := r.executor.Execute(ctx, d, mode)
	if err != nil {
		logger.Debug().Err(err).Str("mode", string(mode)).Str("request", d.String()).Msg("Submission failed")
		r.surface.Status(err.Error(), true)
		return nil, err
	}

	logger.Info().
		Str("mode", string(mode)).
		Str("request", d.String()).
		Int("status", resp.Status).
		Dur("elapsed", time.Since(start)).
		Msg("Exchange completed")
	r.surface.Result(output.Render(resp))
	return resp, nil
}
