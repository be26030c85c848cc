// Package workflow sequences tunnel provisioning: validate the request,
// create the remote tunnel, write the local routing config, and optionally
// patch the web server's virtual hosts. The sequence is strictly linear and
// forward-only; no stage ever rolls back a prior stage's work.
package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/silkstream/tunnelctl/internal/logging"
	"github.com/silkstream/tunnelctl/internal/provision"
	"github.com/silkstream/tunnelctl/internal/routing"
	"github.com/silkstream/tunnelctl/internal/tunnel"
	"github.com/silkstream/tunnelctl/internal/vhost"
)

// Stage identifies where in the sequence a result was produced.
type Stage string

const (
	StageValidate Stage = "validate"
	StageTunnel   Stage = "tunnel"
	StageConfig   Stage = "config"
	StageVHost    Stage = "vhost"
)

// Status is the terminal outcome class.
type Status string

const (
	// StatusSuccess: every requested step completed.
	StatusSuccess Status = "success"

	// StatusPartialFailure: the remote tunnel was created but a later
	// local step failed, leaving an orphaned or half-wired tunnel the
	// operator must finish or clean up by hand.
	StatusPartialFailure Status = "partial-failure"

	// StatusFailure: the workflow stopped before any durable remote or
	// local artifact existed beyond the failing stage.
	StatusFailure Status = "failure"
)

// Result is the terminal outcome of one workflow run.
type Result struct {
	Status Status

	// Stage is the failing stage; empty on success.
	Stage Stage

	// ConfigPath is the absolute routing config path when it was written.
	ConfigPath string

	// VHostUpdated reports whether a vhost entry was added this run.
	VHostUpdated bool

	// Tunnel is set whenever the remote tunnel was created, including on
	// partial failures, so callers can surface the orphaned identity.
	Tunnel *tunnel.Identity

	Err error
}

// Event is one element of the progress stream. Progress events carry only a
// Message; the final event carries the Result and closes the stream.
type Event struct {
	Message string
	Result  *Result
}

// Runner wires the workflow's collaborators together. One Runner serves all
// invocations; the vhost Patcher and the Writer's per-path locks are the
// shared state between them.
type Runner struct {
	Provisioner tunnel.Provisioner
	Writer      *routing.Writer
	Patcher     *vhost.Patcher

	mu       sync.Mutex
	inflight map[string]bool
}

// Run executes the workflow and returns a stream of progress events ending
// in exactly one terminal Result event, after which the channel is closed.
//
// Cancellation is honored only up to the moment the remote tunnel creation
// starts. Once the tunnel exists, aborting would leave it orphaned just like
// a config-write failure, so the remaining local stages always run.
func (r *Runner) Run(ctx context.Context, req provision.Request) <-chan Event {
	events := make(chan Event, 8)
	go func() {
		defer close(events)
		r.run(ctx, req, events)
	}()
	return events
}

// Wait drains a run's event stream, forwarding progress messages to notify
// (which may be nil), and returns the terminal result.
func Wait(events <-chan Event, notify func(string)) Result {
	var result Result
	for ev := range events {
		if ev.Result != nil {
			result = *ev.Result
			continue
		}
		if notify != nil {
			notify(ev.Message)
		}
	}
	return result
}

func (r *Runner) run(ctx context.Context, req provision.Request, events chan<- Event) {
	fail := func(stage Stage, err error) {
		events <- Event{Result: &Result{Status: StatusFailure, Stage: stage, Err: err}}
	}

	if !r.acquire(req.ConfigName) {
		fail(StageValidate, fmt.Errorf("provisioning already in flight for config %q", req.ConfigName))
		return
	}
	defer r.release(req.ConfigName)

	events <- Event{Message: "validating request"}
	if vs := provision.Validate(req); len(vs) > 0 {
		logging.Debug("validation failed", "violations", vs.Error())
		fail(StageValidate, vs)
		return
	}

	if err := ctx.Err(); err != nil {
		fail(StageValidate, err)
		return
	}

	// Past this point cancellation is ignored: killing the remote create
	// midway could still register the tunnel, and aborting after it has
	// been created would orphan it.
	ctx = context.WithoutCancel(ctx)

	events <- Event{Message: fmt.Sprintf("provisioning tunnel %s...", req.TunnelName)}
	identity, err := r.Provisioner.Create(ctx, req.TunnelName)
	if err != nil {
		logging.Debug("tunnel creation failed", "tunnel", req.TunnelName, "error", err)
		fail(StageTunnel, err)
		return
	}
	logging.Info("tunnel created", "tunnel", req.TunnelName, "uuid", identity.UUID)

	events <- Event{Message: "writing configuration..."}
	configPath, err := r.Writer.Write(req.ConfigName, identity, req.Hostname, req.Port)
	if err != nil {
		logging.Debug("config write failed", "config", req.ConfigName, "error", err)
		events <- Event{Result: &Result{
			Status: StatusPartialFailure,
			Stage:  StageConfig,
			Tunnel: &identity,
			Err:    err,
		}}
		return
	}

	result := Result{
		Status:     StatusSuccess,
		ConfigPath: configPath,
		Tunnel:     &identity,
	}

	if req.UpdateVHost {
		events <- Event{Message: fmt.Sprintf("updating virtual hosts for %s...", req.Hostname)}
		if err := r.Patcher.Patch(req.Hostname, req.DocumentRoot); err != nil {
			logging.Debug("vhost patch failed", "hostname", req.Hostname, "error", err)
			events <- Event{Result: &Result{
				Status:     StatusPartialFailure,
				Stage:      StageVHost,
				ConfigPath: configPath,
				Tunnel:     &identity,
				Err:        err,
			}}
			return
		}
		result.VHostUpdated = true
	}

	events <- Event{Result: &result}
}

func (r *Runner) acquire(configName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inflight == nil {
		r.inflight = make(map[string]bool)
	}
	if r.inflight[configName] {
		return false
	}
	r.inflight[configName] = true
	return true
}

func (r *Runner) release(configName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, configName)
}
