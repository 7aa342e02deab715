// Package worker implements an init/execute message protocol over
// goroutines and channels, in the style of a web-worker postMessage
// handshake. Each Worker is a single goroutine that must receive exactly
// one Init before it will accept Execute calls; every Execute reply is a
// structured result, never a panic that reaches the caller.
package worker

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
	"github.com/ecsilo/silo"
	"go.uber.org/zap"
)

// Job is a unit of work dispatched to a Worker via Execute. ctx is the
// shared Context (see silo.Context doc on safe concurrent sharing);
// threadIndex/threadCount are this Worker's partition, for use with
// silo.ThreadOwns.
type Job func(ctx *silo.Context, threadCount, threadIndex int) error

type initMsg struct {
	ctx         *silo.Context
	threadCount int
	threadIndex int
	reply       chan error
}

type executeMsg struct {
	job   Job
	reply chan error
}

type closeMsg struct{}

// Worker runs Jobs dispatched to it, one at a time, against a shared
// Context.
type Worker struct {
	inbox       chan any
	ctx         *silo.Context
	threadCount int
	threadIndex int
	initialized bool
}

// New starts a Worker's goroutine loop and returns a handle to it. The
// Worker accepts no Jobs until Init is called.
func New() *Worker {
	w := &Worker{inbox: make(chan any, 1)}
	go w.run()
	return w
}

func (w *Worker) run() {
	for msg := range w.inbox {
		switch m := msg.(type) {
		case initMsg:
			w.ctx = m.ctx
			w.threadCount = m.threadCount
			w.threadIndex = m.threadIndex
			w.initialized = true
			m.reply <- nil
		case executeMsg:
			m.reply <- w.dispatch(m.job)
		case closeMsg:
			return
		}
	}
}

func (w *Worker) dispatch(job Job) (err error) {
	if !w.initialized {
		silo.Config.Logger().Warn("execute received before init", zap.Int("thread_index", w.threadIndex))
		return silo.WorkerUninitializedError{}
	}
	defer func() {
		if r := recover(); r != nil {
			wrapped := silo.WorkerExecuteFailureError{ThreadIndex: w.threadIndex, Message: fmt.Sprint(r)}
			silo.Config.Logger().Error("worker job panicked", zap.Int("thread_index", w.threadIndex), zap.Any("recovered", r))
			err = bark.AddTrace(wrapped)
		}
	}()
	if jobErr := job(w.ctx, w.threadCount, w.threadIndex); jobErr != nil {
		wrapped := silo.WorkerExecuteFailureError{ThreadIndex: w.threadIndex, Message: jobErr.Error()}
		silo.Config.Logger().Error("worker job failed", zap.Int("thread_index", w.threadIndex), zap.Error(jobErr))
		return bark.AddTrace(wrapped)
	}
	return nil
}

// Init binds the Worker to ctx and its slice (threadIndex of threadCount)
// of the partitioned id space. It blocks until the Worker has processed
// the message.
func (w *Worker) Init(ctx *silo.Context, threadCount, threadIndex int) error {
	reply := make(chan error, 1)
	w.inbox <- initMsg{ctx: ctx, threadCount: threadCount, threadIndex: threadIndex, reply: reply}
	return <-reply
}

// Execute dispatches job to the Worker and blocks for its reply.
// WorkerUninitializedError is returned if Init was never called; any
// error the job returns, or any panic recovered from it, comes back
// wrapped in WorkerExecuteFailureError rather than crashing the caller.
func (w *Worker) Execute(job Job) error {
	reply := make(chan error, 1)
	w.inbox <- executeMsg{job: job, reply: reply}
	return <-reply
}

// Close stops the Worker's goroutine. Close must not be called concurrently
// with Execute/Init.
func (w *Worker) Close() {
	w.inbox <- closeMsg{}
}
