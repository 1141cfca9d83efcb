// Package worker runs the queue-driven analysis loop.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"irpfscan/internal/amqp"
	"irpfscan/internal/analysis"
	"irpfscan/internal/dec"
	"irpfscan/internal/log"
)

// Publisher sends a message body to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

// Worker consumes analysis requests, runs the pipeline and publishes the
// result envelope.
type Worker struct {
	pipeline    *analysis.Pipeline
	publisher   Publisher
	resultQueue string
	timeout     time.Duration
	logger      *log.Logger
	parserLog   *log.Logger
}

func New(pipeline *analysis.Pipeline, publisher Publisher, resultQueue string, timeout time.Duration, logger *log.Logger) *Worker {
	return &Worker{
		pipeline:    pipeline,
		publisher:   publisher,
		resultQueue: resultQueue,
		timeout:     timeout,
		logger:      logger.WithComponent(log.ComponentWorker),
		parserLog:   logger.WithComponent(log.ComponentParser),
	}
}

// HandleRequest processes one raw request message. Malformed payloads and
// bad declaration files are terminal: a failure envelope is published and
// the message is acked, since redelivery cannot fix them. Only publish
// failures propagate, so the broker retries the delivery.
func (w *Worker) HandleRequest(ctx context.Context, body []byte) error {
	req, err := amqp.AnalyzeRequestFromJSON(body)
	if err != nil {
		w.logger.Error("dropping malformed request", log.FieldError, err.Error())
		return nil
	}

	w.logger.Info("analysis request received",
		log.FieldRequestID, req.RequestID,
		log.FieldFile, req.Path,
	)

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	envelope := w.analyze(ctx, req)
	payload, err := envelope.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := w.publisher.Publish(ctx, w.resultQueue, payload); err != nil {
		return fmt.Errorf("publish result: %w", err)
	}

	w.logger.Info("analysis result published",
		log.FieldRequestID, req.RequestID,
		"status", envelope.Status,
	)
	return nil
}

func (w *Worker) analyze(ctx context.Context, req *amqp.AnalyzeRequest) *amqp.AnalyzeResult {
	d, err := dec.ParseFile(req.Path)
	if err != nil {
		if errors.Is(err, dec.ErrCorruptedFile) {
			w.parserLog.Warn("corrupted declaration file",
				log.FieldRequestID, req.RequestID,
				log.FieldFile, req.Path,
			)
		}
		return amqp.NewAnalyzeFailure(req, err)
	}

	res, err := w.pipeline.Analyze(ctx, d)
	if err != nil {
		return amqp.NewAnalyzeFailure(req, err)
	}
	return amqp.NewAnalyzeResult(req, res)
}
