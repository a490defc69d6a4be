package chain

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/schema"

	"webrag/internal/prompt"
	"webrag/internal/retriever"
)

// Stream chunk keys, in the order they appear on the stream.
const (
	KeyInput   = "input"
	KeyContext = "context"
	KeyAnswer  = "answer"
)

// StreamChunk is one increment of a streaming retrieval run. Exactly one of
// Input, Context and Answer is set per chunk (or Err, which is terminal).
// Across a run the keys arrive in a fixed order: the input echo first, then
// the retrieved context, then a sequence of answer fragments.
type StreamChunk struct {
	Input   *string
	Context []schema.Document
	Answer  *string
	Err     error
}

// Keys reports which keys are present on this chunk.
func (c StreamChunk) Keys() []string {
	var keys []string
	if c.Input != nil {
		keys = append(keys, KeyInput)
	}
	if c.Context != nil {
		keys = append(keys, KeyContext)
	}
	if c.Answer != nil {
		keys = append(keys, KeyAnswer)
	}
	return keys
}

// Result is the fully accumulated output of one run.
type Result struct {
	Input   string
	Context []schema.Document
	Answer  string
}

// Chain composes a retriever and a generator into a streaming
// question-answering pipeline.
type Chain struct {
	retriever retriever.Retriever
	generator Generator
	name      string
	tags      []string
}

type Option func(*Chain)

// WithName sets the name reported on life-cycle events.
func WithName(name string) Option {
	return func(c *Chain) { c.name = name }
}

// WithTags attaches tags to every event the chain emits.
func WithTags(tags ...string) Option {
	return func(c *Chain) { c.tags = tags }
}

func New(r retriever.Retriever, g Generator, opts ...Option) *Chain {
	c := &Chain{retriever: r, generator: g, name: "retrieval_chain"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invoke runs the chain to completion and returns the accumulated result.
func (c *Chain) Invoke(ctx context.Context, input string) (*Result, error) {
	res := &Result{Input: input}
	for chunk := range c.Stream(ctx, input) {
		switch {
		case chunk.Err != nil:
			return nil, chunk.Err
		case chunk.Context != nil:
			res.Context = chunk.Context
		case chunk.Answer != nil:
			res.Answer += *chunk.Answer
		}
	}
	return res, nil
}

// Stream runs the chain and emits its output incrementally. The returned
// channel is closed when the run finishes, fails, or the context is
// cancelled; a failure is delivered as a final chunk with Err set.
func (c *Chain) Stream(ctx context.Context, input string) <-chan StreamChunk {
	out := make(chan StreamChunk)

	go func() {
		defer close(out)

		emit := func(chunk StreamChunk) bool {
			if ctx.Err() != nil {
				return false
			}
			select {
			case out <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit(StreamChunk{Input: &input}) {
			return
		}

		docs, err := c.retriever.GetRelevantDocuments(ctx, input)
		if err != nil {
			emit(StreamChunk{Err: err})
			return
		}
		if docs == nil {
			docs = []schema.Document{}
		}
		if !emit(StreamChunk{Context: docs}) {
			return
		}

		rendered, err := prompt.FormatQA(docs, input)
		if err != nil {
			emit(StreamChunk{Err: err})
			return
		}

		_, err = c.generator.Stream(ctx, rendered, func(_ context.Context, token string) error {
			if token == "" {
				return nil
			}
			if !emit(StreamChunk{Answer: &token}) {
				return ctx.Err()
			}
			return nil
		})
		if err != nil {
			emit(StreamChunk{Err: err})
			return
		}

		log.Debug().Str("input", input).Int("docs", len(docs)).Msg("Stream finished")
	}()

	return out
}
