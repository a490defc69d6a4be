package chain

import (
	"context"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/schema"

	"webrag/internal/prompt"
)

// Event types emitted by StreamEvents, in life-cycle order.
const (
	EventChainStart     = "on_chain_start"
	EventRetrieverStart = "on_retriever_start"
	EventRetrieverEnd   = "on_retriever_end"
	EventModelStart     = "on_chat_model_start"
	EventModelStream    = "on_chat_model_stream"
	EventModelEnd       = "on_chat_model_end"
	EventChainEnd       = "on_chain_end"
	EventChainError     = "on_chain_error"
)

// Event is one entry on the fine-grained event stream: the event type, the
// emitting component's name, the run it belongs to, the chain's tags, and a
// payload keyed by what the event carries.
type Event struct {
	Event string         `json:"event"`
	Name  string         `json:"name,omitempty"`
	RunID string         `json:"run_id,omitempty"`
	Tags  []string       `json:"tags,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// StreamEvents runs the chain and emits component life-cycle events instead
// of raw output chunks. Every event of one run carries the same run ID. The
// channel is closed when the run ends; failures appear as a terminal
// on_chain_error event.
func (c *Chain) StreamEvents(ctx context.Context, input string) <-chan Event {
	out := make(chan Event)

	go func() {
		defer close(out)

		runID := uuid.NewString()
		emit := func(eventType, name string, data map[string]any) bool {
			if ctx.Err() != nil {
				return false
			}
			select {
			case out <- Event{
				Event: eventType,
				Name:  name,
				RunID: runID,
				Tags:  c.tags,
				Data:  data,
			}:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit(EventChainStart, c.name, map[string]any{"input": input}) {
			return
		}
		if !emit(EventRetrieverStart, "retriever", map[string]any{"query": input}) {
			return
		}

		docs, err := c.retriever.GetRelevantDocuments(ctx, input)
		if err != nil {
			emit(EventChainError, "retriever", map[string]any{"error": err.Error()})
			return
		}
		if docs == nil {
			docs = []schema.Document{}
		}
		if !emit(EventRetrieverEnd, "retriever", map[string]any{"documents": docs}) {
			return
		}

		rendered, err := prompt.FormatQA(docs, input)
		if err != nil {
			emit(EventChainError, c.name, map[string]any{"error": err.Error()})
			return
		}
		if !emit(EventModelStart, "model", map[string]any{"prompt": rendered}) {
			return
		}

		answer, err := c.generator.Stream(ctx, rendered, func(_ context.Context, token string) error {
			if token == "" {
				return nil
			}
			if !emit(EventModelStream, "model", map[string]any{"chunk": token}) {
				return ctx.Err()
			}
			return nil
		})
		if err != nil {
			emit(EventChainError, "model", map[string]any{"error": err.Error()})
			return
		}

		if !emit(EventModelEnd, "model", map[string]any{"output": answer}) {
			return
		}
		emit(EventChainEnd, c.name, map[string]any{
			"output": Result{Input: input, Context: docs, Answer: answer},
		})
	}()

	return out
}
