package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

type fakeRetriever struct {
	docs []schema.Document
	err  error
}

func (f *fakeRetriever) GetRelevantDocuments(_ context.Context, _ string) ([]schema.Document, error) {
	return f.docs, f.err
}

type fakeGenerator struct {
	tokens []string
	err    error
}

func (f *fakeGenerator) Stream(ctx context.Context, _ string, fn func(ctx context.Context, token string) error) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	var full string
	for _, token := range f.tokens {
		full += token
		if err := fn(ctx, token); err != nil {
			return "", err
		}
	}
	return full, nil
}

func testDocs() []schema.Document {
	return []schema.Document{
		{PageContent: "Task decomposition breaks a task into steps.", Metadata: map[string]any{"source": "https://example.com/agents"}},
		{PageContent: "Agents use planning and memory.", Metadata: map[string]any{"source": "https://example.com/agents"}},
	}
}

func testChain(opts ...Option) *Chain {
	return New(
		&fakeRetriever{docs: testDocs()},
		&fakeGenerator{tokens: []string{"Task ", "decomposition ", "splits work."}},
		opts...,
	)
}

func collect[T any](ch <-chan T) []T {
	var out []T
	for v := range ch {
		out = append(out, v)
	}
	return out
}

func TestStreamKeyOrder(t *testing.T) {
	chunks := collect(testChain().Stream(context.Background(), "what is task decomposition?"))
	require.Len(t, chunks, 5)

	// input first, then context, then only answer fragments
	require.NotNil(t, chunks[0].Input)
	assert.Equal(t, "what is task decomposition?", *chunks[0].Input)
	assert.Equal(t, []string{KeyInput}, chunks[0].Keys())

	require.NotNil(t, chunks[1].Context)
	assert.Len(t, chunks[1].Context, 2)
	assert.Equal(t, []string{KeyContext}, chunks[1].Keys())

	answer := ""
	for _, c := range chunks[2:] {
		require.NotNil(t, c.Answer)
		assert.Equal(t, []string{KeyAnswer}, c.Keys())
		answer += *c.Answer
	}
	assert.Equal(t, "Task decomposition splits work.", answer)
}

func TestStreamEmptyRetrieval(t *testing.T) {
	c := New(&fakeRetriever{}, &fakeGenerator{tokens: []string{"I don't know."}})
	chunks := collect(c.Stream(context.Background(), "q"))
	require.Len(t, chunks, 3)
	require.NotNil(t, chunks[1].Context)
	assert.Empty(t, chunks[1].Context)
}

func TestStreamRetrieverError(t *testing.T) {
	c := New(&fakeRetriever{err: errors.New("index unavailable")}, &fakeGenerator{})

	chunks := collect(c.Stream(context.Background(), "q"))
	require.Len(t, chunks, 2)
	require.Error(t, chunks[1].Err)
	assert.Contains(t, chunks[1].Err.Error(), "index unavailable")
}

func TestStreamGeneratorError(t *testing.T) {
	c := New(&fakeRetriever{docs: testDocs()}, &fakeGenerator{err: errors.New("model overloaded")})

	chunks := collect(c.Stream(context.Background(), "q"))
	last := chunks[len(chunks)-1]
	require.Error(t, last.Err)
	assert.Contains(t, last.Err.Error(), "model overloaded")
}

func TestStreamCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// the channel must close without emitting anything
	chunks := collect(testChain().Stream(ctx, "q"))
	assert.Empty(t, chunks)
}

func TestInvoke(t *testing.T) {
	res, err := testChain().Invoke(context.Background(), "what is task decomposition?")
	require.NoError(t, err)

	assert.Equal(t, "what is task decomposition?", res.Input)
	assert.Len(t, res.Context, 2)
	assert.Equal(t, "Task decomposition splits work.", res.Answer)
}

func TestInvokeError(t *testing.T) {
	c := New(&fakeRetriever{err: errors.New("boom")}, &fakeGenerator{})
	_, err := c.Invoke(context.Background(), "q")
	require.Error(t, err)
}

func TestPickKeyAnswer(t *testing.T) {
	chunks := collect(PickKey(testChain().Stream(context.Background(), "q"), KeyAnswer))
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		require.NotNil(t, c.Answer)
	}
}

func TestPickKeyPassesErrors(t *testing.T) {
	c := New(&fakeRetriever{err: errors.New("boom")}, &fakeGenerator{})
	chunks := collect(PickKey(c.Stream(context.Background(), "q"), KeyAnswer))
	require.Len(t, chunks, 1)
	require.Error(t, chunks[0].Err)
}
