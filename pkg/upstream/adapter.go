package upstream

import "context"

// Usage is a token-usage snapshot as reported by the upstream API.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Chunk is one item produced by a token stream. A chunk carrying Text is a
// text delta; a chunk without Text carries metadata observed in the stream
// (Usage, CompletionTime, or both together).
type Chunk struct {
	Text           string
	Usage          *Usage
	CompletionTime *float64
}

// Adapter is the uniform capability every agent streams through: given a
// model id and a fully-assembled prompt, return a channel of chunks and a
// channel that carries at most one terminal error. Both channels are
// closed when the stream ends (successfully or not).
type Adapter interface {
	Stream(ctx context.Context, model, systemPrompt, userPrompt string) (<-chan Chunk, <-chan error)
}

// OpenAICompatAdapter is the Adapter backed by Client.
type OpenAICompatAdapter struct {
	client *Client
}

// NewOpenAICompatAdapter builds an Adapter against baseURL/apiKey.
func NewOpenAICompatAdapter(baseURL, apiKey string) *OpenAICompatAdapter {
	return &OpenAICompatAdapter{client: NewClient(baseURL, apiKey)}
}

// Stream hands the synchronous, blocking SSE scan loop off to a worker
// goroutine so the caller observes cooperative suspension between chunks
// instead of driving a blocking iterator itself. This mirrors the
// run_in_executor(None, get_next_chunk, iterator) adapter pattern in the
// Python original's streaming agents (critic.py/industry.py): the
// synchronous iterator runs on its own thread of execution, handing
// completed chunks back across a queue.
func (a *OpenAICompatAdapter) Stream(ctx context.Context, model, systemPrompt, userPrompt string) (<-chan Chunk, <-chan error) {
	chunks := make(chan Chunk, 32)
	errs := make(chan error, 1)

	messages := []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}

	go func() {
		defer close(chunks)
		defer close(errs)

		onDelta := func(text string) {
			select {
			case chunks <- Chunk{Text: text}:
			case <-ctx.Done():
			}
		}

		usage, completionTime, err := a.client.streamWithRetry(ctx, model, messages, onDelta)
		if err != nil {
			select {
			case errs <- err:
			default:
			}
			return
		}

		if usage != nil || completionTime != nil {
			select {
			case chunks <- Chunk{Usage: usage, CompletionTime: completionTime}:
			case <-ctx.Done():
			}
		}
	}()

	return chunks, errs
}
