package tokenizer

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// Counter measures how many tokens a piece of text costs the model.
type Counter interface {
	Count(text string) int
	Name() string
}

var loaderOnce sync.Once

type tiktokenCounter struct {
	enc  *tiktoken.Tiktoken
	name string
}

func (c *tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

func (c *tiktokenCounter) Name() string { return c.name }

// EstimateCounter is the fallback when no BPE table is available.
type EstimateCounter struct{}

// Count blends a word estimate with the usual four characters per token.
func (EstimateCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	chars := len(text)
	n := (words + chars/4) / 2
	if n == 0 {
		return 1
	}
	return n
}

func (EstimateCounter) Name() string { return "estimate" }

// New returns a tiktoken counter for encoding, using the embedded BPE
// tables so nothing is downloaded at runtime. Unknown encodings fall back
// to EstimateCounter.
func New(encoding string) Counter {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	if encoding == "" {
		encoding = tiktoken.MODEL_CL100K_BASE
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return EstimateCounter{}
	}
	return &tiktokenCounter{enc: enc, name: encoding}
}

// CountMessages adds a small per-message overhead the chat format charges
// for role markers.
func CountMessages(c Counter, contents ...string) int {
	total := 0
	for _, s := range contents {
		total += c.Count(s) + 4
	}
	return total
}
