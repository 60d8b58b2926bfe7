package words

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/motus/assets"
)

// Fetcher produces a fresh word list from an upstream source.
type Fetcher interface {
	Fetch(ctx context.Context) ([]string, error)
}

// maxBody bounds how much of a remote response is read.
const maxBody = 8 << 20

// HTTPFetcher downloads a delimiter-separated plain-text list.
type HTTPFetcher struct {
	URL         string
	Delimiter   string
	LetterCount int
	Client      *http.Client
	Retries     int           // extra attempts after the first failure
	Backoff     time.Duration // wait before retry n is n*Backoff
}

// Fetch GETs the list, retrying transport errors and non-2xx answers.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]string, error) {
	var lastErr error
	for attempt := 0; attempt <= f.Retries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * f.Backoff
			log.Debug().Int("attempt", attempt).Dur("wait", wait).Err(lastErr).Msg("retrying word fetch")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
		list, err := f.fetchOnce(ctx)
		if err == nil {
			return list, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context) ([]string, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, res.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrFetchFailed)
	}
	list := Parse(string(body), f.Delimiter, f.LetterCount)
	if len(list) == 0 {
		return nil, ErrEmptyList
	}
	return list, nil
}

// FileFetcher reads a word list from a local file, one entry per delimiter.
type FileFetcher struct {
	Path        string
	Delimiter   string
	LetterCount int
}

func (f *FileFetcher) Fetch(ctx context.Context) ([]string, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	delim := f.Delimiter
	if delim == "" {
		delim = "\n"
	}
	// tolerate CRLF files whatever the configured delimiter
	list := Parse(string(b), delim, f.LetterCount)
	if len(list) == 0 && delim != "\n" {
		list = Parse(string(b), "\n", f.LetterCount)
	}
	if len(list) == 0 {
		return nil, ErrEmptyList
	}
	return list, nil
}

// Embedded returns the list compiled into the binary, filtered to
// letterCount letters.
func Embedded(letterCount int) ([]string, error) {
	raw, err := assets.FallbackWords()
	if err != nil {
		return nil, err
	}
	list := normalize(raw, letterCount)
	if len(list) == 0 {
		return nil, ErrEmptyList
	}
	return list, nil
}
