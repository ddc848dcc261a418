package anchors

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-rpn/util"
)

const (
	fetchTimeout  = 30 * time.Second
	maxRetryCount = 3
	retryDelay    = 100 * time.Millisecond
)

// Load reads an anchor grid from a resource locator and validates it.
//
// Supported locators are plain filesystem paths, file:// URLs, and
// http(s):// URLs. The resource must contain the flat row-major (N, 4)
// grid as little-endian float32 values. Any failure is fatal for layer
// construction, so errors carry the locator for diagnosis.
//
// Arguments:
//   - locator: Path or URL of the anchor blob.
//
// Returns:
//   - The validated store.
//   - An error if fetching, decoding, or validation fails.
func Load(locator string) (*Store, error) {
	var (
		raw []byte
		err error
	)

	switch {
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		raw, err = fetch(locator)
	case strings.HasPrefix(locator, "file://"):
		raw, err = os.ReadFile(strings.TrimPrefix(locator, "file://"))
	default:
		raw, err = os.ReadFile(locator)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load anchor resource %s", locator)
	}

	data, err := util.Float32sFromBytes(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "decode anchor resource %s", locator)
	}

	store, err := FromSlice(data)
	if err != nil {
		return nil, errors.Wrapf(err, "validate anchor resource %s", locator)
	}
	return store, nil
}

// fetch retrieves the blob over HTTP with a bounded timeout and retries.
func fetch(url string) ([]byte, error) {
	client := resty.New().
		SetTimeout(fetchTimeout).
		SetTransport(&http.Transport{
			DisableKeepAlives: true,
		}).
		SetRetryCount(maxRetryCount).
		SetRetryWaitTime(retryDelay)

	resp, err := client.R().Get(url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, errors.Errorf("unexpected status %s", resp.Status())
	}
	return resp.Body(), nil
}
