// Package kobo talks to a KoboToolbox deployment: posting finished
// submission documents to the data-collection endpoint and fetching
// form definitions from the management API.
package kobo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultKCServer is the public data-collection endpoint.
const DefaultKCServer = "https://kc.kobotoolbox.org"

const requestTimeout = 30 * time.Second

// Client issues authenticated requests against one deployment. The two
// base URLs cover the deployment's two halves: kc receives submissions,
// kf serves the management API.
type Client struct {
	kcBase string
	kfBase string
	token  string
	hc     *http.Client
	log    zerolog.Logger
}

// NewClient builds a Client. An empty kcServer means the public
// endpoint; an empty kfServer is derived from kcServer by the
// conventional host swap.
func NewClient(kcServer, kfServer, token string, log zerolog.Logger) *Client {
	if kcServer == "" {
		kcServer = DefaultKCServer
	}

	if kfServer == "" {
		kfServer = strings.Replace(kcServer, "kc.kobotoolbox.org", "kf.kobotoolbox.org", 1)
	}

	return &Client{
		kcBase: strings.TrimRight(kcServer, "/"),
		kfBase: strings.TrimRight(kfServer, "/"),
		token:  token,
		hc:     &http.Client{Timeout: requestTimeout},
		log:    log,
	}
}

// SubmitResult is the server's verdict on one submission.
type SubmitResult struct {
	StatusCode int
	Body       string
}

// Accepted reports whether the server stored the submission.
func (r *SubmitResult) Accepted() bool {
	return r.StatusCode == http.StatusOK || r.StatusCode == http.StatusCreated
}

// Submit posts one document to the submissions endpoint as a multipart
// file part named after the submission identifier. A server rejection
// comes back in the result, not as an error; an error means the request
// never completed.
func (c *Client) Submit(ctx context.Context, id, doc string) (*SubmitResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("xml_submission_file", id)
	if err != nil {
		return nil, fmt.Errorf("building submission request: %w", err)
	}

	if _, err := io.WriteString(part, doc); err != nil {
		return nil, fmt.Errorf("building submission request: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building submission request: %w", err)
	}

	url := c.kcBase + "/api/v1/submissions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("building submission request: %w", err)
	}

	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.log.Debug().Str("url", url).Str("id", id).Msg("submitting")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submitting %s: %w", id, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading submission response: %w", err)
	}

	return &SubmitResult{StatusCode: resp.StatusCode, Body: string(respBody)}, nil
}

// Submission pairs an identifier with its rendered document.
type Submission struct {
	ID  string
	Doc string
}

// SubmitOutcome is the result of one submission in a sequential run.
type SubmitOutcome struct {
	ID     string
	Result *SubmitResult
	Err    error
}

// Failed reports whether the submission did not make it to the server's
// records, either through a transport error or a rejection.
func (o *SubmitOutcome) Failed() bool {
	return o.Err != nil || !o.Result.Accepted()
}

// SubmitAll posts documents one at a time in the given order. With
// stopOnError true the run ends at the first failure. Outcomes cover
// the submissions attempted before any early stop.
func (c *Client) SubmitAll(ctx context.Context, subs []Submission, stopOnError bool) []SubmitOutcome {
	outcomes := make([]SubmitOutcome, 0, len(subs))

	for _, sub := range subs {
		if ctx.Err() != nil {
			break
		}

		res, err := c.Submit(ctx, sub.ID, sub.Doc)
		outcome := SubmitOutcome{ID: sub.ID, Result: res, Err: err}
		outcomes = append(outcomes, outcome)

		if outcome.Failed() {
			c.log.Error().Err(err).Str("id", sub.ID).Msg("submission failed")

			if stopOnError {
				break
			}

			continue
		}

		c.log.Info().Str("id", sub.ID).Int("status", res.StatusCode).Msg("submission accepted")
	}

	return outcomes
}

// FetchAsset retrieves a form definition from the management API.
func (c *Client) FetchAsset(ctx context.Context, formID string) (*Asset, error) {
	url := fmt.Sprintf("%s/api/v2/assets/%s.json", c.kfBase, formID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building asset request: %w", err)
	}

	req.Header.Set("Authorization", "Token "+c.token)

	c.log.Debug().Str("url", url).Msg("fetching asset")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching asset %s: %w", formID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading asset response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching asset %s: HTTP %d: %s", formID, resp.StatusCode, truncate(data, 500))
	}

	return ParseAsset(data)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}

	return string(b[:n])
}
