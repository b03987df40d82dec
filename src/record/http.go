package record

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tracking_ivr/src/errs"
	"tracking_ivr/src/model"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
)

const defaultTimeout = 5 * time.Second

type HTTPOptions struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Client  *http.Client
	Logger  zerolog.Logger
}

// HTTPService calls GET {base}/records/{id} on the backend record API
type HTTPService struct {
	base    string
	token   string
	timeout time.Duration
	client  *http.Client
	log     zerolog.Logger
}

func NewHTTPService(opts HTTPOptions) *HTTPService {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	return &HTTPService{
		base:    strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		timeout: opts.Timeout,
		client:  opts.Client,
		log:     opts.Logger,
	}
}

func (s *HTTPService) Lookup(ctx context.Context, id string) (*model.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+"/records/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, errs.Wrap(errs.SystemError, "record: build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errs.Wrap(errs.ServiceUnavailable, "record: lookup timed out", err)
		}
		return nil, errs.Wrap(errs.NetworkError, "record: lookup failed", err)
	}
	defer resp.Body.Close()

	s.log.Debug().
		Str("record_id", id).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("record lookup")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errs.New(errs.RecordNotFound, "record: "+id)
	case resp.StatusCode >= 500:
		return nil, errs.New(errs.ServiceUnavailable, fmt.Sprintf("record: backend returned %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, errs.New(errs.SystemError, fmt.Sprintf("record: unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.NetworkError, "record: read body", err)
	}
	var rec model.Record
	if err := sonic.Unmarshal(body, &rec); err != nil {
		return nil, errs.Wrap(errs.SystemError, "record: malformed body", err)
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return normalize(&rec), nil
}
