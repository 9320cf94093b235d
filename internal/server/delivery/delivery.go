// Package delivery fans sent messages out to recipient cells. Each
// recipient is attempted independently; a failed recipient records a
// failure result and never blocks the rest.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/zhenzou/executors"

	"github.com/looplj/cellhub/internal/log"
	"github.com/looplj/cellhub/internal/message"
	"github.com/looplj/cellhub/internal/pkg/xuri"
)

// Deliverer hands one message to one recipient cell.
type Deliverer interface {
	Deliver(ctx context.Context, recipientURL string, msg *message.Received) (code string, err error)
}

// HTTPDeliverer posts the message to the recipient's inbound port.
type HTTPDeliverer struct {
	client   *http.Client
	unitBase string
}

func NewHTTPDeliverer(unitBase string) *HTTPDeliverer {
	return &HTTPDeliverer{
		client:   &http.Client{Timeout: 30 * time.Second},
		unitBase: unitBase,
	}
}

func (d *HTTPDeliverer) Deliver(ctx context.Context, recipientURL string, msg *message.Received) (string, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	endpoint := xuri.EnsureTrailingSlash(xuri.ToHTTP(d.unitBase, recipientURL)) + "__message/port"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	code := strconv.Itoa(resp.StatusCode)
	if resp.StatusCode >= http.StatusBadRequest {
		return code, fmt.Errorf("recipient %s answered %s: %s", recipientURL, resp.Status, remoteReason(resp.Body))
	}

	return code, nil
}

// remoteReason pulls the platform error message out of the recipient's
// response body. The body shape is not guaranteed, gjson tolerates
// whatever came back.
func remoteReason(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "no response body"
	}

	if msg := gjson.GetBytes(raw, "Error.Message"); msg.Exists() {
		return msg.String()
	}

	if code := gjson.GetBytes(raw, "Error.Code"); code.Exists() {
		return code.String()
	}

	return "unrecognized response body"
}

// Dispatcher runs deliveries on a shared executor pool and collects one
// result per recipient.
type Dispatcher struct {
	executor  executors.ScheduledExecutor
	deliverer Deliverer
}

func NewDispatcher(executor executors.ScheduledExecutor, deliverer Deliverer) *Dispatcher {
	return &Dispatcher{executor: executor, deliverer: deliverer}
}

// Dispatch delivers msg to every recipient and waits for all attempts.
// Results keep recipient order.
func (d *Dispatcher) Dispatch(ctx context.Context, recipients []string, msg *message.Received) []message.Result {
	results := make([]message.Result, len(recipients))

	var wg sync.WaitGroup

	for i, to := range recipients {
		wg.Add(1)

		err := d.executor.ExecuteFunc(func(ctx context.Context) {
			defer wg.Done()

			results[i] = d.deliverOne(ctx, to, msg)
		})
		if err != nil {
			wg.Done()

			results[i] = message.Result{To: to, Code: "503", Reason: err.Error()}
		}
	}

	wg.Wait()

	return results
}

func (d *Dispatcher) deliverOne(ctx context.Context, to string, msg *message.Received) message.Result {
	code, err := d.deliverer.Deliver(ctx, to, msg)
	if err != nil {
		log.Warn(ctx, "message delivery failed",
			log.String("to", to), log.String("message_id", msg.ID), log.Cause(err))

		if code == "" {
			code = "500"
		}

		return message.Result{To: to, Code: code, Reason: err.Error()}
	}

	return message.Result{To: to, Code: code}
}
