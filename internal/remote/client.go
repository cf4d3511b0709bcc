// Package remote is the UI server's HTTP client for the data service.
//
// Client implements core.DataService. Non-2xx responses become
// *core.ServiceError carrying the service's own message, so the UI can show
// it verbatim. Calls are never retried.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/SensorDesk/internal/api"
	"github.com/JonMunkholm/SensorDesk/internal/core"
	"github.com/JonMunkholm/SensorDesk/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-resty/resty/v2"
)

// Options configures a Client.
type Options struct {
	BaseURL       string
	Timeout       time.Duration // Per call, except imports; 0 means 15s
	ImportTimeout time.Duration // Per import; 0 means 10m
	HTTPClient    *http.Client  // Optional transport override
}

// Client calls the data service over HTTP.
type Client struct {
	http          *resty.Client
	timeout       time.Duration
	importTimeout time.Duration
}

var _ core.DataService = (*Client)(nil)

// New creates a Client for the service at opts.BaseURL.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.ImportTimeout <= 0 {
		opts.ImportTimeout = 10 * time.Minute
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	return &Client{http: rc, timeout: opts.Timeout, importTimeout: opts.ImportTimeout}
}

// request starts a call bounded by the client timeout and tagged with the
// caller's request id.
func (c *Client) request(ctx context.Context, timeout time.Duration) (*resty.Request, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	req := c.http.R().SetContext(ctx)
	if id := middleware.GetReqID(ctx); id != "" {
		req.SetHeader(middleware.RequestIDHeader, id)
	}
	return req, cancel
}

func (c *Client) DefaultPageSize(ctx context.Context) (int, error) {
	var out api.PageSizeResponse
	req, cancel := c.request(ctx, c.timeout)
	defer cancel()

	resp, err := req.SetResult(&out).Get(api.PathPageSize)
	if err := check("get default page size", resp, err); err != nil {
		return 0, err
	}
	return out.PageSize, nil
}

func (c *Client) Page(ctx context.Context, pageSize, offset int) ([]core.SensorRecord, error) {
	var out api.SensorsResponse
	req, cancel := c.request(ctx, c.timeout)
	defer cancel()

	resp, err := req.
		SetQueryParam("limit", strconv.Itoa(pageSize)).
		SetQueryParam("offset", strconv.Itoa(offset)).
		SetResult(&out).
		Get(api.PathSensors)
	if err := check("list sensors", resp, err); err != nil {
		return nil, err
	}
	return out.Sensors, nil
}

func (c *Client) Count(ctx context.Context) (int, error) {
	var out api.CountResponse
	req, cancel := c.request(ctx, c.timeout)
	defer cancel()

	resp, err := req.SetResult(&out).Get(api.PathSensorCount)
	if err := check("count sensors", resp, err); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) DeleteSensor(ctx context.Context, sensorID string) error {
	req, cancel := c.request(ctx, c.timeout)
	defer cancel()

	resp, err := req.SetPathParam("id", sensorID).Delete(api.PathSensor)
	return check("delete sensor", resp, err)
}

func (c *Client) BaseStationName(ctx context.Context, baseStationID string) (string, error) {
	var out api.StationNameResponse
	req, cancel := c.request(ctx, c.timeout)
	defer cancel()

	resp, err := req.SetPathParam("id", baseStationID).SetResult(&out).Get(api.PathStationName)
	if err := check("get base station name", resp, err); err != nil {
		return "", err
	}
	return out.Name, nil
}

// ImportFile streams the file as a multipart upload.
func (c *Client) ImportFile(ctx context.Context, file core.UploadedFile) error {
	req, cancel := c.request(ctx, c.importTimeout)
	defer cancel()

	logging.FromContext(ctx).Debug("uploading import file", "file", file.Name, "size", file.Size)
	resp, err := req.
		SetFileReader(api.ImportFormField, file.Name, file.Content).
		Post(api.PathImports)
	return check("import file", resp, err)
}

func (c *Client) GenerateSampleData(ctx context.Context) error {
	req, cancel := c.request(ctx, c.timeout)
	defer cancel()

	resp, err := req.Post(api.PathSampleData)
	return check("generate sample data", resp, err)
}

func (c *Client) DeleteAllData(ctx context.Context) error {
	req, cancel := c.request(ctx, c.timeout)
	defer cancel()

	resp, err := req.Delete(api.PathData)
	return check("delete all data", resp, err)
}

// check converts a transport error or a non-2xx response into an error.
func check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsSuccess() {
		return nil
	}

	se := &core.ServiceError{Op: op, Status: resp.StatusCode()}
	var body api.ErrorResponse
	if json.Unmarshal(resp.Body(), &body) == nil && body.Error != "" {
		se.Message = body.Error
		se.Code = body.Code
	} else if text := strings.TrimSpace(string(resp.Body())); text != "" && len(text) <= 200 {
		se.Message = text
	} else {
		se.Message = http.StatusText(resp.StatusCode())
	}
	return se
}
