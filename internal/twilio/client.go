// Package twilio fetches month-to-date metered usage from the Twilio
// billing API. Everything here is best-effort: a failed or partial fetch
// yields whatever was summed before the failure, never an error.
package twilio

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// EnvAccountSID and EnvAuthToken gate the fetch: if either is unset
	// the client is disabled and no request is made.
	EnvAccountSID = "TWILIO_ACCOUNT_SID"
	EnvAuthToken  = "TWILIO_AUTH_TOKEN"

	defaultBaseURL = "https://api.twilio.com"
)

// Usage holds month-to-date totals for the two metered categories.
type Usage struct {
	SMSDollars    float64
	SMSCount      int64
	NumberDollars float64
	NumberCount   int64
}

// Client queries the Twilio usage records API.
type Client struct {
	accountSID string
	authToken  string
	baseURL    string
	httpClient *http.Client
	log        logrus.FieldLogger
}

// NewFromEnv builds a client from the credential environment variables.
// Missing credentials produce a disabled client, which is a supported
// state, not an error. An empty baseURL selects the production API.
func NewFromEnv(baseURL string, log logrus.FieldLogger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		accountSID: os.Getenv(EnvAccountSID),
		authToken:  os.Getenv(EnvAuthToken),
		baseURL:    baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// Enabled reports whether both credentials are present.
func (c *Client) Enabled() bool {
	return c.accountSID != "" && c.authToken != ""
}

// usageRecordsResponse represents the usage records API response body.
// Twilio returns price as a decimal string and count as an integer string.
type usageRecordsResponse struct {
	UsageRecords []struct {
		Price string `json:"price"`
		Count string `json:"count"`
	} `json:"usage_records"`
}

// MonthToDateUsage fetches SMS and phone-number usage for the current
// calendar month. A failure on the first request yields all zeros; a
// failure on the second keeps the first category's sums.
func (c *Client) MonthToDateUsage(now time.Time) Usage {
	var usage Usage

	if !c.Enabled() {
		c.log.Debug("twilio credentials not set, skipping fetch")
		return usage
	}

	start := now.Format("2006-01") + "-01"
	end := now.Format("2006-01-02")

	if err := c.fetchCategory("sms", start, end, &usage.SMSDollars, &usage.SMSCount); err != nil {
		c.log.WithError(err).Warn("twilio sms usage fetch failed")
		return usage
	}

	if err := c.fetchCategory("phonenumbers", start, end, &usage.NumberDollars, &usage.NumberCount); err != nil {
		c.log.WithError(err).Warn("twilio phone number usage fetch failed")
	}

	return usage
}

// fetchCategory sums price and count across one category's usage records.
func (c *Client) fetchCategory(category, start, end string, dollars *float64, count *int64) error {
	url := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Usage/Records.json?Category=%s&StartDate=%s&EndDate=%s",
		c.baseURL, c.accountSID, category, start, end)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("twilio returned status %d", resp.StatusCode)
	}

	var body usageRecordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}

	for _, rec := range body.UsageRecords {
		if price, err := strconv.ParseFloat(rec.Price, 64); err == nil {
			*dollars += price
		}
		if n, err := strconv.ParseInt(rec.Count, 10, 64); err == nil {
			*count += n
		}
	}

	return nil
}
