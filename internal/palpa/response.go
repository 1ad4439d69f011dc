package palpa

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// StatusDeposit is the status value the API uses for "deposit found".
const StatusDeposit = 2

// Response is the decoded body of a deposit lookup.
type Response struct {
	Status          int     `json:"status"`
	ProductName     *string `json:"productName"`
	RecyclingSystem *string `json:"recyclingSystem"`
	Deposit         *string `json:"deposit"`

	// raw is the body the response was decoded from.
	raw json.RawMessage
}

// DepositFound reports whether the product carries a deposit.
func (r Response) DepositFound() bool {
	return r.Status == StatusDeposit
}

// Pretty returns the response as JSON indented with one space. A decoded
// response keeps the body as received, including fields it does not model.
func (r Response) Pretty() string {
	if len(r.raw) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, r.raw, "", " "); err == nil {
			return buf.String()
		}
	}
	data, err := json.MarshalIndent(r, "", " ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// wireResponse distinguishes a missing status from status 0.
type wireResponse struct {
	Status          *int    `json:"status"`
	ProductName     *string `json:"productName"`
	RecyclingSystem *string `json:"recyclingSystem"`
	Deposit         *string `json:"deposit"`
}

// Decode parses a lookup response body.
func Decode(body []byte) (Response, error) {
	var w wireResponse
	if err := json.Unmarshal(body, &w); err != nil {
		return Response{}, NewParseError("failed to parse JSON response", err)
	}
	if w.Status == nil {
		return Response{}, NewParseError("response has no status", nil)
	}
	return Response{
		Status:          *w.Status,
		ProductName:     w.ProductName,
		RecyclingSystem: w.RecyclingSystem,
		Deposit:         w.Deposit,
		raw:             json.RawMessage(bytes.TrimSpace(body)),
	}, nil
}

// StringPtr is a convenience for building responses by hand.
func StringPtr(s string) *string {
	return &s
}
