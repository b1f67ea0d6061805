// Package series turns raw vendor chart payloads into canonical,
// gap-filled, split/dividend-adjusted daily bar sequences.
package series

import (
	"encoding/json"
	"fmt"

	"stock_go/internal/domain"
)

// minPayloadBytes rejects bodies too short to hold even a one-sample
// chart document.
const minPayloadBytes = 64

// chartResponse mirrors the vendor chart document: a result envelope
// holding parallel arrays of timestamps and quote fields, plus an
// optional adjusted-close series. Null samples decode to nil pointers,
// so field validation is an explicit branch instead of runtime type
// inspection.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Currency string `json:"currency"`
		Symbol   string `json:"symbol"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote    []quoteArrays   `json:"quote"`
		AdjClose []adjCloseArray `json:"adjclose"`
	} `json:"indicators"`
}

type quoteArrays struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type adjCloseArray struct {
	AdjClose []*float64 `json:"adjclose"`
}

// decode parses and structurally validates a raw payload.
func decode(body []byte) (*chartResult, error) {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", domain.ErrInvalidPayload,
			resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: empty result", domain.ErrInvalidPayload)
	}

	res := &resp.Chart.Result[0]
	if len(res.Timestamp) == 0 {
		return nil, fmt.Errorf("%w: no timestamps", domain.ErrInvalidPayload)
	}
	if len(res.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: no quote arrays", domain.ErrInvalidPayload)
	}
	return res, nil
}

// CheckPayload reports whether a stored or fetched body is usable: it
// must be non-empty, above the size floor, and decode to at least one
// data point. The tiered store runs this before trusting any tier.
func CheckPayload(body []byte) error {
	if len(body) == 0 {
		return fmt.Errorf("%w: empty body", domain.ErrInvalidPayload)
	}
	if len(body) < minPayloadBytes {
		return fmt.Errorf("%w: %d bytes is below the %d byte minimum",
			domain.ErrInvalidPayload, len(body), minPayloadBytes)
	}
	_, err := decode(body)
	return err
}
