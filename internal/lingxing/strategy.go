package lingxing

import (
	"net/url"
	"strings"

	"lxsync/internal/signer"
)

// Strategy is one way of signing a request. Upstream has accepted different
// variants over time, so each endpoint carries an ordered list and moves to
// the next entry when the signature is rejected.
type Strategy struct {
	Name string
	// Sign returns the final query for the auth fields in query and the
	// request body (nil for GET).
	Sign func(query, body map[string]any, seed string) (url.Values, error)
}

// quoteSign matches how the signature was percent-encoded by hand before
// being passed as a query value, so the wire carries it encoded twice.
var quoteSign = strings.NewReplacer("+", "%2B", "=", "%3D")

var (
	// RawSign signs the query and sends the signature as is.
	RawSign = Strategy{Name: "raw-sign", Sign: signQuery(false)}

	// URLEncodedSign signs the query and sends a pre-encoded signature.
	URLEncodedSign = Strategy{Name: "urlencoded-sign", Sign: signQuery(true)}

	// QueryOnlySign signs only the query fields of a POST.
	QueryOnlySign = Strategy{Name: "query-only-sign", Sign: signQuery(false)}

	// QueryBodySign signs the query and body fields together, with body
	// booleans rendered as lower-case literals.
	QueryBodySign = Strategy{Name: "query-body-sign", Sign: signQueryAndBody}
)

// ShopStrategies and InventoryStrategies are tried in order.
var (
	ShopStrategies      = []Strategy{RawSign, URLEncodedSign}
	InventoryStrategies = []Strategy{QueryOnlySign, QueryBodySign}
)

func signQuery(encoded bool) func(query, body map[string]any, seed string) (url.Values, error) {
	return func(query, _ map[string]any, seed string) (url.Values, error) {
		sign, err := signer.Sign(query, seed)
		if err != nil {
			return nil, err
		}
		if encoded {
			sign = quoteSign.Replace(sign)
		}
		return withSign(query, sign), nil
	}
}

func signQueryAndBody(query, body map[string]any, seed string) (url.Values, error) {
	params := make(map[string]any, len(query)+len(body))
	for k, v := range query {
		params[k] = v
	}
	for k, v := range signer.NormalizeForSign(body) {
		params[k] = v
	}
	sign, err := signer.Sign(params, seed)
	if err != nil {
		return nil, err
	}
	return withSign(query, sign), nil
}

func withSign(query map[string]any, sign string) url.Values {
	q := make(url.Values, len(query)+1)
	for k, v := range query {
		q.Set(k, signer.Stringify(v))
	}
	q.Set("sign", sign)
	return q
}

func strategyNames(list []Strategy) []string {
	names := make([]string, len(list))
	for i, s := range list {
		names[i] = s.Name
	}
	return names
}
