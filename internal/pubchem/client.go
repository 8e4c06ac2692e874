// Package pubchem looks up ingredient names in the PubChem PUG REST service.
package pubchem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the PUG REST root.
const DefaultBaseURL = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"

// DefaultRate is PubChem's published request limit per second.
const DefaultRate = 5

// DefaultTimeout bounds a single lookup.
const DefaultTimeout = 10 * time.Second

// ErrNotFound is returned when PubChem has no compound for a name.
var ErrNotFound = errors.New("compound not found")

// Compound is the first PubChem match for a name.
type Compound struct {
	CID              int    `json:"cid"`
	MolecularFormula string `json:"molecular_formula,omitempty"`
	IUPACName        string `json:"iupac_name,omitempty"`
	Title            string `json:"title,omitempty"`
	ImageURL         string `json:"image_url"`
}

// Client queries PUG REST by compound name.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another PUG REST root, such as a test
// server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRate limits outgoing requests to perSecond. Zero or less disables
// limiting.
func WithRate(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient returns a client for the public PubChem service.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(DefaultRate), DefaultRate),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ImageURL returns the 2D structure PNG address for cid.
func (c *Client) ImageURL(cid int) string {
	return c.baseURL + "/compound/cid/" + strconv.Itoa(cid) + "/PNG"
}

type propertyResponse struct {
	PropertyTable struct {
		Properties []struct {
			CID              int    `json:"CID"`
			MolecularFormula string `json:"MolecularFormula"`
			IUPACName        string `json:"IUPACName"`
			Title            string `json:"Title"`
		} `json:"Properties"`
	} `json:"PropertyTable"`
}

type faultResponse struct {
	Fault struct {
		Code    string `json:"Code"`
		Message string `json:"Message"`
	} `json:"Fault"`
}

// Lookup returns the first compound PubChem associates with name.
//
// ErrNotFound means PubChem answered and had no match. Any other error is a
// failure to get an answer.
func (c *Client) Lookup(ctx context.Context, name string) (*Compound, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNotFound
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	u := c.baseURL + "/compound/name/" + url.PathEscape(name) +
		"/property/MolecularFormula,IUPACName,Title/JSON"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pubchem request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read pubchem response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var fault faultResponse
		_ = json.Unmarshal(body, &fault)
		if resp.StatusCode == http.StatusNotFound || fault.Fault.Code == "PUGREST.NotFound" {
			return nil, ErrNotFound
		}
		if fault.Fault.Message != "" {
			return nil, fmt.Errorf("pubchem returned %s: %s", resp.Status, fault.Fault.Message)
		}
		return nil, fmt.Errorf("pubchem returned %s", resp.Status)
	}

	var pr propertyResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("failed to parse pubchem response: %w", err)
	}
	if len(pr.PropertyTable.Properties) == 0 {
		return nil, ErrNotFound
	}

	p := pr.PropertyTable.Properties[0]
	return &Compound{
		CID:              p.CID,
		MolecularFormula: p.MolecularFormula,
		IUPACName:        p.IUPACName,
		Title:            p.Title,
		ImageURL:         c.ImageURL(p.CID),
	}, nil
}
