// Package search implements the downstream "value search" collaborator
// (§6): given a request log and the visited-target list from a crawl
// result, it locates occurrences of the filled email and password
// under common encodings. It is not called by the core's own call
// graph (§1 explicitly lists it as an external collaborator) — it
// consumes the core's output after the fact.
package search

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/stevenwdv/leak-detect-sub000/model"
)

// Part names where a Match was found.
type Part string

const (
	PartURL    Part = "url"
	PartHeader Part = "header"
	PartBody   Part = "body"
)

// RequestRecord is one entry of the external request log the searcher
// consumes; it is produced by a separate network-capture collector,
// not by this core.
type RequestRecord struct {
	URL     string
	Headers map[string]string
	Body    string
}

// Match is one value occurrence (§6): requestIndex and
// visitedTargetIndex are mutually exclusive depending on which list
// the occurrence was found in.
type Match struct {
	RequestIndex      *int
	VisitedTargetIndex *int
	Part              Part
	Header            string
	Encodings         []string // outer to inner, e.g. ["uri", "uri", "identity"]
}

// encodingsOf returns value's representations, outermost-first, along
// with the label identifying each encoding step, mirroring
// pagescript.EncodedVariants' identity/single/double-URI/JSON-quote set.
func encodingsOf(value string) []struct {
	labels []string
	text   string
} {
	single := url.QueryEscape(value)
	double := url.QueryEscape(single)
	quoted, _ := json.Marshal(value)

	return []struct {
		labels []string
		text   string
	}{
		{[]string{"identity"}, value},
		{[]string{"uri"}, single},
		{[]string{"uri", "uri"}, double},
		{[]string{"json"}, string(quoted)},
	}
}

// Search scans requests and visited for the email and password values
// under each encoding, returning every match found.
func Search(requests []RequestRecord, visited []model.VisitedTarget, email, password string) []Match {
	var out []Match
	values := append(encodingsOf(email), encodingsOf(password)...)

	for i := range requests {
		idx := i
		req := requests[i]
		for _, v := range values {
			if v.text == "" {
				continue
			}
			if strings.Contains(req.URL, v.text) {
				out = append(out, Match{RequestIndex: &idx, Part: PartURL, Encodings: v.labels})
			}
			for name, val := range req.Headers {
				if strings.Contains(val, v.text) {
					out = append(out, Match{RequestIndex: &idx, Part: PartHeader, Header: name, Encodings: v.labels})
				}
			}
			if strings.Contains(req.Body, v.text) {
				out = append(out, Match{RequestIndex: &idx, Part: PartBody, Encodings: v.labels})
			}
		}
	}

	for i := range visited {
		idx := i
		for _, v := range values {
			if v.text != "" && strings.Contains(visited[i].URL, v.text) {
				out = append(out, Match{VisitedTargetIndex: &idx, Part: PartURL, Encodings: v.labels})
			}
		}
	}

	return out
}
