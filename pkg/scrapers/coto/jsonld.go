package coto

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const inStockMarker = "InStock"

// inStock reports whether the structured-data blob advertises availability.
func inStock(jsonLD string) bool {
	return strings.Contains(jsonLD, inStockMarker)
}

type jsonLDNode struct {
	Brand json.RawMessage `json:"brand"`
	Graph []jsonLDNode    `json:"@graph"`
}

// jsonLDDocuments returns the JSON documents in blob. The detail payload
// usually carries bare JSON, but some pages embed the whole
// <script type="application/ld+json"> element instead.
func jsonLDDocuments(blob string) []string {
	blob = strings.TrimSpace(blob)
	if !strings.HasPrefix(blob, "<") {
		return []string{blob}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(blob))
	if err != nil {
		return nil
	}
	var docs []string
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		docs = append(docs, strings.TrimSpace(s.Text()))
	})
	return docs
}

// jsonLDBrand finds the first brand name in the structured data. The brand
// may be a plain string or a {"@type":"Brand","name":...} object.
func jsonLDBrand(blob string) (string, bool) {
	for _, doc := range jsonLDDocuments(blob) {
		var nodes []jsonLDNode
		if strings.HasPrefix(doc, "[") {
			if err := json.Unmarshal([]byte(doc), &nodes); err != nil {
				continue
			}
		} else {
			var node jsonLDNode
			if err := json.Unmarshal([]byte(doc), &node); err != nil {
				continue
			}
			nodes = []jsonLDNode{node}
		}
		if brand, ok := brandOf(nodes); ok {
			return brand, true
		}
	}
	return "", false
}

func brandOf(nodes []jsonLDNode) (string, bool) {
	for _, n := range nodes {
		if name, ok := brandName(n.Brand); ok {
			return name, true
		}
		if name, ok := brandOf(n.Graph); ok {
			return name, true
		}
	}
	return "", false
}

func brandName(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		name = strings.TrimSpace(name)
		return name, name != ""
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		obj.Name = strings.TrimSpace(obj.Name)
		return obj.Name, obj.Name != ""
	}
	return "", false
}
