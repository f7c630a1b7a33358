package htmlutil

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"
)

// InputParser extracts the name -> value pairs of every <input> element in a
// document. Inputs without a name are skipped, an input without a value maps
// to "" and the last of several inputs sharing a name wins.
type InputParser interface {
	ParseInputs(ctx context.Context, body []byte) (map[string]string, error)
}

// GoqueryInputParser builds the full document tree and selects inputs from it.
type GoqueryInputParser struct{}

func (GoqueryInputParser) ParseInputs(ctx context.Context, body []byte) (map[string]string, error) {
	_, span := tracer.Start(ctx, "goquery:ParseInputs")
	defer span.End()

	reader, err := NewReader(body, "")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode document")
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse document")
		return nil, err
	}

	inputs := make(map[string]string)
	doc.Find("input").Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		inputs[name] = s.AttrOr("value", "")
	})
	span.SetAttributes(attribute.Int("input_count", len(inputs)))
	return inputs, nil
}

// TokenizerInputParser streams the document through the html tokenizer
// without building a tree.
type TokenizerInputParser struct{}

func (TokenizerInputParser) ParseInputs(ctx context.Context, body []byte) (map[string]string, error) {
	_, span := tracer.Start(ctx, "tokenizer:ParseInputs")
	defer span.End()

	reader, err := NewReader(body, "")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode document")
		return nil, err
	}

	inputs := make(map[string]string)
	tokenizer := html.NewTokenizer(reader)
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			err := tokenizer.Err()
			if errors.Is(err, io.EOF) {
				break
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to tokenize document")
			return nil, err
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		token := tokenizer.Token()
		if token.Data != "input" {
			continue
		}

		name := ""
		value := ""
		for _, attr := range token.Attr {
			switch strings.ToLower(attr.Key) {
			case "name":
				name = attr.Val
			case "value":
				value = attr.Val
			}
		}
		if name == "" {
			continue
		}
		inputs[name] = value
	}
	span.SetAttributes(attribute.Int("input_count", len(inputs)))
	return inputs, nil
}
