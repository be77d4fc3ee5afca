// Package query selects inference samples from JSON input with jq
// expressions.
package query

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"

	j "github.com/goccy/go-json"
	"github.com/itchyny/gojq"

	"github.com/mcncl/pytyper/internal/errors"
	"github.com/mcncl/pytyper/internal/models"
	"github.com/mcncl/pytyper/internal/parser"
)

// Query is a compiled jq expression.
type Query struct {
	expr string
	code *gojq.Code
}

// Compile parses and compiles expr.
func Compile(expr string) (*Query, error) {
	q, err := gojq.Parse(expr)
	if err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("invalid jq expression %q: %v", expr, err), errors.ErrInvalidQuery)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("failed to compile jq expression %q: %v", expr, err), errors.ErrInvalidQuery)
	}
	return &Query{expr: expr, code: code}, nil
}

// Select runs the query over every JSON value in raw and returns each
// produced value as one sample. Object keys of the results come back in
// alphabetical order. Numbers the expression passes through keep their
// literal text; computed numbers are re-rendered by jq.
func (q *Query) Select(raw []byte) ([]models.Value, error) {
	inputs, err := decodeAll(raw)
	if err != nil {
		return nil, err
	}

	var samples []models.Value
	for _, input := range inputs {
		iter := q.code.Run(input)
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if err, isErr := v.(error); isErr {
				return nil, errors.NewInputError(fmt.Sprintf("jq expression %q failed: %v", q.expr, err), errors.ErrInvalidQuery)
			}
			sample, err := toValue(v)
			if err != nil {
				return nil, err
			}
			samples = append(samples, sample)
		}
	}
	return samples, nil
}

// Select compiles expr and runs it over raw.
func Select(raw []byte, expr string) ([]models.Value, error) {
	q, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	return q.Select(raw)
}

func decodeAll(raw []byte) ([]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.NewInputError("no JSON input to query", errors.ErrEmptyInput)
	}

	dec := j.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var inputs []any
	for {
		var v any
		err := dec.Decode(&v)
		if stderrors.Is(err, io.EOF) {
			return inputs, nil
		}
		if err != nil {
			return nil, errors.NewParsingError("invalid JSON input", fmt.Errorf("%w: %v", errors.ErrInvalidJSON, err))
		}
		inputs = append(inputs, v)
	}
}

func toValue(v any) (models.Value, error) {
	data, err := j.Marshal(v)
	if err != nil {
		return models.Value{}, errors.NewInputError("jq produced a value that is not JSON", err)
	}
	return parser.ParseString(string(data))
}
