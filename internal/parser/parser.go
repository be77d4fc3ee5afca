package parser

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"

	"github.com/mcncl/pytyper/internal/errors"
	"github.com/mcncl/pytyper/internal/models"
)

// Parse reads exactly one JSON value from reader. Whitespace after the value
// is allowed; a second value is ErrMultipleJSON.
func Parse(reader io.Reader) (models.Value, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return models.Value{}, errors.NewInputError("failed to read input", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return models.Value{}, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
	}

	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	raw, err := decodeRaw(dec)
	if err != nil {
		return models.Value{}, truncated(err)
	}

	if dec.More() {
		var trailing j.RawMessage
		if err := dec.Decode(&trailing); err == nil {
			return models.Value{}, errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleJSON)
		} else if !stderrors.Is(err, io.EOF) {
			return models.Value{}, wrapSyntaxError("invalid trailing data after first JSON value", err)
		}
	}
	if significant(raw) != significant(data) {
		return models.Value{}, errors.NewParsingError("invalid trailing data after first JSON value", errors.ErrInvalidJSON)
	}

	return decodeOrdered(raw)
}

// ParseString parses a single JSON value from a string
func ParseString(jsonString string) (models.Value, error) {
	if strings.TrimSpace(jsonString) == "" {
		return models.Value{}, errors.NewInputError("input string is empty", errors.ErrEmptyInput)
	}
	return Parse(strings.NewReader(jsonString))
}

// ParseStream reads a sequence of JSON values (concatenated or newline
// delimited) and returns one sample per value.
func ParseStream(reader io.Reader) ([]models.Value, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.NewInputError("failed to read input", err)
	}

	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var samples []models.Value
	consumed := 0
	for {
		raw, err := decodeRaw(dec)
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		consumed += significant(raw)
		v, err := decodeOrdered(raw)
		if err != nil {
			return nil, err
		}
		samples = append(samples, v)
	}

	if len(samples) == 0 && len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
	}
	if consumed != significant(data) {
		return nil, errors.NewParsingError("unexpected end of JSON input", errors.ErrInvalidJSON)
	}
	return samples, nil
}

// ParseStreamString parses a JSON value sequence from a string
func ParseStreamString(text string) ([]models.Value, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.NewInputError("input string is empty", errors.ErrEmptyInput)
	}
	return ParseStream(strings.NewReader(text))
}

// ReadFile returns the text of a JSON input file after checking that the
// path is usable and the file is not empty.
func ReadFile(filePath string) (string, error) {
	if strings.TrimSpace(filePath) == "" {
		return "", errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewInputError(fmt.Sprintf("file '%s' not found", filePath), errors.ErrFileNotFound)
		}
		return "", errors.NewInputError(fmt.Sprintf("failed to open file '%s'", filePath), err)
	}
	if len(data) == 0 {
		return "", errors.NewInputError(fmt.Sprintf("input file '%s' is empty", filePath), errors.ErrFileEmpty)
	}
	return string(data), nil
}

func decodeRaw(dec *j.Decoder) (j.RawMessage, error) {
	var raw j.RawMessage
	if err := dec.Decode(&raw); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, wrapSyntaxError("failed to decode JSON", err)
	}
	if !j.Valid(raw) {
		return nil, errors.NewParsingError("malformed JSON value", errors.ErrInvalidJSON)
	}
	return raw, nil
}

// truncated maps a bare EOF on non-blank input to a parse error.
func truncated(err error) error {
	if stderrors.Is(err, io.EOF) {
		return errors.NewParsingError("unexpected end of JSON input", errors.ErrInvalidJSON)
	}
	return err
}

// significant counts the bytes of b that are not JSON whitespace. A raw
// value is a verbatim slice of its source, so the counts of every decoded
// value must add up to the count of the whole input.
func significant(b []byte) int {
	n := 0
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
		default:
			n++
		}
	}
	return n
}

func wrapSyntaxError(message string, err error) error {
	var syntaxError *j.SyntaxError
	if stderrors.As(err, &syntaxError) {
		return errors.NewParsingError(
			fmt.Sprintf("JSON syntax error at offset %d", syntaxError.Offset),
			errors.ErrInvalidJSON,
		)
	}
	if stderrors.Is(err, io.ErrUnexpectedEOF) {
		return errors.NewParsingError("unexpected end of JSON input", errors.ErrInvalidJSON)
	}
	return errors.NewParsingError(message, fmt.Errorf("%w: %v", errors.ErrInvalidJSON, err))
}

// decodeOrdered walks a validated value token by token so object keys keep
// their document order.
func decodeOrdered(raw []byte) (models.Value, error) {
	dec := j.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	r := &tokenReader{dec: dec}
	v, err := r.value()
	if err != nil {
		return models.Value{}, wrapSyntaxError("failed to read JSON tokens", err)
	}
	return v, nil
}

type tokenReader struct {
	dec *j.Decoder
}

func (r *tokenReader) value() (models.Value, error) {
	tok, err := r.dec.Token()
	if err != nil {
		return models.Value{}, err
	}

	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			return r.object()
		case '[':
			return r.array()
		}
		return models.Value{}, fmt.Errorf("unexpected delimiter %q", rune(v))
	case string:
		return models.String(v), nil
	case bool:
		return models.Bool(v), nil
	case j.Number:
		return number(string(v)), nil
	case float64:
		return number(strconv.FormatFloat(v, 'g', -1, 64)), nil
	case nil:
		return models.Null(), nil
	}
	return models.Value{}, fmt.Errorf("unexpected token %v", tok)
}

func (r *tokenReader) object() (models.Value, error) {
	obj := models.Value{Kind: models.KindObject}
	index := make(map[string]int)

	for r.dec.More() {
		tok, err := r.dec.Token()
		if err != nil {
			return models.Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return models.Value{}, fmt.Errorf("object key must be a string, got %v", tok)
		}
		val, err := r.value()
		if err != nil {
			return models.Value{}, err
		}
		// Duplicate keys: last value wins, first position is kept.
		if i, seen := index[key]; seen {
			obj.Members[i].Value = val
			continue
		}
		index[key] = len(obj.Members)
		obj.Members = append(obj.Members, models.Member{Key: key, Value: val})
	}

	if _, err := r.dec.Token(); err != nil {
		return models.Value{}, err
	}
	return obj, nil
}

func (r *tokenReader) array() (models.Value, error) {
	arr := models.Value{Kind: models.KindArray}
	for r.dec.More() {
		val, err := r.value()
		if err != nil {
			return models.Value{}, err
		}
		arr.Elems = append(arr.Elems, val)
	}
	if _, err := r.dec.Token(); err != nil {
		return models.Value{}, err
	}
	return arr, nil
}

func number(lit string) models.Value {
	if strings.ContainsAny(lit, ".eE") {
		return models.Float(lit)
	}
	return models.Int(lit)
}
