package persist

import (
	"encoding/json"
)

// Codec converts artifacts to and from bytes and names their file extension.
type Codec interface {
	Extension() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

// JSONCodec encodes artifacts as JSON and decodes them into a T.
type JSONCodec[T any] struct {
	Ext string
}

// JSON returns a codec with extension ext that decodes into T.
func JSON[T any](ext string) JSONCodec[T] {
	return JSONCodec[T]{Ext: ext}
}

func (c JSONCodec[T]) Extension() string {
	if c.Ext == "" {
		return "json"
	}
	return c.Ext
}

func (c JSONCodec[T]) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c JSONCodec[T]) Unmarshal(data []byte) (any, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
