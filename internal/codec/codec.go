// Package codec abstracts the wire encoding used between the homeroom client,
// the reference server and the live feed.
package codec

import "io"

type Encoder interface {
	Encode(v any) error
}

type Decoder interface {
	Decode(v any) error
}

type Marshaler interface {
	Marshal(v any) ([]byte, error)
	NewEncoder(w io.Writer) Encoder
}

type Unmarshaler interface {
	Unmarshal(data []byte, dst any) error
	NewDecoder(r io.Reader) Decoder
}

// Codec is both halves of an encoding.
type Codec interface {
	Marshaler
	Unmarshaler
	ContentType() string
}
