package codec

import (
	"io"

	"github.com/goccy/go-json"
)

const ContentTypeJSON = "application/json"

// JSON is the codec every homeroom endpoint speaks.
var JSON Codec = jsonCodec{}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) NewEncoder(w io.Writer) Encoder {
	return json.NewEncoder(w)
}

func (jsonCodec) Unmarshal(data []byte, dst any) error {
	return json.Unmarshal(data, dst)
}

func (jsonCodec) NewDecoder(r io.Reader) Decoder {
	return json.NewDecoder(r)
}

func (jsonCodec) ContentType() string {
	return ContentTypeJSON
}

// Convert re-encodes src into dst, e.g. a generic document into a typed
// record.
func Convert(src, dst any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
