package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/url"
	"strconv"
)

// Notification is a parsed inbound webhook: flat string fields plus the
// signature that came with them.
type Notification struct {
	Fields    map[string]string
	Signature string
}

func (n *Notification) Get(key string) string { return n.Fields[key] }

// ParseNotification reads a form-encoded or JSON webhook body. The signature
// is taken from the form field when present, otherwise from the JSON body.
func ParseNotification(contentType string, body []byte) (*Notification, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)

	var form url.Values
	var jsonFields map[string]string
	var err error
	if mediaType == "application/json" || (mediaType == "" && looksLikeJSON(body)) {
		jsonFields, err = parseJSONFields(body)
	} else {
		form, err = url.ParseQuery(string(body))
	}
	if err != nil {
		return nil, err
	}

	n := &Notification{Fields: map[string]string{}}
	if form != nil {
		for k, vs := range form {
			if len(vs) > 0 {
				n.Fields[k] = vs[0]
			}
		}
	} else {
		n.Fields = jsonFields
	}

	n.Signature = form.Get(SignatureField)
	if n.Signature == "" {
		n.Signature = jsonFields[SignatureField]
	}
	delete(n.Fields, SignatureField)
	return n, nil
}

func looksLikeJSON(body []byte) bool {
	b := bytes.TrimSpace(body)
	return len(b) > 0 && b[0] == '{'
}

// parseJSONFields flattens the top level of a JSON object into strings.
// Numbers keep their literal text so the signed value is reproduced exactly.
func parseJSONFields(body []byte) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}

	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case nil:
			fields[k] = ""
		case string:
			fields[k] = t
		case json.Number:
			fields[k] = t.String()
		case bool:
			fields[k] = strconv.FormatBool(t)
		default:
			b, err := json.Marshal(t)
			if err != nil {
				return nil, err
			}
			fields[k] = string(b)
		}
	}
	return fields, nil
}
