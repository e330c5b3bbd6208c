package models

import "encoding/json"

// Prediction is one disease label with its predicted probability, as
// produced by the external predictor.
type Prediction struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Attachment references an externally stored medical file. The upload
// itself happens outside this service; only the reference tuple is kept.
type Attachment struct {
	StorageRef  string `json:"storageRef"`
	DisplayName string `json:"displayName"`
	MimeType    string `json:"mimeType"`
}

// encodeJSON marshals a value for storage in a json column. Nil slices
// encode as an empty JSON array so columns never hold SQL NULL-ish blanks.
func encodeJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	s := string(data)
	if s == "null" {
		s = "[]"
	}
	return s, nil
}

// decodeJSON unmarshals a json column value, treating empty as empty list.
func decodeJSON(s string, v interface{}) error {
	if s == "" {
		s = "[]"
	}
	return json.Unmarshal([]byte(s), v)
}

func decodeStrings(s string) ([]string, error) {
	var out []string
	if err := decodeJSON(s, &out); err != nil {
		return nil, err
	}
	return out, nil
}
