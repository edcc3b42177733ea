package storage

import (
	"fmt"
	"strconv"

	"runwizard/src/model"

	"github.com/bytedance/sonic"
)

// codec sorts map keys, so equal snapshots always encode the same way.
var codec = sonic.ConfigStd

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

// parseBool accepts only the two spellings the store writes.
func parseBool(s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("malformed flag %q", s)
}

func encodeParams(p model.FormSnapshot) (string, error) {
	data, err := codec.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal params: %w", err)
	}
	return string(data), nil
}

func decodeParams(s string) (model.FormSnapshot, error) {
	var p model.FormSnapshot
	if err := codec.UnmarshalFromString(s, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal params: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("malformed params %q", s)
	}
	return p, nil
}
