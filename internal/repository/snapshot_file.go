package repository

import (
	"encoding/json"
	"fmt"

	"github.com/aionanalytics/Aion-sub001/pkg/util"
)

// WriteJSONAtomic writes v as indented JSON to path via temp file and rename.
func WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return util.WriteFileAtomic(path, data, 0o644)
}
